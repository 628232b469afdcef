// Package linkedin drives LinkedIn's in-page Easy Apply workflow through the
// shared quickapply engine.
package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/go-rod/rod"

	"applypilot/internal/browser"
	"applypilot/internal/domain"
	"applypilot/internal/htmlutil"
	"applypilot/internal/logging"
	"applypilot/internal/platform"
	"applypilot/internal/platform/quickapply"
)

// Adapter implements platform.Adapter for LinkedIn. One instance owns one
// automation surface and one in-flight flow; it is not re-entrant.
type Adapter struct {
	surface *browser.Surface
	engine  *quickapply.Engine

	mu   sync.Mutex
	form *quickapply.RodForm
	busy bool
}

// New creates a LinkedIn adapter on the given surface.
func New(surface *browser.Surface, engineCfg quickapply.Config) *Adapter {
	return &Adapter{
		surface: surface,
		engine:  quickapply.NewEngine(engineCfg),
	}
}

// Platform identifies this adapter.
func (a *Adapter) Platform() domain.Platform { return domain.PlatformLinkedIn }

func profile() quickapply.SiteProfile {
	return quickapply.SiteProfile{
		RootSelector:    "div.jobs-easy-apply-modal",
		ReadySelector:   "div.jobs-easy-apply-modal form",
		MessageSelector: `div.jobs-easy-apply-modal textarea[id*="message"]`,
		BackSelector:    `div.jobs-easy-apply-modal button[aria-label="Back"]`,
		SuccessTexts:    []string{"application was sent", "your application has been sent"},
		ErrorSelector:   "div.jobs-easy-apply-modal .artdeco-inline-feedback--error",
		DismissSelectors: []string{
			`button[aria-label="Dismiss"]`,
			`button[data-control-name="discard_application_confirm_btn"]`,
			`div.artdeco-modal button[data-test-dialog-secondary-btn]`,
		},
	}
}

func (a *Adapter) acquire() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.busy {
		return false
	}
	a.busy = true
	return true
}

func (a *Adapter) release() {
	a.mu.Lock()
	a.busy = false
	a.mu.Unlock()
}

// PrepareApplication opens the Easy Apply entry point for the job and
// surveys the application form without filling anything.
func (a *Adapter) PrepareApplication(ctx context.Context, job domain.Job, progress platform.ProgressFunc) *domain.Session {
	session := domain.NewSession(job)

	if !a.acquire() {
		session.Fail("adapter busy with another flow")
		return session
	}
	defer a.release()

	defer func() {
		if r := recover(); r != nil {
			logging.SessionWarn("prepare panic recovered for %s: %v", session.ID, r)
			session.Fail(fmt.Sprintf("preparation fault: %v", r))
		}
	}()

	if progress != nil {
		progress("opening job page", 5)
	}
	if err := a.surface.Open(ctx, job.URL); err != nil {
		session.Fail(fmt.Sprintf("could not open job page: %v", err))
		return session
	}
	session.Append(domain.NewAction(domain.ActionNavigate, "opened job page", true))

	entry := a.surface.Element(ctx, "button.jobs-apply-button", 5*time.Second)
	if entry == nil {
		session.Fail("Easy Apply entry point not found")
		return session
	}
	if err := a.surface.Click(ctx, entry); err != nil {
		session.Fail(fmt.Sprintf("could not open Easy Apply: %v", err))
		return session
	}
	session.Append(domain.NewAction(domain.ActionNavigate, "opened Easy Apply", true))

	form := quickapply.NewRodForm(a.surface, profile())
	a.mu.Lock()
	a.form = form
	a.mu.Unlock()

	a.engine.Prepare(ctx, session, form, progress)
	return session
}

// SubmitApplication fills and submits a session this adapter prepared. The
// caller must only invoke this when session.Status == Approved.
func (a *Adapter) SubmitApplication(ctx context.Context, session *domain.Session, progress platform.ProgressFunc) bool {
	if !a.acquire() {
		logging.SubmitWarn("submit rejected for %s: adapter busy", session.ID)
		return false
	}
	defer a.release()

	a.mu.Lock()
	form := a.form
	a.mu.Unlock()
	if form == nil {
		session.Fail("no prepared application form on this adapter")
		return false
	}
	return a.engine.Submit(ctx, session, form, progress)
}

// CancelApplication dismisses the Easy Apply modal and its discard
// confirmation. Best-effort, idempotent, never panics, and does not touch
// session status.
func (a *Adapter) CancelApplication() {
	defer func() {
		if r := recover(); r != nil {
			logging.BrowserWarn("cancel recovered: %v", r)
		}
	}()

	a.mu.Lock()
	form := a.form
	a.form = nil
	a.mu.Unlock()
	if form != nil {
		form.Dismiss()
	}
}

// searchURL builds the Easy Apply filtered search URL.
func searchURL(filter domain.SearchFilter) string {
	q := url.Values{}
	q.Set("keywords", filter.Keywords)
	if filter.Location != "" {
		q.Set("location", filter.Location)
	}
	if filter.Remote {
		q.Set("f_WT", "2")
	}
	q.Set("f_AL", "true") // Easy Apply only
	return "https://www.linkedin.com/jobs/search/?" + q.Encode()
}

const cardsJS = `
() => {
	const cards = document.querySelectorAll('div.job-card-container[data-job-id]');
	const out = [];
	for (const card of cards) {
		const title = card.querySelector('.job-card-list__title, a.job-card-container__link');
		const company = card.querySelector('.job-card-container__primary-description, .artdeco-entity-lockup__subtitle');
		const location = card.querySelector('.job-card-container__metadata-item');
		const link = card.querySelector('a.job-card-container__link');
		out.push({
			id: card.getAttribute('data-job-id') || '',
			title: title ? title.innerText.trim() : '',
			company: company ? company.innerText.trim() : '',
			location: location ? location.innerText.trim() : '',
			url: link ? link.href : ''
		});
	}
	return out;
}
`

type card struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	URL      string `json:"url"`
}

// SearchJobs scrapes the Easy Apply search results for the filter.
func (a *Adapter) SearchJobs(ctx context.Context, filter domain.SearchFilter, progress platform.ProgressFunc) ([]domain.Job, error) {
	if !a.acquire() {
		return nil, fmt.Errorf("adapter busy with another flow")
	}
	defer a.release()

	if progress != nil {
		progress("opening search results", 10)
	}
	if err := a.surface.Open(ctx, searchURL(filter)); err != nil {
		return nil, fmt.Errorf("open search: %w", err)
	}

	page := a.surface.Page()
	if page == nil {
		return nil, fmt.Errorf("surface not open")
	}
	_ = page.Context(ctx).WaitDOMStable(time.Second, 0.1)

	cards, err := scrapeCards(ctx, page)
	if err != nil {
		return nil, err
	}

	max := filter.MaxResults
	if max <= 0 || max > len(cards) {
		max = len(cards)
	}

	jobs := make([]domain.Job, 0, max)
	for i, c := range cards[:max] {
		if ctx.Err() != nil {
			return jobs, ctx.Err()
		}
		if c.ID == "" || c.Title == "" {
			continue
		}
		jobs = append(jobs, domain.Job{
			Platform:   domain.PlatformLinkedIn,
			ExternalID: c.ID,
			Title:      c.Title,
			Company:    c.Company,
			Location:   c.Location,
			URL:        c.URL,
		})
		if progress != nil {
			progress(fmt.Sprintf("collected %d jobs", len(jobs)), 10+90*(i+1)/max)
		}
	}
	logging.SearchDebug("linkedin search returned %d jobs", len(jobs))
	return jobs, nil
}

func scrapeCards(ctx context.Context, page *rod.Page) ([]card, error) {
	res, err := page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           cardsJS,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return nil, fmt.Errorf("scrape result cards: %w", err)
	}
	if res == nil || res.Value.Nil() {
		return nil, nil
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var cards []card
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, fmt.Errorf("decode result cards: %w", err)
	}
	return cards, nil
}

const detailsJS = `
() => {
	const pick = (sel) => {
		const el = document.querySelector(sel);
		return el ? el.innerText.trim() : '';
	};
	const desc = document.querySelector('.jobs-description__content, #job-details');
	return {
		title: pick('.job-details-jobs-unified-top-card__job-title, h1'),
		company: pick('.job-details-jobs-unified-top-card__company-name'),
		location: pick('.job-details-jobs-unified-top-card__primary-description-container'),
		descriptionHTML: desc ? desc.innerHTML : '',
		quickApply: !!document.querySelector('button.jobs-apply-button')
	};
}
`

// FetchJobDetails scrapes the job page, returning nil on any navigation or
// parse failure rather than an error.
func (a *Adapter) FetchJobDetails(ctx context.Context, jobURL string) *domain.JobDetails {
	if !a.acquire() {
		return nil
	}
	defer a.release()

	if err := a.surface.Open(ctx, jobURL); err != nil {
		logging.SearchDebug("fetch details: %v", err)
		return nil
	}
	page := a.surface.Page()
	if page == nil {
		return nil
	}

	res, err := page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           detailsJS,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil || res == nil || res.Value.Nil() {
		return nil
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil
	}
	var d struct {
		Title           string `json:"title"`
		Company         string `json:"company"`
		Location        string `json:"location"`
		DescriptionHTML string `json:"descriptionHTML"`
		QuickApply      bool   `json:"quickApply"`
	}
	if err := json.Unmarshal(raw, &d); err != nil || d.Title == "" {
		return nil
	}

	return &domain.JobDetails{
		Job: domain.Job{
			Platform: domain.PlatformLinkedIn,
			Title:    d.Title,
			Company:  d.Company,
			Location: d.Location,
			URL:      jobURL,
		},
		Description: htmlutil.Flatten(d.DescriptionHTML),
		QuickApply:  d.QuickApply,
	}
}
