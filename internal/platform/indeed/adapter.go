// Package indeed drives Indeed's in-page apply workflow through the shared
// quickapply engine.
package indeed

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

// Adapter implements platform.Adapter for Indeed. Not re-entrant; one
// surface, one in-flight flow.
type Adapter struct {
	surface *browser.Surface
	engine  *quickapply.Engine

	mu   sync.Mutex
	form *quickapply.RodForm
	busy bool
}

// New creates an Indeed adapter on the given surface.
func New(surface *browser.Surface, engineCfg quickapply.Config) *Adapter {
	return &Adapter{surface: surface, engine: quickapply.NewEngine(engineCfg)}
}

// Platform identifies this adapter.
func (a *Adapter) Platform() domain.Platform { return domain.PlatformIndeed }

func profile() quickapply.SiteProfile {
	return quickapply.SiteProfile{
		RootSelector:  "div.ia-BasePage",
		ReadySelector: "div.ia-BasePage form",
		BackSelector:  `div.ia-BasePage button[data-testid="back-button"]`,
		SuccessTexts:  []string{"application submitted", "you applied"},
		SuccessSelector: `div[data-testid="post-apply-header"]`,
		ErrorSelector: `div.ia-BasePage [data-testid="input-error-message"]`,
		DismissSelectors: []string{
			`button[aria-label="Close"]`,
			`button[data-testid="confirm-exit-button"]`,
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

// PrepareApplication opens the apply entry point and surveys the form.
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

	entry := a.surface.Element(ctx, "#indeedApplyButton, button#applyButtonLinkContainer", 5*time.Second)
	if entry == nil {
		session.Fail("apply entry point not found")
		return session
	}
	if err := a.surface.Click(ctx, entry); err != nil {
		session.Fail(fmt.Sprintf("could not open apply flow: %v", err))
		return session
	}
	session.Append(domain.NewAction(domain.ActionNavigate, "opened apply flow", true))

	form := quickapply.NewRodForm(a.surface, profile())
	a.mu.Lock()
	a.form = form
	a.mu.Unlock()

	a.engine.Prepare(ctx, session, form, progress)
	return session
}

// SubmitApplication fills and submits a session this adapter prepared.
// Caller precondition: session.Status == Approved.
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

// CancelApplication dismisses the apply flow. Best-effort, idempotent,
// never panics.
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

func searchURL(filter domain.SearchFilter) string {
	q := url.Values{}
	q.Set("q", filter.Keywords)
	if filter.Location != "" {
		q.Set("l", filter.Location)
	}
	if filter.Remote {
		q.Set("sc", "0kf:attr(DSQF7);")
	}
	return "https://www.indeed.com/jobs?" + q.Encode()
}

const cardsJS = `
() => {
	const out = [];
	for (const card of document.querySelectorAll('div.job_seen_beacon')) {
		const title = card.querySelector('h2.jobTitle a, h2.jobTitle span');
		const link = card.querySelector('h2.jobTitle a');
		const company = card.querySelector('[data-testid="company-name"]');
		const location = card.querySelector('[data-testid="text-location"]');
		out.push({
			id: link ? (link.getAttribute('data-jk') || '') : '',
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

// SearchJobs scrapes one page of search results for the filter.
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

	res, err := page.Context(ctx).Evaluate(&rod.EvalOptions{JS: cardsJS, ByValue: true, AwaitPromise: true})
	if err != nil {
		return nil, fmt.Errorf("scrape result cards: %w", err)
	}
	var cards []card
	if res != nil && !res.Value.Nil() {
		raw, err := res.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &cards); err != nil {
			return nil, fmt.Errorf("decode result cards: %w", err)
		}
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
		if c.Title == "" || c.URL == "" {
			continue
		}
		id := c.ID
		if id == "" {
			id = c.URL
		}
		jobs = append(jobs, domain.Job{
			Platform:   domain.PlatformIndeed,
			ExternalID: id,
			Title:      c.Title,
			Company:    c.Company,
			Location:   c.Location,
			URL:        c.URL,
		})
		if progress != nil {
			progress(fmt.Sprintf("collected %d jobs", len(jobs)), 10+90*(i+1)/max)
		}
	}
	logging.SearchDebug("indeed search returned %d jobs", len(jobs))
	return jobs, nil
}

const detailsJS = `
() => {
	const pick = (sel) => {
		const el = document.querySelector(sel);
		return el ? el.innerText.trim() : '';
	};
	const desc = document.querySelector('#jobDescriptionText');
	return {
		title: pick('h1.jobsearch-JobInfoHeader-title, h1'),
		company: pick('[data-testid="inlineHeader-companyName"]'),
		location: pick('[data-testid="inlineHeader-companyLocation"]'),
		descriptionHTML: desc ? desc.innerHTML : '',
		quickApply: !!document.querySelector('#indeedApplyButton')
	};
}
`

// FetchJobDetails scrapes the job page, returning nil on any failure.
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

	res, err := page.Context(ctx).Evaluate(&rod.EvalOptions{JS: detailsJS, ByValue: true, AwaitPromise: true})
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
			Platform: domain.PlatformIndeed,
			Title:    d.Title,
			Company:  d.Company,
			Location: d.Location,
			URL:      jobURL,
		},
		Description: htmlutil.Flatten(d.DescriptionHTML),
		QuickApply:  d.QuickApply,
	}
}
