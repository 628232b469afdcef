package quickapply

import (
	"context"
	"fmt"
	"strings"
	"time"

	"applypilot/internal/browser"
	"applypilot/internal/domain"
	"applypilot/internal/inspect"
	"applypilot/internal/logging"
)

// SiteProfile carries the per-site selectors and marker texts the shared
// form implementation needs. Adapters own their profile; nothing outside the
// adapter interprets the selectors.
type SiteProfile struct {
	// RootSelector scopes detection to the application modal/form.
	RootSelector string
	// ReadySelector signals the application surface has rendered.
	ReadySelector string
	// MessageSelector locates the cover message field, when the site has one.
	MessageSelector string
	// BackSelector locates the control that returns to the previous page.
	BackSelector string
	// SuccessTexts are body-text markers of a successful submission.
	SuccessTexts []string
	// SuccessSelector, when present, marks success structurally.
	SuccessSelector string
	// ErrorSelector locates the form's own validation-error text.
	ErrorSelector string
	// DismissSelectors are clicked in order to close the surface, including
	// any discard-confirmation dialog.
	DismissSelectors []string
	// MinLabelLength filters decorative field groups.
	MinLabelLength int
}

// RodForm is the rod-backed FormSurface. One instance serves one prepare or
// submit flow on one surface.
type RodForm struct {
	surface *browser.Surface
	profile SiteProfile

	pagesAdvanced int
	lastNav       inspect.Control
}

// NewRodForm binds a form to the adapter's surface and profile.
func NewRodForm(surface *browser.Surface, profile SiteProfile) *RodForm {
	return &RodForm{surface: surface, profile: profile}
}

// WaitReady polls for the profile's ready selector within the bounded wait.
func (f *RodForm) WaitReady(ctx context.Context, wait time.Duration) bool {
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return false
		}
		if el := f.surface.Element(ctx, f.profile.ReadySelector, 500*time.Millisecond); el != nil {
			return true
		}
	}
	return false
}

// InspectPage extracts and classifies the current page's field groups.
func (f *RodForm) InspectPage(ctx context.Context, pageIndex int) ([]*domain.Question, error) {
	page := f.surface.Page()
	if page == nil {
		return nil, fmt.Errorf("surface not open")
	}
	groups, err := inspect.ExtractGroups(ctx, page, f.profile.RootSelector)
	if err != nil {
		return nil, err
	}
	return inspect.BuildQuestions(groups, pageIndex, f.profile.MinLabelLength), nil
}

// Navigation probes and caches the current page's navigation control.
func (f *RodForm) Navigation(ctx context.Context) (inspect.NavKind, error) {
	page := f.surface.Page()
	if page == nil {
		return inspect.NavNone, fmt.Errorf("surface not open")
	}
	control, err := inspect.ProbeNavigation(ctx, page, f.profile.RootSelector)
	if err != nil {
		return inspect.NavNone, err
	}
	f.lastNav = control
	return control.Kind, nil
}

func (f *RodForm) clickNav(ctx context.Context, want ...inspect.NavKind) error {
	ok := false
	for _, k := range want {
		if f.lastNav.Kind == k {
			ok = true
		}
	}
	if !ok || f.lastNav.Selector == "" {
		return fmt.Errorf("no %v control cached", want)
	}
	el := f.surface.Element(ctx, f.lastNav.Selector, 2*time.Second)
	if el == nil {
		return fmt.Errorf("navigation control vanished: %s", f.lastNav.Selector)
	}
	return f.surface.Click(ctx, el)
}

// Advance clicks the cached Next/Review control and waits for the page to
// settle.
func (f *RodForm) Advance(ctx context.Context) error {
	if err := f.clickNav(ctx, inspect.NavNext, inspect.NavReview); err != nil {
		return err
	}
	f.pagesAdvanced++
	if page := f.surface.Page(); page != nil {
		_ = page.Context(ctx).WaitDOMStable(500*time.Millisecond, 0.1)
	}
	return nil
}

// Rewind clicks the back control once per advanced page, returning the form
// to its first page after the survey pass.
func (f *RodForm) Rewind(ctx context.Context) error {
	if f.pagesAdvanced == 0 {
		return nil
	}
	if f.profile.BackSelector == "" {
		return fmt.Errorf("form advanced %d pages but site has no back control", f.pagesAdvanced)
	}
	for f.pagesAdvanced > 0 {
		el := f.surface.Element(ctx, f.profile.BackSelector, 2*time.Second)
		if el == nil {
			return fmt.Errorf("back control not found with %d pages to rewind", f.pagesAdvanced)
		}
		if err := f.surface.Click(ctx, el); err != nil {
			return fmt.Errorf("rewind click: %w", err)
		}
		f.pagesAdvanced--
		if page := f.surface.Page(); page != nil {
			_ = page.Context(ctx).WaitDOMStable(500*time.Millisecond, 0.1)
		}
	}
	return nil
}

// Fill writes one answer using the operation appropriate to the question
// type. File uploads are skipped intentionally; unknown fields never reach
// here.
func (f *RodForm) Fill(ctx context.Context, q *domain.Question) error {
	group, ok := q.FieldRef.(inspect.FieldGroup)
	if !ok {
		return fmt.Errorf("question %q has no usable field reference", q.Text)
	}

	switch q.Type {
	case domain.QuestionShortText, domain.QuestionMultiLine, domain.QuestionNumeric,
		domain.QuestionPhone, domain.QuestionEmail, domain.QuestionDate:
		return f.fillText(ctx, group, q)
	case domain.QuestionSelect:
		return f.fillSelect(ctx, group, q.Answer)
	case domain.QuestionChoice, domain.QuestionCheckbox:
		return f.fillChoice(ctx, group, q.Answer, false)
	case domain.QuestionYesNo:
		return f.fillChoice(ctx, group, q.Answer, true)
	case domain.QuestionFileUpload:
		logging.SubmitDebug("skipping file upload %q", q.Text)
		return nil
	default:
		return nil
	}
}

func (f *RodForm) fillText(ctx context.Context, group inspect.FieldGroup, q *domain.Question) error {
	el := f.surface.Element(ctx, group.Selector, 2*time.Second)
	if el == nil {
		return fmt.Errorf("field not found: %s", group.Selector)
	}
	answer := q.Answer
	if q.MaxLength > 0 && len(answer) > q.MaxLength {
		answer = answer[:q.MaxLength]
	}
	return f.surface.TypeText(ctx, el, answer)
}

func (f *RodForm) fillSelect(ctx context.Context, group inspect.FieldGroup, answer string) error {
	el := f.surface.Element(ctx, group.Selector, 2*time.Second)
	if el == nil {
		return fmt.Errorf("select not found: %s", group.Selector)
	}
	option := matchOption(group.Options, answer)
	if option == "" {
		return fmt.Errorf("no option matching %q", answer)
	}
	return f.surface.SelectOption(ctx, el, option)
}

// fillChoice clicks the radio/checkbox option matching the answer. For
// boolean groups the answer is matched as affirmative/negative text rather
// than against the literal option labels.
func (f *RodForm) fillChoice(ctx context.Context, group inspect.FieldGroup, answer string, boolean bool) error {
	els, err := f.surface.Elements(ctx, group.Selector)
	if err != nil || len(els) == 0 {
		return fmt.Errorf("choice group not found: %s", group.Selector)
	}

	for _, el := range els {
		labelRes, err := el.Eval(`() => (this.labels && this.labels[0] && this.labels[0].innerText) || this.value || ''`)
		if err != nil {
			continue
		}
		label := strings.TrimSpace(labelRes.Value.Str())

		matched := false
		if boolean {
			matched = (inspect.IsAffirmative(answer) && inspect.IsAffirmative(label)) ||
				(inspect.IsNegative(answer) && inspect.IsNegative(label))
		} else {
			matched = equalsOrContains(label, answer)
		}
		if matched {
			return f.surface.Click(ctx, el)
		}
	}
	return fmt.Errorf("no choice option matching %q", answer)
}

// FillMessage types the application message into the profile's message
// field, when the current page has one.
func (f *RodForm) FillMessage(ctx context.Context, message string) (bool, error) {
	if f.profile.MessageSelector == "" {
		return true, nil
	}
	el := f.surface.Element(ctx, f.profile.MessageSelector, time.Second)
	if el == nil {
		return false, nil
	}
	if err := f.surface.TypeText(ctx, el, message); err != nil {
		return false, err
	}
	return true, nil
}

// Submit clicks the cached Submit control.
func (f *RodForm) Submit(ctx context.Context) error {
	return f.clickNav(ctx, inspect.NavSubmit)
}

// Outcome polls for a success marker vs the form's validation-error marker
// within the bounded confirmation window.
func (f *RodForm) Outcome(ctx context.Context, wait time.Duration) Outcome {
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		if f.profile.ErrorSelector != "" {
			if el := f.surface.Element(ctx, f.profile.ErrorSelector, 300*time.Millisecond); el != nil {
				text, _ := el.Text()
				return Outcome{Kind: OutcomeValidationError, Message: strings.TrimSpace(text)}
			}
		}
		if f.profile.SuccessSelector != "" {
			if el := f.surface.Element(ctx, f.profile.SuccessSelector, 300*time.Millisecond); el != nil {
				return Outcome{Kind: OutcomeSuccess}
			}
		}
		if len(f.profile.SuccessTexts) > 0 {
			if page := f.surface.Page(); page != nil {
				if body, err := page.Context(ctx).Element("body"); err == nil {
					text, _ := body.Text()
					lower := strings.ToLower(text)
					for _, marker := range f.profile.SuccessTexts {
						if strings.Contains(lower, strings.ToLower(marker)) {
							return Outcome{Kind: OutcomeSuccess}
						}
					}
				}
			}
		}
	}
	return Outcome{Kind: OutcomeUnknown}
}

// Dismiss closes the application surface and any discard-confirmation dialog
// behind it. Best-effort and guaranteed not to panic.
func (f *RodForm) Dismiss() {
	defer func() {
		if r := recover(); r != nil {
			logging.BrowserWarn("dismiss recovered: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, sel := range f.profile.DismissSelectors {
		el := f.surface.Element(ctx, sel, time.Second)
		if el == nil {
			continue
		}
		if err := f.surface.Click(ctx, el); err != nil {
			logging.BrowserWarn("dismiss click %s: %v", sel, err)
		}
	}
}

func matchOption(options []string, answer string) string {
	for _, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), strings.TrimSpace(answer)) {
			return opt
		}
	}
	for _, opt := range options {
		if equalsOrContains(opt, answer) {
			return opt
		}
	}
	return ""
}

func equalsOrContains(option, answer string) bool {
	o := strings.ToLower(strings.TrimSpace(option))
	a := strings.ToLower(strings.TrimSpace(answer))
	if o == "" || a == "" {
		return false
	}
	return o == a || strings.Contains(o, a) || strings.Contains(a, o)
}
