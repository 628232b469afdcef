// Package quickapply implements the shared prepare/submit automation engine
// that every in-page application adapter drives through a FormSurface. The
// engine owns the safety-critical sequencing: survey without filling during
// Prepare, fill-then-submit only from an Approved session, and never honor
// cancellation past the irreversible submit click.
package quickapply

import (
	"context"
	"fmt"
	"time"

	"applypilot/internal/domain"
	"applypilot/internal/inspect"
	"applypilot/internal/logging"
	"applypilot/internal/platform"
)

// OutcomeKind classifies what the confirmation probe saw after submit.
type OutcomeKind string

const (
	OutcomeSuccess         OutcomeKind = "success"
	OutcomeValidationError OutcomeKind = "validation_error"
	OutcomeUnknown         OutcomeKind = "unknown"
)

// Outcome is the post-submit determination, with the form's own validation
// text when one was detected.
type Outcome struct {
	Kind    OutcomeKind
	Message string
}

// FormSurface abstracts the rendered application form the engine drives.
// The rod-backed implementation lives in form.go; tests substitute stubs.
type FormSurface interface {
	// WaitReady blocks until the application surface has rendered or the
	// bounded wait expires.
	WaitReady(ctx context.Context, wait time.Duration) bool

	// InspectPage detects and classifies the current page's questions.
	InspectPage(ctx context.Context, pageIndex int) ([]*domain.Question, error)

	// Navigation classifies the current page's navigation control.
	Navigation(ctx context.Context) (inspect.NavKind, error)

	// Advance clicks the detected Next/Review control.
	Advance(ctx context.Context) error

	// Rewind returns the form to its first page after the survey pass.
	Rewind(ctx context.Context) error

	// Fill writes one question's answer with a type-appropriate operation.
	Fill(ctx context.Context, q *domain.Question) error

	// FillMessage writes the application message into the form's cover
	// message field if it has one. Returns false when no such field exists.
	FillMessage(ctx context.Context, message string) (bool, error)

	// Submit clicks the detected Submit control.
	Submit(ctx context.Context) error

	// Outcome inspects for a success marker vs a validation-error marker
	// within the bounded confirmation window.
	Outcome(ctx context.Context, wait time.Duration) Outcome

	// Dismiss closes the application surface. Best-effort, non-panicking.
	Dismiss()
}

// Config bounds the engine's loops and waits.
type Config struct {
	MaxPages    int
	FormWait    time.Duration
	ConfirmWait time.Duration
}

// DefaultConfig returns the stock bounds.
func DefaultConfig() Config {
	return Config{
		MaxPages:    10,
		FormWait:    10 * time.Second,
		ConfirmWait: 8 * time.Second,
	}
}

// Engine sequences one prepare or submit flow over a FormSurface.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given bounds.
func NewEngine(cfg Config) *Engine {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	return &Engine{cfg: cfg}
}

func report(progress platform.ProgressFunc, stage string, percent int) {
	if progress != nil {
		progress(stage, percent)
	}
}

// Prepare surveys the application form page by page without filling
// anything, advancing through Next/Review controls until a Submit control is
// found or the page cap is reached, then rewinds to the first page. On
// success the session is ReadyForReview; every failure, including a panic
// from the automation binding, lands in Failed with a reason.
func (e *Engine) Prepare(ctx context.Context, session *domain.Session, form FormSurface, progress platform.ProgressFunc) {
	defer func() {
		if r := recover(); r != nil {
			logging.SubmitWarn("prepare panic recovered for %s: %v", session.ID, r)
			session.Fail(fmt.Sprintf("preparation fault: %v", r))
		}
	}()

	report(progress, "waiting for application form", 10)
	if !form.WaitReady(ctx, e.cfg.FormWait) {
		session.Fail("application form did not render within the bounded wait")
		return
	}

	pages := 0
	for page := 0; page < e.cfg.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			session.Fail("preparation cancelled")
			return
		}

		questions, err := form.InspectPage(ctx, page)
		if err != nil {
			session.Fail(fmt.Sprintf("field detection failed on page %d: %v", page, err))
			return
		}
		session.Questions = append(session.Questions, questions...)
		session.Append(domain.NewAction(domain.ActionDetect,
			fmt.Sprintf("detected %d questions on page %d", len(questions), page), true))
		pages = page + 1
		report(progress, fmt.Sprintf("surveyed page %d", page+1), 10+80*pages/e.cfg.MaxPages)

		nav, err := form.Navigation(ctx)
		if err != nil {
			session.Fail(fmt.Sprintf("navigation probe failed on page %d: %v", page, err))
			return
		}
		if nav == inspect.NavSubmit || nav == inspect.NavNone {
			break
		}

		if err := form.Advance(ctx); err != nil {
			session.Fail(fmt.Sprintf("could not advance past page %d: %v", page, err))
			return
		}
		session.Append(domain.NewAction(domain.ActionAdvance,
			fmt.Sprintf("advanced past page %d", page), true))
	}

	session.TotalPages = pages
	session.CurrentPage = 0

	if err := form.Rewind(ctx); err != nil {
		session.Fail(fmt.Sprintf("could not rewind to first page: %v", err))
		return
	}

	if err := session.Transition(domain.StatusReadyForReview); err != nil {
		session.Fail(err.Error())
		return
	}
	report(progress, "ready for review", 100)
	logging.SessionInfo("session %s prepared: %d questions across %d pages",
		session.ID, len(session.Questions), pages)
}

// Submit fills and submits an Approved session. Invoked on a session in any
// other status it is a rejected no-op. Cancellation is honored up to the
// point before the submit click fires; past that the flow runs to a terminal
// determination. Returns true only on a detected success marker.
func (e *Engine) Submit(ctx context.Context, session *domain.Session, form FormSurface, progress platform.ProgressFunc) bool {
	if session.Status != domain.StatusApproved {
		logging.SubmitWarn("submit rejected for %s: status %s", session.ID, session.Status)
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			logging.SubmitWarn("submit panic recovered for %s: %v", session.ID, r)
			session.Fail(fmt.Sprintf("submission fault: %v", r))
		}
	}()

	if err := session.Transition(domain.StatusSubmitting); err != nil {
		session.Fail(err.Error())
		return false
	}

	messageDelivered := session.Message == ""
	pages := session.TotalPages
	if pages <= 0 {
		pages = 1
	}

	for page := 0; page < pages; page++ {
		if err := ctx.Err(); err != nil {
			session.Fail("submission cancelled before submit")
			return false
		}
		session.CurrentPage = page
		report(progress, fmt.Sprintf("filling page %d", page+1), 10+60*page/pages)

		if !messageDelivered {
			filled, err := form.FillMessage(ctx, session.Message)
			if err != nil {
				session.Fail(fmt.Sprintf("message fill failed on page %d: %v", page, err))
				return false
			}
			messageDelivered = filled
		}

		for _, q := range session.QuestionsOnPage(page) {
			if q.IsPreFilled || q.Answer == "" || !q.Type.ForcedFill() {
				continue
			}
			start := time.Now()
			err := form.Fill(ctx, q)
			act := domain.NewAction(domain.ActionFill,
				fmt.Sprintf("filled %q", q.Text), err == nil)
			act.Duration = time.Since(start)
			if err != nil {
				act.Details = err.Error()
			}
			session.Append(act)
			if err != nil {
				session.Fail(fmt.Sprintf("fill failed for %q: %v", q.Text, err))
				return false
			}
		}

		nav, err := form.Navigation(ctx)
		if err != nil {
			session.Fail(fmt.Sprintf("navigation probe failed on page %d: %v", page, err))
			return false
		}

		switch nav {
		case inspect.NavSubmit:
			return e.finalize(ctx, session, form, progress)
		case inspect.NavNext, inspect.NavReview:
			if err := form.Advance(ctx); err != nil {
				session.Fail(fmt.Sprintf("could not advance past page %d: %v", page, err))
				return false
			}
			session.Append(domain.NewAction(domain.ActionAdvance,
				fmt.Sprintf("advanced past page %d", page), true))
		case inspect.NavNone:
			session.Fail(fmt.Sprintf("no navigation control found on page %d", page))
			return false
		}
	}

	// A review step can push the submit control one page past the surveyed
	// count; probe once more before giving up.
	nav, err := form.Navigation(ctx)
	if err == nil && nav == inspect.NavSubmit {
		return e.finalize(ctx, session, form, progress)
	}
	session.Fail("submit control not found after final page")
	return false
}

// finalize performs the irreversible submit click and the confirmation
// probe. Cancellation is deliberately ignored from here on: the click may
// already have landed, so the flow must reach a terminal determination.
func (e *Engine) finalize(ctx context.Context, session *domain.Session, form FormSurface, progress platform.ProgressFunc) bool {
	nctx := context.WithoutCancel(ctx)

	report(progress, "submitting", 80)
	start := time.Now()
	err := form.Submit(nctx)
	act := domain.NewAction(domain.ActionSubmit, "clicked submit", err == nil)
	act.Duration = time.Since(start)
	if err != nil {
		act.Details = err.Error()
	}
	session.Append(act)
	if err != nil {
		session.Fail(fmt.Sprintf("submit click failed: %v", err))
		return false
	}

	outcome := form.Outcome(nctx, e.cfg.ConfirmWait)
	switch outcome.Kind {
	case OutcomeSuccess:
		if err := session.Transition(domain.StatusSubmitted); err != nil {
			session.Fail(err.Error())
			return false
		}
		report(progress, "submitted", 100)
		logging.SessionInfo("session %s submitted", session.ID)
		return true
	case OutcomeValidationError:
		session.Fail(fmt.Sprintf("form rejected submission: %s", outcome.Message))
		return false
	default:
		session.Fail("no submission confirmation detected within the bounded wait")
		return false
	}
}
