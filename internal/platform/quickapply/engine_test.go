package quickapply

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"applypilot/internal/domain"
	"applypilot/internal/inspect"
)

// stubForm scripts a FormSurface: per-page questions and navigation kinds,
// plus a recorded trace of everything the engine did.
type stubForm struct {
	ready     bool
	pages     [][]*domain.Question
	navs      []inspect.NavKind
	navAlways inspect.NavKind // used when navs is empty

	outcome Outcome

	page       int
	filled     []string
	messages   []string
	advances   int
	rewinds    int
	submits    int
	dismissed  int
	submitSeen chan struct{}
}

func (s *stubForm) WaitReady(ctx context.Context, wait time.Duration) bool { return s.ready }

func (s *stubForm) InspectPage(ctx context.Context, pageIndex int) ([]*domain.Question, error) {
	if s.page < len(s.pages) {
		return s.pages[s.page], nil
	}
	return nil, nil
}

func (s *stubForm) Navigation(ctx context.Context) (inspect.NavKind, error) {
	if len(s.navs) == 0 {
		return s.navAlways, nil
	}
	if s.page < len(s.navs) {
		return s.navs[s.page], nil
	}
	return s.navs[len(s.navs)-1], nil
}

func (s *stubForm) Advance(ctx context.Context) error {
	s.advances++
	s.page++
	return nil
}

func (s *stubForm) Rewind(ctx context.Context) error {
	s.rewinds++
	s.page = 0
	return nil
}

func (s *stubForm) Fill(ctx context.Context, q *domain.Question) error {
	s.filled = append(s.filled, q.Text)
	return nil
}

func (s *stubForm) FillMessage(ctx context.Context, message string) (bool, error) {
	s.messages = append(s.messages, message)
	return true, nil
}

func (s *stubForm) Submit(ctx context.Context) error {
	s.submits++
	if s.submitSeen != nil {
		close(s.submitSeen)
	}
	return nil
}

func (s *stubForm) Outcome(ctx context.Context, wait time.Duration) Outcome { return s.outcome }

func (s *stubForm) Dismiss() { s.dismissed++ }

func newTestSession() *domain.Session {
	return domain.NewSession(domain.Job{
		Platform:   domain.PlatformLinkedIn,
		ExternalID: "job-1",
		Title:      "Go Engineer",
		Company:    "Acme",
	})
}

func TestPrepareTwoPageForm(t *testing.T) {
	form := &stubForm{
		ready: true,
		pages: [][]*domain.Question{
			{{ID: "q1", Text: "Years of experience?", Type: domain.QuestionShortText, Required: true, PageIndex: 0}},
			{{ID: "q2", Text: "Are you authorized to work?", Type: domain.QuestionYesNo, PageIndex: 1}},
		},
		navs: []inspect.NavKind{inspect.NavNext, inspect.NavSubmit},
	}
	s := newTestSession()

	NewEngine(DefaultConfig()).Prepare(context.Background(), s, form, nil)

	require.Equal(t, domain.StatusReadyForReview, s.Status)
	require.Len(t, s.Questions, 2)
	assert.Equal(t, domain.QuestionShortText, s.Questions[0].Type)
	assert.Equal(t, 0, s.Questions[0].PageIndex)
	assert.Equal(t, domain.QuestionYesNo, s.Questions[1].Type)
	assert.Equal(t, 1, s.Questions[1].PageIndex)
	assert.Equal(t, 2, s.TotalPages)
	assert.Equal(t, 0, s.CurrentPage)

	// Survey pass never fills anything and rewinds exactly once.
	assert.Empty(t, form.filled)
	assert.Equal(t, 1, form.rewinds)
}

func TestPrepareFormNeverRenders(t *testing.T) {
	form := &stubForm{ready: false}
	s := newTestSession()

	NewEngine(Config{MaxPages: 10, FormWait: time.Millisecond}).Prepare(context.Background(), s, form, nil)

	assert.Equal(t, domain.StatusFailed, s.Status)
	assert.NotEmpty(t, s.ErrorMessage)
}

func TestPreparePageCapTerminates(t *testing.T) {
	// Navigation always reports Next: the loop must stop at the cap rather
	// than spin forever.
	form := &stubForm{ready: true, navAlways: inspect.NavNext}
	s := newTestSession()

	NewEngine(Config{MaxPages: 10, FormWait: time.Second}).Prepare(context.Background(), s, form, nil)

	assert.Equal(t, 10, s.TotalPages)
	assert.Equal(t, 10, form.advances)
	assert.Equal(t, domain.StatusReadyForReview, s.Status)
}

func TestPrepareCancellation(t *testing.T) {
	form := &stubForm{ready: true, navAlways: inspect.NavNext}
	s := newTestSession()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewEngine(DefaultConfig()).Prepare(ctx, s, form, nil)

	assert.Equal(t, domain.StatusFailed, s.Status)
	assert.Contains(t, s.ErrorMessage, "cancelled")
}

func approvedTwoPageSession(t *testing.T) *domain.Session {
	t.Helper()
	s := newTestSession()
	s.Questions = []*domain.Question{
		{ID: "q1", Text: "Years of experience?", Type: domain.QuestionShortText, PageIndex: 0, Answer: "5 years"},
		{ID: "q2", Text: "Are you authorized to work?", Type: domain.QuestionYesNo, PageIndex: 1, Answer: "Yes"},
	}
	s.TotalPages = 2
	require.NoError(t, s.Transition(domain.StatusReadyForReview))
	require.NoError(t, s.SetMessage("Hello"))
	require.NoError(t, s.Approve())
	return s
}

func TestSubmitHappyPath(t *testing.T) {
	form := &stubForm{
		ready:   true,
		navs:    []inspect.NavKind{inspect.NavNext, inspect.NavSubmit},
		outcome: Outcome{Kind: OutcomeSuccess},
	}
	s := approvedTwoPageSession(t)

	ok := NewEngine(DefaultConfig()).Submit(context.Background(), s, form, nil)

	require.True(t, ok)
	assert.Equal(t, domain.StatusSubmitted, s.Status)
	assert.False(t, s.CompletedAt.IsZero())
	assert.Equal(t, []string{"Years of experience?", "Are you authorized to work?"}, form.filled)
	assert.Equal(t, []string{"Hello"}, form.messages)
	assert.Equal(t, 1, form.submits)

	var fills, submits int
	for _, a := range s.Actions {
		switch a.Type {
		case domain.ActionFill:
			fills++
		case domain.ActionSubmit:
			submits++
		}
	}
	assert.Equal(t, 2, fills)
	assert.Equal(t, 1, submits)
}

func TestSubmitRejectedWhenNotApproved(t *testing.T) {
	for _, status := range []domain.Status{domain.StatusPending, domain.StatusReadyForReview} {
		t.Run(string(status), func(t *testing.T) {
			s := newTestSession()
			if status == domain.StatusReadyForReview {
				require.NoError(t, s.Transition(domain.StatusReadyForReview))
			}
			form := &stubForm{ready: true, navAlways: inspect.NavSubmit, outcome: Outcome{Kind: OutcomeSuccess}}

			ok := NewEngine(DefaultConfig()).Submit(context.Background(), s, form, nil)

			assert.False(t, ok)
			assert.Equal(t, status, s.Status)
			assert.Zero(t, form.submits)
			assert.Empty(t, form.filled)
		})
	}
}

func TestSubmitSkipsPreFilledAndUnanswered(t *testing.T) {
	s := newTestSession()
	s.Questions = []*domain.Question{
		{ID: "q1", Text: "Name", Type: domain.QuestionShortText, PageIndex: 0, Answer: "Ada"},
		{ID: "q2", Text: "Phone", Type: domain.QuestionPhone, PageIndex: 0, IsPreFilled: true, PreFilledValue: "555", Answer: "999"},
		{ID: "q3", Text: "Unanswered", Type: domain.QuestionShortText, PageIndex: 0},
		{ID: "q4", Text: "Resume", Type: domain.QuestionFileUpload, PageIndex: 0, Answer: "cv.pdf"},
	}
	s.TotalPages = 1
	require.NoError(t, s.Transition(domain.StatusReadyForReview))
	require.NoError(t, s.Approve())

	form := &stubForm{ready: true, navAlways: inspect.NavSubmit, outcome: Outcome{Kind: OutcomeSuccess}}
	ok := NewEngine(DefaultConfig()).Submit(context.Background(), s, form, nil)

	require.True(t, ok)
	assert.Equal(t, []string{"Name"}, form.filled)
}

func TestSubmitValidationError(t *testing.T) {
	form := &stubForm{
		ready:   true,
		navs:    []inspect.NavKind{inspect.NavNext, inspect.NavSubmit},
		outcome: Outcome{Kind: OutcomeValidationError, Message: "Phone number is required"},
	}
	s := approvedTwoPageSession(t)

	ok := NewEngine(DefaultConfig()).Submit(context.Background(), s, form, nil)

	require.False(t, ok)
	assert.Equal(t, domain.StatusFailed, s.Status)
	assert.Contains(t, s.ErrorMessage, "Phone number is required")
}

func TestSubmitNoConfirmationDetected(t *testing.T) {
	form := &stubForm{
		ready:   true,
		navAlways: inspect.NavSubmit,
		outcome: Outcome{Kind: OutcomeUnknown},
	}
	s := approvedTwoPageSession(t)
	s.TotalPages = 1

	ok := NewEngine(DefaultConfig()).Submit(context.Background(), s, form, nil)

	require.False(t, ok)
	assert.Equal(t, domain.StatusFailed, s.Status)
	assert.Contains(t, s.ErrorMessage, "confirmation")
}

func TestSubmitIgnoresCancellationPastTheClick(t *testing.T) {
	// Cancel the context before Submit runs: the fill loop would abort, but
	// once the engine reaches the submit click it must run to a terminal
	// determination regardless.
	form := &stubForm{ready: true, navAlways: inspect.NavSubmit, outcome: Outcome{Kind: OutcomeSuccess}}
	s := newTestSession()
	s.TotalPages = 1
	require.NoError(t, s.Transition(domain.StatusReadyForReview))
	require.NoError(t, s.Approve())

	ctx, cancel := context.WithCancel(context.Background())

	// Uncancelled through the fill loop, cancelled during finalize: the
	// stub's Submit cancels, then Outcome still runs and succeeds.
	form.submitSeen = make(chan struct{})
	go func() {
		<-form.submitSeen
		cancel()
	}()

	ok := NewEngine(DefaultConfig()).Submit(ctx, s, form, nil)
	require.True(t, ok)
	assert.Equal(t, domain.StatusSubmitted, s.Status)
}

func TestSubmitCancelledBeforeClick(t *testing.T) {
	form := &stubForm{ready: true, navAlways: inspect.NavNext}
	s := approvedTwoPageSession(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok := NewEngine(DefaultConfig()).Submit(ctx, s, form, nil)
	require.False(t, ok)
	assert.Equal(t, domain.StatusFailed, s.Status)
	assert.Zero(t, form.submits)
}

func TestSubmitNoNavigationControl(t *testing.T) {
	form := &stubForm{ready: true, navAlways: inspect.NavNone}
	s := approvedTwoPageSession(t)

	ok := NewEngine(DefaultConfig()).Submit(context.Background(), s, form, nil)
	require.False(t, ok)
	assert.Equal(t, domain.StatusFailed, s.Status)
}

// panicForm panics during detection to exercise the adapter-boundary
// recovery path.
type panicForm struct{ stubForm }

func (p *panicForm) InspectPage(ctx context.Context, pageIndex int) ([]*domain.Question, error) {
	panic("automation binding exploded")
}

func TestPrepareRecoversPanics(t *testing.T) {
	form := &panicForm{stubForm{ready: true}}
	s := newTestSession()

	NewEngine(DefaultConfig()).Prepare(context.Background(), s, form, nil)

	assert.Equal(t, domain.StatusFailed, s.Status)
	assert.Contains(t, s.ErrorMessage, "automation binding exploded")
}
