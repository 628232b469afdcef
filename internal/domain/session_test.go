package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJob() Job {
	return Job{
		Platform:   PlatformLinkedIn,
		ExternalID: "job-123",
		Title:      "Backend Engineer",
		Company:    "Acme",
		URL:        "https://example.com/jobs/123",
	}
}

func TestSessionTransitions(t *testing.T) {
	t.Run("happy path reaches Submitted only through Approved", func(t *testing.T) {
		s := NewSession(testJob())
		require.Equal(t, StatusPending, s.Status)

		require.NoError(t, s.Transition(StatusReadyForReview))
		require.NoError(t, s.Approve())
		require.NoError(t, s.Transition(StatusSubmitting))
		require.NoError(t, s.Transition(StatusSubmitted))

		assert.True(t, s.Status.IsTerminal())
		assert.False(t, s.CompletedAt.IsZero())
		assert.False(t, s.ApprovedAt.IsZero())
	})

	t.Run("submitting is unreachable without approval", func(t *testing.T) {
		s := NewSession(testJob())
		assert.Error(t, s.Transition(StatusSubmitting))

		require.NoError(t, s.Transition(StatusReadyForReview))
		assert.Error(t, s.Transition(StatusSubmitting))
		assert.Error(t, s.Transition(StatusSubmitted))
	})

	t.Run("cancel is legal only before approval", func(t *testing.T) {
		s := NewSession(testJob())
		require.NoError(t, s.Transition(StatusReadyForReview))
		require.NoError(t, s.Transition(StatusCancelled))
		assert.True(t, s.Status.IsTerminal())

		s2 := NewSession(testJob())
		require.NoError(t, s2.Transition(StatusReadyForReview))
		require.NoError(t, s2.Approve())
		assert.Error(t, s2.Transition(StatusCancelled))
	})

	t.Run("terminal states are immutable", func(t *testing.T) {
		s := NewSession(testJob())
		s.Fail("boom")
		assert.Equal(t, StatusFailed, s.Status)

		assert.Error(t, s.Transition(StatusReadyForReview))
		assert.Error(t, s.SetMessage("late edit"))

		// Fail on an already-terminal session must not clobber the reason.
		s.Fail("second reason")
		assert.Equal(t, "boom", s.ErrorMessage)
	})

	t.Run("pending can fail directly", func(t *testing.T) {
		s := NewSession(testJob())
		s.Fail("entry point not found")
		assert.Equal(t, StatusFailed, s.Status)
		assert.Equal(t, "entry point not found", s.ErrorMessage)
		assert.False(t, s.CompletedAt.IsZero())
	})
}

func TestSessionEditing(t *testing.T) {
	newReviewSession := func(t *testing.T) *Session {
		s := NewSession(testJob())
		s.Questions = []*Question{
			{ID: "q1", Text: "Years of experience?", Type: QuestionNumeric},
			{ID: "q2", Text: "Phone", Type: QuestionPhone, IsPreFilled: true, PreFilledValue: "555-0100"},
		}
		require.NoError(t, s.Transition(StatusReadyForReview))
		return s
	}

	t.Run("message and answers editable before approval", func(t *testing.T) {
		s := newReviewSession(t)
		require.NoError(t, s.SetMessage("Hello"))
		require.NoError(t, s.SetAnswer("q1", "5 years"))
		assert.Equal(t, "5 years", s.Questions[0].Answer)
	})

	t.Run("pre-filled questions reject writes", func(t *testing.T) {
		s := newReviewSession(t)
		assert.Error(t, s.SetAnswer("q2", "overwrite"))
		assert.Equal(t, "555-0100", s.Questions[1].PreFilledValue)
		assert.Empty(t, s.Questions[1].Answer)
	})

	t.Run("approval freezes message and answers", func(t *testing.T) {
		s := newReviewSession(t)
		require.NoError(t, s.Approve())
		assert.Error(t, s.SetMessage("too late"))
		assert.Error(t, s.SetAnswer("q1", "too late"))
	})

	t.Run("action log stays open after approval", func(t *testing.T) {
		s := newReviewSession(t)
		require.NoError(t, s.Approve())
		require.NoError(t, s.Transition(StatusSubmitting))
		s.Append(NewAction(ActionFill, "filled q1", true))
		assert.Len(t, s.Actions, 1)
	})
}

func TestSessionUnresolved(t *testing.T) {
	s := NewSession(testJob())
	s.Questions = []*Question{
		{ID: "a", Text: "A", Answer: ""},
		{ID: "b", Text: "B", Answer: "done"},
		{ID: "c", Text: "C", IsPreFilled: true},
		{ID: "d", Text: "D"},
	}

	got := s.Unresolved()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "d", got[1].ID)
}

func TestQuestionsOnPage(t *testing.T) {
	s := NewSession(testJob())
	s.Questions = []*Question{
		{ID: "a", PageIndex: 0},
		{ID: "b", PageIndex: 1},
		{ID: "c", PageIndex: 0},
	}
	page0 := s.QuestionsOnPage(0)
	require.Len(t, page0, 2)
	assert.Equal(t, []string{"a", "c"}, []string{page0[0].ID, page0[1].ID})
}

func TestForcedFill(t *testing.T) {
	assert.True(t, QuestionShortText.ForcedFill())
	assert.True(t, QuestionYesNo.ForcedFill())
	assert.False(t, QuestionUnknown.ForcedFill())
	assert.False(t, QuestionFileUpload.ForcedFill())
}
