package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"applypilot/internal/ai"
	"applypilot/internal/domain"
)

type stubClient struct {
	message    *ai.MessageResult
	messageErr error
	answers    map[string]string
	answersErr error
	asked      []string
}

func (s *stubClient) GenerateApplicationMessage(ctx context.Context, desc, title, company, profile string) (*ai.MessageResult, error) {
	if s.messageErr != nil {
		return nil, s.messageErr
	}
	return s.message, nil
}

func (s *stubClient) GenerateQuestionAnswers(ctx context.Context, questions []string, profile, desc string) (map[string]string, error) {
	s.asked = questions
	if s.answersErr != nil {
		return nil, s.answersErr
	}
	return s.answers, nil
}

func reviewSession(t *testing.T) *domain.Session {
	t.Helper()
	s := domain.NewSession(domain.Job{
		Platform:   domain.PlatformLinkedIn,
		ExternalID: "j1",
		Title:      "Go Engineer",
		Company:    "Acme",
	})
	s.Questions = []*domain.Question{
		{ID: "q1", Text: "Years of experience with Go?"},
		{ID: "q2", Text: "Phone number", IsPreFilled: true, PreFilledValue: "555-0100"},
		{ID: "q3", Text: "Willing to relocate?"},
		{ID: "q4", Text: "Notice period", Answer: "2 weeks"},
	}
	return s
}

func TestResolveHappyPath(t *testing.T) {
	client := &stubClient{
		message: &ai.MessageResult{
			Message:         "Hello, I would love to join Acme.",
			MatchingSkills:  []string{"Go", "SQL"},
			ConfidenceScore: 82,
		},
		answers: map[string]string{
			"Years of experience with Go?": "5 years",
			"Willing to relocate?":         "Yes",
		},
	}
	s := reviewSession(t)
	New(client).Resolve(context.Background(), s, domain.Profile{Summary: "Go dev"}, domain.Job{Description: "Build services"})

	assert.Equal(t, "Hello, I would love to join Acme.", s.Message)
	assert.Equal(t, 82, s.ConfidenceScore)
	assert.Equal(t, []string{"Go", "SQL"}, s.MatchingSkills)
	assert.Equal(t, "5 years", s.Questions[0].Answer)
	assert.Equal(t, "Yes", s.Questions[2].Answer)

	// Only unanswered, non-prefilled questions are sent out.
	assert.Equal(t, []string{"Years of experience with Go?", "Willing to relocate?"}, client.asked)
}

func TestResolvePreFilledNeverTargeted(t *testing.T) {
	client := &stubClient{
		message: &ai.MessageResult{},
		answers: map[string]string{"Phone number": "000"},
	}
	s := reviewSession(t)
	New(client).Resolve(context.Background(), s, domain.Profile{}, domain.Job{})

	assert.Empty(t, s.Questions[1].Answer)
	assert.Equal(t, "555-0100", s.Questions[1].PreFilledValue)
	assert.NotContains(t, client.asked, "Phone number")
}

func TestResolveExactMatchOnly(t *testing.T) {
	client := &stubClient{
		message: &ai.MessageResult{},
		answers: map[string]string{
			// Paraphrased key: must not merge.
			"How many years of Go experience?": "7 years",
			"Willing to relocate?":             "No",
		},
	}
	s := reviewSession(t)
	New(client).Resolve(context.Background(), s, domain.Profile{}, domain.Job{})

	assert.Empty(t, s.Questions[0].Answer)
	assert.Equal(t, "No", s.Questions[2].Answer)
}

func TestResolveMessageFailureDegrades(t *testing.T) {
	client := &stubClient{
		messageErr: errors.New("transport down"),
		answers:    map[string]string{"Willing to relocate?": "Yes"},
	}
	s := reviewSession(t)
	New(client).Resolve(context.Background(), s, domain.Profile{}, domain.Job{})

	assert.Empty(t, s.Message)
	assert.Zero(t, s.ConfidenceScore)
	// Answer pass still ran.
	assert.Equal(t, "Yes", s.Questions[2].Answer)
}

func TestResolveAnswerFailureDegrades(t *testing.T) {
	client := &stubClient{
		message:    &ai.MessageResult{Message: "hi", ConfidenceScore: 40},
		answersErr: errors.New("parse failure"),
	}
	s := reviewSession(t)
	New(client).Resolve(context.Background(), s, domain.Profile{}, domain.Job{})

	assert.Equal(t, "hi", s.Message)
	assert.Empty(t, s.Questions[0].Answer)
	assert.Equal(t, "2 weeks", s.Questions[3].Answer)
}

func TestResolvePriorAnswerRetained(t *testing.T) {
	client := &stubClient{
		message: &ai.MessageResult{},
		answers: map[string]string{},
	}
	s := reviewSession(t)
	New(client).Resolve(context.Background(), s, domain.Profile{}, domain.Job{})

	require.Equal(t, "2 weeks", s.Questions[3].Answer)
}
