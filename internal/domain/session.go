// Package domain holds the application-session aggregate and its invariants.
// Everything here is automation-agnostic: adapters drive these types but the
// types never reach back into the browser layer.
package domain

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an ApplicationSession.
type Status string

const (
	StatusPending        Status = "pending"
	StatusReadyForReview Status = "ready_for_review"
	StatusApproved       Status = "approved"
	StatusSubmitting     Status = "submitting"
	StatusSubmitted      Status = "submitted"
	StatusFailed         Status = "failed"
	StatusCancelled      Status = "cancelled"
)

// legalTransitions encodes the only edges a session may move along.
// Approved is reachable solely through Session.Approve (human action);
// nothing transitions out of a terminal state.
var legalTransitions = map[Status][]Status{
	StatusPending:        {StatusReadyForReview, StatusFailed},
	StatusReadyForReview: {StatusApproved, StatusCancelled, StatusFailed},
	StatusApproved:       {StatusSubmitting},
	StatusSubmitting:     {StatusSubmitted, StatusFailed},
}

// IsTerminal reports whether no further transition is defined for s.
func (s Status) IsTerminal() bool {
	return s == StatusSubmitted || s == StatusFailed || s == StatusCancelled
}

// CanTransition reports whether moving from s to next is a legal edge.
func (s Status) CanTransition(next Status) bool {
	for _, t := range legalTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Session is one attempt to apply to one job, bounded by Prepare through a
// terminal status. It is owned by exactly one in-flight automation flow at a
// time; the mutex guards the handoff points (resolver, review, audit), not
// concurrent automation, which is unsupported.
type Session struct {
	mu sync.Mutex

	ID          string    `json:"id"`
	Platform    Platform  `json:"platform"`
	JobID       string    `json:"job_id"`
	JobTitle    string    `json:"job_title"`
	Company     string    `json:"company"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	ApprovedAt  time.Time `json:"approved_at,omitempty"`

	Status  Status `json:"status"`
	Message string `json:"message"`

	Questions []*Question `json:"questions"`
	Actions   []Action    `json:"actions"`

	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`

	MatchingSkills        []string `json:"matching_skills,omitempty"`
	AddressedRequirements []string `json:"addressed_requirements,omitempty"`
	ConfidenceScore       int      `json:"confidence_score"`

	ErrorMessage string `json:"error_message,omitempty"`
}

// NewSession creates a Pending session for the given job.
func NewSession(job Job) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Platform:  job.Platform,
		JobID:     job.ExternalID,
		JobTitle:  job.Title,
		Company:   job.Company,
		StartedAt: time.Now(),
		Status:    StatusPending,
	}
}

// Transition moves the session along a legal edge, stamping completion time
// when a terminal state is entered. Illegal edges are rejected with an error
// and leave the session untouched.
func (s *Session) Transition(next Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Status.CanTransition(next) {
		return fmt.Errorf("illegal transition %s -> %s", s.Status, next)
	}
	s.Status = next
	if next.IsTerminal() && s.CompletedAt.IsZero() {
		s.CompletedAt = time.Now()
	}
	return nil
}

// Fail moves the session to Failed from any non-terminal state, recording the
// reason. Used by the adapter boundary; preparation and submission failures
// both land here.
func (s *Session) Fail(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status.IsTerminal() {
		return
	}
	s.Status = StatusFailed
	s.ErrorMessage = reason
	if s.CompletedAt.IsZero() {
		s.CompletedAt = time.Now()
	}
}

// Editable reports whether the message and answers may still be changed.
func (s *Session) Editable() bool {
	return s.Status == StatusPending || s.Status == StatusReadyForReview
}

// SetMessage updates the application message while the session is editable.
func (s *Session) SetMessage(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Editable() {
		return fmt.Errorf("message frozen in status %s", s.Status)
	}
	s.Message = msg
	return nil
}

// SetAnswer updates one question's answer while the session is editable.
// Pre-filled questions are never overwritten.
func (s *Session) SetAnswer(questionID, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Editable() {
		return fmt.Errorf("answers frozen in status %s", s.Status)
	}
	for _, q := range s.Questions {
		if q.ID == questionID {
			if q.IsPreFilled {
				return fmt.Errorf("question %s is pre-filled", questionID)
			}
			q.Answer = answer
			return nil
		}
	}
	return fmt.Errorf("unknown question %s", questionID)
}

// Approve is the explicit human action that freezes the session for
// submission and stamps approval time.
func (s *Session) Approve() error {
	if err := s.Transition(StatusApproved); err != nil {
		return err
	}
	s.mu.Lock()
	s.ApprovedAt = time.Now()
	s.mu.Unlock()
	return nil
}

// Append records an action on the append-only log. Allowed in any state; the
// log is the one field that stays mutable through Submitting.
func (s *Session) Append(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Actions = append(s.Actions, a)
}

// Unresolved returns the questions the Answer Resolver should target: empty
// answer and not pre-filled.
func (s *Session) Unresolved() []*Question {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Question
	for _, q := range s.Questions {
		if q.Answer == "" && !q.IsPreFilled {
			out = append(out, q)
		}
	}
	return out
}

// QuestionsOnPage returns the questions detected on the given page index, in
// detection order.
func (s *Session) QuestionsOnPage(page int) []*Question {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Question
	for _, q := range s.Questions {
		if q.PageIndex == page {
			out = append(out, q)
		}
	}
	return out
}
