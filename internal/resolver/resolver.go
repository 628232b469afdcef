// Package resolver obtains AI-drafted content for a session: the application
// message with fit metadata, and per-question answers. Every AI failure
// degrades gracefully; the resolver never aborts the review flow.
package resolver

import (
	"context"
	"time"

	"applypilot/internal/ai"
	"applypilot/internal/domain"
	"applypilot/internal/logging"
)

const defaultTimeout = 45 * time.Second

// Resolver fills a session's message, metadata, and unanswered questions.
type Resolver struct {
	client  ai.Client
	timeout time.Duration
}

// New creates a Resolver on the given AI collaborator.
func New(client ai.Client) *Resolver {
	return &Resolver{client: client, timeout: defaultTimeout}
}

// WithTimeout bounds each AI call. Zero or negative keeps the default.
func (r *Resolver) WithTimeout(d time.Duration) *Resolver {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Resolve drafts the application message and answers for every question that
// is unanswered and not pre-filled. On message failure the message stays
// empty with confidence 0; on answer failure the targeted questions stay
// unanswered. Answers are merged by exact question-text match only.
func (r *Resolver) Resolve(ctx context.Context, session *domain.Session, profile domain.Profile, job domain.Job) {
	r.resolveMessage(ctx, session, profile, job)
	r.resolveAnswers(ctx, session, profile, job)
}

func (r *Resolver) resolveMessage(ctx context.Context, session *domain.Session, profile domain.Profile, job domain.Job) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.client.GenerateApplicationMessage(ctx, job.Description, job.Title, job.Company, profile.Text())
	if err != nil {
		logging.ResolverWarn("message generation failed for %s: %v", session.ID, err)
		session.ConfidenceScore = 0
		return
	}

	if err := session.SetMessage(result.Message); err != nil {
		logging.ResolverWarn("message write rejected for %s: %v", session.ID, err)
		return
	}
	session.MatchingSkills = result.MatchingSkills
	session.AddressedRequirements = result.AddressedRequirements
	session.ConfidenceScore = result.ConfidenceScore
	logging.ResolverDebug("message drafted for %s (confidence %d)", session.ID, result.ConfidenceScore)
}

func (r *Resolver) resolveAnswers(ctx context.Context, session *domain.Session, profile domain.Profile, job domain.Job) {
	targets := session.Unresolved()
	if len(targets) == 0 {
		return
	}

	texts := make([]string, 0, len(targets))
	for _, q := range targets {
		texts = append(texts, q.Text)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	answers, err := r.client.GenerateQuestionAnswers(ctx, texts, profile.Text(), job.Description)
	if err != nil {
		logging.ResolverWarn("answer generation failed for %s: %v", session.ID, err)
		return
	}

	applied := 0
	for _, q := range targets {
		// Exact-text match only. A question absent from the mapping keeps
		// its prior answer.
		answer, ok := answers[q.Text]
		if !ok || answer == "" {
			continue
		}
		if err := session.SetAnswer(q.ID, answer); err != nil {
			logging.ResolverWarn("answer write rejected for %s/%s: %v", session.ID, q.ID, err)
			continue
		}
		applied++
	}
	logging.ResolverDebug("answers applied for %s: %d of %d", session.ID, applied, len(targets))
}
