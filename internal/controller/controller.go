// Package controller owns the application-session state machine. It is the
// single safety-critical component: a session can only reach the adapter's
// submit path through an explicit human approval gathered here.
package controller

import (
	"context"
	"fmt"

	"applypilot/internal/domain"
	"applypilot/internal/logging"
	"applypilot/internal/platform"
)

// Resolver drafts the message and answers for a session in review.
type Resolver interface {
	Resolve(ctx context.Context, session *domain.Session, profile domain.Profile, job domain.Job)
}

// ReviewResult carries the human decision plus the edits to commit on
// approval. Answers is keyed by question id.
type ReviewResult struct {
	Approved bool
	Message  string
	Answers  map[string]string
}

// Reviewer presents a session for human review and returns exactly one of
// two outcomes: approve with edits, or cancel.
type Reviewer interface {
	Review(ctx context.Context, session *domain.Session) (ReviewResult, error)
}

// Recorder persists one terminal record per session, best-effort.
type Recorder interface {
	Record(session *domain.Session)
}

// Controller sequences Prepare, review, Approve/Cancel, Submit, and the
// terminal audit write.
type Controller struct {
	registry *platform.Registry
	resolver Resolver
	reviewer Reviewer
	recorder Recorder
	profile  domain.Profile
}

// New wires a controller.
func New(registry *platform.Registry, res Resolver, rev Reviewer, rec Recorder, profile domain.Profile) *Controller {
	return &Controller{
		registry: registry,
		resolver: res,
		reviewer: rev,
		recorder: rec,
		profile:  profile,
	}
}

// Run drives one job application end to end and returns its session in a
// terminal state. The error is non-nil only when no flow could start at all
// (unknown platform); every other failure is expressed on the session.
func (c *Controller) Run(ctx context.Context, job domain.Job, progress platform.ProgressFunc) (*domain.Session, error) {
	adapter, err := c.registry.Get(job.Platform)
	if err != nil {
		return nil, err
	}

	session := adapter.PrepareApplication(ctx, job, progress)
	if session == nil {
		return nil, fmt.Errorf("adapter returned no session for %s", job.ExternalID)
	}

	if session.Status != domain.StatusReadyForReview {
		// Preparation failed or was cancelled mid-flight; make sure any
		// half-open application surface is dismissed.
		adapter.CancelApplication()
		c.finish(session)
		return session, nil
	}

	// ReadyForReview entry: draft message and answers. Best-effort; a dead
	// AI collaborator still leaves the session reviewable.
	c.resolver.Resolve(ctx, session, c.profile, job)

	result, err := c.reviewer.Review(ctx, session)
	if err != nil || !result.Approved {
		if err != nil {
			logging.SessionWarn("review aborted for %s: %v", session.ID, err)
		}
		adapter.CancelApplication()
		if terr := session.Transition(domain.StatusCancelled); terr != nil {
			session.Fail(fmt.Sprintf("cancel transition rejected: %v", terr))
		}
		c.finish(session)
		return session, nil
	}

	c.commitEdits(session, result)

	if err := session.Approve(); err != nil {
		session.Fail(fmt.Sprintf("approval rejected: %v", err))
		c.finish(session)
		return session, nil
	}
	logging.SessionInfo("session %s approved by reviewer", session.ID)

	adapter.SubmitApplication(ctx, session, progress)
	if !session.Status.IsTerminal() {
		// The adapter must leave the session terminal; a misbehaving one is
		// treated as a failed submission.
		session.Fail("adapter returned with non-terminal session")
	}
	c.finish(session)
	return session, nil
}

// commitEdits applies the reviewer's message and answer edits while the
// session is still editable. Writes rejected by the session (pre-filled
// questions, unknown ids) are logged and skipped.
func (c *Controller) commitEdits(session *domain.Session, result ReviewResult) {
	if err := session.SetMessage(result.Message); err != nil {
		logging.SessionWarn("message edit rejected for %s: %v", session.ID, err)
	}
	for id, answer := range result.Answers {
		if err := session.SetAnswer(id, answer); err != nil {
			logging.SessionWarn("answer edit rejected for %s/%s: %v", session.ID, id, err)
		}
	}
}

// finish triggers the exactly-once terminal audit write.
func (c *Controller) finish(session *domain.Session) {
	if c.recorder != nil {
		c.recorder.Record(session)
	}
}
