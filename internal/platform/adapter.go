// Package platform defines the capability contract every site adapter
// implements, and the registry the controller selects adapters from.
package platform

import (
	"context"

	"applypilot/internal/domain"
)

// ProgressFunc receives one-way progress reports from a long-running adapter
// operation. Implementations must not block; reports are fire-and-forget and
// never awaited by the automation flow.
type ProgressFunc func(stage string, percent int)

// Adapter is the per-site automation capability set. One instance owns one
// automation surface and supports exactly one in-flight Prepare/Submit flow
// at a time; it is not re-entrant.
type Adapter interface {
	// Platform identifies which enum value this adapter serves.
	Platform() domain.Platform

	// SearchJobs runs a cancellable, progress-reporting job search.
	SearchJobs(ctx context.Context, filter domain.SearchFilter, progress ProgressFunc) ([]domain.Job, error)

	// FetchJobDetails returns nil on any navigation or parse failure.
	FetchJobDetails(ctx context.Context, url string) *domain.JobDetails

	// PrepareApplication opens the application entry point and surveys the
	// form without filling anything. The returned session is Failed with a
	// reason when the entry point cannot be found or the surface does not
	// render in a bounded wait, ReadyForReview otherwise.
	PrepareApplication(ctx context.Context, job domain.Job, progress ProgressFunc) *domain.Session

	// SubmitApplication fills and submits an Approved session. The caller
	// must only invoke this when session.Status == Approved. It returns
	// true and marks the session Submitted only on a detected success
	// marker.
	SubmitApplication(ctx context.Context, session *domain.Session, progress ProgressFunc) bool

	// CancelApplication dismisses any open application surface, including a
	// confirmation dialog it triggers. Best-effort, idempotent, and
	// guaranteed not to panic. It does not mutate session status.
	CancelApplication()
}
