package platform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"applypilot/internal/domain"
)

type stubAdapter struct {
	platform domain.Platform
}

func (s *stubAdapter) Platform() domain.Platform { return s.platform }

func (s *stubAdapter) SearchJobs(ctx context.Context, filter domain.SearchFilter, progress ProgressFunc) ([]domain.Job, error) {
	return nil, nil
}

func (s *stubAdapter) FetchJobDetails(ctx context.Context, url string) *domain.JobDetails {
	return nil
}

func (s *stubAdapter) PrepareApplication(ctx context.Context, job domain.Job, progress ProgressFunc) *domain.Session {
	return nil
}

func (s *stubAdapter) SubmitApplication(ctx context.Context, session *domain.Session, progress ProgressFunc) bool {
	return false
}

func (s *stubAdapter) CancelApplication() {}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	t.Run("unknown platform", func(t *testing.T) {
		_, err := reg.Get(domain.PlatformLinkedIn)
		assert.Error(t, err)
	})

	t.Run("register and get", func(t *testing.T) {
		a := &stubAdapter{platform: domain.PlatformLinkedIn}
		reg.Register(a)

		got, err := reg.Get(domain.PlatformLinkedIn)
		require.NoError(t, err)
		assert.Same(t, a, got)
	})

	t.Run("replace keeps one adapter per platform", func(t *testing.T) {
		b := &stubAdapter{platform: domain.PlatformLinkedIn}
		reg.Register(b)

		got, err := reg.Get(domain.PlatformLinkedIn)
		require.NoError(t, err)
		assert.Same(t, b, got)
		assert.Len(t, reg.Platforms(), 1)
	})

	t.Run("platforms lists all registered", func(t *testing.T) {
		reg.Register(&stubAdapter{platform: domain.PlatformIndeed})
		assert.ElementsMatch(t,
			[]domain.Platform{domain.PlatformLinkedIn, domain.PlatformIndeed},
			reg.Platforms())
	})
}
