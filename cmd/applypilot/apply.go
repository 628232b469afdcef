package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"applypilot/internal/ai"
	"applypilot/internal/config"
	"applypilot/internal/controller"
	"applypilot/internal/domain"
	"applypilot/internal/logging"
	"applypilot/internal/resolver"
	"applypilot/internal/review"
)

var applyPlatform string

var applyCmd = &cobra.Command{
	Use:   "apply <job-url>",
	Short: "Run one supervised application flow for a job posting",
	Long: `Opens the job posting, surveys the quick-apply form, drafts a message
and answers, and presents everything for review. Nothing is filled or
submitted until you approve in the review screen.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApply(cmd.Context(), args[0])
	},
}

func init() {
	applyCmd.Flags().StringVarP(&applyPlatform, "platform", "p", "", "platform (linkedin|indeed); inferred from the URL when omitted")
}

func runApply(ctx context.Context, jobURL string) error {
	cfg := loadedConfig

	plat, err := resolvePlatform(jobURL, applyPlatform)
	if err != nil {
		return err
	}

	reg, surfaces := newRegistry(cfg)
	defer func() {
		for _, s := range surfaces {
			s.Close()
		}
	}()

	rec, err := openAudit(cfg)
	if err != nil {
		return err
	}
	defer rec.Close()

	res := buildResolver(ctx, cfg)

	adapter, err := reg.Get(plat)
	if err != nil {
		return err
	}

	job := domain.Job{Platform: plat, URL: jobURL, ExternalID: jobURL}
	if details := adapter.FetchJobDetails(ctx, jobURL); details != nil {
		id := job.ExternalID
		job = details.Job
		if job.ExternalID == "" {
			job.ExternalID = id
		}
		job.Description = details.Description
		if !details.QuickApply {
			fmt.Println("Note: this posting does not advertise a quick-apply flow; proceeding anyway.")
		}
	} else {
		logging.BootWarn("could not fetch job details for %s, continuing with the bare URL", jobURL)
	}

	ctrl := controller.New(reg, res, review.NewTUIReviewer(), rec, cfg.Profile)

	progress := func(stage string, percent int) {
		fmt.Printf("  [%3d%%] %s\n", percent, stage)
	}

	session, err := ctrl.Run(ctx, job, progress)
	if err != nil {
		return err
	}

	printOutcome(session)
	return nil
}

func printOutcome(s *domain.Session) {
	switch s.Status {
	case domain.StatusSubmitted:
		fmt.Printf("\nApplication submitted: %s at %s (session %s)\n", s.JobTitle, s.Company, s.ID)
	case domain.StatusCancelled:
		fmt.Printf("\nApplication cancelled before submission (session %s). Nothing was sent.\n", s.ID)
	case domain.StatusFailed:
		fmt.Printf("\nApplication failed (session %s): %s\n", s.ID, s.ErrorMessage)
	default:
		fmt.Printf("\nSession %s ended in state %s\n", s.ID, s.Status)
	}
}

// buildResolver returns the AI-backed resolver, or a disabled one when no
// API key is configured. A disabled resolver leaves the draft empty; the
// review screen still works, the human just writes everything.
func buildResolver(ctx context.Context, cfg config.Config) controller.Resolver {
	if cfg.AI.APIKey == "" {
		fmt.Println("Warning: no GEMINI_API_KEY configured; drafts will be empty.")
		return disabledResolver{}
	}
	client, err := ai.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model)
	if err != nil {
		logging.BootWarn("gemini client unavailable: %v", err)
		fmt.Println("Warning: AI collaborator unavailable; drafts will be empty.")
		return disabledResolver{}
	}
	return resolver.New(client).WithTimeout(cfg.AITimeout())
}

type disabledResolver struct{}

func (disabledResolver) Resolve(ctx context.Context, s *domain.Session, p domain.Profile, j domain.Job) {
	s.ConfidenceScore = 0
}

// resolvePlatform infers the platform from the job URL host, with an
// explicit flag override.
func resolvePlatform(jobURL, flag string) (domain.Platform, error) {
	if flag != "" {
		switch domain.Platform(strings.ToLower(flag)) {
		case domain.PlatformLinkedIn:
			return domain.PlatformLinkedIn, nil
		case domain.PlatformIndeed:
			return domain.PlatformIndeed, nil
		default:
			return "", fmt.Errorf("unsupported platform %q", flag)
		}
	}

	u, err := url.Parse(jobURL)
	if err != nil {
		return "", fmt.Errorf("parse job url: %w", err)
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "linkedin."):
		return domain.PlatformLinkedIn, nil
	case strings.Contains(host, "indeed."):
		return domain.PlatformIndeed, nil
	default:
		return "", fmt.Errorf("cannot infer platform from %q; pass --platform", host)
	}
}
