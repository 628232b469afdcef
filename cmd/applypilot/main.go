package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"applypilot/internal/audit"
	"applypilot/internal/browser"
	"applypilot/internal/config"
	"applypilot/internal/logging"
	"applypilot/internal/pacing"
	"applypilot/internal/platform"
	"applypilot/internal/platform/indeed"
	"applypilot/internal/platform/linkedin"
	"applypilot/internal/platform/quickapply"
)

var (
	// Global flags
	configPath string
	debug      bool
	workspace  string
)

var rootCmd = &cobra.Command{
	Use:   "applypilot",
	Short: "applypilot - supervised job application automation",
	Long: `applypilot drives quick-apply flows on job platforms under strict
human supervision.

It detects and classifies the application form, drafts a message and answers
with an AI collaborator, and then stops: nothing is ever submitted until you
review, edit, and explicitly approve the application in the terminal. Every
session ends in an immutable audit record.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if workspace != "" {
			cfg.Workspace = workspace
		}
		if debug {
			cfg.Debug = true
		}
		if err := logging.Initialize(cfg.Workspace, cfg.Debug); err != nil {
			return fmt.Errorf("initialize logging: %w", err)
		}
		loadedConfig = cfg
		logging.BootInfo("applypilot starting (workspace=%s debug=%v)", cfg.Workspace, cfg.Debug)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

// loadedConfig is populated by PersistentPreRunE before any command runs.
var loadedConfig config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (logs, audit records)")

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(sessionsCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// engineConfig converts the loaded config into engine bounds.
func engineConfig(cfg config.Config) quickapply.Config {
	return quickapply.Config{
		MaxPages:    cfg.Engine.MaxPages,
		FormWait:    cfg.Engine.FormWait(),
		ConfirmWait: cfg.Engine.ConfirmWait(),
	}
}

func browserConfig(cfg config.Config) browser.Config {
	return browser.Config{
		DebuggerURL:         cfg.Browser.DebuggerURL,
		Bin:                 cfg.Browser.Bin,
		Headless:            cfg.Browser.Headless,
		ViewportWidth:       cfg.Browser.ViewportWidth,
		ViewportHeight:      cfg.Browser.ViewportHeight,
		NavigationTimeoutMs: cfg.Browser.NavigationTimeoutMs,
	}
}

// newSurface builds one browser surface with the configured pacing profile.
func newSurface(cfg config.Config) *browser.Surface {
	return browser.NewSurface(browserConfig(cfg), pacing.New(cfg.Pacing))
}

// newRegistry wires one adapter per supported platform, each on its own
// surface so searches can fan out concurrently.
func newRegistry(cfg config.Config) (*platform.Registry, []*browser.Surface) {
	eng := engineConfig(cfg)
	li := newSurface(cfg)
	in := newSurface(cfg)

	reg := platform.NewRegistry()
	reg.Register(linkedin.New(li, eng))
	reg.Register(indeed.New(in, eng))
	return reg, []*browser.Surface{li, in}
}

func openAudit(cfg config.Config) (*audit.Logger, error) {
	rec, err := audit.NewLogger(cfg.Workspace)
	if err != nil {
		return nil, fmt.Errorf("open audit store: %w", err)
	}
	return rec, nil
}
