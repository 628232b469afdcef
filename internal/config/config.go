// Package config loads applypilot configuration from yaml with environment
// overrides for credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"applypilot/internal/domain"
	"applypilot/internal/pacing"
)

// Config holds all applypilot configuration.
type Config struct {
	// Workspace is the directory for logs and audit records.
	Workspace string `yaml:"workspace"`

	// Debug enables per-category debug logging.
	Debug bool `yaml:"debug"`

	AI      AIConfig      `yaml:"ai"`
	Browser BrowserConfig `yaml:"browser"`
	Pacing  pacing.Config `yaml:"pacing"`
	Engine  EngineConfig  `yaml:"engine"`

	// Profile is the candidate profile handed to the Answer Resolver.
	Profile domain.Profile `yaml:"profile"`
}

// AIConfig configures the Gemini collaborator.
type AIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// BrowserConfig configures the automation surface.
type BrowserConfig struct {
	DebuggerURL         string `yaml:"debugger_url"`
	Bin                 string `yaml:"bin"`
	Headless            bool   `yaml:"headless"`
	ViewportWidth       int    `yaml:"viewport_width"`
	ViewportHeight      int    `yaml:"viewport_height"`
	NavigationTimeoutMs int    `yaml:"navigation_timeout_ms"`
}

// EngineConfig bounds the prepare/submit automation loops.
type EngineConfig struct {
	// MaxPages caps the page-traversal loop during Prepare.
	MaxPages int `yaml:"max_pages"`
	// FormWaitMs bounds the wait for the application surface to render.
	FormWaitMs int `yaml:"form_wait_ms"`
	// ConfirmWaitMs bounds the post-submit confirmation window.
	ConfirmWaitMs int `yaml:"confirm_wait_ms"`
	// MinLabelLength filters decorative field groups during detection.
	MinLabelLength int `yaml:"min_label_length"`
}

// Default returns the stock configuration.
func Default() Config {
	cwd, _ := os.Getwd()
	return Config{
		Workspace: cwd,
		AI: AIConfig{
			Model:   "gemini-2.0-flash",
			Timeout: "45s",
		},
		Browser: BrowserConfig{
			Headless:            false,
			ViewportWidth:       1920,
			ViewportHeight:      1080,
			NavigationTimeoutMs: 30000,
		},
		Pacing: pacing.DefaultConfig(),
		Engine: EngineConfig{
			MaxPages:       10,
			FormWaitMs:     10000,
			ConfirmWaitMs:  8000,
			MinLabelLength: 3,
		},
	}
}

// Load reads yaml config from path, falling back to defaults when the file
// does not exist, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return cfg, nil
}

// DefaultPath returns the conventional config location.
func DefaultPath() string {
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, ".applypilot", "config.yaml")
}

// applyEnvOverrides pulls credentials from the environment. GEMINI_API_KEY
// wins over GOOGLE_API_KEY, both win over the file value.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv("APPLYPILOT_WORKSPACE"); v != "" {
		c.Workspace = v
	}
	if v := os.Getenv("APPLYPILOT_DEBUGGER_URL"); v != "" {
		c.Browser.DebuggerURL = v
	}
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.AI.Model == "" {
		c.AI.Model = d.AI.Model
	}
	if c.Engine.MaxPages <= 0 {
		c.Engine.MaxPages = d.Engine.MaxPages
	}
	if c.Engine.FormWaitMs <= 0 {
		c.Engine.FormWaitMs = d.Engine.FormWaitMs
	}
	if c.Engine.ConfirmWaitMs <= 0 {
		c.Engine.ConfirmWaitMs = d.Engine.ConfirmWaitMs
	}
	if c.Engine.MinLabelLength <= 0 {
		c.Engine.MinLabelLength = d.Engine.MinLabelLength
	}
	if c.Pacing.Action.Max <= 0 {
		c.Pacing = d.Pacing
	}
}

// AITimeout parses the configured AI call timeout, defaulting to 45s.
func (c Config) AITimeout() time.Duration {
	d, err := time.ParseDuration(c.AI.Timeout)
	if err != nil || d <= 0 {
		return 45 * time.Second
	}
	return d
}

// NavigationTimeout returns the browser navigation timeout.
func (c BrowserConfig) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// FormWait returns the bounded wait for the application surface.
func (c EngineConfig) FormWait() time.Duration {
	return time.Duration(c.FormWaitMs) * time.Millisecond
}

// ConfirmWait returns the bounded post-submit confirmation window.
func (c EngineConfig) ConfirmWait() time.Duration {
	return time.Duration(c.ConfirmWaitMs) * time.Millisecond
}
