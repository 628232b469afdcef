// Package browser owns the automation surface: one Chrome instance and one
// logical page per Surface. A Surface supports exactly one in-flight
// prepare/submit flow at a time and is not re-entrant.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"applypilot/internal/logging"
	"applypilot/internal/pacing"
)

// Config holds browser configuration.
type Config struct {
	DebuggerURL         string `json:"debugger_url"`
	Bin                 string `json:"bin"`
	Headless            bool   `json:"headless"`
	ViewportWidth       int    `json:"viewport_width"`
	ViewportHeight      int    `json:"viewport_height"`
	NavigationTimeoutMs int    `json:"navigation_timeout_ms"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:            false,
		ViewportWidth:       1920,
		ViewportHeight:      1080,
		NavigationTimeoutMs: 30000,
	}
}

// NavigationTimeout returns the navigation timeout.
func (c Config) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// Surface wraps one rod page plus the pacing governor every interaction
// draws from. All write operations pause first so automated timing never
// collapses into a uniform signature.
type Surface struct {
	cfg   Config
	pace  *pacing.Governor
	mu    sync.Mutex
	brows *rod.Browser
	page  *rod.Page
}

// NewSurface creates a Surface; the browser is launched lazily on first use.
func NewSurface(cfg Config, pace *pacing.Governor) *Surface {
	return &Surface{cfg: cfg, pace: pace}
}

// Start connects to an existing Chrome (DebuggerURL) or launches a new one.
func (s *Surface) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.brows != nil {
		if _, err := s.brows.Version(); err == nil {
			return nil
		}
		logging.BrowserWarn("stale browser connection, reconnecting")
		_ = s.brows.Close()
		s.brows = nil
		s.page = nil
	}

	controlURL := s.cfg.DebuggerURL
	if controlURL == "" {
		launch := launcher.New().Headless(s.cfg.Headless)
		if s.cfg.Bin != "" {
			launch = launch.Bin(s.cfg.Bin)
		}
		url, err := launch.Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = url
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}
	s.brows = b
	logging.BrowserDebug("browser connected: %s", controlURL)
	return nil
}

// Open navigates the surface's page to url, creating the page on first use.
func (s *Surface) Open(ctx context.Context, url string) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page == nil {
		page, err := s.brows.Page(proto.TargetCreateTarget{})
		if err != nil {
			return fmt.Errorf("create page: %w", err)
		}
		if err := (proto.EmulationSetDeviceMetricsOverride{
			Width:             s.viewportWidth(),
			Height:            s.viewportHeight(),
			DeviceScaleFactor: 1.0,
		}).Call(page); err != nil {
			logging.BrowserWarn("set viewport: %v", err)
		}
		s.page = page
	}

	logging.BrowserDebug("navigate: %s", url)
	if err := s.page.Context(ctx).Timeout(s.cfg.NavigationTimeout()).Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := s.page.Context(ctx).Timeout(s.cfg.NavigationTimeout()).WaitLoad(); err != nil {
		logging.BrowserWarn("wait load: %v", err)
	}
	return nil
}

// Page returns the underlying rod page, or nil before Open.
func (s *Surface) Page() *rod.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Click pauses per pacing policy, then clicks the element.
func (s *Surface) Click(ctx context.Context, el *rod.Element) error {
	if err := s.pace.Pause(ctx); err != nil {
		return err
	}
	if err := el.ScrollIntoView(); err != nil {
		logging.BrowserWarn("scroll into view: %v", err)
	}
	return el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// TypeText clears the element and emits text one character at a time with an
// independent per-character delay, never bulk-setting the value.
func (s *Surface) TypeText(ctx context.Context, el *rod.Element, text string) error {
	if err := s.pace.Pause(ctx); err != nil {
		return err
	}
	if err := el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("focus field: %w", err)
	}
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	for _, r := range text {
		if err := s.pace.PauseKeystroke(ctx); err != nil {
			return err
		}
		if err := el.Context(ctx).Input(string(r)); err != nil {
			return fmt.Errorf("type char: %w", err)
		}
	}
	return nil
}

// SelectOption pauses, then selects the dropdown option whose text matches
// value exactly, falling back to substring match.
func (s *Surface) SelectOption(ctx context.Context, el *rod.Element, value string) error {
	if err := s.pace.Pause(ctx); err != nil {
		return err
	}
	if err := el.Context(ctx).Select([]string{value}, true, rod.SelectorTypeText); err == nil {
		return nil
	}
	// Substring fallback via regex selector.
	return el.Context(ctx).Select([]string{regexEscape(value)}, true, rod.SelectorTypeRegex)
}

// Element finds one element by CSS selector on the current page, with a
// bounded wait. Returns nil when absent rather than blocking indefinitely.
func (s *Surface) Element(ctx context.Context, selector string, wait time.Duration) *rod.Element {
	page := s.Page()
	if page == nil {
		return nil
	}
	el, err := page.Context(ctx).Timeout(wait).Element(selector)
	if err != nil {
		return nil
	}
	return el
}

// Elements finds all elements matching the CSS selector on the current page.
func (s *Surface) Elements(ctx context.Context, selector string) (rod.Elements, error) {
	page := s.Page()
	if page == nil {
		return nil, fmt.Errorf("surface not open")
	}
	return page.Context(ctx).Elements(selector)
}

// Close shuts the page and browser down. Best-effort.
func (s *Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	if s.brows != nil {
		_ = s.brows.Close()
		s.brows = nil
	}
}

func (s *Surface) viewportWidth() int {
	if s.cfg.ViewportWidth == 0 {
		return 1920
	}
	return s.cfg.ViewportWidth
}

func (s *Surface) viewportHeight() int {
	if s.cfg.ViewportHeight == 0 {
		return 1080
	}
	return s.cfg.ViewportHeight
}

func regexEscape(v string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`, `.`, `\.`, `+`, `\+`, `*`, `\*`, `?`, `\?`,
		`(`, `\(`, `)`, `\)`, `[`, `\[`, `]`, `\]`, `{`, `\{`, `}`, `\}`,
		`^`, `\^`, `$`, `\$`, `|`, `\|`,
	)
	return replacer.Replace(v)
}
