// Package pacing produces the randomized delays that make automated
// interaction timing look human. It is pure policy: no state beyond the
// configured ranges and the RNG.
package pacing

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Range is an inclusive [Min, Max] millisecond window.
type Range struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Config holds the three delay windows and the hesitation probability.
type Config struct {
	// Action is drawn before every automated interaction.
	Action Range `yaml:"action" json:"action"`
	// Hesitation is added on top of Action with probability HesitationChance.
	Hesitation Range `yaml:"hesitation" json:"hesitation"`
	// Keystroke is drawn independently per typed character.
	Keystroke Range `yaml:"keystroke" json:"keystroke"`
	// HesitationChance in [0,1].
	HesitationChance float64 `yaml:"hesitation_chance" json:"hesitation_chance"`
}

// DefaultConfig returns the stock human-ish timing windows.
func DefaultConfig() Config {
	return Config{
		Action:           Range{Min: 500, Max: 2000},
		Hesitation:       Range{Min: 1500, Max: 4500},
		Keystroke:        Range{Min: 40, Max: 160},
		HesitationChance: 0.15,
	}
}

// Governor draws delays from the configured windows. Safe for use from a
// single automation flow; the RNG is guarded for the incidental case of
// progress goroutines sampling concurrently.
type Governor struct {
	cfg Config

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Governor seeded from the clock.
func New(cfg Config) *Governor {
	return NewWithSeed(cfg, time.Now().UnixNano())
}

// NewWithSeed creates a Governor with a fixed seed, for deterministic tests.
func NewWithSeed(cfg Config, seed int64) *Governor {
	return &Governor{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// ActionDelay returns the delay to insert before the next interaction,
// including the occasional hesitation addition.
func (g *Governor) ActionDelay() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := g.cfg.Action
	d := r.Min
	if r.Max > r.Min {
		d += g.rng.Intn(r.Max - r.Min + 1)
	}
	if g.rng.Float64() < g.cfg.HesitationChance {
		h := g.cfg.Hesitation
		d += h.Min
		if h.Max > h.Min {
			d += g.rng.Intn(h.Max - h.Min + 1)
		}
	}
	return time.Duration(d) * time.Millisecond
}

// KeystrokeDelay returns the delay between two simulated keystrokes.
func (g *Governor) KeystrokeDelay() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := g.cfg.Keystroke
	d := r.Min
	if r.Max > r.Min {
		d += g.rng.Intn(r.Max - r.Min + 1)
	}
	return time.Duration(d) * time.Millisecond
}

// Pause sleeps for one action delay, returning early if ctx is cancelled.
func (g *Governor) Pause(ctx context.Context) error {
	return sleep(ctx, g.ActionDelay())
}

// PauseKeystroke sleeps for one inter-keystroke delay.
func (g *Governor) PauseKeystroke(ctx context.Context) error {
	return sleep(ctx, g.KeystrokeDelay())
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
