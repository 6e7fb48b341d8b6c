// Package gate holds the shared enabled/disabled switch. The scheduler reads
// it once per tick, so a change is observed within at most one sleep
// interval.
package gate

import (
	"sync"
	"sync/atomic"

	"github.com/stigoleg/coffeine/internal/logx"
	"github.com/stigoleg/coffeine/internal/presence"
)

// Gate is written by the UI and by active hours. Writes and the indicator
// notifications they trigger are serialized, so indicators always see the
// states in the order they were set.
type Gate struct {
	enabled atomic.Bool

	// mu serializes writers and guards indicators.
	mu         sync.Mutex
	indicators []presence.Indicator

	log logx.Logger
}

type Option func(*Gate)

func WithLogger(log logx.Logger) Option {
	return func(g *Gate) { g.log = log }
}

func New(initial bool, opts ...Option) *Gate {
	g := &Gate{}
	for _, opt := range opts {
		opt(g)
	}
	g.enabled.Store(initial)
	return g
}

// Attach registers an indicator that is refreshed on every state change.
// Indicators must not call back into the gate from SetVisualState.
func (g *Gate) Attach(ind presence.Indicator) {
	if ind == nil {
		return
	}
	g.mu.Lock()
	g.indicators = append(g.indicators, ind)
	g.mu.Unlock()
}

// IsEnabled is a pure read and never waits for a writer.
func (g *Gate) IsEnabled() bool {
	return g.enabled.Load()
}

// Toggle flips the state and returns the new value.
func (g *Gate) Toggle() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := !g.enabled.Load()
	g.enabled.Store(v)
	g.changed(v)
	return v
}

// Set forces the state and reports whether it changed. Indicators are only
// refreshed on an actual change.
func (g *Gate) Set(enabled bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.enabled.Load() == enabled {
		return false
	}
	g.enabled.Store(enabled)
	g.changed(enabled)
	return true
}

// changed runs with mu held.
func (g *Gate) changed(enabled bool) {
	if enabled {
		g.log.Info("coffeine enabled")
	} else {
		g.log.Info("coffeine disabled")
	}
	for _, ind := range g.indicators {
		ind.SetVisualState(enabled)
	}
}
