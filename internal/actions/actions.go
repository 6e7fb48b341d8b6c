// Package actions provides the built-in handlers a scenario can reference.
package actions

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/stigoleg/coffeine/internal/input"
	"github.com/stigoleg/coffeine/internal/input/patterns"
	"github.com/stigoleg/coffeine/internal/logx"
	"github.com/stigoleg/coffeine/internal/registry"
	"github.com/stigoleg/coffeine/internal/scenario"
)

const (
	TypeRandomMouse  = "random_mouse"
	TypeWindowChange = "window_change"
	TypeIdle         = "idle"
)

const (
	mouseRange        = 200
	clickProbability  = 0.6
	scrollProbability = 0.4
	maxScroll         = 10
	switchHold        = 300 * time.Millisecond
)

// Set carries what the handlers share. Handlers run on the scheduler
// goroutine, but rnd is still guarded so tests may call them concurrently.
type Set struct {
	drv input.Driver
	log logx.Logger

	mu  sync.Mutex
	rnd *rand.Rand
	gen *patterns.Generator

	// wait pauses between pattern steps; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// Register adds every built-in handler to reg and returns the set backing them.
func Register(reg *registry.Registry, drv input.Driver, rnd *rand.Rand, log logx.Logger) *Set {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &Set{
		drv:  drv,
		log:  log.With(logx.String("component", "actions"), logx.String("driver", drv.Name())),
		rnd:  rnd,
		gen:  patterns.NewGenerator(rand.New(rand.NewSource(rnd.Int63())), patterns.DefaultTuning),
		wait: sleepCtx,
	}
	reg.Register(TypeRandomMouse, s.RandomMouse)
	reg.Register(TypeWindowChange, s.WindowChange)
	reg.Register(TypeIdle, s.Idle)
	return s
}

// RandomMouse nudges the pointer and may click or scroll.
//
// Parameters: pattern (bool), click (object of left/middle/right to bool),
// scroll (bool). All optional.
func (s *Set) RandomMouse(ctx context.Context, p scenario.Parameters) error {
	usePattern, err := optBool(p, "pattern")
	if err != nil {
		return err
	}
	buttons, err := enabledButtons(p)
	if err != nil {
		return err
	}
	scroll, err := optBool(p, "scroll")
	if err != nil {
		return err
	}

	if usePattern {
		if err := s.trace(ctx); err != nil {
			return err
		}
	} else {
		dx, dy := s.intn(2*mouseRange+1)-mouseRange, s.intn(2*mouseRange+1)-mouseRange
		if err := s.drv.Move(dx, dy); err != nil {
			return fmt.Errorf("move: %w", err)
		}
	}

	if len(buttons) > 0 && s.chance(clickProbability) {
		b := buttons[s.intn(len(buttons))]
		if err := s.drv.Click(b); err != nil {
			return fmt.Errorf("click %s: %w", b, err)
		}
	}
	if scroll && s.chance(scrollProbability) {
		n := 1 + s.intn(maxScroll)
		if err := s.drv.Scroll(n); err != nil {
			return fmt.Errorf("scroll: %w", err)
		}
	}
	return nil
}

// WindowChange presses alt+tab max_change-1 times. Each switch is a
// separate chord with tab held for switchHold, so two switches return to
// the window that had focus.
func (s *Set) WindowChange(ctx context.Context, p scenario.Parameters) error {
	n, err := reqInt(p, "max_change")
	if err != nil {
		return err
	}
	if n < 1 {
		return fmt.Errorf("max_change must be >= 1, got %d", n)
	}
	for i := 1; i < n; i++ {
		if err := s.chord(ctx, "alt", "tab", switchHold); err != nil {
			return fmt.Errorf("alt+tab: %w", err)
		}
	}
	return nil
}

// chord holds modifier, then key for hold, and releases both in reverse
// order. Keys that went down are released even when the wait is cut short.
func (s *Set) chord(ctx context.Context, modifier, key string, hold time.Duration) error {
	if err := s.drv.KeyDown(modifier); err != nil {
		return err
	}
	if err := s.drv.KeyDown(key); err != nil {
		return errors.Join(err, s.drv.KeyUp(modifier))
	}
	waitErr := s.wait(ctx, hold)
	return errors.Join(waitErr, s.drv.KeyUp(key), s.drv.KeyUp(modifier))
}

// Idle deliberately does nothing.
func (s *Set) Idle(context.Context, scenario.Parameters) error { return nil }

// trace moves along a generated shape, pausing between steps.
func (s *Set) trace(ctx context.Context) error {
	s.mu.Lock()
	shape, pts := s.gen.Random()
	steps := s.gen.Steps(pts)
	s.mu.Unlock()

	s.log.Debug("tracing pattern", logx.String("shape", shape.String()), logx.Int("steps", len(steps)))
	for _, st := range steps {
		if err := s.drv.Move(st.DX, st.DY); err != nil {
			return fmt.Errorf("pattern %s: %w", shape, err)
		}
		if err := s.wait(ctx, st.Wait); err != nil {
			return err
		}
	}
	return nil
}

func (s *Set) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

func (s *Set) chance(p float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64() < p
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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
