// Package scheduler runs the tick loop: while the gate is enabled it picks one
// scenario item uniformly at random, dispatches it to its handler, then sleeps
// for a random duration between the scenario's tick bounds.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/stigoleg/coffeine/internal/gate"
	"github.com/stigoleg/coffeine/internal/lifecycle"
	"github.com/stigoleg/coffeine/internal/logx"
	"github.com/stigoleg/coffeine/internal/presence"
	"github.com/stigoleg/coffeine/internal/registry"
	"github.com/stigoleg/coffeine/internal/scenario"
)

// SleepFunc waits for d or until ctx is done, whichever comes first. It
// returns ctx.Err() when interrupted.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Scheduler owns the scenario for its lifetime. Run must be called at most once.
type Scheduler struct {
	scenario *scenario.Scenario
	registry *registry.Registry
	gate     *gate.Gate

	log       logx.Logger
	rnd       *rand.Rand
	sleep     SleepFunc
	policy    Policy
	indicator presence.Indicator
	cleanup   *lifecycle.Manager
	onStop    []cleanupEntry

	warnEvery rate.Limit
	warnBurst int
	warnMu    sync.Mutex
	warners   map[string]*rate.Limiter

	stats stats
}

func New(sc *scenario.Scenario, reg *registry.Registry, g *gate.Gate, opts ...Option) *Scheduler {
	s := &Scheduler{
		scenario:  sc,
		registry:  reg,
		gate:      g,
		sleep:     Sleep,
		policy:    PolicyAbort,
		warnEvery: rate.Every(time.Minute),
		warnBurst: 3,
		warners:   make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s.cleanup = lifecycle.NewManager(lifecycle.DefaultTimeout, s.log)
	for _, c := range s.onStop {
		s.cleanup.RegisterFunc(c.name, c.fn)
	}
	if s.indicator != nil {
		ind := s.indicator
		s.cleanup.RegisterFunc("presence indicator", func() error {
			ind.Shutdown()
			return nil
		})
	}
	return s
}

// Run blocks until ctx is cancelled or, under PolicyAbort, a handler fails.
// Cancellation is a clean stop and returns nil. Cleanup runs in both cases.
func (s *Scheduler) Run(ctx context.Context) (err error) {
	s.log.Info("coffeine started",
		logx.Int("items", s.scenario.Len()),
		logx.Duration("min_tick", s.scenario.MinTick()),
		logx.Duration("max_tick", s.scenario.MaxTick()),
		logx.String("on_error", s.policy.String()),
	)
	defer func() {
		// the manager logs each failure itself
		s.cleanup.Execute()
		if err != nil {
			s.log.Error("coffeine stopped", logx.Err(err))
		} else {
			s.log.Info("coffeine stopped")
		}
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		if s.gate.IsEnabled() {
			if err := s.tick(ctx); err != nil {
				return err
			}
		}

		if err := s.sleep(ctx, s.nextInterval()); err != nil {
			return nil
		}
	}
}

// tick runs one selection and dispatch. Only a handler failure under
// PolicyAbort is returned.
func (s *Scheduler) tick(ctx context.Context) error {
	s.stats.ticks.Add(1)
	item := s.pick()

	err := s.Dispatch(ctx, item)
	if err == nil {
		return nil
	}

	var unknown *UnknownActionTypeError
	if errors.As(err, &unknown) {
		s.stats.unknown.Add(1)
		s.warnUnknown(unknown.Type)
		return nil
	}

	s.stats.failed.Add(1)
	s.stats.setLastError(err)
	if ctx.Err() != nil {
		// cut short by shutdown, not a failure
		s.log.Debug("action interrupted by shutdown", logx.String("type", item.Type), logx.Err(err))
		return nil
	}
	if s.policy == PolicyContinue {
		s.log.Error("action failed", logx.String("type", item.Type), logx.Err(err))
		return nil
	}
	return err
}

// Dispatch looks up the handler for d.Type and runs it synchronously. It
// returns *UnknownActionTypeError when no handler is registered and
// *HandlerExecutionError when the handler fails or panics.
func (s *Scheduler) Dispatch(ctx context.Context, d scenario.ActionDescriptor) (err error) {
	h, ok := s.registry.Lookup(d.Type)
	if !ok {
		return &UnknownActionTypeError{Type: d.Type}
	}

	s.stats.setLastType(d.Type)
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerExecutionError{Type: d.Type, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if herr := h(ctx, d.Parameters); herr != nil {
		return &HandlerExecutionError{Type: d.Type, Err: herr}
	}

	s.stats.executed.Add(1)
	s.log.Info("executed action", logx.String("type", d.Type))
	return nil
}

// pick draws one item uniformly, with replacement.
func (s *Scheduler) pick() scenario.ActionDescriptor {
	return s.scenario.Item(s.rnd.Intn(s.scenario.Len()))
}

// nextInterval draws uniformly from [min, max].
func (s *Scheduler) nextInterval() time.Duration {
	lo, hi := s.scenario.MinTick(), s.scenario.MaxTick()
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(s.rnd.Float64()*float64(hi-lo))
}

func (s *Scheduler) warnUnknown(typ string) {
	s.warnMu.Lock()
	lim, ok := s.warners[typ]
	if !ok {
		lim = rate.NewLimiter(s.warnEvery, s.warnBurst)
		s.warners[typ] = lim
	}
	s.warnMu.Unlock()

	if lim.Allow() {
		s.log.Warn("scenario item type is not available", logx.String("type", typ))
		return
	}
	s.log.Debug("scenario item type is not available", logx.String("type", typ))
}

// Sleep waits for d, returning early with ctx.Err() on cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
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
