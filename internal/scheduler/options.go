package scheduler

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/stigoleg/coffeine/internal/logx"
	"github.com/stigoleg/coffeine/internal/presence"
)

// Policy decides what a failing handler does to the loop.
type Policy int

const (
	// PolicyAbort stops Run and returns the *HandlerExecutionError.
	PolicyAbort Policy = iota
	// PolicyContinue logs the failure and keeps ticking.
	PolicyContinue
)

func (p Policy) String() string {
	switch p {
	case PolicyAbort:
		return "abort"
	case PolicyContinue:
		return "continue"
	default:
		return "unknown"
	}
}

// ParsePolicy accepts "abort" and "continue" (case-insensitive).
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return PolicyAbort, nil
	case "continue":
		return PolicyContinue, nil
	default:
		return PolicyAbort, fmt.Errorf("unknown handler error policy %q (want abort or continue)", s)
	}
}

type cleanupEntry struct {
	name string
	fn   func() error
}

type Option func(*Scheduler)

func WithLogger(log logx.Logger) Option {
	return func(s *Scheduler) { s.log = log.With(logx.String("component", "scheduler")) }
}

// WithRand sets the random source used for selection and intervals. Tests
// pass a seeded source for reproducible runs.
func WithRand(rnd *rand.Rand) Option {
	return func(s *Scheduler) { s.rnd = rnd }
}

// WithSleep replaces the interruptible sleep, e.g. with a simulated clock.
func WithSleep(fn SleepFunc) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

func WithErrorPolicy(p Policy) Option {
	return func(s *Scheduler) { s.policy = p }
}

// WithIndicator hands ownership of the presence indicator to the scheduler;
// it is shut down when Run returns.
func WithIndicator(ind presence.Indicator) Option {
	return func(s *Scheduler) { s.indicator = ind }
}

// WithCleanup registers extra work to run when Run returns, before the
// indicator is shut down.
func WithCleanup(name string, fn func() error) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.onStop = append(s.onStop, cleanupEntry{name: name, fn: fn})
		}
	}
}

// WithWarnLimit bounds how often the unknown-type warning is logged per
// type; excess reports drop to debug level.
func WithWarnLimit(every time.Duration, burst int) Option {
	return func(s *Scheduler) {
		s.warnEvery = rate.Every(every)
		if burst > 0 {
			s.warnBurst = burst
		}
	}
}
