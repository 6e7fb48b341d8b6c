package scheduler

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/coffeine/internal/gate"
	"github.com/stigoleg/coffeine/internal/logx"
	"github.com/stigoleg/coffeine/internal/presence"
	"github.com/stigoleg/coffeine/internal/registry"
	"github.com/stigoleg/coffeine/internal/scenario"
)

// simClock replaces the real sleep. It advances simulated time and cancels
// the run once until is reached or after stopAfter sleeps.
type simClock struct {
	now       time.Duration
	until     time.Duration
	stopAfter int
	sleeps    int
	cancel    context.CancelFunc
	onSleep   func(n int)
}

func (c *simClock) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now += d
	c.sleeps++
	if c.onSleep != nil {
		c.onSleep(c.sleeps)
	}
	if (c.until > 0 && c.now >= c.until) || (c.stopAfter > 0 && c.sleeps >= c.stopAfter) {
		c.cancel()
		return ctx.Err()
	}
	return nil
}

func mustScenario(t *testing.T, min, max time.Duration, types ...string) *scenario.Scenario {
	t.Helper()
	items := make([]scenario.ActionDescriptor, 0, len(types))
	for _, typ := range types {
		items = append(items, scenario.ActionDescriptor{Type: typ, Parameters: scenario.Parameters{"name": typ}})
	}
	sc, err := scenario.New(items, min, max)
	require.NoError(t, err)
	return sc
}

func counting(n *atomic.Int64) registry.Handler {
	return func(context.Context, scenario.Parameters) error {
		n.Add(1)
		return nil
	}
}

func TestRunExampleScenario(t *testing.T) {
	sc := mustScenario(t, 100*time.Millisecond, 100*time.Millisecond, "noop")
	reg := registry.New()
	var calls atomic.Int64
	reg.Register("noop", counting(&calls))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &simClock{until: time.Second, cancel: cancel}

	s := New(sc, reg, gate.New(true), WithSleep(clock.sleep), WithRand(rand.New(rand.NewSource(1))))
	require.NoError(t, s.Run(ctx))

	assert.InDelta(t, 10, calls.Load(), 1)
	assert.Equal(t, calls.Load(), s.Stats().Executed)
	assert.Equal(t, "noop", s.Stats().LastType)
}

func TestSelectionIsUniform(t *testing.T) {
	types := []string{"a", "b", "c", "d"}
	sc := mustScenario(t, 0, 0, types...)
	reg := registry.New()

	counts := make(map[string]*atomic.Int64, len(types))
	for _, typ := range types {
		c := new(atomic.Int64)
		counts[typ] = c
		reg.Register(typ, counting(c))
	}

	const n = 20000
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &simClock{stopAfter: n, cancel: cancel}

	s := New(sc, reg, gate.New(true), WithSleep(clock.sleep), WithRand(rand.New(rand.NewSource(42))))
	require.NoError(t, s.Run(ctx))

	var total int64
	for _, typ := range types {
		freq := float64(counts[typ].Load()) / n
		assert.InDelta(t, 0.25, freq, 0.02, "type %s selected with frequency %.4f", typ, freq)
		total += counts[typ].Load()
	}
	assert.EqualValues(t, n, total)
}

func TestDuplicateItemsWeightSelection(t *testing.T) {
	sc := mustScenario(t, 0, 0, "heavy", "heavy", "heavy", "light")
	reg := registry.New()
	var heavy, light atomic.Int64
	reg.Register("heavy", counting(&heavy))
	reg.Register("light", counting(&light))

	const n = 20000
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &simClock{stopAfter: n, cancel: cancel}

	s := New(sc, reg, gate.New(true), WithSleep(clock.sleep), WithRand(rand.New(rand.NewSource(7))))
	require.NoError(t, s.Run(ctx))

	assert.InDelta(t, 0.75, float64(heavy.Load())/n, 0.02)
	assert.InDelta(t, 0.25, float64(light.Load())/n, 0.02)
}

func TestGateToggleObservedNextTick(t *testing.T) {
	sc := mustScenario(t, time.Second, time.Second, "noop")
	reg := registry.New()
	var calls atomic.Int64
	reg.Register("noop", counting(&calls))

	g := gate.New(false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := make(map[int]int64)
	clock := &simClock{stopAfter: 10, cancel: cancel}
	clock.onSleep = func(n int) {
		seen[n] = calls.Load()
		switch n {
		case 3:
			g.Toggle()
		case 6:
			g.Toggle()
		}
	}

	s := New(sc, reg, g, WithSleep(clock.sleep))
	require.NoError(t, s.Run(ctx))

	assert.EqualValues(t, 0, seen[3], "disabled gate must not execute")
	assert.EqualValues(t, 1, seen[4], "first tick after enabling must execute")
	assert.EqualValues(t, 3, seen[6])
	assert.EqualValues(t, 3, seen[10], "no execution after disabling")
	assert.EqualValues(t, 3, s.Stats().Ticks)
}

func TestSleepsEvenWhenDisabled(t *testing.T) {
	sc := mustScenario(t, 2*time.Second, 2*time.Second, "noop")
	reg := registry.New()
	var calls atomic.Int64
	reg.Register("noop", counting(&calls))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &simClock{stopAfter: 5, cancel: cancel}

	s := New(sc, reg, gate.New(false), WithSleep(clock.sleep))
	require.NoError(t, s.Run(ctx))

	assert.Zero(t, calls.Load())
	assert.Equal(t, 10*time.Second, clock.now)
}

func TestUnknownTypeDoesNotStopLoop(t *testing.T) {
	sc := mustScenario(t, 0, 0, "missing", "noop")
	reg := registry.New()
	var calls atomic.Int64
	reg.Register("noop", counting(&calls))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &simClock{stopAfter: 200, cancel: cancel}

	s := New(sc, reg, gate.New(true), WithSleep(clock.sleep), WithRand(rand.New(rand.NewSource(3))))
	require.NoError(t, s.Run(ctx))

	st := s.Stats()
	assert.EqualValues(t, 200, st.Ticks)
	assert.Positive(t, st.Unknown)
	assert.Positive(t, calls.Load())
	assert.Equal(t, st.Ticks, st.Unknown+st.Executed)
	assert.Zero(t, st.Failed)
}

func TestDispatch(t *testing.T) {
	reg := registry.New()
	var got scenario.Parameters
	reg.Register("echo", func(_ context.Context, p scenario.Parameters) error {
		got = p
		return nil
	})
	reg.Register("fail", func(context.Context, scenario.Parameters) error { return errors.New("boom") })
	reg.Register("panic", func(context.Context, scenario.Parameters) error { panic("kaboom") })

	s := New(mustScenario(t, 0, 0, "echo"), reg, gate.New(true))
	ctx := context.Background()

	params := scenario.Parameters{"nested": map[string]any{"x": 1.5}}
	require.NoError(t, s.Dispatch(ctx, scenario.ActionDescriptor{Type: "echo", Parameters: params}))
	assert.Equal(t, params, got, "parameters are passed verbatim")

	err := s.Dispatch(ctx, scenario.ActionDescriptor{Type: "nope"})
	var unknown *UnknownActionTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Type)

	err = s.Dispatch(ctx, scenario.ActionDescriptor{Type: "fail"})
	var herr *HandlerExecutionError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, "fail", herr.Type)
	assert.EqualError(t, errors.Unwrap(err), "boom")

	err = s.Dispatch(ctx, scenario.ActionDescriptor{Type: "panic"})
	require.ErrorAs(t, err, &herr)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestHandlerCannotMutateScenario(t *testing.T) {
	sc, err := scenario.New([]scenario.ActionDescriptor{
		{Type: "greedy", Parameters: scenario.Parameters{"n": 1.0, "nested": map[string]any{"k": "v"}}},
	}, 0, 0)
	require.NoError(t, err)

	var seen []scenario.Parameters
	reg := registry.New()
	reg.Register("greedy", func(_ context.Context, p scenario.Parameters) error {
		seen = append(seen, scenario.Parameters{"n": p["n"], "k": p["nested"].(map[string]any)["k"], "injected": p["injected"]})
		p["n"] = 99.0
		p["injected"] = true
		p["nested"].(map[string]any)["k"] = "changed"
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &simClock{stopAfter: 3, cancel: cancel}

	s := New(sc, reg, gate.New(true), WithSleep(clock.sleep))
	require.NoError(t, s.Run(ctx))

	require.Len(t, seen, 3)
	for _, p := range seen {
		assert.Equal(t, scenario.Parameters{"n": 1.0, "k": "v", "injected": nil}, p)
	}
	assert.Equal(t, scenario.Parameters{"n": 1.0, "nested": map[string]any{"k": "v"}}, sc.Item(0).Parameters)
}

func TestAbortPolicyReturnsHandlerError(t *testing.T) {
	boom := errors.New("boom")
	sc := mustScenario(t, 0, 0, "fail")
	reg := registry.New()
	reg.Register("fail", func(context.Context, scenario.Parameters) error { return boom })

	var shutdowns atomic.Int64
	ind := presence.Func{OnShutdown: func() { shutdowns.Add(1) }}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &simClock{stopAfter: 100, cancel: cancel}

	s := New(sc, reg, gate.New(true), WithSleep(clock.sleep), WithIndicator(ind))
	err := s.Run(ctx)

	var herr *HandlerExecutionError
	require.ErrorAs(t, err, &herr)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, clock.sleeps, "abort happens before the first sleep")
	assert.EqualValues(t, 1, shutdowns.Load(), "indicator is released on abort")
	assert.EqualValues(t, 1, s.Stats().Failed)
}

func TestContinuePolicyKeepsTicking(t *testing.T) {
	sc := mustScenario(t, 0, 0, "fail")
	reg := registry.New()
	var calls atomic.Int64
	reg.Register("fail", func(context.Context, scenario.Parameters) error {
		calls.Add(1)
		return errors.New("boom")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &simClock{stopAfter: 5, cancel: cancel}

	s := New(sc, reg, gate.New(true), WithSleep(clock.sleep), WithErrorPolicy(PolicyContinue))
	require.NoError(t, s.Run(ctx))

	assert.EqualValues(t, 5, calls.Load())
	st := s.Stats()
	assert.EqualValues(t, 5, st.Failed)
	assert.Zero(t, st.Executed)
	assert.Contains(t, st.LastError, "boom")
}

func TestHandlerInterruptedByShutdownIsNotFatal(t *testing.T) {
	sc := mustScenario(t, 0, 0, "slow")
	reg := registry.New()

	ctx, cancel := context.WithCancel(context.Background())
	reg.Register("slow", func(ctx context.Context, _ scenario.Parameters) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	})

	s := New(sc, reg, gate.New(true))
	assert.NoError(t, s.Run(ctx))
}

func TestCancellationDuringSleepReturnsPromptly(t *testing.T) {
	sc := mustScenario(t, 10*time.Second, 10*time.Second, "noop")
	reg := registry.New()
	reg.Register("noop", func(context.Context, scenario.Parameters) error { return nil })

	var shutdowns, cleanups atomic.Int64
	ind := presence.Func{OnShutdown: func() { shutdowns.Add(1) }}

	ctx, cancel := context.WithCancel(context.Background())
	s := New(sc, reg, gate.New(true),
		WithIndicator(ind),
		WithCleanup("window", func() error { cleanups.Add(1); return nil }),
	)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancelled := time.Now()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.Less(t, time.Since(cancelled), 50*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.EqualValues(t, 1, shutdowns.Load())
	assert.EqualValues(t, 1, cleanups.Load())
}

func TestCleanupFailureLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	sc := mustScenario(t, 0, 0, "noop")
	reg := registry.New()
	reg.Register("noop", func(context.Context, scenario.Parameters) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(sc, reg, gate.New(true),
		WithLogger(logx.New(&buf, "debug")),
		WithCleanup("window", func() error { return errors.New("cron stuck") }),
	)
	require.NoError(t, s.Run(ctx))
	assert.Equal(t, 1, strings.Count(buf.String(), "cron stuck"))
}

func TestRunWithCancelledContext(t *testing.T) {
	sc := mustScenario(t, 0, 0, "noop")
	reg := registry.New()
	var calls atomic.Int64
	reg.Register("noop", counting(&calls))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(sc, reg, gate.New(true))
	require.NoError(t, s.Run(ctx))
	assert.Zero(t, calls.Load())
}

func TestNextIntervalWithinBounds(t *testing.T) {
	sc := mustScenario(t, 500*time.Millisecond, 1500*time.Millisecond, "noop")
	s := New(sc, registry.New(), gate.New(false), WithRand(rand.New(rand.NewSource(9))))

	var below, above bool
	for i := 0; i < 5000; i++ {
		d := s.nextInterval()
		require.GreaterOrEqual(t, d, 500*time.Millisecond)
		require.LessOrEqual(t, d, 1500*time.Millisecond)
		below = below || d < time.Second
		above = above || d > time.Second
	}
	assert.True(t, below && above, "intervals should spread across the range")

	fixed := New(mustScenario(t, time.Second, time.Second, "noop"), registry.New(), gate.New(false))
	assert.Equal(t, time.Second, fixed.nextInterval())
}

func TestUnknownWarningsAreRateLimited(t *testing.T) {
	var buf bytes.Buffer
	log := logx.New(&buf, "debug")

	sc := mustScenario(t, 0, 0, "missing")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &simClock{stopAfter: 10, cancel: cancel}

	s := New(sc, registry.New(), gate.New(true),
		WithSleep(clock.sleep),
		WithLogger(log),
		WithWarnLimit(time.Hour, 2),
	)
	require.NoError(t, s.Run(ctx))

	var warns, debugs int
	for _, line := range strings.Split(buf.String(), "\n") {
		if !strings.Contains(line, "is not available") {
			continue
		}
		switch {
		case strings.Contains(line, `"level":"warn"`):
			warns++
		case strings.Contains(line, `"level":"debug"`):
			debugs++
		}
	}
	assert.Equal(t, 2, warns)
	assert.Equal(t, 8, debugs)
	assert.EqualValues(t, 10, s.Stats().Unknown)
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, Sleep(ctx, 0), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), 0))
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyAbort, false},
		{"abort", PolicyAbort, false},
		{"Continue", PolicyContinue, false},
		{"ignore", PolicyAbort, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, strings.ToLower(tt.want.String()), got.String())
		})
	}
}
