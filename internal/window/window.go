// Package window switches the gate on and off at the scenario's active hours.
package window

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stigoleg/coffeine/internal/gate"
	"github.com/stigoleg/coffeine/internal/logx"
	"github.com/stigoleg/coffeine/internal/scenario"
)

// Hours is a running active-hours schedule.
type Hours struct {
	c       *cron.Cron
	gate    *gate.Gate
	log     logx.Logger
	loc     *time.Location
	enable  cron.Schedule
	disable cron.Schedule

	stopOnce sync.Once
}

// Start applies the state the window is currently in, then schedules the
// enable and disable expressions. A nil window returns a nil *Hours, on which
// Stop is a no-op. The schedule stops by itself when ctx is done.
func Start(ctx context.Context, w *scenario.Window, g *gate.Gate, log logx.Logger) (*Hours, error) {
	if w == nil {
		return nil, nil
	}
	h, err := newHours(w, g, log)
	if err != nil {
		return nil, err
	}

	now := time.Now().In(h.loc)
	inside := h.Inside(now)
	h.log.Info("active hours configured",
		logx.String("enable", w.Enable),
		logx.String("disable", w.Disable),
		logx.String("tz", h.loc.String()),
		logx.Bool("inside", inside),
		logx.String("next_enable", h.enable.Next(now).Format(time.RFC3339)),
		logx.String("next_disable", h.disable.Next(now).Format(time.RFC3339)),
	)
	g.Set(inside)

	h.c.Schedule(h.enable, cron.FuncJob(h.open))
	h.c.Schedule(h.disable, cron.FuncJob(h.close))
	h.c.Start()

	go func() {
		<-ctx.Done()
		h.Stop()
	}()
	return h, nil
}

func newHours(w *scenario.Window, g *gate.Gate, log logx.Logger) (*Hours, error) {
	loc, err := w.Location()
	if err != nil {
		return nil, fmt.Errorf("active hours timezone: %w", err)
	}
	enable, err := scenario.CronParser.Parse(w.Enable)
	if err != nil {
		return nil, fmt.Errorf("active hours enable: %w", err)
	}
	disable, err := scenario.CronParser.Parse(w.Disable)
	if err != nil {
		return nil, fmt.Errorf("active hours disable: %w", err)
	}
	return &Hours{
		c:       cron.New(cron.WithParser(scenario.CronParser), cron.WithLocation(loc)),
		gate:    g,
		log:     log.With(logx.String("component", "window")),
		loc:     loc,
		enable:  enable,
		disable: disable,
	}, nil
}

// Inside reports whether t falls between an enable and the following
// disable. That holds exactly when the next disable comes before the next
// enable.
func (h *Hours) Inside(t time.Time) bool {
	t = t.In(h.loc)
	nextOn, nextOff := h.enable.Next(t), h.disable.Next(t)
	if nextOn.IsZero() || nextOff.IsZero() {
		return false
	}
	return nextOff.Before(nextOn)
}

// Stop halts the schedule and waits for a running job to finish.
func (h *Hours) Stop() {
	if h == nil {
		return
	}
	h.stopOnce.Do(func() {
		<-h.c.Stop().Done()
		h.log.Debug("active hours stopped")
	})
}

func (h *Hours) open() {
	if h.gate.Set(true) {
		h.log.Info("active hours started")
	}
}

func (h *Hours) close() {
	if h.gate.Set(false) {
		h.log.Info("active hours ended")
	}
}
