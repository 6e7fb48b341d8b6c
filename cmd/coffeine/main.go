package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/stigoleg/coffeine/internal/actions"
	"github.com/stigoleg/coffeine/internal/config"
	"github.com/stigoleg/coffeine/internal/gate"
	"github.com/stigoleg/coffeine/internal/input"
	"github.com/stigoleg/coffeine/internal/logx"
	"github.com/stigoleg/coffeine/internal/presence"
	"github.com/stigoleg/coffeine/internal/registry"
	"github.com/stigoleg/coffeine/internal/scenario"
	"github.com/stigoleg/coffeine/internal/scheduler"
	"github.com/stigoleg/coffeine/internal/ui"
	"github.com/stigoleg/coffeine/internal/window"
)

const appVersion = "0.3.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args)
	if errors.Is(err, config.ErrHelp) {
		fmt.Println(ui.Current.Help.Render(ui.Usage))
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, config.FormatError(err))
		return 1
	}
	if cfg.ShowVersion {
		fmt.Printf("Coffeine Version: %s\n", appVersion)
		return 0
	}

	log, closer, err := logx.Open(cfg.Logging())
	if err != nil {
		fmt.Fprintln(os.Stderr, config.FormatError(err))
		return 1
	}
	defer closer.Close()

	sc, err := scenario.Load(cfg.Scenario)
	if err != nil {
		log.Error("cannot load scenario", logx.Err(err))
		fmt.Fprintln(os.Stderr, config.FormatError(err))
		return 1
	}

	drv := input.Detect(cfg.DryRun, log)
	reg := registry.New()
	actions.Register(reg, drv, nil, log)
	if missing := reg.Missing(sc.Types()); len(missing) > 0 {
		log.Warn("scenario references types without a handler; they will be skipped",
			logx.Any("types", missing))
	}

	g := gate.New(cfg.Enabled, gate.WithLogger(log))

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals()...)
	defer stop()
	deadline := cfg.Deadline(time.Now())
	if !deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
		log.Info("run is bounded", logx.String("until", deadline.Format(time.RFC3339)))
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hours, err := window.Start(ctx, sc.Window(), g, log)
	if err != nil {
		log.Error("cannot start active hours", logx.Err(err))
		fmt.Fprintln(os.Stderr, config.FormatError(err))
		return 1
	}

	go func() {
		err := scenario.Watch(ctx, cfg.Scenario, func() {
			log.Warn("scenario file changed; restart coffeine to apply it", logx.String("path", cfg.Scenario))
		})
		if err != nil {
			log.Debug("scenario watch unavailable", logx.Err(err))
		}
	}()

	opts := []scheduler.Option{
		scheduler.WithLogger(log),
		scheduler.WithErrorPolicy(cfg.Policy),
		scheduler.WithCleanup("active hours", func() error {
			hours.Stop()
			return nil
		}),
	}
	if c, ok := drv.(io.Closer); ok {
		opts = append(opts, scheduler.WithCleanup("input driver", c.Close))
	}

	if cfg.Headless {
		ind := presence.LogIndicator{Log: log}
		g.Attach(ind)
		sched := scheduler.New(sc, reg, g, append(opts, scheduler.WithIndicator(ind))...)
		return exitCode(sched.Run(ctx))
	}

	var sched *scheduler.Scheduler
	model := ui.NewModel(g, ui.Options{
		Version:  appVersion,
		Summary:  summarize(cfg.Scenario, sc, drv),
		Stats:    func() scheduler.Stats { return sched.Stats() },
		Deadline: deadline,
	})
	p, ind := ui.NewProgram(model)
	g.Attach(ind)
	sched = scheduler.New(sc, reg, g, append(opts, scheduler.WithIndicator(ind))...)

	errc := make(chan error, 1)
	go func() { errc <- sched.Run(ctx) }()

	_, uiErr := p.Run()
	// the UI exits on quit or after the scheduler shut it down
	cancel()
	runErr := <-errc

	if uiErr != nil {
		log.Error("terminal UI failed", logx.Err(uiErr))
		fmt.Fprintln(os.Stderr, config.FormatError(uiErr))
		return 1
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, config.FormatError(runErr))
	}
	return exitCode(runErr)
}

func exitCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}

func summarize(path string, sc *scenario.Scenario, drv input.Driver) ui.Summary {
	s := ui.Summary{
		Path:    path,
		Items:   sc.Len(),
		Types:   sc.Types(),
		MinTick: sc.MinTick(),
		MaxTick: sc.MaxTick(),
		Driver:  drv.Name(),
	}
	if w := sc.Window(); w != nil {
		tz := w.Timezone
		if tz == "" {
			tz = "local"
		}
		s.Window = fmt.Sprintf("on %q, off %q (%s)", w.Enable, w.Disable, tz)
	}
	return s
}
