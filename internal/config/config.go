// Package config resolves coffeine's settings from the environment and the
// command line. Flags win over environment variables.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/lipgloss"

	"github.com/stigoleg/coffeine/internal/logx"
	"github.com/stigoleg/coffeine/internal/scheduler"
	"github.com/stigoleg/coffeine/internal/ui"
	"github.com/stigoleg/coffeine/internal/util"
)

// ErrHelp is returned when -h or --help was given.
var ErrHelp = flag.ErrHelp

// Settings are the options that may come from the environment.
type Settings struct {
	Scenario string `env:"COFFEINE_SCENARIO"         envDefault:"scenario.json"`
	Enabled  bool   `env:"COFFEINE_ENABLED"`
	Headless bool   `env:"COFFEINE_HEADLESS"`
	DryRun   bool   `env:"COFFEINE_DRY_RUN"`
	OnError  string `env:"COFFEINE_ON_HANDLER_ERROR" envDefault:"abort"`
	LogLevel string `env:"COFFEINE_LOG_LEVEL"        envDefault:"info"`
	LogFile  string `env:"COFFEINE_LOG_FILE"         envDefault:"coffeine.log"`
}

type Config struct {
	Settings

	Policy      scheduler.Policy
	Duration    time.Duration
	Until       time.Time
	ShowVersion bool
}

// Load reads the process environment and args (without the program name).
func Load(args []string) (*Config, error) {
	return Parse(args, env.ToMap(os.Environ()), time.Now())
}

// Parse resolves a Config from explicit inputs. now anchors --clock.
func Parse(args []string, environ map[string]string, now time.Time) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg.Settings, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	flags := flag.NewFlagSet("coffeine", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	flags.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "Scenario file (JSON or YAML)")
	flags.StringVar(&cfg.Scenario, "s", cfg.Scenario, "Scenario file (JSON or YAML)")
	flags.BoolVar(&cfg.Enabled, "enabled", cfg.Enabled, "Start active")
	flags.BoolVar(&cfg.Enabled, "e", cfg.Enabled, "Start active")
	flags.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Run without the terminal UI")
	flags.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Log actions instead of generating input")
	flags.StringVar(&cfg.OnError, "on-error", cfg.OnError, "Handler failure policy: abort or continue")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file")
	duration := flags.String("duration", "", "Stop after a duration (e.g., \"2h30m\")")
	flags.StringVar(duration, "d", "", "Stop after a duration (e.g., \"2h30m\")")
	clock := flags.String("clock", "", "Stop at a clock time (e.g., \"22:00\")")
	flags.StringVar(clock, "c", "", "Stop at a clock time (e.g., \"22:00\")")
	flags.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flags.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, ErrHelp
		}
		return nil, err
	}
	if flags.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}
	if cfg.ShowVersion {
		return &cfg, nil
	}

	if *duration != "" && *clock != "" {
		return nil, errors.New("cannot use both --duration and --clock")
	}
	if *duration != "" {
		d, err := util.ParseDuration(*duration)
		if err != nil {
			return nil, err
		}
		cfg.Duration = d
	}
	if *clock != "" {
		at, err := util.ParseClock(*clock, now)
		if err != nil {
			return nil, err
		}
		cfg.Until = at
	}

	policy, err := scheduler.ParsePolicy(cfg.OnError)
	if err != nil {
		return nil, err
	}
	cfg.Policy = policy

	if strings.TrimSpace(cfg.Scenario) == "" {
		return nil, errors.New("scenario path must not be empty")
	}
	return &cfg, nil
}

// Deadline returns when the run should end, or the zero time for an open
// ended run.
func (c *Config) Deadline(start time.Time) time.Time {
	switch {
	case c.Duration > 0:
		return start.Add(c.Duration)
	case !c.Until.IsZero():
		return c.Until
	default:
		return time.Time{}
	}
}

// Logging returns the logger settings. The TUI owns the terminal, so
// console output is only enabled in headless mode.
func (c *Config) Logging() logx.Config {
	return logx.Config{Level: c.LogLevel, Console: c.Headless, File: c.LogFile}
}

// FormatError renders an error for the terminal. Errors carrying format help
// after a blank line are boxed with the help below the message.
func FormatError(err error) string {
	msg := err.Error()
	parts := strings.SplitN(msg, "\n\n", 2)
	if len(parts) != 2 {
		return ui.Current.Error.Render(msg)
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF4040")).
		Render(parts[0])

	details := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#999999")).
		Render(parts[1])

	return ui.Current.ErrorBox.Render(fmt.Sprintf("%s\n\n%s", header, details))
}
