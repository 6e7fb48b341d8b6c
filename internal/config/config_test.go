package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/coffeine/internal/scheduler"
)

var now = time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)

func TestDefaults(t *testing.T) {
	cfg, err := Parse(nil, map[string]string{}, now)
	require.NoError(t, err)

	assert.Equal(t, "scenario.json", cfg.Scenario)
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.Headless)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, scheduler.PolicyAbort, cfg.Policy)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "coffeine.log", cfg.LogFile)
	assert.True(t, cfg.Deadline(now).IsZero())
}

func TestEnvironment(t *testing.T) {
	cfg, err := Parse(nil, map[string]string{
		"COFFEINE_SCENARIO":         "office.yaml",
		"COFFEINE_ENABLED":          "true",
		"COFFEINE_HEADLESS":         "1",
		"COFFEINE_DRY_RUN":          "true",
		"COFFEINE_ON_HANDLER_ERROR": "continue",
		"COFFEINE_LOG_LEVEL":        "debug",
		"COFFEINE_LOG_FILE":         "",
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "office.yaml", cfg.Scenario)
	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.Headless)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, scheduler.PolicyContinue, cfg.Policy)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "debug", cfg.Logging().Level)
	assert.True(t, cfg.Logging().Console)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	cfg, err := Parse(
		[]string{"-s", "flag.json", "--on-error", "abort", "--enabled=false"},
		map[string]string{"COFFEINE_SCENARIO": "env.json", "COFFEINE_ON_HANDLER_ERROR": "continue", "COFFEINE_ENABLED": "true"},
		now,
	)
	require.NoError(t, err)
	assert.Equal(t, "flag.json", cfg.Scenario)
	assert.Equal(t, scheduler.PolicyAbort, cfg.Policy)
	assert.False(t, cfg.Enabled)
}

func TestRunLength(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		deadline time.Time
	}{
		{"duration string", []string{"-d", "2h30m"}, now.Add(150 * time.Minute)},
		{"duration minutes", []string{"--duration", "150"}, now.Add(150 * time.Minute)},
		{"clock 24h", []string{"-c", "22:30"}, time.Date(2024, 1, 1, 22, 30, 0, 0, time.Local)},
		{"clock 12h", []string{"--clock", "10:30PM"}, time.Date(2024, 1, 1, 22, 30, 0, 0, time.Local)},
		{"clock already passed", []string{"-c", "09:45AM"}, time.Date(2024, 1, 2, 9, 45, 0, 0, time.Local)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse(tt.args, map[string]string{}, now)
			require.NoError(t, err)
			assert.True(t, tt.deadline.Equal(cfg.Deadline(now)), "got %s want %s", cfg.Deadline(now), tt.deadline)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		environ map[string]string
		want    string
	}{
		{"both duration and clock", []string{"-d", "2h", "-c", "22:30"}, nil, "cannot use both"},
		{"bad duration", []string{"-d", "soon"}, nil, "Valid formats"},
		{"bad clock", []string{"-c", "25:00"}, nil, "Valid formats"},
		{"bad policy flag", []string{"--on-error", "retry"}, nil, "unknown handler error policy"},
		{"bad policy env", nil, map[string]string{"COFFEINE_ON_HANDLER_ERROR": "ignore"}, "unknown handler error policy"},
		{"bad bool env", nil, map[string]string{"COFFEINE_ENABLED": "maybe"}, "parse env"},
		{"unknown flag", []string{"--turbo"}, nil, "turbo"},
		{"positional", []string{"extra"}, nil, "unexpected arguments"},
		{"empty scenario", []string{"-s", " "}, nil, "scenario path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			environ := tt.environ
			if environ == nil {
				environ = map[string]string{}
			}
			_, err := Parse(tt.args, environ, now)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestHelpAndVersion(t *testing.T) {
	_, err := Parse([]string{"--help"}, map[string]string{}, now)
	assert.True(t, errors.Is(err, ErrHelp))

	cfg, err := Parse([]string{"-v", "-d", "nonsense"}, map[string]string{}, now)
	require.NoError(t, err)
	assert.True(t, cfg.ShowVersion)
}

func TestFormatError(t *testing.T) {
	plain := FormatError(errors.New("boom"))
	assert.Contains(t, plain, "boom")

	_, err := Parse([]string{"-d", "soon"}, map[string]string{}, now)
	require.Error(t, err)
	boxed := FormatError(err)
	assert.Contains(t, boxed, "invalid duration")
	assert.Contains(t, boxed, "Valid formats")
	assert.Contains(t, boxed, "╭")
}
