// Package presence defines the contract of the presence indicator, the
// visible surface that shows whether simulation is enabled.
package presence

import "github.com/stigoleg/coffeine/internal/logx"

// Indicator is implemented by the TUI and by the headless logger.
type Indicator interface {
	// SetVisualState refreshes the indicator. It must not block the caller.
	SetVisualState(enabled bool)
	// Shutdown releases the indicator. It is called once, on exit.
	Shutdown()
}

// LogIndicator reports state changes to the log. It is used when no
// terminal UI runs.
type LogIndicator struct {
	Log logx.Logger
}

func (l LogIndicator) SetVisualState(enabled bool) {
	l.Log.Info("presence indicator updated", logx.Bool("enabled", enabled))
}

func (l LogIndicator) Shutdown() {
	l.Log.Debug("presence indicator stopped")
}

// Func adapts plain functions to Indicator. Nil fields are no-ops.
type Func struct {
	OnState    func(enabled bool)
	OnShutdown func()
}

func (f Func) SetVisualState(enabled bool) {
	if f.OnState != nil {
		f.OnState(enabled)
	}
}

func (f Func) Shutdown() {
	if f.OnShutdown != nil {
		f.OnShutdown()
	}
}
