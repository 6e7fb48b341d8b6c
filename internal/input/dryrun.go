package input

import (
	"fmt"
	"sync"

	"github.com/stigoleg/coffeine/internal/logx"
)

// DryRun logs every call instead of generating input, and keeps a record of
// them for inspection.
type DryRun struct {
	log logx.Logger

	mu    sync.Mutex
	calls []string
}

func NewDryRun(log logx.Logger) *DryRun {
	return &DryRun{log: log}
}

func (d *DryRun) Name() string { return "dry-run" }

func (d *DryRun) Move(dx, dy int) error {
	d.record(fmt.Sprintf("move %d %d", dx, dy))
	return nil
}

func (d *DryRun) Click(b Button) error {
	d.record("click " + b.String())
	return nil
}

func (d *DryRun) Scroll(n int) error {
	d.record(fmt.Sprintf("scroll %d", n))
	return nil
}

func (d *DryRun) KeyDown(key string) error {
	d.record("keydown " + key)
	return nil
}

func (d *DryRun) KeyUp(key string) error {
	d.record("keyup " + key)
	return nil
}

// Calls returns what has been recorded so far.
func (d *DryRun) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *DryRun) record(call string) {
	d.mu.Lock()
	d.calls = append(d.calls, call)
	d.mu.Unlock()
	d.log.Debug("dry-run input", logx.String("call", call))
}
