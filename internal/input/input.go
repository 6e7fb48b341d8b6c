// Package input drives the pointer and keyboard on behalf of action handlers.
package input

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/stigoleg/coffeine/internal/logx"
	"github.com/stigoleg/coffeine/internal/util"
)

type Button int

const (
	ButtonLeft Button = iota + 1
	ButtonMiddle
	ButtonRight
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	default:
		return fmt.Sprintf("button(%d)", int(b))
	}
}

// ParseButton accepts left, middle and right.
func ParseButton(s string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return ButtonLeft, nil
	case "middle":
		return ButtonMiddle, nil
	case "right":
		return ButtonRight, nil
	default:
		return 0, fmt.Errorf("unknown mouse button %q", s)
	}
}

// Driver performs synthetic input. Implementations are called from the
// scheduler goroutine only.
type Driver interface {
	Name() string
	// Move shifts the pointer relative to its current position.
	Move(dx, dy int) error
	Click(b Button) error
	// Scroll scrolls up by n notches.
	Scroll(n int) error
	// KeyDown presses key without releasing it. Key names are the lowercase
	// names in keyCodes.
	KeyDown(key string) error
	KeyUp(key string) error
}

// Detect picks the first usable driver for the current session: SendInput
// on Windows, osascript on macOS. On X11 it is xdotool, then ydotool, then
// uinput; under Wayland ydotool and uinput are tried first. With dryRun set,
// or when nothing is usable, the dry-run driver is returned.
func Detect(dryRun bool, log logx.Logger) Driver {
	return detect(dryRun, log, systemHost{})
}

type host interface {
	goos() string
	display() Display
	has(cmd string) bool
	uinput(log logx.Logger) (Driver, error)
	sendInput(log logx.Logger) (Driver, error)
	packageManager() string
}

type systemHost struct{}

func (systemHost) goos() string           { return runtime.GOOS }
func (systemHost) display() Display       { return DetectDisplay(os.Getenv) }
func (systemHost) has(cmd string) bool    { return util.HasCommand(cmd) }
func (systemHost) packageManager() string { return PackageManager() }
func (systemHost) uinput(log logx.Logger) (Driver, error) {
	u, err := NewUinput(log)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (systemHost) sendInput(log logx.Logger) (Driver, error) {
	s, err := NewSendInput(log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func detect(dryRun bool, log logx.Logger, p host) Driver {
	if dryRun {
		return NewDryRun(log)
	}

	switch p.goos() {
	case "windows":
		drv, err := p.sendInput(log)
		if err == nil {
			return drv
		}
		log.Warn("SendInput unavailable; actions will only be logged", logx.Err(err))
		return NewDryRun(log)
	case "darwin":
		if p.has(osascriptBin) {
			return NewOsascript(log)
		}
		log.Warn("osascript not found; actions will only be logged")
		return NewDryRun(log)
	}

	display := p.display()
	order := []string{xdotoolBin, ydotoolBin, "uinput"}
	if display == DisplayWayland {
		order = []string{ydotoolBin, "uinput", xdotoolBin}
	}

	for _, name := range order {
		switch name {
		case xdotoolBin:
			if p.has(xdotoolBin) {
				return NewXdotool(log)
			}
		case ydotoolBin:
			if p.has(ydotoolBin) {
				return NewYdotool(log)
			}
		case "uinput":
			drv, err := p.uinput(log)
			if err == nil {
				return drv
			}
			log.Debug("uinput unavailable", logx.Err(err))
		}
	}

	want := xdotoolBin
	if display == DisplayWayland {
		want = ydotoolBin
	}
	log.Warn("no input method available; actions will only be logged",
		logx.String("display", string(display)),
		logx.String("install", InstallHint(want, p.packageManager())))
	return NewDryRun(log)
}
