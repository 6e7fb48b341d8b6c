package input

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stigoleg/coffeine/internal/logx"
)

const ydotoolBin = "ydotool"

// ydotool click codes: 0xC0 is press and release of the left button.
var ydotoolButtons = map[Button]string{
	ButtonLeft:   "0xC0",
	ButtonRight:  "0xC1",
	ButtonMiddle: "0xC2",
}

// Ydotool drives input through ydotool, which also works under Wayland.
type Ydotool struct {
	log logx.Logger
	run func(name string, args ...string) (string, error)
}

func NewYdotool(log logx.Logger) *Ydotool {
	return &Ydotool{log: log, run: runVerbose}
}

func (y *Ydotool) Name() string { return ydotoolBin }

func (y *Ydotool) Move(dx, dy int) error {
	if dx == 0 && dy == 0 {
		return nil
	}
	return y.exec("mousemove", "-x", strconv.Itoa(dx), "-y", strconv.Itoa(dy))
}

func (y *Ydotool) Click(b Button) error {
	code, ok := ydotoolButtons[b]
	if !ok {
		return fmt.Errorf("unsupported button %s", b)
	}
	return y.exec("click", code)
}

func (y *Ydotool) Scroll(n int) error {
	if n <= 0 {
		return nil
	}
	return y.exec("mousemove", "--wheel", "-x", "0", "-y", strconv.Itoa(n))
}

// KeyDown and KeyUp send evdev code:state pairs.
func (y *Ydotool) KeyDown(key string) error { return y.key(key, 1) }
func (y *Ydotool) KeyUp(key string) error   { return y.key(key, 0) }

func (y *Ydotool) key(name string, state int) error {
	code, err := keyCode(name)
	if err != nil {
		return err
	}
	return y.exec("key", fmt.Sprintf("%d:%d", code, state))
}

func (y *Ydotool) exec(args ...string) error {
	out, err := y.run(ydotoolBin, args...)
	if err != nil {
		return fmt.Errorf("ydotool %s: %w (output: %q)", strings.Join(args, " "), err, out)
	}
	y.log.Debug("ydotool", logx.String("args", strings.Join(args, " ")))
	return nil
}
