package input

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/stigoleg/coffeine/internal/logx"
)

const (
	osascriptBin     = "osascript"
	osascriptTimeout = 10 * time.Second
)

const jxaPrelude = `ObjC.import('CoreGraphics');
function loc() { var p = $.CGEventGetLocation($.CGEventCreate(null)); return {x: p.x, y: p.y}; }
function post(ev) { $.CGEventPost($.kCGHIDEventTap, ev); }
function key(code, down) { post($.CGEventCreateKeyboardEvent(null, code, down)); }
`

// macOS virtual key codes. alt+tab switches windows on other systems; the
// macOS equivalent is command+tab, so alt maps to command.
var macKeyCodes = map[string]int{
	"alt":   0x37,
	"cmd":   0x37,
	"ctrl":  0x3B,
	"shift": 0x38,
	"tab":   0x30,
	"space": 0x31,
	"enter": 0x24,
	"esc":   0x35,
}

var macButtons = map[Button][3]string{
	ButtonLeft:   {"kCGEventLeftMouseDown", "kCGEventLeftMouseUp", "kCGMouseButtonLeft"},
	ButtonRight:  {"kCGEventRightMouseDown", "kCGEventRightMouseUp", "kCGMouseButtonRight"},
	ButtonMiddle: {"kCGEventOtherMouseDown", "kCGEventOtherMouseUp", "kCGMouseButtonCenter"},
}

// Osascript posts CoreGraphics events through JavaScript for Automation.
// The terminal running coffeine needs the Accessibility permission.
type Osascript struct {
	log logx.Logger
	run func(script string) (string, error)
}

func NewOsascript(log logx.Logger) *Osascript {
	return &Osascript{log: log, run: runJXA}
}

func (o *Osascript) Name() string { return osascriptBin }

func (o *Osascript) Move(dx, dy int) error {
	if dx == 0 && dy == 0 {
		return nil
	}
	return o.exec("move", fmt.Sprintf(
		"var p = loc(); post($.CGEventCreateMouseEvent(null, $.kCGEventMouseMoved, {x: p.x + %d, y: p.y + %d}, $.kCGMouseButtonLeft));", dx, dy))
}

func (o *Osascript) Click(b Button) error {
	ev, ok := macButtons[b]
	if !ok {
		return fmt.Errorf("unsupported button %s", b)
	}
	return o.exec("click", fmt.Sprintf(
		"var p = loc(); post($.CGEventCreateMouseEvent(null, $.%s, p, $.%s)); delay(0.02); post($.CGEventCreateMouseEvent(null, $.%s, p, $.%s));",
		ev[0], ev[2], ev[1], ev[2]))
}

func (o *Osascript) Scroll(n int) error {
	if n <= 0 {
		return nil
	}
	return o.exec("scroll", fmt.Sprintf("post($.CGEventCreateScrollWheelEvent(null, $.kCGScrollEventUnitLine, 1, %d));", n))
}

func (o *Osascript) KeyDown(key string) error { return o.key(key, true) }
func (o *Osascript) KeyUp(key string) error   { return o.key(key, false) }

func (o *Osascript) key(name string, down bool) error {
	code, err := macKeyCode(name)
	if err != nil {
		return err
	}
	return o.exec("key "+name, fmt.Sprintf("key(%d, %t);", code, down))
}

func (o *Osascript) exec(what, body string) error {
	out, err := o.run(jxaPrelude + body)
	if err != nil {
		return fmt.Errorf("osascript %s: %w (output: %q); grant Accessibility to your terminal", what, err, out)
	}
	o.log.Debug("osascript", logx.String("op", what))
	return nil
}

func macKeyCode(name string) (int, error) {
	code, ok := macKeyCodes[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown key %q", name)
	}
	return code, nil
}

func runJXA(script string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), osascriptTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, osascriptBin, "-l", "JavaScript", "-e", script).CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return string(out), fmt.Errorf("timed out after %s", osascriptTimeout)
	}
	return strings.TrimSpace(string(out)), err
}
