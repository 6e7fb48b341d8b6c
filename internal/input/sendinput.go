package input

import (
	"fmt"
	"strings"

	"github.com/stigoleg/coffeine/internal/logx"
)

const sendInputName = "sendinput"

// Win32 INPUT types and flags.
const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseeventfMove       = 0x0001
	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040
	mouseeventfWheel      = 0x0800

	keyeventfKeyUp = 0x0002

	wheelDelta = 120
)

// winVirtualKeys maps key names to Windows virtual-key codes.
var winVirtualKeys = map[string]uint16{
	"esc":    0x1B,
	"escape": 0x1B,
	"tab":    0x09,
	"enter":  0x0D,
	"ctrl":   0x11,
	"shift":  0x10,
	"alt":    0x12,
	"altgr":  0xA5,
	"space":  0x20,
	"super":  0x5B,
}

var winButtons = map[Button][2]uint32{
	ButtonLeft:   {mouseeventfLeftDown, mouseeventfLeftUp},
	ButtonRight:  {mouseeventfRightDown, mouseeventfRightUp},
	ButtonMiddle: {mouseeventfMiddleDown, mouseeventfMiddleUp},
}

// winEvent is one INPUT record before it is laid out for user32.
type winEvent struct {
	kind  uint32
	dx    int32
	dy    int32
	data  uint32
	flags uint32
	vk    uint16
}

func (e winEvent) String() string {
	if e.kind == inputKeyboard {
		return fmt.Sprintf("key vk=%#02x flags=%#x", e.vk, e.flags)
	}
	return fmt.Sprintf("mouse dx=%d dy=%d data=%d flags=%#x", e.dx, e.dy, int32(e.data), e.flags)
}

// SendInput drives input on Windows through user32's SendInput. Windows
// refuses injection into windows of elevated processes unless coffeine is
// elevated too.
type SendInput struct {
	log  logx.Logger
	send func(events []winEvent) error
}

func (s *SendInput) Name() string { return sendInputName }

func (s *SendInput) Move(dx, dy int) error {
	if dx == 0 && dy == 0 {
		return nil
	}
	return s.emit(winEvent{kind: inputMouse, dx: int32(dx), dy: int32(dy), flags: mouseeventfMove})
}

func (s *SendInput) Click(b Button) error {
	flags, ok := winButtons[b]
	if !ok {
		return fmt.Errorf("unsupported button %s", b)
	}
	return s.emit(
		winEvent{kind: inputMouse, flags: flags[0]},
		winEvent{kind: inputMouse, flags: flags[1]},
	)
}

func (s *SendInput) Scroll(n int) error {
	if n <= 0 {
		return nil
	}
	return s.emit(winEvent{kind: inputMouse, data: uint32(int32(n * wheelDelta)), flags: mouseeventfWheel})
}

func (s *SendInput) KeyDown(key string) error { return s.key(key, 0) }
func (s *SendInput) KeyUp(key string) error   { return s.key(key, keyeventfKeyUp) }

func (s *SendInput) key(name string, flags uint32) error {
	vk, ok := winVirtualKeys[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("unknown key %q", name)
	}
	return s.emit(winEvent{kind: inputKeyboard, vk: vk, flags: flags})
}

func (s *SendInput) emit(events ...winEvent) error {
	if err := s.send(events); err != nil {
		return err
	}
	if s.log.Enabled(logx.LevelDebug) {
		parts := make([]string, len(events))
		for i, ev := range events {
			parts[i] = ev.String()
		}
		s.log.Debug("sendinput", logx.String("events", strings.Join(parts, "; ")))
	}
	return nil
}
