//go:build windows

package input

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/stigoleg/coffeine/internal/logx"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

// mouseInput mirrors MOUSEINPUT.
type mouseInput struct {
	Dx        int32
	Dy        int32
	MouseData uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// keybdInput mirrors KEYBDINPUT.
type keybdInput struct {
	Vk        uint16
	Scan      uint16
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// INPUT is a tagged union sized by its largest member, MOUSEINPUT. The
// keyboard variant is padded to the same size.
type rawMouseInput struct {
	Type uint32
	Mi   mouseInput
}

type rawKeybdInput struct {
	Type uint32
	Ki   keybdInput
	_    [8]byte
}

func NewSendInput(log logx.Logger) (*SendInput, error) {
	if err := procSendInput.Find(); err != nil {
		return nil, fmt.Errorf("user32 SendInput: %w", err)
	}
	return &SendInput{log: log, send: sendWin32}, nil
}

func sendWin32(events []winEvent) error {
	for _, ev := range events {
		var ptr unsafe.Pointer
		switch ev.kind {
		case inputKeyboard:
			in := rawKeybdInput{Type: inputKeyboard, Ki: keybdInput{Vk: ev.vk, Flags: ev.flags}}
			ptr = unsafe.Pointer(&in)
		default:
			in := rawMouseInput{Type: inputMouse, Mi: mouseInput{Dx: ev.dx, Dy: ev.dy, MouseData: ev.data, Flags: ev.flags}}
			ptr = unsafe.Pointer(&in)
		}
		n, _, err := procSendInput.Call(1, uintptr(ptr), unsafe.Sizeof(rawMouseInput{}))
		if n != 1 {
			return fmt.Errorf("SendInput %s: %w", ev, err)
		}
	}
	return nil
}
