//go:build linux

package input

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/stigoleg/coffeine/internal/logx"
)

const (
	uinputPath       = "/dev/uinput"
	uinputDeviceName = "coffeine-virtual-input"
	busUSB           = 0x03

	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02

	relX     = 0x00
	relY     = 0x01
	relWheel = 0x08

	btnLeft   = 0x110
	btnRight  = 0x111
	btnMiddle = 0x112

	// _IOW('U', 100..102, int) and _IO('U', 1..2)
	uiSetEvbit   = 0x40045564
	uiSetKeybit  = 0x40045565
	uiSetRelbit  = 0x40045566
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502
)

var uinputButtons = map[Button]uint16{
	ButtonLeft:   btnLeft,
	ButtonRight:  btnRight,
	ButtonMiddle: btnMiddle,
}

// uinputUserDev mirrors struct uinput_user_dev.
type uinputUserDev struct {
	Name         [80]byte
	Bustype      uint16
	Vendor       uint16
	Product      uint16
	Version      uint16
	FFEffectsMax uint32
	Absmax       [64]int32
	Absmin       [64]int32
	Absfuzz      [64]int32
	Absflat      [64]int32
}

// inputEvent mirrors struct input_event.
type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// Uinput is a virtual mouse and keyboard created through the kernel's
// uinput interface. It needs write access to /dev/uinput but no display
// tooling, so it works under X11, Wayland and on the console.
type Uinput struct {
	log logx.Logger

	mu   sync.Mutex
	file *os.File
}

func NewUinput(log logx.Logger) (*Uinput, error) {
	f, err := os.OpenFile(uinputPath, os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", uinputPath, err)
	}
	u := &Uinput{log: log, file: f}
	if err := u.setup(); err != nil {
		f.Close()
		return nil, fmt.Errorf("uinput setup: %w", err)
	}
	log.Debug("uinput device created", logx.String("name", uinputDeviceName))
	return u, nil
}

func (u *Uinput) setup() error {
	fd := int(u.file.Fd())
	for _, ev := range []int{evKey, evRel} {
		if err := unix.IoctlSetInt(fd, uiSetEvbit, ev); err != nil {
			return fmt.Errorf("enable event type %#x: %w", ev, err)
		}
	}
	for _, rel := range []int{relX, relY, relWheel} {
		if err := unix.IoctlSetInt(fd, uiSetRelbit, rel); err != nil {
			return fmt.Errorf("enable axis %#x: %w", rel, err)
		}
	}
	for _, code := range uinputButtons {
		if err := unix.IoctlSetInt(fd, uiSetKeybit, int(code)); err != nil {
			return fmt.Errorf("enable button %#x: %w", code, err)
		}
	}
	for _, code := range keyCodes {
		if err := unix.IoctlSetInt(fd, uiSetKeybit, int(code)); err != nil {
			return fmt.Errorf("enable key %d: %w", code, err)
		}
	}

	dev := uinputUserDev{Bustype: busUSB, Vendor: 0x1234, Product: 0x5678, Version: 1}
	copy(dev.Name[:], uinputDeviceName)
	if err := binary.Write(u.file, binary.NativeEndian, &dev); err != nil {
		return fmt.Errorf("write device: %w", err)
	}
	if err := unix.IoctlSetInt(fd, uiDevCreate, 0); err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	return nil
}

func (u *Uinput) Name() string { return "uinput" }

func (u *Uinput) Move(dx, dy int) error {
	return u.emit(
		inputEvent{Type: evRel, Code: relX, Value: int32(dx)},
		inputEvent{Type: evRel, Code: relY, Value: int32(dy)},
	)
}

func (u *Uinput) Click(b Button) error {
	code, ok := uinputButtons[b]
	if !ok {
		return fmt.Errorf("unsupported button %s", b)
	}
	if err := u.emit(inputEvent{Type: evKey, Code: code, Value: 1}); err != nil {
		return err
	}
	return u.emit(inputEvent{Type: evKey, Code: code, Value: 0})
}

func (u *Uinput) Scroll(n int) error {
	if n <= 0 {
		return nil
	}
	return u.emit(inputEvent{Type: evRel, Code: relWheel, Value: int32(n)})
}

func (u *Uinput) KeyDown(key string) error { return u.key(key, 1) }
func (u *Uinput) KeyUp(key string) error   { return u.key(key, 0) }

func (u *Uinput) key(name string, value int32) error {
	code, err := keyCode(name)
	if err != nil {
		return err
	}
	return u.emit(inputEvent{Type: evKey, Code: code, Value: value})
}

// emit writes the events followed by a sync report.
func (u *Uinput) emit(events ...inputEvent) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.file == nil {
		return errors.New("uinput device is closed")
	}
	events = append(events, inputEvent{Type: evSyn})
	for i := range events {
		if err := binary.Write(u.file, binary.NativeEndian, &events[i]); err != nil {
			return fmt.Errorf("uinput write: %w", err)
		}
	}
	return nil
}

// Close destroys the virtual device.
func (u *Uinput) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.file == nil {
		return nil
	}
	destroyErr := unix.IoctlSetInt(int(u.file.Fd()), uiDevDestroy, 0)
	closeErr := u.file.Close()
	u.file = nil
	return errors.Join(destroyErr, closeErr)
}
