//go:build !linux

package input

import (
	"errors"

	"github.com/stigoleg/coffeine/internal/logx"
)

var errNoUinput = errors.New("uinput is only available on Linux")

// Uinput is unavailable on this platform; NewUinput always fails.
type Uinput struct{}

func NewUinput(logx.Logger) (*Uinput, error) { return nil, errNoUinput }

func (*Uinput) Name() string         { return "uinput" }
func (*Uinput) Move(int, int) error  { return errNoUinput }
func (*Uinput) Click(Button) error   { return errNoUinput }
func (*Uinput) Scroll(int) error     { return errNoUinput }
func (*Uinput) KeyDown(string) error { return errNoUinput }
func (*Uinput) KeyUp(string) error   { return errNoUinput }
func (*Uinput) Close() error         { return nil }
