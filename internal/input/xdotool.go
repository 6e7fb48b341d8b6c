package input

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/stigoleg/coffeine/internal/logx"
)

const xdotoolBin = "xdotool"

// Xdotool drives X11 input through the xdotool command.
type Xdotool struct {
	log logx.Logger
	run func(name string, args ...string) (string, error)
}

func NewXdotool(log logx.Logger) *Xdotool {
	return &Xdotool{log: log, run: runVerbose}
}

func (x *Xdotool) Name() string { return xdotoolBin }

func (x *Xdotool) Move(dx, dy int) error {
	if dx == 0 && dy == 0 {
		return nil
	}
	// "--" keeps negative offsets from being read as flags
	return x.exec("mousemove_relative", "--", strconv.Itoa(dx), strconv.Itoa(dy))
}

func (x *Xdotool) Click(b Button) error {
	return x.exec("click", strconv.Itoa(int(b)))
}

func (x *Xdotool) Scroll(n int) error {
	if n <= 0 {
		return nil
	}
	// button 4 is wheel up
	return x.exec("click", "--repeat", strconv.Itoa(n), "4")
}

func (x *Xdotool) KeyDown(key string) error {
	sym, err := xKeysym(key)
	if err != nil {
		return err
	}
	return x.exec("keydown", sym)
}

func (x *Xdotool) KeyUp(key string) error {
	sym, err := xKeysym(key)
	if err != nil {
		return err
	}
	return x.exec("keyup", sym)
}

func (x *Xdotool) exec(args ...string) error {
	out, err := x.run(xdotoolBin, args...)
	if err != nil {
		return fmt.Errorf("xdotool %s: %w (output: %q)", strings.Join(args, " "), err, out)
	}
	x.log.Debug("xdotool", logx.String("args", strings.Join(args, " ")))
	return nil
}

// runVerbose executes a command and returns the combined output.
func runVerbose(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return strings.TrimSpace(buf.String()), err
}
