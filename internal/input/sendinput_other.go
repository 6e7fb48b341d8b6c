//go:build !windows

package input

import (
	"errors"

	"github.com/stigoleg/coffeine/internal/logx"
)

func NewSendInput(logx.Logger) (*SendInput, error) {
	return nil, errors.New("SendInput is only available on Windows")
}
