package input

import (
	"fmt"
	"strings"
)

// keyCodes maps the key names handlers use to Linux input event codes.
var keyCodes = map[string]uint16{
	"esc":    1,
	"tab":    15,
	"enter":  28,
	"ctrl":   29,
	"shift":  42,
	"alt":    56,
	"space":  57,
	"super":  125,
	"altgr":  100,
	"escape": 1,
}

func keyCode(name string) (uint16, error) {
	code, ok := keyCodes[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown key %q", name)
	}
	return code, nil
}

// xKeysyms maps the same names to X keysyms for xdotool.
var xKeysyms = map[string]string{
	"esc":    "Escape",
	"tab":    "Tab",
	"enter":  "Return",
	"ctrl":   "ctrl",
	"shift":  "shift",
	"alt":    "alt",
	"space":  "space",
	"super":  "super",
	"altgr":  "ISO_Level3_Shift",
	"escape": "Escape",
}

func xKeysym(name string) (string, error) {
	sym, ok := xKeysyms[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("unknown key %q", name)
	}
	return sym, nil
}
