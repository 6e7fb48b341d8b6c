// Package util holds small parsing helpers shared by the command line layer.
package util

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const durationHelp = "\n\nValid formats:\n" +
	"• whole minutes: 30, 90\n" +
	"• Go duration: 45m, 2h30m, 1h30m45s"

const clockHelp = "\n\nValid formats:\n" +
	"• 24-hour format: HH:MM (e.g., '23:30', '09:45')\n" +
	"• 12-hour format: HH:MM[AM|PM] (e.g., '11:30PM', '9:45 AM')"

// HasCommand reports whether name resolves to an executable in PATH.
func HasCommand(name string) bool {
	if name == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}

// ParseDuration accepts a bare integer as minutes, or any time.ParseDuration
// string. Negative values are rejected.
func ParseDuration(input string) (time.Duration, error) {
	s := strings.TrimSpace(input)
	var d time.Duration
	if minutes, err := strconv.Atoi(s); err == nil {
		d = time.Duration(minutes) * time.Minute
	} else if parsed, err := time.ParseDuration(s); err == nil {
		d = parsed
	} else {
		return 0, fmt.Errorf("invalid duration %q%s", input, durationHelp)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative: %q%s", input, durationHelp)
	}
	return d, nil
}

// ParseClock resolves a wall clock time such as "17:30" or "5:30PM" to the
// next moment after now it occurs, which is tomorrow once today's has passed.
func ParseClock(input string, now time.Time) (time.Time, error) {
	s := strings.ToUpper(strings.TrimSpace(input))

	var parsed time.Time
	var ok bool
	for _, layout := range []string{"15:04", "3:04PM", "3:04 PM", "03:04PM", "03:04 PM"} {
		if t, err := time.Parse(layout, s); err == nil {
			parsed, ok = t, true
			break
		}
	}
	if !ok {
		return time.Time{}, fmt.Errorf("invalid time %q%s", input, clockHelp)
	}

	at := time.Date(now.Year(), now.Month(), now.Day(), parsed.Hour(), parsed.Minute(), 0, 0, now.Location())
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at, nil
}
