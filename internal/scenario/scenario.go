// Package scenario holds the immutable, validated set of actions the
// scheduler picks from, together with the tick interval bounds.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Parameters is the opaque payload of an action. The scheduler never looks
// inside it; it is handed verbatim to the handler registered for the type.
type Parameters map[string]any

// ActionDescriptor is one entry of a scenario.
type ActionDescriptor struct {
	Type       string
	Parameters Parameters
}

// Window describes optional active hours as two cron expressions.
type Window struct {
	Enable   string
	Disable  string
	Timezone string
}

// Scenario is the loaded set of possible actions plus timing bounds.
// It is never mutated after construction.
type Scenario struct {
	items  []ActionDescriptor
	min    time.Duration
	max    time.Duration
	window *Window
}

// New validates its arguments and returns a Scenario. Item parameters are
// copied so later changes to the caller's maps cannot leak in.
func New(items []ActionDescriptor, minTick, maxTick time.Duration) (*Scenario, error) {
	if len(items) == 0 {
		return nil, errors.New("scenario has no items")
	}
	if minTick < 0 || maxTick < 0 {
		return nil, fmt.Errorf("tick durations must be non-negative (min=%s, max=%s)", minTick, maxTick)
	}
	if minTick > maxTick {
		return nil, fmt.Errorf("min_tick_duration (%s) is greater than max_tick_duration (%s)", minTick, maxTick)
	}

	cp := make([]ActionDescriptor, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.Type) == "" {
			return nil, fmt.Errorf("items[%d]: type is required", i)
		}
		cp[i] = it.clone()
	}

	return &Scenario{items: cp, min: minTick, max: maxTick}, nil
}

func (s *Scenario) Len() int { return len(s.items) }

// Item returns a copy of the i-th descriptor; its parameters may be
// modified freely.
func (s *Scenario) Item(i int) ActionDescriptor { return s.items[i].clone() }

// Items returns a deep copy of the descriptor list.
func (s *Scenario) Items() []ActionDescriptor {
	out := make([]ActionDescriptor, len(s.items))
	for i, it := range s.items {
		out[i] = it.clone()
	}
	return out
}

func (s *Scenario) MinTick() time.Duration { return s.min }
func (s *Scenario) MaxTick() time.Duration { return s.max }

// Window returns the active hours, or nil when none are configured.
func (s *Scenario) Window() *Window {
	if s.window == nil {
		return nil
	}
	w := *s.window
	return &w
}

// Types returns the distinct action types in first-appearance order.
func (s *Scenario) Types() []string {
	seen := make(map[string]struct{}, len(s.items))
	var out []string
	for _, it := range s.items {
		if _, ok := seen[it.Type]; ok {
			continue
		}
		seen[it.Type] = struct{}{}
		out = append(out, it.Type)
	}
	return out
}

func secondsToDuration(field string, v float64) (time.Duration, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be finite", field)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must be >= 0, got %v", field, v)
	}
	if v > float64(math.MaxInt64)/float64(time.Second) {
		return 0, fmt.Errorf("%s is too large: %v", field, v)
	}
	return time.Duration(v * float64(time.Second)), nil
}

func (d ActionDescriptor) clone() ActionDescriptor {
	return ActionDescriptor{Type: d.Type, Parameters: cloneParameters(d.Parameters)}
}

func cloneParameters(p Parameters) Parameters {
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, vv := range x {
			m[k] = cloneValue(vv)
		}
		return m
	case Parameters:
		return cloneParameters(x)
	case []any:
		s := make([]any, len(x))
		for i := range x {
			s[i] = cloneValue(x[i])
		}
		return s
	default:
		return v
	}
}
