package actions

import (
	"fmt"
	"math"

	"github.com/stigoleg/coffeine/internal/input"
	"github.com/stigoleg/coffeine/internal/scenario"
)

var buttonOrder = []string{"left", "middle", "right"}

func optBool(p scenario.Parameters, key string) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s must be a boolean, got %T", key, v)
	}
	return b, nil
}

// reqInt accepts any whole number; JSON numbers arrive as float64.
func reqInt(p scenario.Parameters, key string) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%s is required", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, fmt.Errorf("%s must be an integer, got %v", key, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%s must be an integer, got %T", key, v)
	}
}

// enabledButtons reads the click object in a fixed button order.
func enabledButtons(p scenario.Parameters) ([]input.Button, error) {
	v, ok := p["click"]
	if !ok || v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("click must be an object, got %T", v)
	}
	for k := range m {
		if b, err := input.ParseButton(k); err != nil || b.String() != k {
			return nil, fmt.Errorf("click: unknown mouse button %q", k)
		}
	}

	var out []input.Button
	for _, name := range buttonOrder {
		on, err := optBool(m, name)
		if err != nil {
			return nil, fmt.Errorf("click: %w", err)
		}
		if on {
			b, _ := input.ParseButton(name)
			out = append(out, b)
		}
	}
	return out, nil
}
