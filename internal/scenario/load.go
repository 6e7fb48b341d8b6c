package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	yaml "go.yaml.in/yaml/v3"
)

// ConfigError reports a scenario that cannot be used. The scheduler must
// never be started with one.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return "invalid scenario: " + e.Err.Error()
	}
	return fmt.Sprintf("invalid scenario %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// CronParser is the parser used for active hours expressions.
var CronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

type fileItem struct {
	Type       *string         `json:"type"`
	Parameters json.RawMessage `json:"parameters"`
}

type fileWindow struct {
	Enable   string `json:"enable"`
	Disable  string `json:"disable"`
	Timezone string `json:"timezone"`
}

type fileScenario struct {
	MinTickDuration *float64    `json:"min_tick_duration"`
	MaxTickDuration *float64    `json:"max_tick_duration"`
	Items           []fileItem  `json:"items"`
	ActiveHours     *fileWindow `json:"active_hours"`
}

// Load reads and validates the scenario at path. Any failure is a *ConfigError.
func Load(path string) (*Scenario, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ConfigError{Path: path, Err: fmt.Errorf("scenario file doesn't exist")}
		}
		return nil, &ConfigError{Path: path, Err: err}
	}
	if !fi.Mode().IsRegular() {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("not a regular file")}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return Parse(path, data)
}

// Parse validates an in-memory scenario document. The name's extension
// selects the format: .yaml/.yml are YAML, anything else is JSON.
func Parse(name string, data []byte) (*Scenario, error) {
	jb, err := coerceToJSONBytes(name, data)
	if err != nil {
		return nil, &ConfigError{Path: name, Err: err}
	}

	var doc fileScenario
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, &ConfigError{Path: name, Err: fmt.Errorf("decode: %w", err)}
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			err = fmt.Errorf("trailing data")
		}
		return nil, &ConfigError{Path: name, Err: err}
	}

	sc, err := doc.build()
	if err != nil {
		return nil, &ConfigError{Path: name, Err: err}
	}
	return sc, nil
}

func (d fileScenario) build() (*Scenario, error) {
	if d.MinTickDuration == nil {
		return nil, fmt.Errorf("min_tick_duration is required")
	}
	if d.MaxTickDuration == nil {
		return nil, fmt.Errorf("max_tick_duration is required")
	}
	minTick, err := secondsToDuration("min_tick_duration", *d.MinTickDuration)
	if err != nil {
		return nil, err
	}
	maxTick, err := secondsToDuration("max_tick_duration", *d.MaxTickDuration)
	if err != nil {
		return nil, err
	}

	items := make([]ActionDescriptor, 0, len(d.Items))
	for i, it := range d.Items {
		if it.Type == nil || strings.TrimSpace(*it.Type) == "" {
			return nil, fmt.Errorf("items[%d]: type is required", i)
		}
		params, err := decodeParameters(it.Parameters)
		if err != nil {
			return nil, fmt.Errorf("items[%d] (%s): %w", i, *it.Type, err)
		}
		items = append(items, ActionDescriptor{Type: *it.Type, Parameters: params})
	}

	sc, err := New(items, minTick, maxTick)
	if err != nil {
		return nil, err
	}

	if d.ActiveHours != nil {
		w, err := d.ActiveHours.build()
		if err != nil {
			return nil, fmt.Errorf("active_hours: %w", err)
		}
		sc.window = w
	}
	return sc, nil
}

func decodeParameters(raw json.RawMessage) (Parameters, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Parameters{}, nil
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("parameters must be an object")
	}
	var p Parameters
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, fmt.Errorf("parameters: %w", err)
	}
	return p, nil
}

func (w fileWindow) build() (*Window, error) {
	if strings.TrimSpace(w.Enable) == "" || strings.TrimSpace(w.Disable) == "" {
		return nil, fmt.Errorf("both enable and disable are required")
	}
	if _, err := CronParser.Parse(w.Enable); err != nil {
		return nil, fmt.Errorf("enable %q: %w", w.Enable, err)
	}
	if _, err := CronParser.Parse(w.Disable); err != nil {
		return nil, fmt.Errorf("disable %q: %w", w.Disable, err)
	}
	if tz := strings.TrimSpace(w.Timezone); tz != "" {
		if _, err := loadLocation(tz); err != nil {
			return nil, fmt.Errorf("timezone %q: %w", tz, err)
		}
	}
	return &Window{Enable: w.Enable, Disable: w.Disable, Timezone: strings.TrimSpace(w.Timezone)}, nil
}

// Location resolves the window's timezone; empty means local time.
func (w *Window) Location() (*time.Location, error) {
	return loadLocation(w.Timezone)
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// coerceToJSONBytes converts YAML documents to JSON so both formats go
// through the same strict decoder.
func coerceToJSONBytes(name string, data []byte) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".yaml" && ext != ".yml" {
		return data, nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	j, err := json.Marshal(normalizeYAML(v))
	if err != nil {
		return nil, fmt.Errorf("yaml->json marshal: %w", err)
	}
	return j, nil
}

// normalizeYAML ensures all map keys are strings so the result can be
// JSON-marshaled.
func normalizeYAML(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalizeYAML(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	default:
		return in
	}
}
