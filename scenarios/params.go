package scenarios

import (
	"encoding/json"
	"fmt"
	"os"
)

// Params holds per-scenario overrides loaded from a JSON file. Scenarios read
// values with typed accessors that fall back to a default when the key is
// absent, so every scenario runs without a params file.
type Params map[string]any

// LoadParams reads a JSON object of overrides from path. An empty path
// returns nil params.
func LoadParams(path string) (Params, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenarios: read params: %w", err)
	}
	var p Params
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("scenarios: parse params %s: %w", path, err)
	}
	return p, nil
}

// Float returns the named parameter or def when absent.
func (p Params) Float(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return def
}

// Int returns the named parameter or def when absent.
func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return def
}

// String returns the named parameter or def when absent.
func (p Params) String(key, def string) string {
	if v, ok := p[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the named parameter or def when absent.
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}
