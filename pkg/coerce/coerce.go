// Package coerce converts raw string values from weakly-typed variable
// sources (ENV, INI, CSV, XML attributes, -D defines) into typed values.
package coerce

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Coerce attempts a safe-literal interpretation of raw: numbers, booleans,
// null, quoted strings, flow-style lists and mappings. The literal grammar
// is YAML flow syntax, which cannot execute code. On any parse failure the
// original string is returned unchanged; Coerce never fails.
func Coerce(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}

	// Python-style literals accepted alongside the YAML ones.
	switch trimmed {
	case "None", "null", "~":
		return nil
	case "True", "true":
		return true
	case "False", "false":
		return false
	}

	// Quoted strings keep their inner text.
	if len(trimmed) >= 2 {
		first, last := trimmed[0], trimmed[len(trimmed)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
			return trimmed[1 : len(trimmed)-1]
		}
	}

	var v any
	if err := yaml.Unmarshal([]byte(trimmed), &v); err != nil {
		return raw
	}
	v = Normalize(v)

	switch v.(type) {
	case int64, float64, bool, nil, []any, map[string]any:
		return v
	}
	// Plain words and anything outside the value domain stay as given.
	return raw
}

// Normalize folds a decoded value into the closed context-value domain:
// string, int64, float64, bool, nil, []any, map[string]any. Exotic
// decoder products (timestamps, binary nodes, odd integer widths) are
// converted, falling back to their string form.
func Normalize(v any) any {
	switch t := v.(type) {
	case nil, string, bool, int64, float64:
		return t
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return int64(t)
	case float32:
		return float64(t)
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = Normalize(e)
		}
		return out
	default:
		return fmt.Sprint(t)
	}
}
