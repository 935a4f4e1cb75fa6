package loaders

import (
	"bytes"
	"encoding/json"

	"github.com/tplforge/tplforge/pkg/errors"
	"github.com/tplforge/tplforge/pkg/report"
	"github.com/tplforge/tplforge/pkg/types"
)

func loadJSON(path string, content []byte, _ types.Options, _ *report.Reporter) (map[string]any, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrapf(err, errors.ErrVarParse, "cannot parse JSON variables file '%s'", path)
	}
	return normalizeJSON(raw).(map[string]any), nil
}

// normalizeJSON folds json.Number values into int64 or float64 so JSON
// sources land in the same value domain as every other format.
func normalizeJSON(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeJSON(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeJSON(e)
		}
		return out
	default:
		return t
	}
}
