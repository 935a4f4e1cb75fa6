package loaders

import (
	"strings"

	"github.com/tplforge/tplforge/pkg/coerce"
	"github.com/tplforge/tplforge/pkg/report"
	"github.com/tplforge/tplforge/pkg/types"
)

// loadEnv parses dotenv-style "KEY=VALUE" lines. Blank lines and "#"
// comments are skipped, values are coerced, and a duplicate key warns
// and overwrites.
func loadEnv(path string, content []byte, _ types.Options, rep *report.Reporter) (map[string]any, error) {
	out := map[string]any{}
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, rawVal, found := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			rep.Warnf("Malformed line '%s' in variables file '%s' is ignored.", line, path)
			continue
		}

		val := coerce.Coerce(strings.TrimSpace(rawVal))
		if old, dup := out[key]; dup {
			rep.Warnf("Variable '%s' got overwritten from '%v' to '%v' while loading '%s'.", key, old, val, path)
		}
		out[key] = val
	}
	return out, nil
}
