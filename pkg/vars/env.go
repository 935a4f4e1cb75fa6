package vars

import (
	"strings"

	"github.com/tplforge/tplforge/pkg/coerce"
)

// FromEnviron converts a process environment (the "KEY=VALUE" slice
// shape of os.Environ) into a variable mapping with coerced values.
// With a non-empty rootKey the whole environment is nested under that
// single key instead of being spread at the top level.
func FromEnviron(environ []string, rootKey string) map[string]any {
	env := make(map[string]any, len(environ))
	for _, kv := range environ {
		key, val, found := strings.Cut(kv, "=")
		if !found || key == "" {
			continue
		}
		env[key] = coerce.Coerce(val)
	}
	if rootKey != "" {
		return map[string]any{rootKey: env}
	}
	return env
}
