package vars

import (
	"strings"

	"github.com/tplforge/tplforge/pkg/coerce"
	"github.com/tplforge/tplforge/pkg/errors"
)

// ParseDefine parses a single command-line define of the form
// "name=value". The name may use dot notation to address nested
// mappings ("server.port=8080"); the value goes through literal
// coercion. Only the first '=' separates name from value, so values
// may themselves contain '='.
func ParseDefine(def string) (map[string]any, error) {
	name, rawValue, found := strings.Cut(def, "=")
	if !found || name == "" {
		return nil, errors.Newf(errors.ErrVarFormat,
			"incorrect define argument format for '%s', expected 'name=value'", def)
	}

	value := coerce.Coerce(rawValue)

	segments := strings.Split(name, ".")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] == "" {
			return nil, errors.Newf(errors.ErrVarFormat,
				"incorrect define argument format for '%s', empty name segment", def)
		}
		value = map[string]any{segments[i]: value}
	}
	return value.(map[string]any), nil
}
