package loaders

import (
	"gopkg.in/ini.v1"

	"github.com/tplforge/tplforge/pkg/coerce"
	"github.com/tplforge/tplforge/pkg/errors"
	"github.com/tplforge/tplforge/pkg/report"
	"github.com/tplforge/tplforge/pkg/types"
)

// loadINI maps each section to a nested mapping. Keys outside any
// section, and keys in the reserved "_" section, land at the top level.
// All values go through literal coercion.
func loadINI(path string, content []byte, _ types.Options, _ *report.Reporter) (map[string]any, error) {
	file, err := ini.Load(content)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrVarParse, "cannot parse INI variables file '%s'", path)
	}

	out := map[string]any{}
	for _, section := range file.Sections() {
		values := make(map[string]any, len(section.Keys()))
		for _, key := range section.Keys() {
			values[key.Name()] = coerce.Coerce(key.Value())
		}

		name := section.Name()
		if name == ini.DefaultSection || name == "_" {
			for k, v := range values {
				out[k] = v
			}
			continue
		}
		if len(values) == 0 {
			continue
		}
		out[name] = values
	}
	return out, nil
}
