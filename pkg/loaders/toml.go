package loaders

import (
	"github.com/pelletier/go-toml/v2"

	"github.com/tplforge/tplforge/pkg/coerce"
	"github.com/tplforge/tplforge/pkg/errors"
	"github.com/tplforge/tplforge/pkg/report"
	"github.com/tplforge/tplforge/pkg/types"
)

func loadTOML(path string, content []byte, _ types.Options, _ *report.Reporter) (map[string]any, error) {
	var raw map[string]any
	if err := toml.Unmarshal(content, &raw); err != nil {
		return nil, errors.Wrapf(err, errors.ErrVarParse, "cannot parse TOML variables file '%s'", path)
	}
	if raw == nil {
		return map[string]any{}, nil
	}
	return coerce.Normalize(raw).(map[string]any), nil
}
