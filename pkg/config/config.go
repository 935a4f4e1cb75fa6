// Package config loads the layered tool configuration: embedded
// defaults, user config under the XDG config directory, project-local
// config, then TPLFORGE_* environment overrides. Command-line flags are
// applied on top by the CLI layer.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tplforge/tplforge/pkg/errors"
	"github.com/tplforge/tplforge/pkg/logging"
	"github.com/tplforge/tplforge/pkg/types"
)

const envPrefix = "TPLFORGE_"

// Load assembles the configuration layers. startDir is the directory
// searched for a project-local config file, normally the working
// directory.
func Load(startDir string) (*koanf.Koanf, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "cannot parse built-in defaults")
	}

	// 2. User config
	userPath := filepath.Join(xdg.ConfigHome, "tplforge", "tplforge.toml")
	if _, err := os.Stat(userPath); err == nil {
		if err := k.Load(file.Provider(userPath), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot load user config '%s'", userPath)
		}
		logger.Debug().Str("path", userPath).Msg("User config loaded")
	}

	// 3. Project-local config
	for _, name := range []string{".tplforge.toml", "tplforge.toml"} {
		path := filepath.Join(startDir, name)
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot load project config '%s'", path)
			}
			logger.Debug().Str("path", path).Msg("Project config loaded")
			break
		}
	}

	// 4. Environment overrides. A double underscore nests one level:
	// TPLFORGE_CSV__DELIMITER sets csv.delimiter.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "cannot load environment overrides")
	}

	return k, nil
}

// ToOptions converts the merged configuration into the run options.
func ToOptions(k *koanf.Koanf) (types.Options, error) {
	opts := types.Options{
		Marker:           k.String("marker"),
		RenderSuffix:     k.String("render_suffix"),
		ForceGlob:        k.Bool("force_glob"),
		DebugVars:        k.Bool("debug_vars"),
		TrimWhitespace:   k.Bool("trim_whitespace"),
		StrictUndefined:  k.Bool("strict_undefined"),
		CheckIdentifiers: k.Bool("check_identifiers"),
		FixIdentifiers:   k.Bool("fix_identifiers"),
		CSV: types.CSVOptions{
			NoStrip: k.Bool("csv.dont_strip"),
		},
		XML: types.XMLOptions{
			ConvertAttributes: k.Bool("xml.convert_attributes"),
			RemoveNamespaces:  k.Bool("xml.remove_namespaces"),
		},
	}

	var err error
	if opts.NonTemplate, err = parseNonTemplate(k.String("non_template")); err != nil {
		return opts, err
	}
	if opts.Overwrite, err = parseOverwrite(k.String("overwrite")); err != nil {
		return opts, err
	}
	if opts.BaseDir, err = parseBaseDir(k.String("base_dir")); err != nil {
		return opts, err
	}
	if opts.CSV.Delimiter, err = parseRune(k.String("csv.delimiter"), ','); err != nil {
		return opts, err
	}
	if opts.CSV.Escape, err = parseRune(k.String("csv.escape"), 0); err != nil {
		return opts, err
	}
	return opts, nil
}

func parseNonTemplate(s string) (types.NonTemplatePolicy, error) {
	switch types.NonTemplatePolicy(s) {
	case types.NonTemplateSkip, types.NonTemplateCopy, types.NonTemplateRender:
		return types.NonTemplatePolicy(s), nil
	}
	return "", errors.Newf(errors.ErrConfigParse, "invalid non_template policy '%s', expected skip, copy or render", s)
}

func parseOverwrite(s string) (types.OverwritePolicy, error) {
	switch s {
	case "silent":
		return types.OverwriteSilent, nil
	case "warn":
		return types.OverwriteWarn, nil
	case "forbid":
		return types.OverwriteForbid, nil
	}
	return 0, errors.Newf(errors.ErrConfigParse, "invalid overwrite policy '%s', expected silent, warn or forbid", s)
}

func parseBaseDir(s string) (types.BaseDirMode, error) {
	switch s {
	case "output":
		return types.BaseDirOutput, nil
	case "source":
		return types.BaseDirSource, nil
	case "none":
		return types.BaseDirNone, nil
	}
	return 0, errors.Newf(errors.ErrConfigParse, "invalid base_dir mode '%s', expected output, source or none", s)
}

func parseRune(s string, fallback rune) (rune, error) {
	runes := []rune(s)
	switch len(runes) {
	case 0:
		return fallback, nil
	case 1:
		return runes[0], nil
	}
	return 0, errors.Newf(errors.ErrConfigParse, "expected a single character, got '%s'", s)
}
