// Package loaders reads variable files in the supported structured-data
// formats and returns them as context mappings. Loading never aborts a
// run; every failure comes back as a classified error the caller records.
package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tplforge/tplforge/pkg/errors"
	"github.com/tplforge/tplforge/pkg/logging"
	"github.com/tplforge/tplforge/pkg/report"
	"github.com/tplforge/tplforge/pkg/types"
	"github.com/tplforge/tplforge/pkg/vars"
)

// includeKey is the reserved top-level key naming further variable
// file(s) to load and merge, resolved relative to the including file.
const includeKey = "_include_"

// LoadFunc parses the content of one variable file into a mapping.
type LoadFunc func(path string, content []byte, opts types.Options, rep *report.Reporter) (map[string]any, error)

var registry = map[string]LoadFunc{
	".yaml": loadYAML,
	".yml":  loadYAML,
	".json": loadJSON,
	".xml":  loadXML,
	".toml": loadTOML,
	".ini":  loadINI,
	".cfg":  loadINI,
	".env":  loadEnv,
	".csv":  loadCSV,
	".tsv":  loadTSV,
}

// SupportedExtensions lists the registered file extensions in sorted
// order, for error messages and help text.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Load reads and parses the variable file at path, dispatching on its
// extension, then resolves any _include_ directive. The returned mapping
// is ready to merge into the global context.
func Load(path string, opts types.Options, rep *report.Reporter) (map[string]any, error) {
	return load(path, opts, rep, map[string]bool{})
}

func load(path string, opts types.Options, rep *report.Reporter, seen map[string]bool) (map[string]any, error) {
	logger := logging.GetLogger("loaders")

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if seen[abs] {
		return nil, errors.Newf(errors.ErrVarParse, "variable include cycle through '%s'", path)
	}
	seen[abs] = true

	ext := strings.ToLower(filepath.Ext(path))
	loadFn, ok := registry[ext]
	if !ok {
		return nil, errors.Newf(errors.ErrVarFormat,
			"variables file format '%s' of '%s' is not supported (supported: %s)",
			ext, path, strings.Join(SupportedExtensions(), ", "))
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrVarRead, "variables file '%s' does not exist", path)
		}
		return nil, errors.Wrapf(err, errors.ErrVarRead, "cannot read variables file '%s'", path)
	}

	loaded, err := loadFn(abs, content, opts, rep)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("path", path).Int("keys", len(loaded)).Msg("Variables file loaded")

	return resolveIncludes(loaded, abs, opts, rep, seen)
}

// resolveIncludes pops the reserved include directive off a loaded
// mapping, loads the referenced files and merges them underneath the
// mapping's own values, so the including file always wins conflicts.
func resolveIncludes(loaded map[string]any, abs string, opts types.Options, rep *report.Reporter, seen map[string]bool) (map[string]any, error) {
	directive, ok := loaded[includeKey]
	if !ok {
		return loaded, nil
	}

	own := make(map[string]any, len(loaded))
	for k, v := range loaded {
		if k != includeKey {
			own[k] = v
		}
	}

	var paths []string
	switch t := directive.(type) {
	case string:
		paths = []string{t}
	case []any:
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, errors.Newf(errors.ErrVarParse,
					"include directive in '%s' must list file paths, got %v", abs, e)
			}
			paths = append(paths, s)
		}
	default:
		return nil, errors.Newf(errors.ErrVarParse,
			"include directive in '%s' must be a path or list of paths", abs)
	}

	base := map[string]any{}
	for _, inc := range paths {
		resolved := inc
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(filepath.Dir(abs), resolved)
		}
		sub, err := load(resolved, opts, rep, seen)
		if err != nil {
			return nil, err
		}
		base = vars.Merge(base, sub, "", fmt.Sprintf(" while including '%s'", inc), rep)
	}
	return vars.Merge(base, own, "", fmt.Sprintf(" while loading '%s'", abs), rep), nil
}
