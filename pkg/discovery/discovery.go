// Package discovery expands source arguments into the concrete list of
// files to render or copy, and maps every source to its output path.
package discovery

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tplforge/tplforge/pkg/errors"
	"github.com/tplforge/tplforge/pkg/logging"
	"github.com/tplforge/tplforge/pkg/report"
	"github.com/tplforge/tplforge/pkg/types"
)

// Discover resolves the source arguments into a worklist of templates to
// render and a copylist of files to copy verbatim. Problems with one
// source are recorded and never stop the remaining sources. Entries come
// back in a deterministic order: sources in argument order, glob matches
// sorted, directory walks lexical.
func Discover(sources []string, opts types.Options, rep *report.Reporter) (worklist, copylist []types.SourceEntry) {
	logger := logging.GetLogger("discovery")

	d := &discoverer{opts: opts, rep: rep}
	for _, src := range sources {
		for _, path := range d.expand(src) {
			info, err := os.Stat(path)
			if err != nil {
				if os.IsNotExist(err) {
					rep.Error(errors.Newf(errors.ErrSourceNotFound, "source '%s' does not exist", path))
				} else {
					rep.Error(errors.Wrapf(err, errors.ErrSourceAccess, "cannot access source '%s'", path))
				}
				continue
			}
			if info.IsDir() {
				d.walk(path)
			} else {
				d.addFile(path, filepath.Base(path), true)
			}
		}
	}

	logger.Debug().
		Int("templates", len(d.worklist)).
		Int("copies", len(d.copylist)).
		Msg("Source discovery finished")

	d.applyOutputFile()
	return d.worklist, d.copylist
}

type discoverer struct {
	opts     types.Options
	rep      *report.Reporter
	worklist []types.SourceEntry
	copylist []types.SourceEntry
}

// expand turns one source argument into absolute paths, going through
// glob expansion when the argument carries glob metacharacters or glob
// treatment is forced.
func (d *discoverer) expand(src string) []string {
	if d.opts.ForceGlob || strings.ContainsAny(src, "*?[{") {
		matches, err := doublestar.FilepathGlob(src)
		if err != nil {
			d.rep.Error(errors.Wrapf(err, errors.ErrInvalidInput, "invalid source pattern '%s'", src))
			return nil
		}
		if len(matches) == 0 {
			d.rep.Error(errors.Newf(errors.ErrSourceNotFound, "source pattern '%s' matched nothing", src))
			return nil
		}
		sort.Strings(matches)
		out := make([]string, 0, len(matches))
		for _, m := range matches {
			if abs, err := filepath.Abs(m); err == nil {
				out = append(out, abs)
			}
		}
		return out
	}

	abs, err := filepath.Abs(src)
	if err != nil {
		d.rep.Error(errors.Wrapf(err, errors.ErrInvalidInput, "cannot resolve source '%s'", src))
		return nil
	}
	return []string{abs}
}

// walk collects every file under root. Unreadable subtrees are recorded
// and skipped; siblings continue.
func (d *discoverer) walk(root string) {
	_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			d.rep.Error(errors.Wrapf(err, errors.ErrSourceAccess, "cannot read source tree at '%s'", path))
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = filepath.Base(path)
		}
		d.addFile(path, rel, false)
		return nil
	})
}

// addFile classifies one file and appends it to the worklist or the
// copylist. rel is the output-relative name (walk-relative for directory
// sources, the basename for single files); explicit marks files named
// directly on the command line, which warn when they are not templates.
func (d *discoverer) addFile(path, rel string, explicit bool) {
	logger := logging.GetLogger("discovery")

	if strings.HasSuffix(path, d.opts.Marker) {
		dest := d.destination(path, strings.TrimSuffix(rel, d.opts.Marker))
		d.worklist = append(d.worklist, types.SourceEntry{Source: path, Dest: dest, Kind: types.SourceTemplate})
		return
	}

	switch d.opts.NonTemplate {
	case types.NonTemplateCopy:
		d.copylist = append(d.copylist, types.SourceEntry{Source: path, Dest: d.destination(path, rel), Kind: types.SourceCopy})
	case types.NonTemplateRender:
		dest := d.destination(path, suffixedName(rel, d.opts.RenderSuffix))
		d.worklist = append(d.worklist, types.SourceEntry{Source: path, Dest: dest, Kind: types.SourceTemplate})
	default:
		if explicit {
			d.rep.Warnf("Source file '%s' is not a template.", path)
		}
		logger.Debug().Str("path", path).Msg("Skipping non-template file")
	}
}

// destination resolves the output path for one source: under the output
// directory when one is set, next to the source otherwise.
func (d *discoverer) destination(source, rel string) string {
	if d.opts.OutDir != "" {
		return filepath.Join(d.opts.OutDir, rel)
	}
	return filepath.Join(filepath.Dir(source), filepath.Base(rel))
}

// applyOutputFile redirects the single discovered template to the
// explicit output file. Any other shape of the worklist is a conflict.
func (d *discoverer) applyOutputFile() {
	if d.opts.OutFile == "" {
		return
	}
	if len(d.worklist) != 1 || len(d.copylist) != 0 {
		d.rep.Error(errors.Newf(errors.ErrOutputConflict,
			"an explicit output file needs exactly one source template, got %d templates and %d copies",
			len(d.worklist), len(d.copylist)))
		return
	}
	d.worklist[0].Dest = d.opts.OutFile
}

// suffixedName inserts the render suffix before the first extension of
// the basename, leaving a leading dot alone: "b.txt" -> "b<sfx>.txt",
// "Makefile" -> "Makefile<sfx>", ".env" -> ".env<sfx>".
func suffixedName(rel, suffix string) string {
	dir, base := filepath.Split(rel)
	if len(base) > 1 {
		if i := strings.Index(base[1:], "."); i >= 0 {
			i++
			return dir + base[:i] + suffix + base[i:]
		}
	}
	return dir + base + suffix
}
