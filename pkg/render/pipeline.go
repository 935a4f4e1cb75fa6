package render

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tplforge/tplforge/pkg/errors"
	"github.com/tplforge/tplforge/pkg/logging"
	"github.com/tplforge/tplforge/pkg/report"
	"github.com/tplforge/tplforge/pkg/types"
	"github.com/tplforge/tplforge/pkg/vars"
)

// Pipeline processes one source entry at a time against a fixed global
// context. The context snapshot is never mutated; per-file variables
// are layered on a copy.
type Pipeline struct {
	engine  *Engine
	opts    types.Options
	context map[string]any
	rep     *report.Reporter
}

// NewPipeline creates a pipeline over the merged global context.
func NewPipeline(engine *Engine, opts types.Options, context map[string]any, rep *report.Reporter) *Pipeline {
	return &Pipeline{engine: engine, opts: opts, context: context, rep: rep}
}

// ProcessTemplate renders one template entry to its destination.
func (p *Pipeline) ProcessTemplate(entry types.SourceEntry) types.FileResult {
	logger := logging.GetLogger("render")
	res := types.FileResult{Source: entry.Source, Dest: entry.Dest, IsTemplate: true}

	if err := os.MkdirAll(filepath.Dir(entry.Dest), 0755); err != nil {
		res.Err = errors.Wrapf(err, errors.ErrDirCreate, "cannot create output directory for '%s'", entry.Dest)
		return res
	}

	content, err := os.ReadFile(entry.Source)
	if err != nil {
		res.Err = errors.Wrapf(err, errors.ErrFileRead, "cannot read source file '%s'", entry.Source)
		return res
	}

	// Per-file volatile layer on a snapshot of the global context.
	fileCtx := vars.Merge(p.context, map[string]any{
		"__source_path__": entry.Source,
		"__output_path__": entry.Dest,
	}, "", "", nil)

	state := newExportState(p.baseDir(entry), p.rep)
	out, err := p.engine.Render(entry.Source, string(content), fileCtx, state.funcs())
	if err != nil {
		res.Err = err
		return res
	}

	if p.opts.TrimWhitespace {
		out = trimTrailingWhitespace(out)
	}
	if p.opts.DebugVars {
		out = debugPreamble(fileCtx) + out
	}

	if !state.writeSource {
		logger.Debug().Str("dest", entry.Dest).Msg("Primary output suppressed by export directive")
		res.Success = true
		res.Skipped = types.SkipExport
		return res
	}

	if skipped, err := p.checkOverwrite(entry.Dest); err != nil {
		res.Err = err
		return res
	} else if skipped {
		res.Success = true
		res.Skipped = types.SkipExisting
		return res
	}

	if err := os.WriteFile(entry.Dest, []byte(out), 0644); err != nil {
		res.Err = errors.Wrapf(err, errors.ErrFileWrite, "cannot write output file '%s'", entry.Dest)
		return res
	}
	logger.Debug().Str("source", entry.Source).Str("dest", entry.Dest).Msg("Template rendered")
	res.Success = true
	res.Written = true
	return res
}

// ProcessCopy copies one non-template entry verbatim.
func (p *Pipeline) ProcessCopy(entry types.SourceEntry) types.FileResult {
	logger := logging.GetLogger("render")
	res := types.FileResult{Source: entry.Source, Dest: entry.Dest, WasCopied: true}

	srcAbs, _ := filepath.Abs(entry.Source)
	dstAbs, _ := filepath.Abs(entry.Dest)
	if srcAbs == dstAbs {
		// Copying a file onto itself would truncate it.
		res.Success = true
		res.Skipped = types.SkipExisting
		return res
	}

	if err := os.MkdirAll(filepath.Dir(entry.Dest), 0755); err != nil {
		res.Err = errors.Wrapf(err, errors.ErrDirCreate, "cannot create output directory for '%s'", entry.Dest)
		return res
	}

	if skipped, err := p.checkOverwrite(entry.Dest); err != nil {
		res.Err = err
		return res
	} else if skipped {
		res.Success = true
		res.Skipped = types.SkipExisting
		return res
	}

	src, err := os.Open(entry.Source)
	if err != nil {
		res.Err = errors.Wrapf(err, errors.ErrFileCopy, "cannot open source file '%s'", entry.Source)
		return res
	}
	defer src.Close()

	dst, err := os.Create(entry.Dest)
	if err != nil {
		res.Err = errors.Wrapf(err, errors.ErrFileCopy, "cannot create output file '%s'", entry.Dest)
		return res
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		res.Err = errors.Wrapf(err, errors.ErrFileCopy, "cannot copy '%s' to '%s'", entry.Source, entry.Dest)
		return res
	}
	logger.Debug().Str("source", entry.Source).Str("dest", entry.Dest).Msg("File copied")
	res.Success = true
	res.Written = true
	return res
}

// baseDir picks the directory export constructs resolve relative paths
// against. The process working directory is never changed.
func (p *Pipeline) baseDir(entry types.SourceEntry) string {
	switch p.opts.BaseDir {
	case types.BaseDirSource:
		return filepath.Dir(entry.Source)
	case types.BaseDirNone:
		wd, err := os.Getwd()
		if err != nil {
			return "."
		}
		return wd
	default:
		return filepath.Dir(entry.Dest)
	}
}

// checkOverwrite applies the overwrite policy to an existing
// destination. It reports whether the write must be skipped.
func (p *Pipeline) checkOverwrite(dest string) (bool, error) {
	info, err := os.Stat(dest)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrFileWrite, "cannot stat output file '%s'", dest)
	}
	if info.IsDir() {
		return false, errors.Newf(errors.ErrFileWrite, "output path '%s' is a directory", dest)
	}

	switch p.opts.Overwrite {
	case types.OverwriteForbid:
		p.rep.Warnf("Output file '%s' already exists and was not overwritten.", dest)
		return true, nil
	case types.OverwriteWarn:
		p.rep.Warnf("Overwriting output file '%s'.", dest)
	}
	return false, nil
}

// trimTrailingWhitespace removes trailing spaces and tabs from every
// line of the rendered output.
func trimTrailingWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// debugPreamble dumps the full render context as YAML, separated from
// the real output by a blank line.
func debugPreamble(context map[string]any) string {
	dump, err := yaml.Marshal(context)
	if err != nil {
		return ""
	}
	return string(dump) + "\n"
}
