// Package runner drives one batch run: optional output-directory wipe,
// then every worklist and copylist entry in order, accumulating results
// without ever stopping early.
package runner

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/tplforge/tplforge/pkg/errors"
	"github.com/tplforge/tplforge/pkg/logging"
	"github.com/tplforge/tplforge/pkg/render"
	"github.com/tplforge/tplforge/pkg/report"
	"github.com/tplforge/tplforge/pkg/types"
)

// Runner executes a discovered batch through a render pipeline.
type Runner struct {
	pipeline *render.Pipeline
	opts     types.Options
	rep      *report.Reporter
}

// New creates a Runner over the given pipeline.
func New(pipeline *render.Pipeline, opts types.Options, rep *report.Reporter) *Runner {
	return &Runner{pipeline: pipeline, opts: opts, rep: rep}
}

// Run processes every entry and returns the aggregated result. A failed
// file is recorded and the batch continues; ctx cancellation stops the
// batch between files.
func (r *Runner) Run(ctx context.Context, worklist, copylist []types.SourceEntry) types.RunResult {
	logger := logging.GetLogger("runner")
	start := time.Now()
	defer logging.LogDuration(start, "batch run")

	result := types.RunResult{}

	if len(worklist) == 0 && len(copylist) == 0 {
		r.rep.Error(errors.New(errors.ErrNoSources, "no source template was found"))
		result.Warnings = r.rep.Warnings()
		result.Errors = r.rep.Errors()
		return result
	}

	r.wipeOutputDir()

	for _, entry := range copylist {
		if ctx.Err() != nil {
			break
		}
		r.record(&result, r.pipeline.ProcessCopy(entry))
	}
	for _, entry := range worklist {
		if ctx.Err() != nil {
			break
		}
		r.record(&result, r.pipeline.ProcessTemplate(entry))
	}
	if err := ctx.Err(); err != nil {
		r.rep.Error(errors.Wrap(err, errors.ErrInternal, "run interrupted"))
	}

	logger.Info().
		Int("total", result.TotalFiles()).
		Int("failed", result.FailedFiles()).
		Msg("Batch finished")

	result.Warnings = r.rep.Warnings()
	result.Errors = r.rep.Errors()
	return result
}

func (r *Runner) record(result *types.RunResult, fileResult types.FileResult) {
	if fileResult.Err != nil {
		r.rep.Error(fileResult.Err)
	}
	result.AddFile(fileResult)
}

// wipeOutputDir clears the output directory before the run. Guarded at
// option-validation time to an explicitly given directory, so a bare
// working tree can never be wiped.
func (r *Runner) wipeOutputDir() {
	if !r.opts.WipeOutDir || r.opts.OutDir == "" {
		return
	}
	logger := logging.GetLogger("runner")

	entries, err := os.ReadDir(r.opts.OutDir)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		r.rep.Error(errors.Wrapf(err, errors.ErrDirRemove, "cannot wipe output directory '%s'", r.opts.OutDir))
		return
	}

	logger.Warn().Str("dir", r.opts.OutDir).Msg("Wiping output directory")
	for _, entry := range entries {
		path := filepath.Join(r.opts.OutDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			r.rep.Error(errors.Wrapf(err, errors.ErrDirRemove, "cannot remove '%s'", path))
		}
	}
}
