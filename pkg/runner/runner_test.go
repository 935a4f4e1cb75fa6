package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tplforge/tplforge/pkg/render"
	"github.com/tplforge/tplforge/pkg/report"
	"github.com/tplforge/tplforge/pkg/types"
)

func newRunner(t *testing.T, opts types.Options, contextVars map[string]any, rep *report.Reporter) *Runner {
	t.Helper()
	engine, err := render.NewEngine(nil, true)
	require.NoError(t, err)
	return New(render.NewPipeline(engine, opts, contextVars, rep), opts, rep)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunEmptyWorklistIsError(t *testing.T) {
	rep := report.New()
	r := newRunner(t, types.Options{}, map[string]any{}, rep)

	result := r.Run(context.Background(), nil, nil)

	assert.False(t, result.Success())
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "no source template")
}

func TestRunRendersAllFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.j2", "A={{ .x }}")
	b := writeFile(t, dir, "b.j2", "B={{ .x }}")

	rep := report.New()
	r := newRunner(t, types.Options{}, map[string]any{"x": int64(1)}, rep)
	result := r.Run(context.Background(), []types.SourceEntry{
		{Source: a, Dest: filepath.Join(dir, "a"), Kind: types.SourceTemplate},
		{Source: b, Dest: filepath.Join(dir, "b"), Kind: types.SourceTemplate},
	}, nil)

	assert.True(t, result.Success())
	assert.Equal(t, 2, result.TotalFiles())
	assert.Equal(t, 2, result.SuccessfulFiles())
	assert.FileExists(t, filepath.Join(dir, "a"))
	assert.FileExists(t, filepath.Join(dir, "b"))
}

func TestRunAccumulatesPartialFailures(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.j2", "{{ .missing }}")
	good := writeFile(t, dir, "good.j2", "ok")

	rep := report.New()
	r := newRunner(t, types.Options{}, map[string]any{}, rep)
	result := r.Run(context.Background(), []types.SourceEntry{
		{Source: bad, Dest: filepath.Join(dir, "bad.out"), Kind: types.SourceTemplate},
		{Source: good, Dest: filepath.Join(dir, "good.out"), Kind: types.SourceTemplate},
	}, nil)

	assert.False(t, result.Success())
	assert.Equal(t, 2, result.TotalFiles())
	assert.Equal(t, 1, result.FailedFiles())
	assert.FileExists(t, filepath.Join(dir, "good.out"), "failure of one file never stops the batch")
	require.Len(t, result.Errors, 1)
}

func TestRunCopiesBeforeTemplates(t *testing.T) {
	dir := t.TempDir()
	tpl := writeFile(t, dir, "a.j2", "rendered")
	raw := writeFile(t, dir, "raw.bin", "bytes")
	out := filepath.Join(dir, "out")

	rep := report.New()
	r := newRunner(t, types.Options{}, map[string]any{}, rep)
	result := r.Run(context.Background(),
		[]types.SourceEntry{{Source: tpl, Dest: filepath.Join(out, "a"), Kind: types.SourceTemplate}},
		[]types.SourceEntry{{Source: raw, Dest: filepath.Join(out, "raw.bin"), Kind: types.SourceCopy}})

	assert.True(t, result.Success())
	require.Equal(t, 2, result.TotalFiles())
	assert.True(t, result.Files[0].WasCopied)
	assert.True(t, result.Files[1].IsTemplate)
}

func TestRunWipesExplicitOutputDir(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(filepath.Join(out, "stale"), 0755))
	writeFile(t, out, "leftover.txt", "old")
	tpl := writeFile(t, dir, "a.j2", "fresh")

	opts := types.Options{OutDir: out, WipeOutDir: true}
	rep := report.New()
	r := newRunner(t, opts, map[string]any{}, rep)
	result := r.Run(context.Background(), []types.SourceEntry{
		{Source: tpl, Dest: filepath.Join(out, "a"), Kind: types.SourceTemplate},
	}, nil)

	assert.True(t, result.Success())
	assert.NoFileExists(t, filepath.Join(out, "leftover.txt"))
	assert.NoDirExists(t, filepath.Join(out, "stale"))
	assert.FileExists(t, filepath.Join(out, "a"))
}

func TestRunWithoutExplicitOutDirNeverWipes(t *testing.T) {
	dir := t.TempDir()
	keep := writeFile(t, dir, "keep.txt", "data")
	tpl := writeFile(t, dir, "a.j2", "x")

	opts := types.Options{WipeOutDir: true}
	rep := report.New()
	r := newRunner(t, opts, map[string]any{}, rep)
	r.Run(context.Background(), []types.SourceEntry{
		{Source: tpl, Dest: filepath.Join(dir, "a"), Kind: types.SourceTemplate},
	}, nil)

	assert.FileExists(t, keep)
}

func TestRunCancelledContextStops(t *testing.T) {
	dir := t.TempDir()
	tpl := writeFile(t, dir, "a.j2", "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := report.New()
	r := newRunner(t, types.Options{}, map[string]any{}, rep)
	result := r.Run(ctx, []types.SourceEntry{
		{Source: tpl, Dest: filepath.Join(dir, "a"), Kind: types.SourceTemplate},
	}, nil)

	assert.Equal(t, 0, result.TotalFiles())
	assert.False(t, result.Success())
	assert.NoFileExists(t, filepath.Join(dir, "a"))
}

func TestRunWarningsDoNotFailTheRun(t *testing.T) {
	dir := t.TempDir()
	tpl := writeFile(t, dir, "a.j2", "new")
	dest := writeFile(t, dir, "a", "old")

	opts := types.Options{Overwrite: types.OverwriteWarn}
	rep := report.New()
	r := newRunner(t, opts, map[string]any{}, rep)
	result := r.Run(context.Background(), []types.SourceEntry{
		{Source: tpl, Dest: dest, Kind: types.SourceTemplate},
	}, nil)

	assert.True(t, result.Success())
	assert.NotEmpty(t, result.Warnings)
}
