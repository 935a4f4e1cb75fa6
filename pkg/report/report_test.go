package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tplforge/tplforge/pkg/errors"
)

func TestReporterAccumulatesInOrder(t *testing.T) {
	rep := New()
	rep.Warnf("first %s", "warning")
	rep.Errorf("first %s", "error")
	rep.Warnf("second warning")

	assert.Equal(t, []string{"first warning", "second warning"}, rep.Warnings())
	assert.Equal(t, []string{"first error"}, rep.Errors())
	assert.Equal(t, 2, rep.WarningCount())
	assert.Equal(t, 1, rep.ErrorCount())
	assert.True(t, rep.HasErrors())
}

func TestReporterErrorValue(t *testing.T) {
	rep := New()
	rep.Error(errors.New(errors.ErrFileRead, "boom"))
	rep.Error(nil)

	require.Len(t, rep.Errors(), 1)
	assert.Contains(t, rep.Errors()[0], "boom")
}

func TestReporterCopiesAreIndependent(t *testing.T) {
	rep := New()
	rep.Warnf("original")

	warnings := rep.Warnings()
	warnings[0] = "mutated"

	assert.Equal(t, []string{"original"}, rep.Warnings())
}

func TestSummaryReplaysEverything(t *testing.T) {
	rep := New()
	rep.Warnf("watch out")
	rep.Errorf("it broke")

	var buf bytes.Buffer
	rep.Summary(&buf)

	out := buf.String()
	assert.Contains(t, out, "watch out")
	assert.Contains(t, out, "it broke")
	assert.Equal(t, 2, strings.Count(out, "Warnings: 1  Errors: 1"),
		"counts appear before and after the replay")
}

func TestSummarySilentWhenClean(t *testing.T) {
	var buf bytes.Buffer
	New().Summary(&buf)
	assert.Empty(t, buf.String())
}
