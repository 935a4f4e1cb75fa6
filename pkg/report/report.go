// Package report accumulates the warnings and errors of one run and
// replays them in the final summary. A Reporter is owned by a single
// run; the control flow is sequential, so no locking is involved.
package report

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/tplforge/tplforge/pkg/logging"
)

// Reporter records warnings and errors in emission order. Every message
// is also logged as it is recorded so that long batches surface problems
// before the final summary.
type Reporter struct {
	warnings []string
	errors   []string
}

// New creates an empty Reporter.
func New() *Reporter {
	return &Reporter{}
}

// Warnf records a warning.
func (r *Reporter) Warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.warnings = append(r.warnings, msg)
	logger := logging.GetLogger("report")
	logger.Warn().Msg(msg)
}

// Errorf records an error.
func (r *Reporter) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.errors = append(r.errors, msg)
	logger := logging.GetLogger("report")
	logger.Error().Msg(msg)
}

// Error records an error value verbatim.
func (r *Reporter) Error(err error) {
	if err == nil {
		return
	}
	r.Errorf("%s", err.Error())
}

// Warnings returns a copy of the recorded warnings in emission order.
func (r *Reporter) Warnings() []string {
	out := make([]string, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// Errors returns a copy of the recorded errors in emission order.
func (r *Reporter) Errors() []string {
	out := make([]string, len(r.errors))
	copy(out, r.errors)
	return out
}

// HasErrors reports whether any error was recorded.
func (r *Reporter) HasErrors() bool { return len(r.errors) > 0 }

// WarningCount returns the number of recorded warnings.
func (r *Reporter) WarningCount() int { return len(r.warnings) }

// ErrorCount returns the number of recorded errors.
func (r *Reporter) ErrorCount() int { return len(r.errors) }

// Summary replays every warning and error with final counts. Nothing is
// printed when the run was clean.
func (r *Reporter) Summary(w io.Writer) {
	if len(r.warnings) == 0 && len(r.errors) == 0 {
		return
	}

	warning := pterm.Warning.WithWriter(w)
	failure := pterm.Error.WithWriter(w)

	fmt.Fprintf(w, "Warnings: %d  Errors: %d\n", len(r.warnings), len(r.errors))
	for _, msg := range r.warnings {
		warning.Println(msg)
	}
	for _, msg := range r.errors {
		failure.Println(msg)
	}
	fmt.Fprintf(w, "Warnings: %d  Errors: %d\n", len(r.warnings), len(r.errors))
}
