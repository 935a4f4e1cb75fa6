package render

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/tplforge/tplforge/pkg/logging"
	"github.com/tplforge/tplforge/pkg/report"
)

// exportState carries the per-render side effects of the in-template
// export constructs. A fresh state is created for every rendered file:
// the write-source toggle is never shared across files.
type exportState struct {
	baseDir     string
	writeSource bool
	rep         *report.Reporter
}

func newExportState(baseDir string, rep *report.Reporter) *exportState {
	return &exportState{baseDir: baseDir, writeSource: true, rep: rep}
}

// funcs returns the export functions bound to this render:
//
//	{{ content | write "path" }}
//	{{ content | write "path" preserve }}
//	{{ content | write "path" preserve writeSource }}
//	{{ content | appendTo "path" ... }}
//
// Content is the final argument so the constructs sit naturally at the
// end of a pipeline. preserve keeps the content in the primary output;
// writeSource=false requests suppression of the primary output file,
// sticky across every invocation of the same render.
func (s *exportState) funcs() template.FuncMap {
	return template.FuncMap{
		"write":    func(path string, args ...any) string { return s.export(path, false, args) },
		"appendTo": func(path string, args ...any) string { return s.export(path, true, args) },
	}
}

func (s *exportState) export(path string, appendMode bool, args []any) string {
	logger := logging.GetLogger("render")

	name := "write"
	if appendMode {
		name = "appendTo"
	}

	preserve := false
	keepSource := true
	var content string

	switch len(args) {
	case 1:
		content = fmt.Sprint(args[0])
	case 2:
		preserve = asBool(args[0])
		content = fmt.Sprint(args[1])
	case 3:
		preserve = asBool(args[0])
		keepSource = asBool(args[1])
		content = fmt.Sprint(args[2])
	default:
		s.rep.Errorf("Invalid number of arguments for %s to '%s'.", name, path)
		return ""
	}

	// Sticky: once any invocation turns the primary output off, it
	// stays off for the rest of this render.
	s.writeSource = s.writeSource && keepSource

	target := expandPath(path)
	if !filepath.IsAbs(target) {
		target = filepath.Join(s.baseDir, target)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		s.rep.Errorf("Cannot create directory for exported file '%s': %v.", target, err)
		return ""
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(target, flags, 0644)
	if err != nil {
		s.rep.Errorf("Cannot open exported file '%s': %v.", target, err)
		return ""
	}
	defer file.Close()

	if _, err := file.WriteString(content); err != nil {
		s.rep.Errorf("Cannot write exported file '%s': %v.", target, err)
		return ""
	}
	logger.Debug().Str("path", target).Bool("append", appendMode).Msg("Exported template block")

	if preserve {
		return content
	}
	return ""
}

func asBool(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

// expandPath expands environment variables and a leading "~" in an
// export target.
func expandPath(path string) string {
	path = os.ExpandEnv(path)
	if path == "~" || len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
