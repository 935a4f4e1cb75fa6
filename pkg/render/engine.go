// Package render turns template text into output text: the engine
// wrapper with its error classification, the in-template export
// constructs, and the per-file pipeline.
package render

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/tplforge/tplforge/pkg/errors"
	"github.com/tplforge/tplforge/pkg/logging"
)

// extensions is the registered-function table. Register is the
// extension point for additional template functions beyond the sprig
// catalog; it must be called before any Engine is created.
var extensions = template.FuncMap{}

// RegisterFunc registers an extra template function under name.
func RegisterFunc(name string, fn any) {
	extensions[name] = fn
}

// Engine wraps the template machinery: a shared base namespace holding
// the function catalog and every include-directory template, cloned for
// each render so per-file state never leaks between files.
type Engine struct {
	base    *template.Template
	sources map[string]string // template name -> text, for tracebacks
	strict  bool
}

// NewEngine builds an engine with the given include directories parsed
// in. Every file under an include directory becomes an associated
// template named by its slash-separated path relative to that
// directory, reachable via {{template "name"}}. strict makes missing
// context keys a render error instead of a "<no value>" placeholder.
func NewEngine(includeDirs []string, strict bool) (*Engine, error) {
	e := &Engine{
		base:    template.New("tplforge").Funcs(sprig.FuncMap()).Funcs(extensions),
		sources: map[string]string{},
		strict:  strict,
	}

	logger := logging.GetLogger("render")
	for _, dir := range includeDirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "cannot resolve include directory '%s'", dir)
		}
		if err := e.parseIncludeDir(abs); err != nil {
			return nil, err
		}
		logger.Debug().Str("dir", abs).Msg("Include directory parsed")
	}
	return e, nil
}

func (e *Engine) parseIncludeDir(dir string) error {
	var files []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, errors.ErrSourceAccess, "cannot read include directory '%s'", dir)
	}
	sort.Strings(files)

	for _, path := range files {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		name := filepath.ToSlash(rel)

		content, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileRead, "cannot read include template '%s'", path)
		}
		if _, err := e.base.New(name).Parse(string(content)); err != nil {
			return errors.Wrapf(err, errors.ErrRenderSyntax,
				"syntax error in include template '%s'%s", path, e.traceback(err, name, string(content)))
		}
		e.sources[name] = string(content)
	}
	return nil
}

// Render executes text under name against context. funcs carries the
// per-render export functions; they are bound before parsing so the
// parser accepts them. The returned error is classified and carries a
// best-effort call-chain traceback.
func (e *Engine) Render(name, text string, context map[string]any, funcs template.FuncMap) (string, error) {
	base, err := e.base.Clone()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "cannot clone template namespace")
	}
	if len(funcs) > 0 {
		base = base.Funcs(funcs)
	}
	if e.strict {
		base = base.Option("missingkey=error")
	}

	tmpl, err := base.New(name).Parse(text)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrRenderSyntax,
			"syntax error in template '%s'%s", name, e.traceback(err, name, text))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, context); err != nil {
		return "", errors.Wrapf(err, e.classifyExec(err),
			"cannot render template '%s'%s", name, e.traceback(err, name, text))
	}
	return buf.String(), nil
}

// classifyExec maps an execution error onto the render error taxonomy
// by the shape of its message: missing context keys, missing include
// targets, and everything else.
func (e *Engine) classifyExec(err error) errors.ErrorCode {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "map has no entry for key") ||
		strings.Contains(msg, "can't evaluate field") ||
		strings.Contains(msg, "undefined variable"):
		return errors.ErrRenderUndefined
	case strings.Contains(msg, "no such template") ||
		(strings.Contains(msg, `template "`) && strings.Contains(msg, "not defined")):
		return errors.ErrRenderInclude
	default:
		return errors.ErrRender
	}
}

// frameRe matches the "template: name:line" positions the engine embeds
// in its error messages, one per frame of the template call chain.
var frameRe = regexp.MustCompile(`template: ([^:\s]+):(\d+)`)

// traceback renders the template call chain of err, innermost frame
// first, quoting each frame's source line when its text is known.
func (e *Engine) traceback(err error, name, text string) string {
	matches := frameRe.FindAllStringSubmatch(err.Error(), -1)
	if len(matches) == 0 {
		return ""
	}

	known := map[string]string{name: text}
	for n, t := range e.sources {
		known[n] = t
	}

	var b strings.Builder
	for i := len(matches) - 1; i >= 0; i-- {
		frameName, lineStr := matches[i][1], matches[i][2]
		b.WriteString("\n  at ")
		b.WriteString(frameName)
		b.WriteString(":")
		b.WriteString(lineStr)
		if src, ok := known[frameName]; ok {
			lines := strings.Split(src, "\n")
			if n := atoiSafe(lineStr); n >= 1 && n <= len(lines) {
				b.WriteString(": ")
				b.WriteString(strings.TrimSpace(lines[n-1]))
			}
		}
	}
	return b.String()
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
