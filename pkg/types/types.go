// Package types holds the shared value, worklist and result types used
// across discovery, rendering and batch orchestration.
package types

// Kind classifies a context value for merge decisions. The variable
// context is a closed domain: scalars (string, number, bool, nil),
// ordered lists, and string-keyed mappings.
type Kind int

const (
	KindScalar Kind = iota
	KindList
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindMapping:
		return "mapping"
	default:
		return "scalar"
	}
}

// KindOf is the single point where dynamic inspection of context values
// happens. Everything downstream branches on the returned Kind.
func KindOf(v any) Kind {
	switch v.(type) {
	case map[string]any:
		return KindMapping
	case []any:
		return KindList
	default:
		return KindScalar
	}
}

// SourceKind distinguishes template entries from verbatim-copy entries.
type SourceKind int

const (
	SourceTemplate SourceKind = iota
	SourceCopy
)

// SourceEntry is one discovered unit of work. Entries are immutable once
// created by discovery and consumed exactly once by the runner.
type SourceEntry struct {
	Source string // absolute source path
	Dest   string // absolute destination path
	Kind   SourceKind
}

// NonTemplatePolicy selects what happens to files without the template
// marker: skip them, copy them verbatim, or render them anyway with a
// distinguishing suffix in the output name.
type NonTemplatePolicy string

const (
	NonTemplateSkip   NonTemplatePolicy = "skip"
	NonTemplateCopy   NonTemplatePolicy = "copy"
	NonTemplateRender NonTemplatePolicy = "render"
)

// OverwritePolicy controls behavior when a destination already exists.
type OverwritePolicy int

const (
	// OverwriteSilent overwrites without comment.
	OverwriteSilent OverwritePolicy = iota
	// OverwriteWarn overwrites and records a warning.
	OverwriteWarn
	// OverwriteForbid skips the file and records a warning.
	OverwriteForbid
)

// BaseDirMode selects the directory against which in-template file
// operations (write/append export targets) resolve relative paths.
type BaseDirMode int

const (
	// BaseDirOutput resolves relative to the file's output directory.
	BaseDirOutput BaseDirMode = iota
	// BaseDirSource resolves relative to the file's source directory.
	BaseDirSource
	// BaseDirNone resolves relative to the process working directory.
	BaseDirNone
)

// CSVOptions configure the CSV/TSV variable loaders.
type CSVOptions struct {
	Delimiter rune // default ','
	Escape    rune // 0 disables escape handling
	NoStrip   bool // keep surrounding whitespace on keys and values
}

// XMLOptions configure the XML variable loader.
type XMLOptions struct {
	ConvertAttributes bool // drop the "@" attribute-key marker
	RemoveNamespaces  bool // strip "ns:" prefixes from element names
}

// Options is the consolidated option set assembled from the config file
// and command-line flags. It is read-only for the duration of a run.
type Options struct {
	Marker           string // template filename suffix, e.g. ".j2"
	OutDir           string // explicit output directory, abs or ""
	OutFile          string // explicit single output file, abs or ""
	IncludeDirs      []string
	NonTemplate      NonTemplatePolicy
	RenderSuffix     string // suffix token for NonTemplateRender
	ForceGlob        bool
	Overwrite        OverwritePolicy
	WipeOutDir       bool
	BaseDir          BaseDirMode
	DebugVars        bool
	TrimWhitespace   bool
	StrictUndefined  bool
	CheckIdentifiers bool
	FixIdentifiers   bool
	CSV              CSVOptions
	XML              XMLOptions
}

// SkipReason records why a file produced no write.
type SkipReason string

const (
	SkipNone     SkipReason = ""
	SkipExisting SkipReason = "skipped to avoid overwrite"
	SkipExport   SkipReason = "skipped by export directive"
)

// FileResult is the outcome of processing one source entry.
type FileResult struct {
	Source     string
	Dest       string
	Success    bool
	Err        error // classified error, nil on success
	IsTemplate bool
	WasCopied  bool
	Written    bool
	Skipped    SkipReason
}

// RunResult aggregates per-file results with the warnings and errors
// accumulated over one run. Created fresh per invocation.
type RunResult struct {
	Files    []FileResult
	Warnings []string
	Errors   []string
}

// TotalFiles returns the number of files processed.
func (r *RunResult) TotalFiles() int { return len(r.Files) }

// SuccessfulFiles returns the number of files processed without error.
func (r *RunResult) SuccessfulFiles() int {
	n := 0
	for _, f := range r.Files {
		if f.Success {
			n++
		}
	}
	return n
}

// FailedFiles returns the number of files that failed.
func (r *RunResult) FailedFiles() int { return r.TotalFiles() - r.SuccessfulFiles() }

// Success reports whether the run recorded no errors. Warnings alone do
// not constitute failure.
func (r *RunResult) Success() bool { return len(r.Errors) == 0 }

// AddFile appends a per-file result.
func (r *RunResult) AddFile(f FileResult) { r.Files = append(r.Files, f) }
