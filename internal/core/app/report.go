package app

import (
	"fmt"
	"sort"
	"strings"
	"time"

	coreerrors "xref/internal/core/errors"
	"xref/internal/engine/symbols"
	"xref/internal/ui/report/formats"
	"xref/internal/ui/report/xref"
)

// Stages a file can fail in.
const (
	StageRead    = "read"
	StageSymbols = "symbols"
	StageEmit    = "emit"
)

// FileFailure is a file that was skipped. Other files are unaffected.
type FileFailure struct {
	Path  string
	Stage string
	Code  coreerrors.ErrorCode
	Err   error
}

// UnresolvedImport is a single-type import naming a type that is not part
// of the generated tree.
type UnresolvedImport struct {
	SourcePath string
	Line       int
	Import     string
}

// Report summarises one generation run.
type Report struct {
	RunID       string
	Destination string
	Started     time.Time
	Finished    time.Time

	FilesScanned    int
	FilesEmitted    int
	TypesIndexed    int
	PackagesIndexed int

	Failures          []FileFailure
	Duplicates        []symbols.Duplicate
	Ambiguous         []xref.AmbiguousRef
	UnresolvedImports []UnresolvedImport
	Warnings          []string
}

func (r *Report) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Failed reports whether any file was skipped.
func (r *Report) Failed() bool {
	return len(r.Failures) > 0
}

func (r *Report) sortFindings() {
	sort.Slice(r.Failures, func(i, j int) bool { return r.Failures[i].Path < r.Failures[j].Path })
	sort.Slice(r.Ambiguous, func(i, j int) bool {
		if r.Ambiguous[i].SourcePath != r.Ambiguous[j].SourcePath {
			return r.Ambiguous[i].SourcePath < r.Ambiguous[j].SourcePath
		}
		return r.Ambiguous[i].Line < r.Ambiguous[j].Line
	})
}

// Findings flattens the report for the SARIF export.
func (r *Report) Findings() []formats.Finding {
	out := make([]formats.Finding, 0, len(r.Failures)+len(r.Duplicates)+len(r.Ambiguous)+len(r.UnresolvedImports))
	for _, f := range r.Failures {
		out = append(out, formats.Finding{
			RuleID:  formats.RuleSkippedFile,
			Path:    f.Path,
			Message: fmt.Sprintf("skipped during %s: %v", f.Stage, f.Err),
		})
	}
	for _, d := range r.Duplicates {
		out = append(out, formats.Finding{
			RuleID:  formats.RuleDuplicateType,
			Path:    d.IgnoredSource,
			Line:    d.Line,
			Message: fmt.Sprintf("%s is already declared in %s", d.QualifiedName, d.KeptSource),
		})
	}
	for _, a := range r.Ambiguous {
		out = append(out, formats.Finding{
			RuleID:  formats.RuleAmbiguousRef,
			Path:    a.SourcePath,
			Line:    a.Line,
			Message: fmt.Sprintf("%s matches %s", a.Name, strings.Join(a.Candidates, ", ")),
		})
	}
	for _, u := range r.UnresolvedImports {
		out = append(out, formats.Finding{
			RuleID:  formats.RuleUnresolvedImport,
			Path:    u.SourcePath,
			Line:    u.Line,
			Message: u.Import + " is not part of the generated tree",
		})
	}
	return out
}
