// Package diag implements the Diagnostics Bus (C2): the single
// report_error/warning/note entry point every other phase reports
// through, plus the group/severity-adjustment rules from spec.md §4.2.
//
// Grounded in the original source's Diagnostics/CompilationDiagnostics
// hierarchy (_examples/original_source/src/compiler/diagnostic.cc):
// severity adjustment happens once in the shared Report path, group
// membership pins the reporting package/severity to the group's first
// diagnostic, and three concrete sinks (compilation, analysis, null)
// share that same base behavior and differ only in how they emit.
package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/embedlang/emlangc/internal/errcode"
	"github.com/embedlang/emlangc/internal/lang"
	"github.com/embedlang/emlangc/internal/srcmgr"
)

// Severity mirrors spec.md §4.2's three severities.
type Severity int

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// Sink is the concrete emission strategy a Bus delegates to. The three
// required implementations (spec.md §4.2) are Compilation, Analysis,
// and Null below.
type Sink interface {
	Emit(r *errcode.Report)
}

// Bus is the shared diagnostics entry point. It tracks the sticky
// encountered-error/warning flags, applies the werror policy and the
// non-entry-package warning filter, and threads group membership
// through to the sink so it can decide what to pin a group's severity
// to.
type Bus struct {
	Sources *srcmgr.SourceManager
	Sink    Sink

	// Werror promotes warnings to errors, per spec.md §4.2.
	Werror bool
	// ShowPackageWarnings disables the "drop warnings/notes from
	// non-entry packages" filter.
	ShowPackageWarnings bool

	encounteredError   bool
	encounteredWarning bool

	inGroup        bool
	groupPackageID string
	groupSeverity  Severity
	groupPinned    bool
}

// New builds a Bus bound to sources and delegating emission to sink.
func New(sources *srcmgr.SourceManager, sink Sink) *Bus {
	return &Bus{Sources: sources, Sink: sink}
}

// StartGroup and EndGroup bracket a set of diagnostics that should be
// treated as belonging to a single reporting unit (spec.md §4.2): the
// first diagnostic's package and severity decide whether the whole
// group survives the package-warning filter.
func (b *Bus) StartGroup() {
	b.inGroup = true
	b.groupPinned = false
	b.groupPackageID = ""
}

func (b *Bus) EndGroup() {
	b.inGroup = false
}

func (b *Bus) EncounteredError() bool   { return b.encounteredError }
func (b *Bus) EncounteredWarning() bool { return b.encounteredWarning }

// SetEncounteredError lets a caller restore or suppress the sticky
// flag, mirroring NullDiagnostics's "shadow an existing bus but keep
// its encountered_error" constructor in the original source.
func (b *Bus) SetEncounteredError(v bool) { b.encounteredError = v }

func (b *Bus) adjustSeverity(sev Severity) Severity {
	if b.Werror && sev == Warning {
		return Error
	}
	return sev
}

// report handles a diagnostic with no known source (entry-package by
// convention, so it is never dropped by the package-warning filter).
func (b *Bus) report(sev Severity, code, format string, args ...interface{}) {
	sev = b.adjustSeverity(sev)
	switch sev {
	case Error:
		b.encounteredError = true
	case Warning:
		b.encounteredWarning = true
	}
	b.Sink.Emit(errcode.New(code, sevName(sev), fmt.Sprintf(format, args...)))
}

func sevName(s Severity) string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "note"
	}
}

// ReportError/Warning/Note report a diagnostic with no source range
// attached (spec.md §4.2's no-range overloads).
func (b *Bus) ReportError(code, format string, args ...interface{}) {
	b.report(Error, code, format, args...)
}

func (b *Bus) ReportWarning(code, format string, args ...interface{}) {
	b.report(Warning, code, format, args...)
}

func (b *Bus) ReportNote(code, format string, args ...interface{}) {
	b.report(Note, code, format, args...)
}

// ReportAt reports a diagnostic against a concrete source + range,
// populating the Report's Path/Line/Column via the source's position
// service and applying the package-warning filter against that
// source's owning package.
func (b *Bus) ReportAt(sev Severity, src *srcmgr.Source, rng lang.Range, code, format string, args ...interface{}) {
	sev = b.adjustSeverity(sev)
	switch sev {
	case Error:
		b.encounteredError = true
	case Warning:
		b.encounteredWarning = true
	}

	msg := fmt.Sprintf(format, args...)
	rep := errcode.New(code, sevName(sev), msg)
	if src != nil {
		loc := src.ComputeLocation(rng.From)
		rep.Path, rep.Line, rep.Column = loc.Path, loc.Line, loc.UTF8Column
	}

	pkgID := srcmgr.EntryPackageID
	if src != nil {
		pkgID = src.Package.ID
	}

	if !b.ShowPackageWarnings {
		reportingPkg, reportingSev := pkgID, sev
		if b.inGroup {
			if !b.groupPinned {
				b.groupPackageID, b.groupSeverity, b.groupPinned = pkgID, sev, true
			}
			reportingPkg, reportingSev = b.groupPackageID, b.groupSeverity
		}
		if reportingPkg != srcmgr.EntryPackageID && reportingSev != Error {
			return
		}
	}

	b.Sink.Emit(rep)
}

// ---- sinks ---------------------------------------------------------------

// CompilationSink renders colorized diagnostics to an io.Writer (stderr
// by default), matching the teacher CLI's fatih/color convention
// (green/red/yellow/cyan/bold helpers in cmd/emlangc/main.go).
type CompilationSink struct {
	Out io.Writer
}

// NewCompilationSink defaults Out to os.Stderr.
func NewCompilationSink() *CompilationSink { return &CompilationSink{Out: os.Stderr} }

func (s *CompilationSink) Emit(r *errcode.Report) {
	out := s.Out
	if out == nil {
		out = os.Stderr
	}
	bold := color.New(color.Bold).SprintFunc()
	var sevColor func(a ...interface{}) string
	switch r.Severity {
	case "error":
		sevColor = color.New(color.FgRed).SprintFunc()
	case "warning":
		sevColor = color.New(color.FgMagenta).SprintFunc()
	default:
		sevColor = color.New(color.FgGreen).SprintFunc()
	}
	if r.Path != "" {
		fmt.Fprintf(out, "%s ", bold(fmt.Sprintf("%s:%d:%d:", r.Path, r.Line, r.Column)))
	}
	fmt.Fprintf(out, "%s: %s\n", sevColor(r.Severity), r.Message)
}

// AnalysisSink collects structured records for forwarding through the
// LSP protocol instead of printing them (spec.md §4.2's "Analysis
// (LSP)" sink).
type AnalysisSink struct {
	Reports []*errcode.Report
}

func (s *AnalysisSink) Emit(r *errcode.Report) { s.Reports = append(s.Reports, r) }

// NullSink swallows every diagnostic; used for the debug-compilation
// path where the main compilation already reported issues.
type NullSink struct{}

func (NullSink) Emit(*errcode.Report) {}
