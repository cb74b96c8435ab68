// Package pipeline implements the Pipeline Orchestrator (C11): it
// sequences every earlier component (C1-C10) per spec.md §4.10's
// run(paths) algorithm, short-circuiting for LSP requests and running
// the main/debug dual compile for full builds.
//
// Grounded in the teacher's internal/pipeline.Pipeline.Run (the
// "sequence of named stages over one mutable Program, each stage
// returning early on fatal diagnostics" shape); the stage bodies
// themselves are this domain's own C1-C9 packages rather than the
// teacher's ANF/effect-typed passes, which is why the teacher's
// original pipeline could not simply be trimmed down instead of
// rewritten - see DESIGN.md.
package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/embedlang/emlangc/internal/classir"
	"github.com/embedlang/emlangc/internal/conform"
	"github.com/embedlang/emlangc/internal/depfile"
	"github.com/embedlang/emlangc/internal/diag"
	"github.com/embedlang/emlangc/internal/errcode"
	"github.com/embedlang/emlangc/internal/flowcheck"
	"github.com/embedlang/emlangc/internal/loader"
	"github.com/embedlang/emlangc/internal/lspdispatch"
	"github.com/embedlang/emlangc/internal/methodres"
	"github.com/embedlang/emlangc/internal/resolve"
	"github.com/embedlang/emlangc/internal/srcmgr"
	"github.com/embedlang/emlangc/internal/typecheck"
	"github.com/embedlang/emlangc/pkg/metrics"
)

// Mode selects which of spec.md §6's CLI modes the pipeline runs as.
type Mode int

const (
	ModeAnalyze Mode = iota
	ModeParse
	ModeSnapshotBundle
	ModeSemanticTokens
	ModeComplete
	ModeGotoDefinition
)

// Options configures one run() invocation. Paths holds the entry
// source file(s); for the CLI's single-entry-file shape Paths[0] is
// the entry. ProjectRoot/LibraryRoot/CompilerVersion feed C1's package
// lock and SDK-constraint check. SelLine/SelCol (-1 to disable) mark
// an LSP selection point, threaded into the loader exactly as
// lspdispatch's own tests do it.
type Options struct {
	Paths           []string
	ProjectRoot     string
	LibraryRoot     string
	CompilerVersion string

	Mode Mode

	SelLine, SelCol int

	DepFilePath   string
	DepFileFormat depfile.Format

	Force               bool // proceed to codegen despite errors
	ShowPackageWarnings bool
	Werror              bool

	Fork bool // run the dual compile in a forked child, per spec.md §5
}

// Result is what run() produces for a full compilation. For LSP modes
// most fields are unused; the caller inspects Diagnostics/Reports and
// whatever mode-specific payload (Selection, Tokens) was filled in.
type Result struct {
	ExitCode    int
	Diagnostics []*errcode.Report

	Bundle *SnapshotBundle // only for ModeSnapshotBundle

	Selection  *lspdispatch.Selection   // only for ModeComplete/ModeGotoDefinition
	Candidates []lspdispatch.Candidate  // only for ModeComplete/ModeGotoDefinition
	EarlyExit  bool
}

// SnapshotBundle is spec.md §6's four opaque byte arrays.
type SnapshotBundle struct {
	MainSnapshot   []byte
	MainSourceMap  []byte
	DebugSnapshot  []byte
	DebugSourceMap []byte
}

// Run executes spec.md §4.10's algorithm end to end. w receives
// human-readable diagnostics (the CompilationSink target); pass
// io.Discard for the LSP modes, which collect an AnalysisSink instead.
func Run(opts Options, w io.Writer) (*Result, error) {
	if len(opts.Paths) == 0 {
		return nil, fmt.Errorf("pipeline: no entry path given")
	}
	entry := adjust(opts.Paths, opts.Mode)[0]

	lock, err := srcmgr.LoadLock(filepath.Dir(entry), opts.ProjectRoot, opts.LibraryRoot)
	if err != nil {
		return nil, fmt.Errorf("pipeline: loading package lock: %w", err)
	}

	sources := srcmgr.NewSourceManager(lock)

	var rawSink diag.Sink = diag.NewCompilationSink()
	analysis := &diag.AnalysisSink{}
	isLSP := opts.Mode == ModeSemanticTokens || opts.Mode == ModeComplete || opts.Mode == ModeGotoDefinition
	if isLSP {
		rawSink = analysis
	} else if cs, ok := rawSink.(*diag.CompilationSink); ok {
		cs.Out = w
	}

	hasError := false
	sink := &trackingSink{inner: rawSink, hasError: &hasError}

	bus := diag.New(sources, sink)
	bus.Werror = opts.Werror
	bus.ShowPackageWarnings = opts.ShowPackageWarnings

	if !lock.SDKConstraintSatisfied(opts.CompilerVersion) {
		bus.ReportError(errcode.PKG003, "SDK constraint not satisfied by compiler version %q", opts.CompilerVersion)
	}

	selLine, selCol := opts.SelLine, opts.SelCol
	if selLine == 0 {
		selLine = -1
	}
	ld := loader.New(sources, opts.LibraryRoot, entry, selLine, selCol)
	set := ld.LoadAll(entry)
	for _, u := range set.Units {
		for _, d := range u.Diagnostics {
			sink.Emit(d)
		}
	}

	if opts.DepFilePath != "" {
		if err := writeDepFile(opts.DepFilePath, set, opts.DepFileFormat); err != nil {
			return nil, fmt.Errorf("pipeline: writing dep file: %w", err)
		}
		metrics.DepFileWritten()
	}

	if opts.Mode == ModeParse {
		return &Result{ExitCode: 1, Diagnostics: collect(sink)}, nil
	}

	dispatcher := lspdispatch.NewDispatcher()

	rp, rdiags := resolve.BuildModules(set)
	emitAll(sink, rdiags)
	cp, cdiags := classir.Build(rp)
	emitAll(sink, cdiags)
	prog, mdiags := methodres.Build(cp, rp)
	emitAll(sink, mdiags)

	if opts.Mode == ModeSemanticTokens {
		return &Result{ExitCode: 0, Diagnostics: collect(sink), EarlyExit: true}, nil
	}

	if opts.Mode == ModeComplete || opts.Mode == ModeGotoDefinition {
		res := &Result{}
		sel, ok := lspdispatch.FindSelection(prog)
		if ok {
			mode := lspdispatch.ModeGotoDefinition
			if opts.Mode == ModeComplete {
				mode = lspdispatch.ModeCompletion
			}
			candidates, earlyExit := dispatcher.Dispatch(sel, cp, mode)
			res.Selection, res.Candidates, res.EarlyExit = sel, candidates, earlyExit
		}
		res.Diagnostics = collect(sink)
		return res, nil
	}

	table := conform.Build(cp)
	emitAll(sink, conform.Check(cp, table))
	emitAll(sink, flowcheck.Check(cp, prog))
	emitAll(sink, typecheck.Check(cp, prog))

	if opts.Mode == ModeAnalyze {
		code := 0
		if hasError {
			code = 1
		}
		return &Result{ExitCode: code, Diagnostics: collect(sink)}, nil
	}

	if hasError && !opts.Force {
		return &Result{ExitCode: 1, Diagnostics: collect(sink)}, nil
	}

	var bundle *SnapshotBundle
	if opts.Fork {
		bundle, err = runForked(opts)
	} else {
		bundle, err = compileInProcess(cp, prog)
	}
	if err != nil {
		metrics.CompileFailed()
		return &Result{ExitCode: 1, Diagnostics: collect(sink)}, err
	}
	metrics.CompileOK()

	return &Result{ExitCode: 0, Diagnostics: collect(sink), Bundle: bundle}, nil
}

// adjust implements spec.md §4.10's "debug pipeline prepends synthetic
// entry" step. The debug pipeline's extra entry is injected later, in
// patch(); at the path-adjustment stage there is nothing to add for
// this port's single-entry-file CLI shape, so adjust is currently the
// identity - kept as its own function because compileInProcess calls
// it a second time for the debug pass, where it matters once a
// synthetic entry unit is introduced (see patch.go).
func adjust(paths []string, mode Mode) []string { return paths }

func emitAll(sink diag.Sink, reports []*errcode.Report) {
	for _, r := range reports {
		sink.Emit(r)
	}
}

// trackingSink forwards every diagnostic to inner while also setting
// *hasError the moment any error-severity report passes through - the
// bus's own EncounteredError only tracks diagnostics reported through
// its own ReportError/ReportAt, not the ones C4-C9 emit straight to
// the sink, so Run needs this second bookkeeping layer to know whether
// the overall compile saw an error.
type trackingSink struct {
	inner    diag.Sink
	hasError *bool
}

func (t *trackingSink) Emit(r *errcode.Report) {
	if r.Severity == "error" {
		*t.hasError = true
	}
	t.inner.Emit(r)
}

func collect(sink diag.Sink) []*errcode.Report {
	if ts, ok := sink.(*trackingSink); ok {
		sink = ts.inner
	}
	if a, ok := sink.(*diag.AnalysisSink); ok {
		return a.Reports
	}
	return nil
}

// resolveAndCheck runs C4-C9 (module/scope building through
// type/deprecation checking) over an already-loaded unit set, used by
// both Run's in-process path and the forked child (which re-loads and
// re-resolves independently, per spec.md §5's "no shared memory").
func resolveAndCheck(set *loader.Set) (*classir.Program, *methodres.Program, bool, []*errcode.Report) {
	var diags []*errcode.Report
	rp, rdiags := resolve.BuildModules(set)
	diags = append(diags, rdiags...)
	cp, cdiags := classir.Build(rp)
	diags = append(diags, cdiags...)
	prog, mdiags := methodres.Build(cp, rp)
	diags = append(diags, mdiags...)

	table := conform.Build(cp)
	diags = append(diags, conform.Check(cp, table)...)
	diags = append(diags, flowcheck.Check(cp, prog)...)
	diags = append(diags, typecheck.Check(cp, prog)...)

	hasError := false
	for _, d := range diags {
		if d.Severity == "error" {
			hasError = true
		}
	}
	return cp, prog, hasError, diags
}

func writeDepFile(path string, set *loader.Set, format depfile.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return depfile.Write(f, set, format)
}

// compileInProcess runs spec.md §4.10's dual main+debug compile
// without the crash-isolating fork, timing each half via pkg/metrics
// exactly as the forked path does.
func compileInProcess(cp *classir.Program, prog *methodres.Program) (*SnapshotBundle, error) {
	start := time.Now()
	mainSnap, mainMap, err := emitSnapshot(cp, prog, nil)
	metrics.ObserveMainCompile(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	start = time.Now()
	dt := patch(cp)
	debugSnap, debugMap, err := emitSnapshot(cp, prog, dt)
	metrics.ObserveDebugCompile(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	return &SnapshotBundle{
		MainSnapshot: mainSnap, MainSourceMap: mainMap,
		DebugSnapshot: debugSnap, DebugSourceMap: debugMap,
	}, nil
}
