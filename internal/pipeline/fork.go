// fork.go implements spec.md §5's process-level parallelism: the
// orchestrator may fork one child, isolating the compile from a crash
// in the parent, and streams the snapshot bundle back over a pipe as
// four length-prefixed frames. Grounded in spec.md §9's design-note
// "fork() for crash isolation -> subprocess spawn of the same binary
// with a child-mode flag, length-prefixed pipe; no shared memory" -
// the child re-loads and re-resolves the sources itself rather than
// receiving the parent's in-memory Program, matching "no shared
// memory" literally.
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/embedlang/emlangc/internal/errcode"
	"github.com/embedlang/emlangc/internal/loader"
	"github.com/embedlang/emlangc/internal/lsptransport"
	"github.com/embedlang/emlangc/internal/srcmgr"
	"github.com/embedlang/emlangc/pkg/metrics"
)

// ChildModeEnv is the environment variable cmd/emlangc checks at
// startup: its presence (holding a JSON-encoded Options) means "act as
// the forked compile child", per spec.md §5's child-mode flag.
const ChildModeEnv = "EMLANGC_FORK_CHILD_OPTIONS"

// childPipeFD is the file descriptor the child writes its four frames
// to: fd 3, the first entry of exec.Cmd.ExtraFiles.
const childPipeFD = 3

// runForked spawns a child process re-invoking the current binary with
// ChildModeEnv set, reads the four length-prefixed frames it streams
// back over a dedicated pipe, and assembles them into a SnapshotBundle.
// A non-zero exit or a terminating signal aborts per spec.md §4.10;
// a short read (fewer than four frames before EOF) is fatal per
// spec.md §5.
func runForked(opts Options) (*SnapshotBundle, error) {
	payload, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("pipeline: encoding child options: %w", err)
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("pipeline: creating IPC pipe: %w", err)
	}

	cmd := exec.Command(os.Args[0], os.Args[1:]...)
	cmd.Env = append(os.Environ(), ChildModeEnv+"="+string(payload))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{pw}

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, fmt.Errorf("pipeline: spawning compile child: %w", err)
	}
	metrics.ChildSpawned()
	pw.Close() // parent only reads

	start := time.Now()
	bundle, readErr := readBundle(pr)
	metrics.ObservePipeRead(time.Since(start).Seconds())
	pr.Close()

	waitErr := cmd.Wait()
	switch {
	case waitErr == nil:
		metrics.ChildExited()
	default:
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
				metrics.ChildSignaled()
				return nil, errcode.Wrap(errcode.New(errcode.PIPE002, "error",
					fmt.Sprintf("compile child terminated by signal %s", status.Signal())))
			}
			metrics.ChildExitedNonZero()
			return nil, errcode.Wrap(errcode.New(errcode.PIPE001, "error", "compile child exited non-zero"))
		}
		metrics.ChildExitedNonZero()
		return nil, fmt.Errorf("pipeline: waiting for compile child: %w", waitErr)
	}

	if readErr != nil {
		metrics.ShortRead()
		return nil, errcode.Wrap(errcode.New(errcode.PIPE003, "error", "short read on IPC pipe: "+readErr.Error()))
	}
	return bundle, nil
}

func readBundle(r *os.File) (*SnapshotBundle, error) {
	mainSnap, err := lsptransport.ReadFrame(r)
	if err != nil {
		return nil, err
	}
	mainMap, err := lsptransport.ReadFrame(r)
	if err != nil {
		return nil, err
	}
	debugSnap, err := lsptransport.ReadFrame(r)
	if err != nil {
		return nil, err
	}
	debugMap, err := lsptransport.ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return &SnapshotBundle{
		MainSnapshot: mainSnap, MainSourceMap: mainMap,
		DebugSnapshot: debugSnap, DebugSourceMap: debugMap,
	}, nil
}

// RunChildFromEnv is what cmd/emlangc calls at startup when
// ChildModeEnv is set: it decodes Options, recompiles from scratch
// (independent of whatever the parent had resolved, per the "no shared
// memory" design note), and writes the four snapshot frames to fd 3
// before exiting. The caller should os.Exit with the returned code.
func RunChildFromEnv(envValue string) int {
	var opts Options
	if err := json.Unmarshal([]byte(envValue), &opts); err != nil {
		fmt.Fprintln(os.Stderr, "pipeline: decoding child options:", err)
		return 1
	}

	bundle, diags, err := compileForChild(opts)
	for _, rep := range diags {
		fmt.Fprintf(os.Stderr, "%s: %s\n", rep.Severity, rep.Message)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "pipeline: child compile failed:", err)
		return 1
	}

	pipe := os.NewFile(childPipeFD, "emlangc-fork-pipe")
	if pipe == nil {
		fmt.Fprintln(os.Stderr, "pipeline: child has no inherited IPC pipe at fd 3")
		return 1
	}
	defer pipe.Close()

	fw := lsptransport.NewFrameWriter(pipe)
	for _, frame := range [][]byte{bundle.MainSnapshot, bundle.MainSourceMap, bundle.DebugSnapshot, bundle.DebugSourceMap} {
		if err := fw.WriteFrame(frame); err != nil {
			fmt.Fprintln(os.Stderr, "pipeline: writing snapshot frame:", err)
			return 1
		}
	}
	return 0
}

// compileForChild re-runs the loader through the dual snapshot compile
// independently of anything the parent already built - the "no shared
// memory" half of spec.md §9's fork design note.
func compileForChild(opts Options) (*SnapshotBundle, []*errcode.Report, error) {
	if len(opts.Paths) == 0 {
		return nil, nil, fmt.Errorf("pipeline: no entry path given to compile child")
	}
	entry := opts.Paths[0]

	lock, err := srcmgr.LoadLock(filepath.Dir(entry), opts.ProjectRoot, opts.LibraryRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline: loading package lock: %w", err)
	}
	sources := srcmgr.NewSourceManager(lock)
	ld := loader.New(sources, opts.LibraryRoot, entry, -1, -1)
	set := ld.LoadAll(entry)

	var diags []*errcode.Report
	for _, u := range set.Units {
		diags = append(diags, u.Diagnostics...)
	}

	cp, prog, hasError, checkDiags := resolveAndCheck(set)
	diags = append(diags, checkDiags...)
	if hasError && !opts.Force {
		return nil, diags, fmt.Errorf("pipeline: compile child found unresolved errors")
	}

	bundle, err := compileInProcess(cp, prog)
	return bundle, diags, err
}
