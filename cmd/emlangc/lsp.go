package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/embedlang/emlangc/internal/errcode"
	"github.com/embedlang/emlangc/internal/lspfs"
	"github.com/embedlang/emlangc/internal/lsptransport"
	"github.com/embedlang/emlangc/internal/pipeline"
)

// lspWriter is the narrow surface runLSP needs from whichever of the
// two LSP output transports spec.md §6 names was selected by port.
type lspWriter interface {
	WriteLSPFrame(payload []byte) error
}

// frameWriterAdapter makes *lsptransport.FrameWriter satisfy lspWriter
// (its method is named WriteFrame, not WriteLSPFrame, since it has no
// FS-multiplexing counterpart to disambiguate from).
type frameWriterAdapter struct{ fw *lsptransport.FrameWriter }

func (a frameWriterAdapter) WriteLSPFrame(payload []byte) error { return a.fw.WriteFrame(payload) }

// lspResponse is the one JSON frame emitted per request: diagnostics
// from whichever pipeline stage ran, plus whichever mode-specific
// payload applies. Bundle's []byte fields marshal as base64 per
// encoding/json's default []byte handling.
type lspResponse struct {
	ExitCode    int                 `json:"exit_code"`
	Diagnostics []*errcode.Report   `json:"diagnostics,omitempty"`
	Bundle      *pipeline.SnapshotBundle `json:"bundle,omitempty"`
	Tokens      bool                `json:"semantic_tokens_emitted,omitempty"`
	Candidates  []candidateJSON     `json:"candidates,omitempty"`
}

type candidateJSON struct {
	Name string `json:"name"`
}

// runLSP implements spec.md §6's long-lived LSP session: one request
// per iteration, each request's first line naming the mode
// ("ANALYZE", "PARSE", "SNAPSHOT BUNDLE", "SEMANTIC TOKENS",
// "COMPLETE", "GOTO DEFINITION"), followed by that mode's
// mode-specific argument lines, until stdin reaches EOF.
//
// port selects the transport variant: -1 plain frames over stdout with
// the local filesystem answering FS queries directly (no round trip
// needed); -2 multiplexes LSP frames and outgoing FS request lines
// onto one stdout/stdin pair; any other value keeps stdout as plain
// LSP frames and dials a TCP socket at that port for FS queries.
func runLSP(port int, projectRoot, libraryRoot, sdkVersion string, force bool) {
	in := bufio.NewReader(os.Stdin)

	var writer lspWriter
	var fsConn lsptransport.Connection
	var localBackend lspfs.Backend

	switch {
	case port == -1:
		writer = frameWriterAdapter{lsptransport.NewFrameWriter(os.Stdout)}
		localBackend = lspfs.NewLocalBackend(libraryRoot, nil)
	case port == -2:
		mw := lsptransport.NewMultiplexWriter(os.Stdout)
		writer = mw
		fsConn = lsptransport.NewMultiplexConn(os.Stdout, os.Stdin)
	default:
		writer = frameWriterAdapter{lsptransport.NewFrameWriter(os.Stdout)}
		conn, err := net.Dial("tcp", "localhost:"+strconv.Itoa(port))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: dialing FS socket: %v\n", red("Error"), err)
			os.Exit(1)
		}
		defer conn.Close()
		fsConn = lsptransport.NewLineConn(conn, conn)
	}
	_ = localBackend // reserved for a future in-process FS query path on port -1
	_ = fsConn       // reserved for outgoing FS protocol requests (SDK PATH etc.)

	for {
		mode, ok := readLine(in)
		if !ok {
			return
		}
		mode = strings.TrimSpace(mode)
		if mode == "" {
			continue
		}

		res := handleRequest(in, mode, projectRoot, libraryRoot, sdkVersion, force)
		for _, d := range res.Diagnostics {
			printDiagnostic(d)
		}
		payload, err := json.Marshal(res)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: encoding LSP response: %v\n", red("Error"), err)
			continue
		}
		if err := writer.WriteLSPFrame(payload); err != nil {
			fmt.Fprintf(os.Stderr, "%s: writing LSP frame: %v\n", red("Error"), err)
			return
		}
	}
}

func handleRequest(in *bufio.Reader, mode, projectRoot, libraryRoot, sdkVersion string, force bool) lspResponse {
	switch mode {
	case "ANALYZE", "PARSE", "SNAPSHOT BUNDLE":
		paths, ok := readPaths(in)
		if !ok {
			return lspResponse{ExitCode: 1}
		}
		pm := map[string]pipeline.Mode{
			"ANALYZE":         pipeline.ModeAnalyze,
			"PARSE":           pipeline.ModeParse,
			"SNAPSHOT BUNDLE": pipeline.ModeSnapshotBundle,
		}[mode]
		res, err := pipeline.Run(pipeline.Options{
			Paths: paths, ProjectRoot: projectRoot, LibraryRoot: libraryRoot,
			CompilerVersion: sdkVersion, Mode: pm, SelLine: -1, SelCol: -1, Force: force,
		}, io.Discard)
		if err != nil {
			return lspResponse{ExitCode: 1}
		}
		return lspResponse{ExitCode: res.ExitCode, Diagnostics: res.Diagnostics, Bundle: res.Bundle}

	case "SEMANTIC TOKENS":
		path, ok := readLine(in)
		if !ok {
			return lspResponse{ExitCode: 1}
		}
		res, err := pipeline.Run(pipeline.Options{
			Paths: []string{strings.TrimSpace(path)}, ProjectRoot: projectRoot, LibraryRoot: libraryRoot,
			CompilerVersion: sdkVersion, Mode: pipeline.ModeSemanticTokens, SelLine: -1, SelCol: -1,
		}, io.Discard)
		if err != nil {
			return lspResponse{ExitCode: 1}
		}
		return lspResponse{ExitCode: res.ExitCode, Diagnostics: res.Diagnostics, Tokens: true}

	case "COMPLETE", "GOTO DEFINITION":
		path, line, col, ok := readSelection(in)
		if !ok {
			return lspResponse{ExitCode: 1}
		}
		pm := pipeline.ModeComplete
		if mode == "GOTO DEFINITION" {
			pm = pipeline.ModeGotoDefinition
		}
		res, err := pipeline.Run(pipeline.Options{
			Paths: []string{path}, ProjectRoot: projectRoot, LibraryRoot: libraryRoot,
			CompilerVersion: sdkVersion, Mode: pm, SelLine: line, SelCol: col,
		}, io.Discard)
		if err != nil {
			return lspResponse{ExitCode: 1}
		}
		out := lspResponse{ExitCode: res.ExitCode, Diagnostics: res.Diagnostics}
		for _, c := range res.Candidates {
			out.Candidates = append(out.Candidates, candidateJSON{Name: c.Name})
		}
		return out

	default:
		fmt.Fprintf(os.Stderr, "%s: unknown LSP request mode %q\n", red("Error"), mode)
		return lspResponse{ExitCode: 1}
	}
}

func readLine(r *bufio.Reader) (string, bool) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}

func readPaths(r *bufio.Reader) ([]string, bool) {
	countLine, ok := readLine(r)
	if !ok {
		return nil, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(countLine))
	if err != nil || n < 0 {
		return nil, false
	}
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p, ok := readLine(r)
		if !ok {
			return nil, false
		}
		paths = append(paths, p)
	}
	return paths, true
}

func readSelection(r *bufio.Reader) (path string, line, col int, ok bool) {
	p, ok := readLine(r)
	if !ok {
		return "", 0, 0, false
	}
	lineStr, ok := readLine(r)
	if !ok {
		return "", 0, 0, false
	}
	colStr, ok := readLine(r)
	if !ok {
		return "", 0, 0, false
	}
	l, err1 := strconv.Atoi(strings.TrimSpace(lineStr))
	c, err2 := strconv.Atoi(strings.TrimSpace(colStr))
	if err1 != nil || err2 != nil {
		return "", 0, 0, false
	}
	return strings.TrimSpace(p), l, c, true
}
