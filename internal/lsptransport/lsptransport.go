// Package lsptransport implements the three LSP transport variants
// named in spec.md §6: a plain length-prefixed LSP frame writer (port
// -1, local filesystem), the negated-size multiplexed variant that
// shares one stream for LSP output frames and outgoing FS protocol
// requests (port -2), and a line-based FS protocol connection usable
// either over that multiplexed stream or over a dedicated TCP socket
// (any other port).
//
// Ported from multiplex_stdout.cc/.h and fs_connection_socket.h: an
// LSP frame is `int32 size` (big payload count, always positive)
// followed by `size` bytes; an outgoing FS request line reuses the
// exact same frame shape but negates the size so a reader demuxing one
// stream can tell "this is an FS line, not an LSP frame" before
// decoding it. FS *responses* flow back as plain newline-terminated
// lines with no size prefix at all - only the multiplexed outgoing
// direction needs the sign trick, since incoming FS answers never share
// their stream with LSP frames in this protocol.
package lsptransport

import (
	"bufio"
	"fmt"
	"io"

	"github.com/embedlang/emlangc/internal/errcode"
)

// FrameWriter writes plain length-prefixed LSP frames: used for port
// -1 (no FS multiplexing needed, stdout carries LSP only) and as the
// underlying primitive the multiplexed writer builds on.
type FrameWriter struct {
	w io.Writer
}

func NewFrameWriter(w io.Writer) *FrameWriter { return &FrameWriter{w: w} }

// WriteFrame writes one LSP artifact: a positive int32 size followed
// by its bytes, per spec.md §6's "Each outgoing frame is
// `int32 size; bytes`."
func (f *FrameWriter) WriteFrame(payload []byte) error {
	return writeSizedFrame(f.w, int32(len(payload)), payload)
}

// MultiplexWriter shares one underlying stream between LSP output
// frames (positive size) and outgoing FS protocol request lines
// (negated size), per spec.md §6's port -2 variant.
type MultiplexWriter struct {
	w io.Writer
}

func NewMultiplexWriter(w io.Writer) *MultiplexWriter { return &MultiplexWriter{w: w} }

// WriteLSPFrame writes an ordinary (positively-sized) LSP frame.
func (m *MultiplexWriter) WriteLSPFrame(payload []byte) error {
	return writeSizedFrame(m.w, int32(len(payload)), payload)
}

// PutLine writes an outgoing FS protocol request line: the negated
// size of `line + "\n"`, followed by the line and a trailing newline,
// matching LspFsConnectionMultiplexStdout::putline exactly (size
// counts the trailing newline, then is negated).
func (m *MultiplexWriter) PutLine(line string) error {
	size := int32(len(line) + 1)
	if err := writeInt32(m.w, -size); err != nil {
		return err
	}
	if _, err := io.WriteString(m.w, line); err != nil {
		return err
	}
	_, err := io.WriteString(m.w, "\n")
	return err
}

func writeSizedFrame(w io.Writer, size int32, payload []byte) error {
	if err := writeInt32(w, size); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func writeInt32(w io.Writer, v int32) error {
	var b [4]byte
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	_, err := w.Write(b[:])
	return err
}

// ReadFrame reads one length-prefixed frame (positive size only) from
// r; a short read past EOF is fatal per spec.md §5's "short reads are
// fatal" suspension-point rule.
func ReadFrame(r io.Reader) ([]byte, error) {
	size, err := readInt32(r)
	if err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, errcode.Wrap(errcode.New(errcode.LSP002, "error", "expected an LSP frame, got a negated (FS) size"))
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func readInt32(r io.Reader) (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16 | int32(b[3])<<24, nil
}

// Connection is the line-based FS protocol primitive fs_protocol.cc
// drives: write a request line, read back a response line, and
// (for INFO) read a fixed-size content payload.
type Connection interface {
	PutLine(line string) error
	GetLine() (string, error)
	ReadData(n int) ([]byte, error)
}

// LineConn implements Connection over a plain newline-delimited
// stream: the TCP-socket FS variant (spec.md §6's "any other port").
type LineConn struct {
	r *bufio.Reader
	w io.Writer
}

func NewLineConn(r io.Reader, w io.Writer) *LineConn {
	return &LineConn{r: bufio.NewReader(r), w: w}
}

func (c *LineConn) PutLine(line string) error {
	_, err := fmt.Fprintf(c.w, "%s\n", line)
	return err
}

func (c *LineConn) GetLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return trimNewline(line), nil
}

func (c *LineConn) ReadData(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// MultiplexConn implements Connection over the stdout/stdin pair of
// spec.md §6's port -2 variant: outgoing request lines are framed via
// MultiplexWriter.PutLine (negated size), incoming response lines are
// plain (no framing at all - FS answers never share the incoming
// stream with anything else).
type MultiplexConn struct {
	out *MultiplexWriter
	in  *bufio.Reader
}

func NewMultiplexConn(out io.Writer, in io.Reader) *MultiplexConn {
	return &MultiplexConn{out: NewMultiplexWriter(out), in: bufio.NewReader(in)}
}

func (c *MultiplexConn) PutLine(line string) error { return c.out.PutLine(line) }

func (c *MultiplexConn) GetLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return trimNewline(line), nil
}

func (c *MultiplexConn) ReadData(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.in, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func trimNewline(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '\r' {
		s = s[:len(s)-1]
	}
	return s
}
