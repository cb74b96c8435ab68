package srcmgr

import (
	"bytes"
	"os"
	"sync"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"

	"github.com/embedlang/emlangc/internal/lang"
)

// LoadStatus reports why LoadFile did or didn't produce a Source.
type LoadStatus int

const (
	StatusOK LoadStatus = iota
	StatusNotFound
	StatusNotRegularFile
	StatusFileError
)

// Source is an immutable byte buffer tied to an absolute path and the
// Package that owns it (spec.md §3). Line-start offsets are
// precomputed once so ComputeLocation is O(log n) per call.
type Source struct {
	AbsolutePath string
	Package      *Package
	Text         string
	lineStarts   []int
}

func newSource(path string, pkg *Package, text string) *Source {
	return &Source{AbsolutePath: path, Package: pkg, Text: text, lineStarts: computeLineStarts(text)}
}

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// normalizeSource strips a leading UTF-8 byte-order mark and applies
// Unicode NFC normalization, so two source files that spell the same
// identifier with different combining-character sequences compare
// equal byte-for-byte downstream (lexer, scope tables, diagnostics).
func normalizeSource(raw []byte) string {
	raw = bytes.TrimPrefix(raw, bomUTF8)
	return string(norm.NFC.Bytes(raw))
}

func computeLineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// ComputeLocation resolves a byte offset into a Location, per spec.md
// §4.1's position service. Both UTF-8 (rune) and UTF-16 (code-unit)
// columns are computed since diagnostics use the former and the LSP
// wire format uses the latter.
func (s *Source) ComputeLocation(offset lang.Pos) lang.Location {
	off := int(offset)
	if off > len(s.Text) {
		off = len(s.Text)
	}
	lo, hi := 0, len(s.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if s.lineStarts[mid] <= off {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	lineStart := s.lineStarts[lo]
	lineEnd := len(s.Text)
	if lo+1 < len(s.lineStarts) {
		lineEnd = s.lineStarts[lo+1]
	}
	lineText := s.Text[lineStart:lineEnd]
	byteInLine := off - lineStart

	utf8Col := 1
	utf16Col := 0
	consumed := 0
	for _, r := range lineText {
		runeLen := len(string(r))
		if consumed >= byteInLine {
			break
		}
		consumed += runeLen
		utf8Col++
		utf16Col += len(utf16.Encode([]rune{r}))
	}
	return lang.Location{
		Path: s.AbsolutePath, Line: lo + 1, UTF8Column: utf8Col,
		UTF16Column: utf16Col, OffsetInLine: byteInLine,
	}
}

// SourceManager memoizes loaded Source buffers by absolute path and
// resolves each to the owning Package via the active PackageLock
// (spec.md §4.1 "Load file").
type SourceManager struct {
	mu      sync.RWMutex
	lock    *PackageLock
	sources map[string]*Source
}

// NewSourceManager constructs a manager bound to a resolved lock.
func NewSourceManager(lock *PackageLock) *SourceManager {
	return &SourceManager{lock: lock, sources: map[string]*Source{}}
}

// LoadFile reads and memoizes the file at absPath, attributing it to
// the package the active lock assigns to that path.
func (m *SourceManager) LoadFile(absPath string) (*Source, LoadStatus) {
	m.mu.RLock()
	if s, ok := m.sources[absPath]; ok {
		m.mu.RUnlock()
		return s, StatusOK
	}
	m.mu.RUnlock()

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, StatusNotFound
		}
		return nil, StatusFileError
	}
	if !info.Mode().IsRegular() {
		return nil, StatusNotRegularFile
	}
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, StatusFileError
	}

	pkg := m.lock.PackageFor(absPath)
	src := newSource(absPath, pkg, normalizeSource(raw))

	m.mu.Lock()
	m.sources[absPath] = src
	m.mu.Unlock()
	return src, StatusOK
}

// LoadVirtual registers an in-memory source that was never read from
// disk (an LSP "open but unsaved" buffer, spec.md §3 "Virtual file").
// It is owned by the virtual package and keyed by a synthetic path so
// it never collides with a real absolute path.
func (m *SourceManager) LoadVirtual(name, text string) *Source {
	path := VirtualPathPrefix + name
	pkg, _ := m.lock.PackageByID(VirtualPackageID)
	src := newSource(path, pkg, normalizeSource([]byte(text)))
	m.mu.Lock()
	m.sources[path] = src
	m.mu.Unlock()
	return src
}

// Invalidate drops a cached Source, forcing the next LoadFile to
// re-read it from disk (used by the LSP transport when a file changes
// on disk outside an edit session).
func (m *SourceManager) Invalidate(absPath string) {
	m.mu.Lock()
	delete(m.sources, absPath)
	m.mu.Unlock()
}

// Lock returns the PackageLock this manager resolves paths against.
func (m *SourceManager) Lock() *PackageLock { return m.lock }
