package lang

import "strings"

// ParseSource parses a complete source file's text into a Unit. This is
// the entry point the Unit Loader (internal/loader) calls for every
// file it reads; selLine/selCol (both -1 to disable) mark an LSP
// selection point within this file.
func ParseSource(path, text string, selLine, selCol int) (*Unit, []ParseError) {
	lineStarts := computeLineStarts(text)
	lineColOf := func(pos Pos) (int, int) {
		return lineColFromOffset(lineStarts, int(pos))
	}
	p := NewParser(NewLexer(text, path), selLine, selCol, lineColOf)
	unit := p.ParseUnit(path)
	return unit, p.Errors()
}

func computeLineStarts(text string) []int {
	starts := []int{0}
	for i, ch := range []byte(text) {
		if ch == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func lineColFromOffset(lineStarts []int, offset int) (line, col int) {
	// binary search for the last line start <= offset
	lo, hi := 0, len(lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, offset - lineStarts[lo]
}

// JoinDotted renders dotted import segments back to "a.b.c" form.
func JoinDotted(segments []string) string { return strings.Join(segments, ".") }
