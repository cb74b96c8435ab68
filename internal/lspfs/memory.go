package lspfs

import (
	"context"
	"sort"
	"strings"
)

// MemoryBackend is an in-memory Backend used by the editor-buffer /
// virtual-file transport variant (spec.md's glossary "Virtual file":
// contents injected rather than loaded from disk) and by every test in
// this package and internal/lspdispatch - no real filesystem needed.
type MemoryBackend struct {
	SDK           string
	PackageCaches []string
	Files         map[string][]byte
	Dirs          map[string]bool
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{Files: map[string][]byte{}, Dirs: map[string]bool{}}
}

func (b *MemoryBackend) SDKPath(ctx context.Context) (string, error) { return b.SDK, nil }

func (b *MemoryBackend) PackageCachePaths(ctx context.Context) ([]string, error) {
	out := make([]string, len(b.PackageCaches))
	copy(out, b.PackageCaches)
	return out, nil
}

func (b *MemoryBackend) ListDirectory(ctx context.Context, path string) ([]string, error) {
	prefix := strings.TrimSuffix(path, "/") + "/"
	seen := map[string]bool{}
	var names []string
	for p := range b.Files {
		if rest, ok := cutPrefix(p, prefix); ok && !strings.Contains(rest, "/") && !seen[rest] {
			seen[rest] = true
			names = append(names, rest)
		}
	}
	for d := range b.Dirs {
		if rest, ok := cutPrefix(d, prefix); ok && rest != "" && !strings.Contains(rest, "/") && !seen[rest] {
			seen[rest] = true
			names = append(names, rest)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (b *MemoryBackend) Info(ctx context.Context, path string) (Info, error) {
	if content, ok := b.Files[path]; ok {
		return Info{Exists: true, IsRegular: true, Content: content}, nil
	}
	if b.Dirs[path] {
		return Info{Exists: true, IsDirectory: true}, nil
	}
	return Info{}, nil
}

func cutPrefix(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) {
		return "", false
	}
	return s[len(prefix):], true
}
