// Package lspfs implements the four LSP FS protocol request kinds
// named in spec.md §6 (`SDK PATH`, `PACKAGE CACHE PATHS`,
// `LIST DIRECTORY`, `INFO`) against a pluggable Backend, so the "local
// filesystem", "in-memory", and "socket-relayed" transport variants
// spec.md §6 names all satisfy the same interface.
//
// The local-filesystem backend wraps github.com/viant/afs instead of
// bare os calls, grounded in viant-linager's
// inspector/repository/detector.go and analyzer/analyzer.go, both of
// which hold an afs.Service and drive every filesystem read through
// it (`afs.New()` then `Service.DownloadWithURL`/`List`/`Exists`)
// rather than calling `os` directly - the same uniform-storage-
// abstraction idiom this package reuses so a future non-local backend
// (e.g. a packed archive, a remote object store) needs only a new
// afs.Service implementation, not a new lspfs.Backend.
package lspfs

import (
	"context"
	"sort"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
)

// Info is the four-field answer to an `INFO`+path request (spec.md §6):
// existence, regular-file-ness, directory-ness, and (when it exists
// and is a regular file) its content.
type Info struct {
	Exists      bool
	IsRegular   bool
	IsDirectory bool
	Content     []byte
}

// Backend answers the four FS protocol request kinds. sdkPath and
// packageCachePaths are static per compiler invocation (set from CLI
// flags / the package lock); ListDirectory and Info consult the
// underlying storage service.
type Backend interface {
	SDKPath(ctx context.Context) (string, error)
	PackageCachePaths(ctx context.Context) ([]string, error)
	ListDirectory(ctx context.Context, path string) ([]string, error)
	Info(ctx context.Context, path string) (Info, error)
}

// afsBackend is the local-filesystem variant: SDK path and package
// cache paths are fixed at construction, every ListDirectory/Info call
// goes through a shared afs.Service.
type afsBackend struct {
	fs                afs.Service
	sdkPath           string
	packageCachePaths []string
}

// NewLocalBackend builds the local-filesystem Backend described in
// spec.md §6's "Port -1: local filesystem" transport variant.
func NewLocalBackend(sdkPath string, packageCachePaths []string) Backend {
	return &afsBackend{fs: afs.New(), sdkPath: sdkPath, packageCachePaths: packageCachePaths}
}

func (b *afsBackend) SDKPath(ctx context.Context) (string, error) {
	return b.sdkPath, nil
}

func (b *afsBackend) PackageCachePaths(ctx context.Context) ([]string, error) {
	out := make([]string, len(b.packageCachePaths))
	copy(out, b.packageCachePaths)
	return out, nil
}

func (b *afsBackend) ListDirectory(ctx context.Context, path string) ([]string, error) {
	objects, err := b.fs.List(ctx, path)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, obj := range objects {
		if obj.Name() == "." || obj.Name() == ".." {
			continue
		}
		names = append(names, obj.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (b *afsBackend) Info(ctx context.Context, path string) (Info, error) {
	ok, err := b.fs.Exists(ctx, path)
	if err != nil {
		return Info{}, err
	}
	if !ok {
		return Info{}, nil
	}
	objects, err := b.fs.List(ctx, path)
	isDir := err == nil && len(objects) >= 1 && sameTarget(objects, path)
	if isDir {
		return Info{Exists: true, IsDirectory: true}, nil
	}
	content, err := b.fs.DownloadWithURL(ctx, path)
	if err != nil {
		return Info{}, err
	}
	return Info{Exists: true, IsRegular: true, Content: content}, nil
}

// sameTarget reports whether path itself (rather than only its
// children) was returned by List - afs.Service.List on a directory URL
// includes the directory's own entry first.
func sameTarget(objects []storage.Object, path string) bool {
	for _, obj := range objects {
		if obj.IsDir() && obj.URL() == path {
			return true
		}
	}
	return false
}
