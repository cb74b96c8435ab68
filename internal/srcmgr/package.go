// Package srcmgr implements the Source Manager & Package Lock (C1):
// mapping paths to immutable Source buffers, resolving package
// prefixes, and canonicalizing paths. Grounded in the teacher's
// internal/module Resolver (path normalization, project-root discovery)
// generalized to spec.md §3/§4.1's Source/Package/PackageLock model.
package srcmgr

// EntryPackageID, SDKPackageID, and VirtualPackageID are the three
// sentinel package ids spec.md §3 calls out by name.
const (
	EntryPackageID   = ""
	SDKPackageID     = "<sdk>"
	VirtualPackageID = "<virtual>"
)

// PackageState is the lifecycle state of a resolved package.
type PackageState int

const (
	PackageOK PackageState = iota
	PackageInvalid
	PackageError
	PackageNotFound
)

// Package is the tagged record from spec.md §3.
type Package struct {
	ID            string
	Name          string
	AbsolutePath  string
	PrefixMap     map[string]string // prefix -> package id
	State         PackageState
	IsPathPackage bool
}

// ResolvePrefixID resolves a prefix declared by this package's manifest
// to another package id. The sdk package's prefixes are consulted as an
// implicit fallback when pkg itself doesn't declare the prefix
// (spec.md §3 "The `sdk` package's prefixes are implicit").
func (l *PackageLock) ResolvePrefixID(pkg *Package, prefix string) (string, bool) {
	if pkg != nil {
		if id, ok := pkg.PrefixMap[prefix]; ok {
			return id, true
		}
	}
	if sdk, ok := l.packages[SDKPackageID]; ok {
		if id, ok := sdk.PrefixMap[prefix]; ok {
			return id, true
		}
	}
	return "", false
}

// ResolvePrefix resolves a prefix to the Package it names.
func (l *PackageLock) ResolvePrefix(pkg *Package, prefix string) (*Package, bool) {
	id, ok := l.ResolvePrefixID(pkg, prefix)
	if !ok {
		return nil, false
	}
	return l.PackageByID(id)
}

// PackageByID looks up a package by id.
func (l *PackageLock) PackageByID(id string) (*Package, bool) {
	p, ok := l.packages[id]
	return p, ok
}
