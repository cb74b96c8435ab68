package srcmgr

import (
	"path/filepath"
	"strings"
)

// PackageLock is the immutable snapshot derived from a manifest file
// (spec.md §3). Every non-virtual absolute path maps to exactly one
// package.
type PackageLock struct {
	packages      map[string]*Package
	pathOwners    []pathOwner // sorted longest-prefix-first
	sdkConstraint string      // semver-ish constraint string, "" if none
	projectRoot   string
}

type pathOwner struct {
	dir string
	id  string
}

// NewDefaultLock returns the single-package lock described in spec.md
// §4.1: the entry file's directory is the entry package, and the SDK is
// available as an implicit fallback for unprefixed lookups.
func NewDefaultLock(entryDir, libraryRoot string) *PackageLock {
	l := &PackageLock{packages: map[string]*Package{}}
	l.packages[EntryPackageID] = &Package{
		ID: EntryPackageID, Name: "", AbsolutePath: entryDir,
		PrefixMap: map[string]string{}, State: PackageOK,
	}
	l.packages[SDKPackageID] = &Package{
		ID: SDKPackageID, Name: "sdk", AbsolutePath: libraryRoot,
		PrefixMap: map[string]string{}, State: PackageOK,
	}
	l.packages[VirtualPackageID] = &Package{
		ID: VirtualPackageID, Name: "virtual", PrefixMap: map[string]string{}, State: PackageOK,
	}
	l.pathOwners = []pathOwner{{dir: entryDir, id: EntryPackageID}, {dir: libraryRoot, id: SDKPackageID}}
	sortOwnersLongestFirst(l.pathOwners)
	return l
}

func sortOwnersLongestFirst(owners []pathOwner) {
	for i := 1; i < len(owners); i++ {
		for j := i; j > 0 && len(owners[j].dir) > len(owners[j-1].dir); j-- {
			owners[j], owners[j-1] = owners[j-1], owners[j]
		}
	}
}

// PackageFor maps an absolute path to the Package that owns it, by
// longest-matching-prefix over the manifest's declared package roots.
// Paths under the virtual-source prefix always resolve to the virtual
// package.
func (l *PackageLock) PackageFor(absolutePath string) *Package {
	if strings.HasPrefix(absolutePath, VirtualPathPrefix) {
		return l.packages[VirtualPackageID]
	}
	clean := filepath.Clean(absolutePath)
	for _, owner := range l.pathOwners {
		if owner.dir == "" {
			continue
		}
		rel, err := filepath.Rel(owner.dir, clean)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return l.packages[owner.id]
	}
	return l.packages[EntryPackageID]
}

// VirtualPathPrefix marks injected in-memory sources (spec.md §3
// "Virtual file").
const VirtualPathPrefix = "\x00virtual:"

// SDKConstraintSatisfied reports whether compilerVersion satisfies the
// manifest's declared SDK constraint (spec.md §4.10's
// `check_sdk(compiler_version, constraint)`). An empty constraint is
// always satisfied.
func (l *PackageLock) SDKConstraintSatisfied(compilerVersion string) bool {
	if l.sdkConstraint == "" {
		return true
	}
	return versionSatisfies(compilerVersion, l.sdkConstraint)
}

// versionSatisfies implements the narrow subset of semver-range syntax
// the manifest format supports: "^X.Y.Z" (same major, >= X.Y.Z).
func versionSatisfies(version, constraint string) bool {
	constraint = strings.TrimSpace(constraint)
	if strings.HasPrefix(constraint, "^") {
		want := parseSemver(constraint[1:])
		got := parseSemver(version)
		if got[0] != want[0] {
			return false
		}
		return compareSemver(got, want) >= 0
	}
	return version == constraint
}

func parseSemver(v string) [3]int {
	var out [3]int
	parts := strings.SplitN(strings.TrimPrefix(v, "v"), ".", 3)
	for i := 0; i < len(parts) && i < 3; i++ {
		n := 0
		for _, ch := range parts[i] {
			if ch < '0' || ch > '9' {
				break
			}
			n = n*10 + int(ch-'0')
		}
		out[i] = n
	}
	return out
}

func compareSemver(a, b [3]int) int {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			return a[i] - b[i]
		}
	}
	return 0
}
