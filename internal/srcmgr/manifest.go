package srcmgr

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestFileName is the package-lock manifest file spec.md §4.1
// describes: the directory walk stops at the first directory
// containing one of these.
const ManifestFileName = "pkg.lock.yaml"

// manifestDoc mirrors the on-disk YAML shape: a package name, an SDK
// constraint, and a map of prefix -> path (or prefix -> package id for
// already-resolved path packages).
type manifestDoc struct {
	Name        string            `yaml:"name"`
	SDK         string            `yaml:"sdk"`
	Deps        map[string]depRef `yaml:"dependencies"`
	LocalFolder bool              `yaml:"local"`
}

type depRef struct {
	Path string `yaml:"path"`
	Name string `yaml:"name"`
}

// LoadLock implements the directory-walk algorithm from original_source's
// lock.h: starting at sourceDir, walk up through parent directories
// looking for a manifest. If projectRoot is non-empty, only that exact
// directory is consulted. A directory with no manifest anywhere up to
// the filesystem root yields the default single-package lock.
func LoadLock(sourceDir, projectRoot, libraryRoot string) (*PackageLock, error) {
	if projectRoot != "" {
		return loadLockAt(projectRoot, libraryRoot)
	}
	dir := sourceDir
	for {
		candidate := filepath.Join(dir, ManifestFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return loadLockAt(dir, libraryRoot)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return NewDefaultLock(sourceDir, libraryRoot), nil
}

func loadLockAt(root, libraryRoot string) (*PackageLock, error) {
	raw, err := os.ReadFile(filepath.Join(root, ManifestFileName))
	if err != nil {
		return NewDefaultLock(root, libraryRoot), nil
	}
	var doc manifestDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("srcmgr: parsing %s: %w", ManifestFileName, err)
	}

	l := &PackageLock{packages: map[string]*Package{}, sdkConstraint: doc.SDK, projectRoot: root}
	l.packages[EntryPackageID] = &Package{
		ID: EntryPackageID, Name: doc.Name, AbsolutePath: root,
		PrefixMap: map[string]string{}, State: PackageOK,
	}
	l.packages[SDKPackageID] = &Package{
		ID: SDKPackageID, Name: "sdk", AbsolutePath: libraryRoot,
		PrefixMap: map[string]string{}, State: PackageOK,
	}
	l.packages[VirtualPackageID] = &Package{
		ID: VirtualPackageID, Name: "virtual", PrefixMap: map[string]string{}, State: PackageOK,
	}
	l.pathOwners = []pathOwner{{dir: root, id: EntryPackageID}, {dir: libraryRoot, id: SDKPackageID}}

	for prefix, dep := range doc.Deps {
		id := dep.Name
		if id == "" {
			id = prefix
		}
		absPath := dep.Path
		if absPath != "" && !filepath.IsAbs(absPath) {
			absPath = filepath.Join(root, absPath)
		}
		pkg, ok := l.packages[id]
		if !ok {
			state := PackageOK
			if absPath == "" {
				state = PackageNotFound
			} else if info, err := os.Stat(absPath); err != nil || !info.IsDir() {
				state = PackageNotFound
			}
			pkg = &Package{ID: id, Name: id, AbsolutePath: absPath, PrefixMap: map[string]string{}, IsPathPackage: true, State: state}
			l.packages[id] = pkg
			if absPath != "" {
				l.pathOwners = append(l.pathOwners, pathOwner{dir: absPath, id: id})
			}
		}
		l.packages[EntryPackageID].PrefixMap[prefix] = id
	}

	sortOwnersLongestFirst(l.pathOwners)
	return l, nil
}
