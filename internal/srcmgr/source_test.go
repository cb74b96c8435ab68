package srcmgr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/embedlang/emlangc/internal/lang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileMemoizesByPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.toit")
	require.NoError(t, os.WriteFile(path, []byte("class A {}\n"), 0o644))

	lock := NewDefaultLock(dir, t.TempDir())
	mgr := NewSourceManager(lock)

	s1, status := mgr.LoadFile(path)
	require.Equal(t, StatusOK, status)
	s2, status := mgr.LoadFile(path)
	require.Equal(t, StatusOK, status)
	assert.Same(t, s1, s2)
	assert.Equal(t, EntryPackageID, s1.Package.ID)
}

func TestLoadFileNotFound(t *testing.T) {
	dir := t.TempDir()
	lock := NewDefaultLock(dir, t.TempDir())
	mgr := NewSourceManager(lock)
	_, status := mgr.LoadFile(filepath.Join(dir, "missing.toit"))
	assert.Equal(t, StatusNotFound, status)
}

func TestLoadFileRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	lock := NewDefaultLock(dir, t.TempDir())
	mgr := NewSourceManager(lock)
	_, status := mgr.LoadFile(sub)
	assert.Equal(t, StatusNotRegularFile, status)
}

func TestComputeLocationTracksLinesAndColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.toit")
	text := "abc\ndef\n"
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	lock := NewDefaultLock(dir, t.TempDir())
	mgr := NewSourceManager(lock)
	src, status := mgr.LoadFile(path)
	require.Equal(t, StatusOK, status)

	loc := src.ComputeLocation(lang.Pos(5)) // 'e' in "def"
	assert.Equal(t, 2, loc.Line)
	assert.Equal(t, 2, loc.UTF8Column)
}

func TestLoadFileStripsLeadingBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.toit")
	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte("class A {}\n")...)
	require.NoError(t, os.WriteFile(path, withBOM, 0o644))

	lock := NewDefaultLock(dir, t.TempDir())
	mgr := NewSourceManager(lock)
	src, status := mgr.LoadFile(path)
	require.Equal(t, StatusOK, status)
	assert.Equal(t, "class A {}\n", src.Text)
}

func TestLoadVirtualIsOwnedByVirtualPackage(t *testing.T) {
	dir := t.TempDir()
	lock := NewDefaultLock(dir, t.TempDir())
	mgr := NewSourceManager(lock)
	src := mgr.LoadVirtual("scratch", "class A {}")
	assert.Equal(t, VirtualPackageID, src.Package.ID)
}

func TestInvalidateForcesReread(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.toit")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))
	lock := NewDefaultLock(dir, t.TempDir())
	mgr := NewSourceManager(lock)

	s1, _ := mgr.LoadFile(path)
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	mgr.Invalidate(path)
	s2, _ := mgr.LoadFile(path)
	assert.NotEqual(t, s1.Text, s2.Text)
}
