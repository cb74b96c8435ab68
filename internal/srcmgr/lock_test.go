package srcmgr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLockFallsBackWithNoManifest(t *testing.T) {
	dir := t.TempDir()
	lib := t.TempDir()
	lock, err := LoadLock(dir, "", lib)
	require.NoError(t, err)

	entry, ok := lock.PackageByID(EntryPackageID)
	require.True(t, ok)
	assert.Equal(t, dir, entry.AbsolutePath)

	sdk, ok := lock.PackageByID(SDKPackageID)
	require.True(t, ok)
	assert.Equal(t, lib, sdk.AbsolutePath)
}

func TestLoadLockWalksUpToManifest(t *testing.T) {
	root := t.TempDir()
	lib := t.TempDir()
	manifest := "name: app\nsdk: \"^1.2.0\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ManifestFileName), []byte(manifest), 0o644))

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	lock, err := LoadLock(nested, "", lib)
	require.NoError(t, err)
	entry, ok := lock.PackageByID(EntryPackageID)
	require.True(t, ok)
	assert.Equal(t, root, entry.AbsolutePath)
	assert.Equal(t, "app", entry.Name)
	assert.True(t, lock.SDKConstraintSatisfied("1.3.0"))
	assert.False(t, lock.SDKConstraintSatisfied("2.0.0"))
	assert.False(t, lock.SDKConstraintSatisfied("1.1.0"))
}

func TestLoadLockResolvesDependencyPaths(t *testing.T) {
	root := t.TempDir()
	lib := t.TempDir()
	depDir := t.TempDir()
	manifest := "name: app\ndependencies:\n  tree:\n    path: " + depDir + "\n    name: data.tree\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ManifestFileName), []byte(manifest), 0o644))

	lock, err := LoadLock(root, "", lib)
	require.NoError(t, err)
	entry, _ := lock.PackageByID(EntryPackageID)
	dep, ok := lock.ResolvePrefix(entry, "tree")
	require.True(t, ok)
	assert.Equal(t, "data.tree", dep.Name)
	assert.Equal(t, PackageOK, dep.State)

	owner := lock.PackageFor(filepath.Join(depDir, "node.toit"))
	assert.Equal(t, dep.ID, owner.ID)
}

func TestResolvePrefixFallsBackToSDK(t *testing.T) {
	lib := t.TempDir()
	lock := NewDefaultLock(t.TempDir(), lib)
	sdk, _ := lock.PackageByID(SDKPackageID)
	sdk.PrefixMap["core"] = SDKPackageID

	entry, _ := lock.PackageByID(EntryPackageID)
	id, ok := lock.ResolvePrefixID(entry, "core")
	require.True(t, ok)
	assert.Equal(t, SDKPackageID, id)

	_, ok = lock.ResolvePrefixID(entry, "nope")
	assert.False(t, ok)
}
