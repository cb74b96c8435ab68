package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/embedlang/emlangc/internal/srcmgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestLoader(t *testing.T, projectDir, libDir string) *Loader {
	t.Helper()
	lock := srcmgr.NewDefaultLock(projectDir, libDir)
	sources := srcmgr.NewSourceManager(lock)
	return New(sources, libDir, "", -1, -1)
}

func TestLoadAllSeedsEntryAndCoreAtFixedIndices(t *testing.T) {
	proj := t.TempDir()
	lib := t.TempDir()
	writeFile(t, filepath.Join(lib, "core.toit"), "")
	entry := filepath.Join(proj, "main.toit")
	writeFile(t, entry, "global main() -> int {\n  return 0\n}\n")

	l := newTestLoader(t, proj, lib)
	set := l.LoadAll(entry)

	require.GreaterOrEqual(t, len(set.Units), 2)
	assert.Equal(t, 0, set.EntryID)
	assert.Equal(t, entry, set.Units[0].AbsolutePath)
	assert.Equal(t, filepath.Join(lib, "core.toit"), set.Units[set.CoreID].AbsolutePath)
}

func TestLoadAllResolvesRelativeImport(t *testing.T) {
	proj := t.TempDir()
	lib := t.TempDir()
	writeFile(t, filepath.Join(lib, "core.toit"), "")
	writeFile(t, filepath.Join(proj, "util.toit"), "global helper() -> int {\n  return 1\n}\n")
	entry := filepath.Join(proj, "main.toit")
	writeFile(t, entry, "import util\n\nglobal main() -> int {\n  return 0\n}\n")

	l := newTestLoader(t, proj, lib)
	set := l.LoadAll(entry)

	require.Len(t, set.Units[0].AST.Imports, 1)
	imp := set.Units[0].AST.Imports[0]
	require.NotNil(t, imp.ResolvedUnit)
	assert.False(t, imp.ResolvedUnit.IsErrorUnit)
	assert.Empty(t, set.Units[0].Diagnostics)
}

func TestLoadAllSynthesizesErrorUnitForMissingImport(t *testing.T) {
	proj := t.TempDir()
	lib := t.TempDir()
	writeFile(t, filepath.Join(lib, "core.toit"), "")
	entry := filepath.Join(proj, "main.toit")
	writeFile(t, entry, "import missing.thing\n\nglobal main() -> int {\n  return 0\n}\n")

	l := newTestLoader(t, proj, lib)
	set := l.LoadAll(entry)

	root := set.Units[0]
	require.Len(t, root.AST.Imports, 1)
	assert.True(t, root.AST.Imports[0].ResolvedUnit.IsErrorUnit)
	require.NotEmpty(t, root.Diagnostics)
}

func TestLoadAllDescribesNestedFileExpansion(t *testing.T) {
	proj := t.TempDir()
	lib := t.TempDir()
	writeFile(t, filepath.Join(lib, "core.toit"), "")
	writeFile(t, filepath.Join(proj, "data", "tree", "tree.toit"), "global size() -> int {\n  return 0\n}\n")
	entry := filepath.Join(proj, "main.toit")
	writeFile(t, entry, "import data.tree\n\nglobal main() -> int {\n  return 0\n}\n")

	l := newTestLoader(t, proj, lib)
	set := l.LoadAll(entry)

	imp := set.Units[0].AST.Imports[0]
	require.NotNil(t, imp.ResolvedUnit)
	assert.False(t, imp.ResolvedUnit.IsErrorUnit)
}
