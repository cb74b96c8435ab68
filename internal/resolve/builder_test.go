package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/embedlang/emlangc/internal/loader"
	"github.com/embedlang/emlangc/internal/srcmgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func loadSet(t *testing.T, proj, lib, entryRel string) *loader.Set {
	t.Helper()
	lock := srcmgr.NewDefaultLock(proj, lib)
	sources := srcmgr.NewSourceManager(lock)
	l := loader.New(sources, lib, "", -1, -1)
	return l.LoadAll(filepath.Join(proj, entryRel))
}

func TestBuildModulesBindsShowIdentifier(t *testing.T) {
	proj, lib := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(lib, "core.toit"), "")
	writeFile(t, filepath.Join(proj, "util.toit"), "global helper() -> int {\n  return 1\n}\n")
	writeFile(t, filepath.Join(proj, "main.toit"), "import util show helper\n\nglobal main() -> int {\n  return helper()\n}\n")

	set := loadSet(t, proj, lib, "main.toit")
	prog, diags := BuildModules(set)
	assert.Empty(t, diags)

	entry := prog.Modules[set.EntryID]
	entry2, ok := entry.Scope.Lookup("helper")
	require.True(t, ok)
	assert.True(t, entry2.IsSingle())
}

func TestBuildModulesBindsPrefixImport(t *testing.T) {
	proj, lib := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(lib, "core.toit"), "")
	writeFile(t, filepath.Join(proj, "util.toit"), "global helper() -> int {\n  return 1\n}\n")
	writeFile(t, filepath.Join(proj, "main.toit"), "import util as u\n\nglobal main() -> int {\n  return 0\n}\n")

	set := loadSet(t, proj, lib, "main.toit")
	prog, diags := BuildModules(set)
	assert.Empty(t, diags)

	entry := prog.Modules[set.EntryID]
	entryP, ok := entry.Scope.Lookup("u")
	require.True(t, ok)
	assert.True(t, entryP.IsPrefix())
}

func TestBuildModulesResolvesExportAll(t *testing.T) {
	proj, lib := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(lib, "core.toit"), "")
	writeFile(t, filepath.Join(proj, "util.toit"), "export *\n\nglobal helper() -> int {\n  return 1\n}\n")
	writeFile(t, filepath.Join(proj, "main.toit"), "import util\n\nglobal main() -> int {\n  return 0\n}\n")

	set := loadSet(t, proj, lib, "main.toit")
	prog, diags := BuildModules(set)
	assert.Empty(t, diags)

	utilPath := filepath.Join(proj, "util.toit")
	var util *Module
	for _, m := range prog.Modules {
		if m.AST.SourcePath == utilPath {
			util = m
		}
	}
	require.NotNil(t, util)
	assert.True(t, util.ExportAll)
	_, ok := util.ExportedIdentifiersMap["helper"]
	assert.True(t, ok)
}

func TestBuildModulesDetectsExportCycle(t *testing.T) {
	proj, lib := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(lib, "core.toit"), "")
	writeFile(t, filepath.Join(proj, "a.toit"), "import b\nexport y\n\nglobal z() -> int {\n  return 0\n}\n")
	writeFile(t, filepath.Join(proj, "b.toit"), "import a\nexport y\n\nglobal w() -> int {\n  return 0\n}\n")

	set := loadSet(t, proj, lib, "a.toit")
	_, diags := BuildModules(set)
	require.NotEmpty(t, diags)
}
