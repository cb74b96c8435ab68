package conform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/embedlang/emlangc/internal/classir"
	"github.com/embedlang/emlangc/internal/loader"
	"github.com/embedlang/emlangc/internal/resolve"
	"github.com/embedlang/emlangc/internal/srcmgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func build(t *testing.T, proj, lib, src string) *classir.Program {
	t.Helper()
	writeFile(t, filepath.Join(lib, "core.toit"), "")
	writeFile(t, filepath.Join(proj, "main.toit"), src)
	lock := srcmgr.NewDefaultLock(proj, lib)
	sources := srcmgr.NewSourceManager(lock)
	set := loader.New(sources, lib, "", -1, -1).LoadAll(filepath.Join(proj, "main.toit"))
	rp, rdiags := resolve.BuildModules(set)
	require.Empty(t, rdiags)
	cp, cdiags := classir.Build(rp)
	require.Empty(t, cdiags)
	return cp
}

func TestCheckFlagsMissingAbstractImplementation(t *testing.T) {
	proj, lib := t.TempDir(), t.TempDir()
	src := "abstract class Shape {\n  abstract area() -> int\n}\n\nclass Square extends Shape {\n}\n"
	p := build(t, proj, lib, src)
	table := Build(p)
	diags := Check(p, table)
	require.NotEmpty(t, diags)
}

func TestCheckPassesWhenOverridden(t *testing.T) {
	proj, lib := t.TempDir(), t.TempDir()
	src := "abstract class Shape {\n  abstract area() -> int\n}\n\nclass Square extends Shape {\n  area() -> int {\n    return 4\n  }\n}\n"
	p := build(t, proj, lib, src)
	table := Build(p)
	diags := Check(p, table)
	assert.Empty(t, diags)
}

func TestCheckSkipsAbstractClasses(t *testing.T) {
	proj, lib := t.TempDir(), t.TempDir()
	src := "abstract class Shape {\n  abstract area() -> int\n}\n"
	p := build(t, proj, lib, src)
	table := Build(p)
	diags := Check(p, table)
	assert.Empty(t, diags)
}
