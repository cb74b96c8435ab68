package flowcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/embedlang/emlangc/internal/classir"
	"github.com/embedlang/emlangc/internal/loader"
	"github.com/embedlang/emlangc/internal/methodres"
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

func build(t *testing.T, src string) (*classir.Program, *methodres.Program) {
	t.Helper()
	proj, lib := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(lib, "core.toit"), "")
	writeFile(t, filepath.Join(proj, "main.toit"), src)

	lock := srcmgr.NewDefaultLock(proj, lib)
	sources := srcmgr.NewSourceManager(lock)
	set := loader.New(sources, lib, "", -1, -1).LoadAll(filepath.Join(proj, "main.toit"))
	rp, rdiags := resolve.BuildModules(set)
	require.Empty(t, rdiags)
	cp, cdiags := classir.Build(rp)
	require.Empty(t, cdiags)
	prog, mdiags := methodres.Build(cp, rp)
	require.Empty(t, mdiags)
	return cp, prog
}

func TestCheckFlagsFieldNeverInitialized(t *testing.T) {
	src := "class Animal {\n  name/string\n\n  constructor() {\n  }\n}\n"
	cp, prog := build(t, src)
	diags := Check(cp, prog)
	require.NotEmpty(t, diags)
}

func TestCheckPassesWhenFieldStoringParamInitializesField(t *testing.T) {
	src := "class Animal {\n  name/string\n\n  constructor(this.name) {\n  }\n}\n"
	cp, prog := build(t, src)
	diags := Check(cp, prog)
	assert.Empty(t, diags)
}

func TestCheckFlagsFieldInitializedOnOnlyOneBranch(t *testing.T) {
	src := "class Animal {\n  name/string\n\n  constructor(cond) {\n    if cond {\n      name = \"a\"\n    }\n  }\n}\n"
	cp, prog := build(t, src)
	diags := Check(cp, prog)
	require.NotEmpty(t, diags)
}

func TestCheckPassesWhenFieldInitializedOnBothBranches(t *testing.T) {
	src := "class Animal {\n  name/string\n\n  constructor(cond) {\n    if cond {\n      name = \"a\"\n    } else {\n      name = \"b\"\n    }\n  }\n}\n"
	cp, prog := build(t, src)
	diags := Check(cp, prog)
	assert.Empty(t, diags)
}

func TestCheckFlagsMissingReturnOnSomePath(t *testing.T) {
	src := "global pick(cond) -> int {\n  if cond {\n    return 1\n  }\n}\n"
	cp, prog := build(t, src)
	diags := Check(cp, prog)
	require.NotEmpty(t, diags)
}

func TestCheckPassesWhenBothBranchesReturn(t *testing.T) {
	src := "global pick(cond) -> int {\n  if cond {\n    return 1\n  } else {\n    return 2\n  }\n}\n"
	cp, prog := build(t, src)
	diags := Check(cp, prog)
	assert.Empty(t, diags)
}
