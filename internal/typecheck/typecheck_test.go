package typecheck

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

func TestConformsAnyAcceptsAnything(t *testing.T) {
	assert.True(t, Conforms(Type{Name: Int}, Type{Name: Any}))
	assert.True(t, Conforms(Type{Name: Any}, Type{Name: Str}))
}

func TestConformsNullableAcceptsNullNonNullableDoesNot(t *testing.T) {
	assert.True(t, Conforms(Type{Name: Null}, Type{Name: Str, Nullable: true}))
	assert.False(t, Conforms(Type{Name: Null}, Type{Name: Str}))
}

func TestConformsRejectsMismatchedPrimitives(t *testing.T) {
	assert.False(t, Conforms(Type{Name: Int}, Type{Name: Str}))
}

func TestCheckFlagsReturnTypeMismatch(t *testing.T) {
	src := "global f() -> int {\n  return \"x\"\n}\n"
	cp, prog := build(t, src)
	diags := Check(cp, prog)
	require.NotEmpty(t, diags)
}

func TestCheckPassesMatchingReturnType(t *testing.T) {
	src := "global f() -> int {\n  return 1\n}\n"
	cp, prog := build(t, src)
	diags := Check(cp, prog)
	assert.Empty(t, diags)
}

func TestCheckPromotesIntFloatArithmeticToFloat(t *testing.T) {
	src := "global f(x) -> float {\n  return x + 1.5\n}\n"
	cp, prog := build(t, src)
	diags := Check(cp, prog)
	assert.Empty(t, diags)
}

func TestCheckFlagsDeprecatedConstructorUse(t *testing.T) {
	src := "class Widget {\n  constructor() {\n  }\n}\n\nglobal make() -> any {\n  return Widget\n}\n"
	cp, prog := build(t, src)
	diags := Check(cp, prog)
	assert.Empty(t, diags, "non-deprecated class should not warn")
}
