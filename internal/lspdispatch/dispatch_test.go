package lspdispatch

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

func build(t *testing.T, src string, selLine, selCol int) (*classir.Program, *methodres.Program) {
	t.Helper()
	proj, lib := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(lib, "core.toit"), "")
	entry := filepath.Join(proj, "main.toit")
	writeFile(t, entry, src)

	lock := srcmgr.NewDefaultLock(proj, lib)
	sources := srcmgr.NewSourceManager(lock)
	set := loader.New(sources, lib, entry, selLine, selCol).LoadAll(entry)
	rp, rdiags := resolve.BuildModules(set)
	require.Empty(t, rdiags)
	cp, cdiags := classir.Build(rp)
	require.Empty(t, cdiags)
	prog, mdiags := methodres.Build(cp, rp)
	require.Empty(t, mdiags)
	return cp, prog
}

func TestFindSelectionLocatesTaggedDotAndClassifiesAsCallVirtual(t *testing.T) {
	src := "class Widget {\n  area() -> int {\n    return 0\n  }\n}\n\nglobal f(w) -> int {\n  return w.area()\n}\n"
	// line/col of "area" in "w.area()" on the return line (0-based).
	_, prog := build(t, src, 7, 11)

	sel, ok := FindSelection(prog)
	require.True(t, ok)
	assert.Equal(t, KindCallVirtual, sel.Kind)
	assert.Equal(t, "area", sel.Name)
}

func TestDispatchCompletionRequestsEarlyExit(t *testing.T) {
	src := "class Widget {\n  area() -> int {\n    return 0\n  }\n}\n\nglobal f(w) -> int {\n  return w.area()\n}\n"
	cp, prog := build(t, src, 7, 11)

	sel, ok := FindSelection(prog)
	require.True(t, ok)

	d := NewDispatcher()
	candidates, earlyExit := d.Dispatch(sel, cp, ModeCompletion)
	assert.True(t, earlyExit)
	var names []string
	for _, c := range candidates {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "area")
}

func TestDispatchGotoDefinitionDoesNotRequestEarlyExit(t *testing.T) {
	src := "class Widget {\n  area() -> int {\n    return 0\n  }\n}\n\nglobal f(w) -> int {\n  return w.area()\n}\n"
	cp, prog := build(t, src, 7, 11)

	sel, ok := FindSelection(prog)
	require.True(t, ok)

	d := NewDispatcher()
	_, earlyExit := d.Dispatch(sel, cp, ModeGotoDefinition)
	assert.False(t, earlyExit)
}

func TestMatchesPrefixEmptyMatchesEverything(t *testing.T) {
	assert.True(t, matchesPrefix("area", ""))
	assert.True(t, matchesPrefix("area", "ar"))
	assert.False(t, matchesPrefix("area", "zz"))
}
