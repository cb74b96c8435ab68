package classir

import (
	"os"
	"path/filepath"
	"testing"

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

func TestBuildDefaultsSuperToObject(t *testing.T) {
	proj, lib := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(lib, "core.toit"), "")
	writeFile(t, filepath.Join(proj, "main.toit"), "class A {\n}\n")

	lock := srcmgr.NewDefaultLock(proj, lib)
	sources := srcmgr.NewSourceManager(lock)
	set := loader.New(sources, lib, "", -1, -1).LoadAll(filepath.Join(proj, "main.toit"))
	rp, rdiags := resolve.BuildModules(set)
	require.Empty(t, rdiags)
	cp, cdiags := Build(rp)
	require.Empty(t, cdiags)

	var a *Class
	for _, c := range cp.Classes {
		if c.Name == "A" {
			a = c
		}
	}
	require.NotNil(t, a)
	assert.Same(t, cp.Object, a.Super)
}

func TestBuildDetectsInheritanceCycleAndSnapsToDefault(t *testing.T) {
	proj, lib := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(lib, "core.toit"), "")
	writeFile(t, filepath.Join(proj, "main.toit"), "class A extends B {\n}\n\nclass B extends A {\n}\n")

	lock := srcmgr.NewDefaultLock(proj, lib)
	sources := srcmgr.NewSourceManager(lock)
	set := loader.New(sources, lib, "", -1, -1).LoadAll(filepath.Join(proj, "main.toit"))
	rp, rdiags := resolve.BuildModules(set)
	require.Empty(t, rdiags)
	cp, cdiags := Build(rp)
	require.NotEmpty(t, cdiags)

	for _, c := range cp.Classes {
		assert.Same(t, cp.Object, c.Super)
		assert.Empty(t, c.Interfaces)
	}
}

func TestBuildAssignsDenseFieldIndices(t *testing.T) {
	proj, lib := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(lib, "core.toit"), "")
	src := "class Animal {\n  legs/int := 4\n}\n\nclass Dog extends Animal {\n  name/string\n}\n"
	writeFile(t, filepath.Join(proj, "main.toit"), src)

	lock := srcmgr.NewDefaultLock(proj, lib)
	sources := srcmgr.NewSourceManager(lock)
	set := loader.New(sources, lib, "", -1, -1).LoadAll(filepath.Join(proj, "main.toit"))
	rp, rdiags := resolve.BuildModules(set)
	require.Empty(t, rdiags)
	cp, cdiags := Build(rp)
	require.Empty(t, cdiags)

	var animal, dog *Class
	for _, c := range cp.Classes {
		switch c.Name {
		case "Animal":
			animal = c
		case "Dog":
			dog = c
		}
	}
	require.NotNil(t, animal)
	require.NotNil(t, dog)
	require.Len(t, animal.Fields, 1)
	assert.Equal(t, 0, animal.Fields[0].Index)
	require.Len(t, dog.Fields, 1)
	assert.Equal(t, 1, dog.Fields[0].Index)
	assert.Equal(t, 2, dog.TotalFieldCount())
}

func TestBuildSynthesizesDefaultConstructor(t *testing.T) {
	proj, lib := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(lib, "core.toit"), "")
	writeFile(t, filepath.Join(proj, "main.toit"), "class A {\n}\n")

	lock := srcmgr.NewDefaultLock(proj, lib)
	sources := srcmgr.NewSourceManager(lock)
	set := loader.New(sources, lib, "", -1, -1).LoadAll(filepath.Join(proj, "main.toit"))
	rp, _ := resolve.BuildModules(set)
	cp, _ := Build(rp)

	var a *Class
	for _, c := range cp.Classes {
		if c.Name == "A" {
			a = c
		}
	}
	require.NotNil(t, a)
	found := false
	for _, m := range a.Methods {
		if m.Variant == MethodConstructor {
			found = true
			assert.True(t, m.Synthesized)
		}
	}
	assert.True(t, found)
}

func TestIsSortedByInheritanceHoldsAfterBuild(t *testing.T) {
	proj, lib := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(lib, "core.toit"), "")
	src := "class Animal {\n}\n\nclass Dog extends Animal {\n}\n"
	writeFile(t, filepath.Join(proj, "main.toit"), src)

	lock := srcmgr.NewDefaultLock(proj, lib)
	sources := srcmgr.NewSourceManager(lock)
	set := loader.New(sources, lib, "", -1, -1).LoadAll(filepath.Join(proj, "main.toit"))
	rp, _ := resolve.BuildModules(set)
	cp, _ := Build(rp)

	assert.True(t, IsSortedByInheritance(cp.Classes))
}
