package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImportAndClass(t *testing.T) {
	src := `
import core
import data.tree as dt show Node, Leaf

abstract class A {
  abstract foo() -> int
}

class B extends A {
  foo() -> int {
    return 0
  }
}
`
	unit, errs := ParseSource("test.eml", src, -1, -1)
	require.Empty(t, errs)
	require.Len(t, unit.Imports, 2)
	assert.Equal(t, []string{"core"}, unit.Imports[0].Segments)
	assert.Equal(t, []string{"data", "tree"}, unit.Imports[1].Segments)
	assert.Equal(t, "dt", unit.Imports[1].Prefix)
	assert.Equal(t, []string{"Node", "Leaf"}, unit.Imports[1].ShowIdentifiers)

	require.Len(t, unit.Declarations, 2)
	a := unit.Declarations[0].(*ClassDecl)
	assert.True(t, a.IsAbstract)
	require.Len(t, a.Methods, 1)
	assert.True(t, a.Methods[0].IsAbstract)

	b := unit.Declarations[1].(*ClassDecl)
	assert.Equal(t, "A", b.Super)
	require.Len(t, b.Methods, 1)
	require.NotNil(t, b.Methods[0].Body)
}

func TestParseConstructorWithFieldStoringParams(t *testing.T) {
	src := `
class Dog extends Animal {
  name/string
  legs/int := 4

  constructor(this.name, legs/int) {
    super()
  }
}
`
	unit, errs := ParseSource("test.eml", src, -1, -1)
	require.Empty(t, errs)
	dog := unit.Declarations[0].(*ClassDecl)
	require.Len(t, dog.Fields, 2)
	require.Len(t, dog.Methods, 1)
	ctor := dog.Methods[0]
	assert.Equal(t, MethodKindConstructor, ctor.Kind)
	require.Len(t, ctor.Params, 2)
	assert.True(t, ctor.Params[0].FieldStoring)
	assert.False(t, ctor.Params[1].FieldStoring)
	require.Len(t, ctor.Body.Body, 1)
	call, ok := ctor.Body.Body[0].(*Call)
	require.True(t, ok)
	_, isSuper := call.Target.(*Super)
	assert.True(t, isSuper)
}

func TestDefiniteAssignmentSampleParses(t *testing.T) {
	src := `
global f(cond) -> int {
  if cond {
    x := 1
  }
  return x
}
`
	unit, errs := ParseSource("test.eml", src, -1, -1)
	require.Empty(t, errs)
	require.Len(t, unit.Declarations, 1)
	g := unit.Declarations[0].(*MethodDecl)
	assert.Equal(t, MethodKindGlobal, g.Kind)
	require.Len(t, g.Body.Body, 2)
}

func TestStringInterpolationParts(t *testing.T) {
	parts := ScanInterpParts("hello $name, you are ${age + 1} next year")
	require.Len(t, parts, 4)
	assert.Equal(t, "hello ", parts[0].Literal)
	assert.Equal(t, "name", parts[1].Expr)
	assert.Equal(t, ", you are ", parts[2].Literal)
	assert.Equal(t, "age + 1", parts[3].Expr)
}

func TestLSPSelectionDotIsTagged(t *testing.T) {
	src := `global f() -> int {
  return this.bar()
}`
	// "bar" begins at line 1 (0-based), column 14: "  return this.bar()".
	unit, errs := ParseSource("test.eml", src, 1, 14)
	require.Empty(t, errs)
	g := unit.Declarations[0].(*MethodDecl)
	ret := g.Body.Body[0].(*Return)
	call := ret.Value.(*Call)
	dot, ok := call.Target.(*Dot)
	require.True(t, ok)
	assert.True(t, dot.IsLSPSelection)
}
