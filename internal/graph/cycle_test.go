package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindCycleFromDetectsSimpleCycle(t *testing.T) {
	g := New()
	g.AddEdge("A", "B")
	g.AddEdge("B", "A")

	c := g.FindCycleFrom("A")
	require.NotNil(t, c)
	assert.Equal(t, []string{"A", "B", "A"}, c.Nodes)
}

func TestFindCycleFromAcyclicReturnsNil(t *testing.T) {
	g := New()
	g.AddEdge("A", "B")
	g.AddEdge("B", "C")

	assert.Nil(t, g.FindCycleFrom("A"))
}

func TestAllCyclesOneReportPerComponent(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")
	g.AddEdge("c", "d")

	cycles := g.AllCycles()
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []string{"a", "b"}, cycles[0].Nodes)
}

func TestTopoSortOrdersDependenciesFirst(t *testing.T) {
	g := New()
	g.AddEdge("Child", "Object")
	g.AddEdge("GrandChild", "Child")

	order, ok := g.TopoSort()
	require.True(t, ok)

	pos := map[string]int{}
	for i, n := range order {
		pos[n] = i
	}
	assert.Less(t, pos["Object"], pos["Child"])
	assert.Less(t, pos["Child"], pos["GrandChild"])
}

func TestTopoSortDetectsCycle(t *testing.T) {
	g := New()
	g.AddEdge("A", "B")
	g.AddEdge("B", "A")

	_, ok := g.TopoSort()
	assert.False(t, ok)
}
