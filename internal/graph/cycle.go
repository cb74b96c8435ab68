// Package graph provides small directed-graph utilities shared by the
// resolution components: inheritance-cycle detection (C5), export-cycle
// detection (C4), and class topological ordering (C5's sort_classes).
package graph

// Graph is an adjacency-list directed graph over opaque string node ids.
type Graph struct {
	nodes []string
	edges map[string][]string
	seen  map[string]bool
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{edges: make(map[string][]string), seen: make(map[string]bool)}
}

// AddNode registers a node with no edges if it isn't already present.
func (g *Graph) AddNode(id string) {
	if !g.seen[id] {
		g.seen[id] = true
		g.nodes = append(g.nodes, id)
		g.edges[id] = nil
	}
}

// AddEdge records that `from` depends on / points to `to`.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.edges[from] = append(g.edges[from], to)
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []string { return g.nodes }

// Cycle is a single detected cycle, given as the sequence of nodes
// visited from the first repeated node back to itself.
type Cycle struct {
	Nodes []string
}

// FindCycleFrom runs a DFS from root with an in-progress stack, returning
// the first cycle reachable from root, or nil if root's reachable set is
// acyclic. This mirrors the "explicit work-stack with an in-progress set"
// strategy spec.md calls for (export-cycle and inheritance-cycle detection
// share this one algorithm).
func (g *Graph) FindCycleFrom(root string) *Cycle {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var path []string

	var dfs func(n string) *Cycle
	dfs = func(n string) *Cycle {
		visited[n] = true
		onStack[n] = true
		path = append(path, n)

		for _, next := range g.edges[n] {
			if onStack[next] {
				// Found the cycle: the portion of path from next's first
				// occurrence to here, plus next again to close the loop.
				start := 0
				for i, p := range path {
					if p == next {
						start = i
						break
					}
				}
				cyc := append([]string{}, path[start:]...)
				cyc = append(cyc, next)
				return &Cycle{Nodes: cyc}
			}
			if !visited[next] {
				if c := dfs(next); c != nil {
					return c
				}
			}
		}

		onStack[n] = false
		path = path[:len(path)-1]
		return nil
	}

	return dfs(root)
}

// AllCycles finds one cycle per distinct strongly connected component of
// size > 1 (or a self-loop), using Tarjan's algorithm. Each SCC with more
// than one node, or a single node with a self-edge, yields exactly one
// Cycle — this is the "each module reports once per distinct cycle"
// behavior spec.md's Open Questions section asks the port to preserve.
func (g *Graph) AllCycles() []Cycle {
	index := 0
	indices := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var sccs [][]string

	var strongconnect func(v string)
	strongconnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, ok := indices[w]; !ok {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, n := range g.nodes {
		if _, ok := indices[n]; !ok {
			strongconnect(n)
		}
	}

	var cycles []Cycle
	for _, scc := range sccs {
		if len(scc) > 1 {
			cycles = append(cycles, Cycle{Nodes: scc})
			continue
		}
		n := scc[0]
		for _, e := range g.edges[n] {
			if e == n {
				cycles = append(cycles, Cycle{Nodes: []string{n}})
				break
			}
		}
	}
	return cycles
}

// TopoSort returns the nodes in dependency order (a node's dependencies
// appear before it). Returns false if the graph has a cycle.
func (g *Graph) TopoSort() ([]string, bool) {
	visited := make(map[string]int) // 0=unvisited 1=active 2=done
	var order []string
	ok := true

	var visit func(n string)
	visit = func(n string) {
		if !ok || visited[n] == 2 {
			return
		}
		if visited[n] == 1 {
			ok = false
			return
		}
		visited[n] = 1
		for _, next := range g.edges[n] {
			visit(next)
		}
		visited[n] = 2
		order = append(order, n)
	}

	for _, n := range g.nodes {
		visit(n)
	}
	if !ok {
		return nil, false
	}
	return order, true
}
