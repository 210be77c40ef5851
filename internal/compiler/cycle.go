package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shekhirin/pyrometer/internal/elem"
	"github.com/shekhirin/pyrometer/internal/graph"
)

// Cycle is a set of variables whose bounds depend on each other.
type Cycle struct {
	Path    []string `json:"path"`    // ["x", "y", "x"]
	Message string   `json:"message"` // human-readable description
}

// AnalyzeCycles finds cycles between variable bounds.
//
// Resolving a bound evaluates the bounds it refers to, so a cycle would never
// terminate. Edges go from a variable to every variable its range mentions;
// each strongly connected component with more than one node, or with a
// self-loop, is reported. Results are ordered by the smallest id in the cycle.
func AnalyzeCycles(g *graph.Memory) []Cycle {
	edges := g.Edges()
	if len(edges) == 0 {
		return nil
	}

	var cycles []Cycle
	for _, scc := range tarjanSCC(edges) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], edges)) {
			cycles = append(cycles, sccToCycle(scc, edges, g))
		}
	}
	return cycles
}

func hasSelfLoop(node elem.VarID, edges map[elem.VarID][]elem.VarID) bool {
	return slices.Contains(edges[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in id order so the output is deterministic.
func tarjanSCC(edges map[elem.VarID][]elem.VarID) [][]elem.VarID {
	var (
		index   = 0
		stack   []elem.VarID
		indices = make(map[elem.VarID]int)
		lowlink = make(map[elem.VarID]int)
		onStack = make(map[elem.VarID]bool)
		sccs    [][]elem.VarID
	)

	var strongConnect func(elem.VarID)
	strongConnect = func(v elem.VarID) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []elem.VarID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]elem.VarID, 0, len(edges))
	for node := range edges {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	slices.SortFunc(sccs, func(a, b []elem.VarID) int { return int(a[0]) - int(b[0]) })
	return sccs
}

func sccToCycle(scc []elem.VarID, edges map[elem.VarID][]elem.VarID, g *graph.Memory) Cycle {
	ids := reconstructCyclePath(scc, edges)
	path := make([]string, len(ids))
	for i, id := range ids {
		path[i] = g.Name(id)
	}

	if len(scc) == 1 {
		return Cycle{
			Path:    path,
			Message: fmt.Sprintf("range of %s refers to itself", path[0]),
		}
	}
	return Cycle{
		Path:    path,
		Message: fmt.Sprintf("bound cycle: %s", strings.Join(path, " -> ")),
	}
}

// reconstructCyclePath walks edges inside the SCC from its smallest member
// until it returns to the start.
func reconstructCyclePath(scc []elem.VarID, edges map[elem.VarID][]elem.VarID) []elem.VarID {
	members := make(map[elem.VarID]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []elem.VarID{current}
	visited := make(map[elem.VarID]bool)

	for {
		visited[current] = true

		next, found := elem.VarID(0), false
		for _, neighbor := range edges[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next, found = neighbor, true
				break
			}
		}
		if !found {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
