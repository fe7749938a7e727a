package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/luozhenyu/pgfulltext/internal/schema"
)

// InheritanceCycle is a set of tables that inherit from each other.
// PostgreSQL rejects such definitions at execution time.
type InheritanceCycle struct {
	Path    []string `json:"path"`    // Cycle path: ["a", "b", "a"]
	Message string   `json:"message"` // Human-readable description
}

// AnalyzeInheritance finds inheritance cycles among bps.
//
// The algorithm:
//  1. Build a table → parent tables graph from inherits clauses
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or self-loops as a cycle
//
// Parents not defined in bps are leaf nodes. Results are sorted by their
// first table so output is deterministic.
func AnalyzeInheritance(bps []*schema.Blueprint) []InheritanceCycle {
	if len(bps) == 0 {
		return []InheritanceCycle{}
	}

	graph := buildInheritanceGraph(bps)
	sccs := tarjanSCC(graph)

	cycles := []InheritanceCycle{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			cycles = append(cycles, sccToCycle(scc, graph))
		}
	}

	slices.SortFunc(cycles, func(a, b InheritanceCycle) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return cycles
}

// inheritanceGraph maps table → parent tables.
type inheritanceGraph map[string][]string

func buildInheritanceGraph(bps []*schema.Blueprint) inheritanceGraph {
	graph := make(inheritanceGraph)
	for _, bp := range bps {
		if graph[bp.Table] == nil {
			graph[bp.Table] = []string{}
		}
		graph[bp.Table] = append(graph[bp.Table], bp.InheritedTables()...)
	}
	return graph
}

func hasSelfLoop(node string, graph inheritanceGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order.
func tarjanSCC(graph inheritanceGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func sccToCycle(scc []string, graph inheritanceGraph) InheritanceCycle {
	if len(scc) == 1 {
		table := scc[0]
		return InheritanceCycle{
			Path:    []string{table, table},
			Message: fmt.Sprintf("table inherits from itself: %s → %s", table, table),
		}
	}

	path := reconstructCyclePath(scc, graph)
	return InheritanceCycle{
		Path:    path,
		Message: fmt.Sprintf("inheritance cycle detected: %s", strings.Join(path, " → ")),
	}
}

// reconstructCyclePath walks parent edges inside the SCC, starting from its
// smallest member, until it returns to the start.
func reconstructCyclePath(scc []string, graph inheritanceGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := slices.Min(scc)
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
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

// SortByInheritance returns bps ordered so that every table defined in bps
// comes after the tables it inherits from. Unrelated tables keep their
// declaration order. Parents not defined in bps impose no ordering, and
// members of a cycle are emitted in the order they are first reached.
func SortByInheritance(bps []*schema.Blueprint) []*schema.Blueprint {
	byTable := make(map[string][]int, len(bps))
	for i, bp := range bps {
		byTable[bp.Table] = append(byTable[bp.Table], i)
	}

	out := make([]*schema.Blueprint, 0, len(bps))
	seen := make([]bool, len(bps))

	var visit func(int)
	visit = func(i int) {
		if seen[i] {
			return
		}
		seen[i] = true
		for _, parent := range bps[i].InheritedTables() {
			for _, j := range byTable[parent] {
				visit(j)
			}
		}
		out = append(out, bps[i])
	}

	for i := range bps {
		visit(i)
	}
	return out
}
