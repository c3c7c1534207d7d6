package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/catalogsync/internal/resource"
)

// CycleWarning reports drafts of one file that reference each other in a
// loop. None of them can be created before the others, so the run parks
// them all and fails them in its final pass.
type CycleWarning struct {
	Path    []string `json:"path"` // e.g. ["a", "b", "a"]
	Message string   `json:"message"`
	Level   string   `json:"level"`
}

// AnalyzeCycles finds reference cycles among the drafts of a document:
// category parents and product attribute references. Other kinds never
// reference their own kind and yield no warnings.
//
// The algorithm:
//  1. Build a key -> referenced key graph restricted to keys in the file
//  2. Find strongly connected components with Tarjan's algorithm
//  3. Report each component of size > 1, and each self-loop
func AnalyzeCycles[D any](doc Document[D]) []CycleWarning {
	graph := make(referenceGraph)
	switch drafts := any(doc.Drafts).(type) {
	case []resource.CategoryDraft:
		for _, d := range drafts {
			graph.node(d.Key)
			if d.Parent != nil && d.Parent.ID == "" {
				graph.edge(d.Key, d.Parent.Key)
			}
		}
	case []resource.ProductDraft:
		for _, d := range drafts {
			graph.node(d.Key)
			for _, a := range d.Attributes {
				if a.Reference != nil && a.Reference.ID == "" {
					graph.edge(d.Key, a.Reference.Key)
				}
			}
		}
	default:
		return nil
	}
	graph.prune()

	var warnings []CycleWarning
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && graph.hasSelfLoop(scc[0])) {
			warnings = append(warnings, sccToWarning(scc, graph))
		}
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int { return strings.Compare(a.Path[0], b.Path[0]) })
	return warnings
}

// referenceGraph maps a draft key to the keys it references.
type referenceGraph map[string][]string

func (g referenceGraph) node(key string) {
	if key == "" {
		return
	}
	if _, ok := g[key]; !ok {
		g[key] = []string{}
	}
}

func (g referenceGraph) edge(from, to string) {
	if from == "" || to == "" {
		return
	}
	g.node(from)
	g[from] = append(g[from], to)
}

// prune drops edges to keys outside the file; those resolve against the
// backend or fail, they cannot loop.
func (g referenceGraph) prune() {
	for k, targets := range g {
		g[k] = slices.DeleteFunc(targets, func(t string) bool {
			_, ok := g[t]
			return !ok
		})
	}
}

func (g referenceGraph) hasSelfLoop(node string) bool {
	return slices.Contains(g[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so results are deterministic.
func tarjanSCC(graph referenceGraph) [][]string {
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

func sccToWarning(scc []string, graph referenceGraph) CycleWarning {
	if len(scc) == 1 {
		key := scc[0]
		return CycleWarning{
			Path:    []string{key, key},
			Message: fmt.Sprintf("draft references itself: %s -> %s", key, key),
			Level:   "warning",
		}
	}
	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("reference cycle: %s", strings.Join(path, " -> ")),
		Level:   "warning",
	}
}

// reconstructCyclePath walks the component from its smallest key until it
// returns to the start.
func reconstructCyclePath(scc []string, graph referenceGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := slices.Min(scc)
	current := start
	path := []string{current}
	visited := map[string]bool{}
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
