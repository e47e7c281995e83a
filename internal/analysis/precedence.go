package analysis

import (
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/stratlang/stratum/internal/ast"
)

// reachesCacheSize bounds the memoized transitive-reachability queries.
// Stratification and inlining checks issue O(relations^2) queries on dense
// programs; the cache keeps repeated DFS walks off the hot path.
const reachesCacheSize = 4096

type reachKey struct {
	from, to string
}

// PrecedenceGraph is the directed dependency graph over relations: an edge
// A -> B means a clause with head A references B somewhere in its body
// (negations and aggregator bodies included).
type PrecedenceGraph struct {
	successors map[string][]string
	dependents map[string][]string
	names      map[string]ast.QualifiedName
	order      []string

	reaches *lru.Cache[reachKey, bool]
}

// NewPrecedenceGraph builds the graph from the program's clauses.
func NewPrecedenceGraph(p *ast.Program) *PrecedenceGraph {
	g := &PrecedenceGraph{
		successors: make(map[string][]string),
		dependents: make(map[string][]string),
		names:      make(map[string]ast.QualifiedName),
	}
	g.reaches, _ = lru.New[reachKey, bool](reachesCacheSize)

	addNode := func(name ast.QualifiedName) string {
		key := name.String()
		if _, ok := g.names[key]; !ok {
			g.names[key] = name
			g.order = append(g.order, key)
		}
		return key
	}

	for _, rel := range p.Relations() {
		addNode(rel.Name)
	}

	edges := make(map[string]map[string]bool)
	for _, c := range p.Clauses() {
		head := addNode(c.Head.Name)
		ast.Visit(c, func(atom *ast.Atom) {
			if atom == c.Head {
				return
			}
			dep := addNode(atom.Name)
			if edges[head] == nil {
				edges[head] = make(map[string]bool)
			}
			edges[head][dep] = true
		})
	}

	// Deterministic adjacency order.
	for head, deps := range edges {
		sorted := make([]string, 0, len(deps))
		for dep := range deps {
			sorted = append(sorted, dep)
		}
		sort.Strings(sorted)
		g.successors[head] = sorted
		for _, dep := range sorted {
			g.dependents[dep] = append(g.dependents[dep], head)
		}
	}
	for _, heads := range g.dependents {
		sort.Strings(heads)
	}
	return g
}

// Nodes returns every relation name in the graph in first-seen order.
func (g *PrecedenceGraph) Nodes() []ast.QualifiedName {
	out := make([]ast.QualifiedName, len(g.order))
	for i, key := range g.order {
		out[i] = g.names[key]
	}
	return out
}

// Successors returns the relations that name's clauses depend on.
func (g *PrecedenceGraph) Successors(name ast.QualifiedName) []ast.QualifiedName {
	return g.resolve(g.successors[name.String()])
}

// Dependents returns the relations whose clauses depend on name.
func (g *PrecedenceGraph) Dependents(name ast.QualifiedName) []ast.QualifiedName {
	return g.resolve(g.dependents[name.String()])
}

func (g *PrecedenceGraph) resolve(keys []string) []ast.QualifiedName {
	out := make([]ast.QualifiedName, len(keys))
	for i, key := range keys {
		out[i] = g.names[key]
	}
	return out
}

// Reaches reports whether to is reachable from from over one or more
// dependency edges.
func (g *PrecedenceGraph) Reaches(from, to ast.QualifiedName) bool {
	key := reachKey{from.String(), to.String()}
	if hit, ok := g.reaches.Get(key); ok {
		return hit
	}

	target := key.to
	visited := make(map[string]bool)
	stack := append([]string(nil), g.successors[key.from]...)
	found := false
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == target {
			found = true
			break
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		stack = append(stack, g.successors[cur]...)
	}

	g.reaches.Add(key, found)
	return found
}

// Clique returns the set of relations mutually reachable with name. name
// itself is always included, whether or not it lies on a cycle.
func (g *PrecedenceGraph) Clique(name ast.QualifiedName) []ast.QualifiedName {
	var out []ast.QualifiedName
	for _, key := range g.order {
		other := g.names[key]
		if other.Equal(name) {
			out = append(out, other)
			continue
		}
		if g.Reaches(name, other) && g.Reaches(other, name) {
			out = append(out, other)
		}
	}
	return out
}
