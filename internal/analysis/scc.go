package analysis

import "github.com/stratlang/stratum/internal/ast"

// SCCGraph condenses the precedence graph into strongly connected
// components. Strata are numbered in topological order: every dependency
// of a stratum lies in a lower-numbered stratum.
type SCCGraph struct {
	strata  [][]ast.QualifiedName
	indexOf map[string]int
}

// NewSCCGraph runs Tarjan's algorithm over the precedence graph. Because a
// component is emitted only after everything reachable from it, and edges
// point at dependencies, the emission order is already the stratum order.
func NewSCCGraph(g *PrecedenceGraph) *SCCGraph {
	scc := &SCCGraph{indexOf: make(map[string]int)}

	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.successors[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var component []ast.QualifiedName
			stratum := len(scc.strata)
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				component = append(component, g.names[w])
				scc.indexOf[w] = stratum
				if w == v {
					break
				}
			}
			scc.strata = append(scc.strata, component)
		}
	}

	for _, node := range g.order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return scc
}

// NumSCCs returns the number of strata.
func (s *SCCGraph) NumSCCs() int { return len(s.strata) }

// SCCOf returns the stratum index of a relation, or -1 if unknown.
func (s *SCCGraph) SCCOf(name ast.QualifiedName) int {
	if idx, ok := s.indexOf[name.String()]; ok {
		return idx
	}
	return -1
}

// RelationsIn returns the relations of the given stratum.
func (s *SCCGraph) RelationsIn(stratum int) []ast.QualifiedName {
	return s.strata[stratum]
}

// SameSCC reports whether two relations share a stratum.
func (s *SCCGraph) SameSCC(a, b ast.QualifiedName) bool {
	sa, sb := s.SCCOf(a), s.SCCOf(b)
	return sa >= 0 && sa == sb
}
