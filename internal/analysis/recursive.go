package analysis

import "github.com/stratlang/stratum/internal/ast"

// RecursiveClauses identifies clauses that participate in a dependency
// cycle through their own head relation.
type RecursiveClauses struct {
	prec *PrecedenceGraph
}

// NewRecursiveClauses wraps the precedence graph.
func NewRecursiveClauses(prec *PrecedenceGraph) *RecursiveClauses {
	return &RecursiveClauses{prec: prec}
}

// IsRecursive reports whether some body atom of the clause depends back on
// the head relation.
func (r *RecursiveClauses) IsRecursive(c *ast.Clause) bool {
	head := c.Head.Name
	recursive := false
	ast.Visit(c, func(atom *ast.Atom) {
		if atom == c.Head || recursive {
			return
		}
		if atom.Name.Equal(head) || r.prec.Reaches(atom.Name, head) {
			recursive = true
		}
	})
	return recursive
}
