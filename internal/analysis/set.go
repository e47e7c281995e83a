// Package analysis provides the read-only program analyses shared by the
// semantic checker and the transform passes: I/O classification, the
// precedence and SCC graphs, per-clause groundedness, the type environment
// and lattice, and recursive-clause detection.
//
// Analyses are immutable snapshots built lazily from one program. Any pass
// that mutates the program must call Invalidate before issuing further
// queries.
package analysis

import "github.com/stratlang/stratum/internal/ast"

// Set caches the analyses of a single program.
type Set struct {
	prog *ast.Program

	io        *IOType
	prec      *PrecedenceGraph
	scc       *SCCGraph
	env       *TypeEnvironment
	types     *TypeAnalysis
	recursive *RecursiveClauses
}

// NewSet wraps a program.
func NewSet(p *ast.Program) *Set {
	return &Set{prog: p}
}

// Program returns the analyzed program.
func (s *Set) Program() *ast.Program { return s.prog }

// Invalidate drops every cached analysis. The next query re-derives it
// from the current program state.
func (s *Set) Invalidate() {
	s.io = nil
	s.prec = nil
	s.scc = nil
	s.env = nil
	s.types = nil
	s.recursive = nil
}

// IO returns the I/O classification.
func (s *Set) IO() *IOType {
	if s.io == nil {
		s.io = NewIOType(s.prog)
	}
	return s.io
}

// Precedence returns the precedence graph.
func (s *Set) Precedence() *PrecedenceGraph {
	if s.prec == nil {
		s.prec = NewPrecedenceGraph(s.prog)
	}
	return s.prec
}

// SCC returns the condensed stratum graph.
func (s *Set) SCC() *SCCGraph {
	if s.scc == nil {
		s.scc = NewSCCGraph(s.Precedence())
	}
	return s.scc
}

// TypeEnv returns the type environment.
func (s *Set) TypeEnv() *TypeEnvironment {
	if s.env == nil {
		s.env = NewTypeEnvironment(s.prog)
	}
	return s.env
}

// Types returns the per-argument type analysis.
func (s *Set) Types() *TypeAnalysis {
	if s.types == nil {
		s.types = NewTypeAnalysis(s.prog, s.TypeEnv())
	}
	return s.types
}

// Recursive returns the recursive-clause analysis.
func (s *Set) Recursive() *RecursiveClauses {
	if s.recursive == nil {
		s.recursive = NewRecursiveClauses(s.Precedence())
	}
	return s.recursive
}
