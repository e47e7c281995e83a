package analysis

import "github.com/stratlang/stratum/internal/ast"

// TypeAnalysis assigns every argument node a lattice element by meeting the
// constraints visible in its clause: declared attribute types at atom
// positions, record field types, equalities, and the result kinds of
// functors, casts and aggregators.
type TypeAnalysis struct {
	lattice *TypeLattice
	types   map[ast.Argument]AnalysisType
}

// NewTypeAnalysis infers argument types for every clause of the program.
func NewTypeAnalysis(p *ast.Program, env *TypeEnvironment) *TypeAnalysis {
	ta := &TypeAnalysis{
		lattice: NewTypeLattice(env),
		types:   make(map[ast.Argument]AnalysisType),
	}
	for _, c := range p.Clauses() {
		ta.analyzeClause(p, c)
	}
	return ta
}

// Lattice exposes the lattice used by the analysis.
func (ta *TypeAnalysis) Lattice() *TypeLattice { return ta.lattice }

// TypeOf returns the inferred element for an argument node of an analyzed
// clause, or Top for unknown nodes.
func (ta *TypeAnalysis) TypeOf(arg ast.Argument) AnalysisType {
	if t, ok := ta.types[arg]; ok {
		return t
	}
	return Top()
}

type clauseScope struct {
	prog    *ast.Program
	lattice *TypeLattice
	vars    map[string]AnalysisType
}

func (ta *TypeAnalysis) analyzeClause(p *ast.Program, c *ast.Clause) {
	scope := &clauseScope{prog: p, lattice: ta.lattice, vars: make(map[string]AnalysisType)}

	// Meet in the constraints until the variable assignment stabilizes.
	// The lattice is finite and meets only descend, so this terminates.
	for changed := true; changed; {
		changed = false

		ast.Visit(c, func(atom *ast.Atom) {
			rel := p.Relation(atom.Name)
			if rel == nil || rel.Arity() != atom.Arity() {
				return
			}
			for i, arg := range atom.Args {
				declared := ta.lattice.TypeOfName(rel.Attributes[i].Type)
				if scope.constrain(arg, declared) {
					changed = true
				}
			}
		})

		ast.Visit(c, func(rec *ast.RecordInit) {
			recType, ok := p.Type(rec.Type).(*ast.RecordType)
			if !ok || len(recType.Fields) != len(rec.Args) {
				return
			}
			for i, arg := range rec.Args {
				declared := ta.lattice.TypeOfName(recType.Fields[i].Type)
				if scope.constrain(arg, declared) {
					changed = true
				}
			}
		})

		ast.Visit(c, func(bc *ast.BinaryConstraint) {
			if !bc.Op.IsEquality() {
				return
			}
			if scope.constrain(bc.LHS, scope.typeOf(bc.RHS)) {
				changed = true
			}
			if scope.constrain(bc.RHS, scope.typeOf(bc.LHS)) {
				changed = true
			}
		})
	}

	ast.Visit(c, func(arg ast.Argument) {
		ta.types[arg] = scope.typeOf(arg)
	})
}

// constrain meets a lattice element into a variable binding. Non-variable
// terms carry structural types and are not refined. Reports whether the
// binding changed.
func (s *clauseScope) constrain(arg ast.Argument, t AnalysisType) bool {
	v, ok := arg.(*ast.Variable)
	if !ok {
		return false
	}
	cur, seen := s.vars[v.Name]
	if !seen {
		cur = Top()
	}
	next := s.lattice.Meet(cur, t)
	if seen && next.Equal(cur) {
		return false
	}
	s.vars[v.Name] = next
	return true
}

func (s *clauseScope) typeOf(arg ast.Argument) AnalysisType {
	switch a := arg.(type) {
	case *ast.Variable:
		if t, ok := s.vars[a.Name]; ok {
			return t
		}
		return Top()
	case *ast.UnnamedVariable:
		return Top()
	case *ast.NumberConstant, *ast.Counter:
		return Prim(ast.KindNumber)
	case *ast.StringConstant:
		return Prim(ast.KindSymbol)
	case *ast.IntrinsicFunctor:
		return Prim(a.Op.Signature().Result)
	case *ast.UserDefinedFunctor:
		if decl := s.prog.Functor(a.Name); decl != nil {
			return Prim(decl.Result)
		}
		return Top()
	case *ast.TypeCast:
		return s.lattice.TypeOfName(a.Type)
	case *ast.RecordInit:
		if _, ok := s.prog.Type(a.Type).(*ast.RecordType); ok {
			return Named(a.Type, ast.KindRecord)
		}
		return Top()
	case *ast.Aggregator:
		return Prim(ast.KindNumber)
	}
	return Top()
}
