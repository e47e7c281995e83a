package analysis

import "github.com/stratlang/stratum/internal/ast"

// GroundedTerms computes, for every argument node of the clause, whether
// its value is forced by the body. A variable is grounded iff it appears in
// a positive body atom or is transitively bound via equality, record
// construction or type casts from grounded terms.
//
// Scoping is deliberately flat: atoms inside aggregator bodies ground their
// variables for the whole clause. The witness-problem check depends on this
// and detects illegal scope escapes differentially.
//
// The result is keyed by node identity, so it only answers queries about
// the exact nodes of the clause passed in.
func GroundedTerms(c *ast.Clause) map[ast.Argument]bool {
	grounded := make(map[string]bool)

	// Positive atoms ground their argument terms.
	for _, atom := range groundingAtoms(c) {
		for _, arg := range atom.Args {
			groundTerm(arg, grounded)
		}
	}

	// Equalities propagate groundedness in both directions until fixpoint.
	var equalities []*ast.BinaryConstraint
	ast.Visit(c, func(bc *ast.BinaryConstraint) {
		if bc.Op.IsEquality() {
			equalities = append(equalities, bc)
		}
	})
	for changed := true; changed; {
		changed = false
		for _, eq := range equalities {
			if termGrounded(eq.LHS, grounded) && groundTerm(eq.RHS, grounded) {
				changed = true
			}
			if termGrounded(eq.RHS, grounded) && groundTerm(eq.LHS, grounded) {
				changed = true
			}
		}
	}

	// Annotate every argument node, head included.
	result := make(map[ast.Argument]bool)
	ast.Visit(c, func(arg ast.Argument) {
		result[arg] = termGrounded(arg, grounded)
	})
	return result
}

// groundingAtoms returns every positive atom of the clause body, at any
// nesting depth, excluding the head. Negated atoms do not ground, but
// aggregators nested in their arguments still do.
func groundingAtoms(c *ast.Clause) []*ast.Atom {
	var atoms []*ast.Atom

	var visitLits func(lits []ast.Literal, positive bool)
	var visitArg func(arg ast.Argument)

	visitArg = func(arg ast.Argument) {
		switch a := arg.(type) {
		case *ast.IntrinsicFunctor:
			for _, sub := range a.Args {
				visitArg(sub)
			}
		case *ast.UserDefinedFunctor:
			for _, sub := range a.Args {
				visitArg(sub)
			}
		case *ast.RecordInit:
			for _, sub := range a.Args {
				visitArg(sub)
			}
		case *ast.TypeCast:
			visitArg(a.Value)
		case *ast.Aggregator:
			if a.Target != nil {
				visitArg(a.Target)
			}
			visitLits(a.Body, true)
		}
	}

	visitLits = func(lits []ast.Literal, positive bool) {
		for _, lit := range lits {
			switch l := lit.(type) {
			case *ast.Atom:
				if positive {
					atoms = append(atoms, l)
				}
				for _, arg := range l.Args {
					visitArg(arg)
				}
			case *ast.Negation:
				for _, arg := range l.Atom.Args {
					visitArg(arg)
				}
			case *ast.BinaryConstraint:
				visitArg(l.LHS)
				visitArg(l.RHS)
			}
		}
	}

	visitLits(c.Body, true)
	return atoms
}

// groundTerm marks a term as grounded, propagating into the positions that
// grounding reaches: variables, record fields and cast values. Functor
// arguments are not grounded by their result. Reports whether anything new
// became grounded.
func groundTerm(arg ast.Argument, grounded map[string]bool) bool {
	switch a := arg.(type) {
	case *ast.Variable:
		if grounded[a.Name] {
			return false
		}
		grounded[a.Name] = true
		return true
	case *ast.RecordInit:
		changed := false
		for _, sub := range a.Args {
			if groundTerm(sub, grounded) {
				changed = true
			}
		}
		return changed
	case *ast.TypeCast:
		return groundTerm(a.Value, grounded)
	}
	return false
}

// termGrounded reports whether a term's value is determined given the
// currently grounded variable set.
func termGrounded(arg ast.Argument, grounded map[string]bool) bool {
	switch a := arg.(type) {
	case *ast.Variable:
		return grounded[a.Name]
	case *ast.UnnamedVariable, *ast.NumberConstant, *ast.StringConstant, *ast.Counter, *ast.Aggregator:
		return true
	case *ast.IntrinsicFunctor:
		for _, sub := range a.Args {
			if !termGrounded(sub, grounded) {
				return false
			}
		}
		return true
	case *ast.UserDefinedFunctor:
		for _, sub := range a.Args {
			if !termGrounded(sub, grounded) {
				return false
			}
		}
		return true
	case *ast.RecordInit:
		for _, sub := range a.Args {
			if !termGrounded(sub, grounded) {
				return false
			}
		}
		return true
	case *ast.TypeCast:
		return termGrounded(a.Value, grounded)
	}
	return false
}
