package semcheck

import (
	"github.com/stratlang/stratum/internal/analysis"
	"github.com/stratlang/stratum/internal/ast"
	"github.com/stratlang/stratum/internal/diag"
)

// checkArgumentTypes runs the lattice-based checks: argument vs declared
// attribute types, functor input kinds, record field types, aggregator
// targets, casts and binary constraints.
func (c *checker) checkArgumentTypes() {
	types := c.set.Types()
	lattice := types.Lattice()

	for _, clause := range c.prog.Clauses() {
		isGrounded := analysis.GroundedTerms(clause)

		// Arguments whose type collapsed to a bottom element have
		// conflicting constraints. Top-typed grounded arguments are
		// deliberately silenced: the only way a grounded argument stays at
		// Top is an ill-formed record construction, which raises its own
		// error.
		ast.Visit(clause, func(arg ast.Argument) {
			if !isGrounded[arg] {
				return
			}
			t := types.TypeOf(arg)
			switch {
			case t.IsBot():
				diag.Errorf(c.rep, diag.CodeTypeError, arg.Loc(),
					"Unable to deduce valid type for expression, as base types are disjoint")
			case t.IsBotPrim():
				diag.Errorf(c.rep, diag.CodeTypeError, arg.Loc(),
					"Unable to deduce valid type for expression, as primitive types are disjoint")
			}
		})

		ast.Visit(clause, func(fun *ast.IntrinsicFunctor) {
			sig := fun.Op.Signature()
			if len(sig.Params) != len(fun.Args) {
				return // arity reported elsewhere
			}
			for i, arg := range fun.Args {
				c.checkFunctorInput(types, lattice, arg, sig.Params[i])
			}
		})

		ast.Visit(clause, func(fun *ast.UserDefinedFunctor) {
			decl := c.prog.Functor(fun.Name)
			if decl == nil || decl.Arity() != len(fun.Args) {
				return // existence and arity reported elsewhere
			}
			for i, arg := range fun.Args {
				c.checkFunctorInput(types, lattice, arg, decl.Params[i])
			}
		})

		ast.Visit(clause, func(rec *ast.RecordInit) {
			recType, ok := c.prog.Type(rec.Type).(*ast.RecordType)
			if !ok || len(recType.Fields) != len(rec.Args) {
				return
			}
			if !isGrounded[rec] {
				return // the groundedness check already fired
			}
			for i, member := range rec.Args {
				fieldType := lattice.TypeOfName(recType.Fields[i].Type)
				actual := types.TypeOf(member)
				if actual.IsValid() && !lattice.IsSubtype(actual, fieldType) {
					diag.Errorf(c.rep, diag.CodeTypeError, member.Loc(),
						"Record constructor expects element to have type %s but instead it has type %s",
						fieldType, actual)
				}
			}
		})

		ast.Visit(clause, func(aggr *ast.Aggregator) {
			if aggr.Op == ast.AggregateCount || aggr.Target == nil {
				return
			}
			targetType := types.TypeOf(aggr.Target)
			if targetType.IsValid() && !lattice.IsSubtype(targetType, analysis.Prim(ast.KindNumber)) {
				diag.Errorf(c.rep, diag.CodeKindMismatch, aggr.Target.Loc(),
					"Aggregation variable is not a number, instead has type %s", targetType)
			}
		})

		c.checkCasts(clause, types, lattice)

		ast.Visit(clause, func(atom *ast.Atom) {
			rel := c.prog.Relation(atom.Name)
			if rel == nil || rel.Arity() != atom.Arity() {
				return
			}
			for i, arg := range atom.Args {
				argType := types.TypeOf(arg)
				declared := lattice.TypeOfName(rel.Attributes[i].Type)
				if argType.IsValid() && !lattice.IsSubtype(argType, declared) {
					diag.Errorf(c.rep, diag.CodeTypeError, arg.Loc(),
						"Relation expects value of type %s but got argument of type %s",
						rel.Attributes[i].Type, argType)
				}
			}
		})

		ast.Visit(clause, func(bc *ast.BinaryConstraint) {
			c.checkConstraintTypes(bc, types, lattice)
		})
	}
}

func (c *checker) checkFunctorInput(types *analysis.TypeAnalysis, lattice *analysis.TypeLattice, arg ast.Argument, expected ast.Kind) {
	argType := types.TypeOf(arg)
	if !argType.IsValid() {
		return
	}
	if !lattice.IsSubtype(argType, analysis.Prim(expected)) {
		family := "Non-numeric"
		if expected == ast.KindSymbol {
			family = "Non-symbolic"
		}
		diag.Errorf(c.rep, diag.CodeKindMismatch, arg.Loc(),
			"%s argument for functor, instead argument has type %s", family, argType)
	}
}

// checkCasts validates every type cast of the clause: the target type must
// be declared; a cast used where another type is expected is an error;
// kind-changing casts and wrong-record casts may fail at runtime and warn.
func (c *checker) checkCasts(clause *ast.Clause, types *analysis.TypeAnalysis, lattice *analysis.TypeLattice) {
	// Contextual expectations: the declared type at each atom position and
	// record field a cast directly occupies.
	context := make(map[ast.Argument]analysis.AnalysisType)
	ast.Visit(clause, func(atom *ast.Atom) {
		rel := c.prog.Relation(atom.Name)
		if rel == nil || rel.Arity() != atom.Arity() {
			return
		}
		for i, arg := range atom.Args {
			if _, ok := arg.(*ast.TypeCast); ok {
				context[arg] = lattice.TypeOfName(rel.Attributes[i].Type)
			}
		}
	})
	ast.Visit(clause, func(rec *ast.RecordInit) {
		recType, ok := c.prog.Type(rec.Type).(*ast.RecordType)
		if !ok || len(recType.Fields) != len(rec.Args) {
			return
		}
		for i, arg := range rec.Args {
			if _, ok := arg.(*ast.TypeCast); ok {
				context[arg] = lattice.TypeOfName(recType.Fields[i].Type)
			}
		}
	})

	ast.Visit(clause, func(cast *ast.TypeCast) {
		if !c.set.TypeEnv().IsType(cast.Type) {
			diag.Errorf(c.rep, diag.CodeBadCast, cast.SrcLoc,
				"Type cast is to undeclared type %s", cast.Type)
			return
		}
		castType := lattice.TypeOfName(cast.Type)

		if expected, ok := context[ast.Argument(cast)]; ok {
			if expected.IsValid() && !lattice.IsSubtype(castType, expected) {
				diag.Errorf(c.rep, diag.CodeBadCast, cast.SrcLoc,
					"Typecast is to type %s but is used where the type %s is expected",
					cast.Type, expected)
			}
		}

		inputType := types.TypeOf(cast.Value)
		if !inputType.IsValid() || !castType.IsValid() {
			return
		}
		if !lattice.IsSubtype(inputType, analysis.Prim(castType.Kind())) {
			diag.Warnf(c.rep, diag.CodeBadCast, cast.SrcLoc,
				"Casts from %s values to %s types may cause runtime errors",
				inputType.Kind(), castType.Kind())
		} else if castType.Kind() == ast.KindRecord && !lattice.IsSubtype(inputType, castType) {
			diag.Warnf(c.rep, diag.CodeBadCast, cast.SrcLoc,
				"Casting a record to the wrong record type may cause runtime errors")
		}
	})
}

func (c *checker) checkConstraintTypes(bc *ast.BinaryConstraint, types *analysis.TypeAnalysis, lattice *analysis.TypeLattice) {
	lhsType := types.TypeOf(bc.LHS)
	rhsType := types.TypeOf(bc.RHS)

	switch {
	case bc.Op.IsEquality():
		// Nothing further: equality unifies.
	case bc.Op.IsInequality():
		if !lhsType.IsValid() || !rhsType.IsValid() {
			return
		}
		if lhsType.Kind() != rhsType.Kind() {
			diag.Errorf(c.rep, diag.CodeKindMismatch, bc.SrcLoc,
				"Cannot compare operands of different kinds, left operand is a %s and right operand is a %s",
				lhsType.Kind(), rhsType.Kind())
		} else if lhsType.Kind() == ast.KindRecord {
			if !lattice.IsSubtype(lhsType, rhsType) && !lattice.IsSubtype(rhsType, lhsType) {
				diag.Errorf(c.rep, diag.CodeKindMismatch, bc.SrcLoc,
					"Cannot compare records of different types")
			}
		}
	default:
		expected := ast.KindNumber
		family := "Non-numerical"
		if bc.Op.IsSymbolic() {
			expected = ast.KindSymbol
			family = "Non-symbolic"
		}
		if lhsType.IsValid() && !lattice.IsSubtype(lhsType, analysis.Prim(expected)) {
			diag.Errorf(c.rep, diag.CodeKindMismatch, bc.LHS.Loc(),
				"%s operand for comparison, instead left operand has type %s", family, lhsType)
		}
		if rhsType.IsValid() && !lattice.IsSubtype(rhsType, analysis.Prim(expected)) {
			diag.Errorf(c.rep, diag.CodeKindMismatch, bc.RHS.Loc(),
				"%s operand for comparison, instead right operand has type %s", family, rhsType)
		}
	}
}
