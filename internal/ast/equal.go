package ast

// EqualArgument is deep structural equality, ignoring source locations.
func EqualArgument(a, b Argument) bool {
	switch x := a.(type) {
	case *Variable:
		y, ok := b.(*Variable)
		return ok && x.Name == y.Name
	case *UnnamedVariable:
		_, ok := b.(*UnnamedVariable)
		return ok
	case *NumberConstant:
		y, ok := b.(*NumberConstant)
		return ok && x.Value == y.Value
	case *StringConstant:
		y, ok := b.(*StringConstant)
		return ok && x.Value == y.Value
	case *Counter:
		_, ok := b.(*Counter)
		return ok
	case *IntrinsicFunctor:
		y, ok := b.(*IntrinsicFunctor)
		return ok && x.Op == y.Op && equalArgs(x.Args, y.Args)
	case *UserDefinedFunctor:
		y, ok := b.(*UserDefinedFunctor)
		return ok && x.Name == y.Name && equalArgs(x.Args, y.Args)
	case *TypeCast:
		y, ok := b.(*TypeCast)
		return ok && x.Type.Equal(y.Type) && EqualArgument(x.Value, y.Value)
	case *RecordInit:
		y, ok := b.(*RecordInit)
		return ok && x.Type.Equal(y.Type) && equalArgs(x.Args, y.Args)
	case *Aggregator:
		y, ok := b.(*Aggregator)
		if !ok || x.Op != y.Op {
			return false
		}
		if (x.Target == nil) != (y.Target == nil) {
			return false
		}
		if x.Target != nil && !EqualArgument(x.Target, y.Target) {
			return false
		}
		return equalLiterals(x.Body, y.Body)
	}
	return false
}

// EqualLiteral is deep structural equality, ignoring source locations.
func EqualLiteral(a, b Literal) bool {
	switch x := a.(type) {
	case *Atom:
		y, ok := b.(*Atom)
		return ok && EqualAtom(x, y)
	case *Negation:
		y, ok := b.(*Negation)
		return ok && EqualAtom(x.Atom, y.Atom)
	case *BinaryConstraint:
		y, ok := b.(*BinaryConstraint)
		return ok && x.Op == y.Op && EqualArgument(x.LHS, y.LHS) && EqualArgument(x.RHS, y.RHS)
	case *BooleanConstraint:
		y, ok := b.(*BooleanConstraint)
		return ok && x.Value == y.Value
	}
	return false
}

// EqualAtom is deep structural equality of atoms.
func EqualAtom(a, b *Atom) bool {
	return a.Name.Equal(b.Name) && equalArgs(a.Args, b.Args)
}

// EqualClause is deep structural equality of clauses, ignoring execution
// plans and source locations.
func EqualClause(a, b *Clause) bool {
	return EqualAtom(a.Head, b.Head) && equalLiterals(a.Body, b.Body)
}

func equalArgs(a, b []Argument) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !EqualArgument(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalLiterals(a, b []Literal) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !EqualLiteral(a[i], b[i]) {
			return false
		}
	}
	return true
}
