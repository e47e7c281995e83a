package ast

// ArgMapper rewrites a single argument node. The mapper owns its input and
// the returned node replaces it in the surrounding container; returning the
// input unchanged is the identity.
type ArgMapper func(Argument) Argument

// MapArgument applies m to every argument in the tree rooted at arg in
// post-order (children first), returning the replacement for arg itself.
func MapArgument(arg Argument, m ArgMapper) Argument {
	switch a := arg.(type) {
	case *IntrinsicFunctor:
		for i, sub := range a.Args {
			a.Args[i] = MapArgument(sub, m)
		}
	case *UserDefinedFunctor:
		for i, sub := range a.Args {
			a.Args[i] = MapArgument(sub, m)
		}
	case *RecordInit:
		for i, sub := range a.Args {
			a.Args[i] = MapArgument(sub, m)
		}
	case *TypeCast:
		a.Value = MapArgument(a.Value, m)
	case *Aggregator:
		if a.Target != nil {
			a.Target = MapArgument(a.Target, m)
		}
		for _, lit := range a.Body {
			MapLiteralArguments(lit, m)
		}
	}
	return m(arg)
}

// MapAtomArguments applies m post-order to each argument of the atom.
func MapAtomArguments(atom *Atom, m ArgMapper) {
	for i, arg := range atom.Args {
		atom.Args[i] = MapArgument(arg, m)
	}
}

// MapLiteralArguments applies m post-order to each argument of the literal.
func MapLiteralArguments(lit Literal, m ArgMapper) {
	switch l := lit.(type) {
	case *Atom:
		MapAtomArguments(l, m)
	case *Negation:
		MapAtomArguments(l.Atom, m)
	case *BinaryConstraint:
		l.LHS = MapArgument(l.LHS, m)
		l.RHS = MapArgument(l.RHS, m)
	}
}

// MapClauseArguments applies m post-order to every argument of the clause,
// head included.
func MapClauseArguments(c *Clause, m ArgMapper) {
	MapAtomArguments(c.Head, m)
	for _, lit := range c.Body {
		MapLiteralArguments(lit, m)
	}
}

// RenameAtoms rewrites atom relation names everywhere below n, including
// negations and aggregator bodies. rename returns the replacement name and
// whether to apply it.
func RenameAtoms(n Node, rename func(QualifiedName) (QualifiedName, bool)) {
	Visit(n, func(atom *Atom) {
		if newName, ok := rename(atom.Name); ok {
			atom.Name = newName
		}
	})
}

// RenameProgramAtoms applies RenameAtoms to every clause of p.
func RenameProgramAtoms(p *Program, rename func(QualifiedName) (QualifiedName, bool)) {
	for _, c := range p.Clauses() {
		RenameAtoms(c, rename)
	}
}
