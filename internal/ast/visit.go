package ast

// Walk traverses the tree rooted at n in pre-order, calling fn for every
// node. If fn returns false the children of the current node are skipped.
//
// Walk tolerates in-place mutation of the node currently being visited
// (e.g. renaming an atom); it does not tolerate structural changes to
// slices still pending traversal.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch node := n.(type) {
	case *Clause:
		Walk(node.Head, fn)
		for _, lit := range node.Body {
			Walk(lit, fn)
		}
	case *Atom:
		for _, arg := range node.Args {
			Walk(arg, fn)
		}
	case *Negation:
		Walk(node.Atom, fn)
	case *BinaryConstraint:
		Walk(node.LHS, fn)
		Walk(node.RHS, fn)
	case *IntrinsicFunctor:
		for _, arg := range node.Args {
			Walk(arg, fn)
		}
	case *UserDefinedFunctor:
		for _, arg := range node.Args {
			Walk(arg, fn)
		}
	case *RecordInit:
		for _, arg := range node.Args {
			Walk(arg, fn)
		}
	case *TypeCast:
		Walk(node.Value, fn)
	case *Aggregator:
		if node.Target != nil {
			Walk(node.Target, fn)
		}
		for _, lit := range node.Body {
			Walk(lit, fn)
		}
	}
}

// Visit calls fn for every node of type T in the tree rooted at n.
func Visit[T Node](n Node, fn func(T)) {
	Walk(n, func(cur Node) bool {
		if typed, ok := cur.(T); ok {
			fn(typed)
		}
		return true
	})
}

// VisitProgram calls fn for every node of type T in every clause of p.
func VisitProgram[T Node](p *Program, fn func(T)) {
	for _, c := range p.Clauses() {
		Visit(c, fn)
	}
}
