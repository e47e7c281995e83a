package transform

import (
	"fmt"
	"strings"

	"github.com/stratlang/stratum/internal/analysis"
	"github.com/stratlang/stratum/internal/ast"
)

// Magic derives the demand predicates: every adorned relation gains a
// @magic twin over its bound attribute positions, clauses with adorned
// heads are guarded by the magic atom, and each adorned body atom yields a
// supplementary rule deriving its demand from everything to its left.
type Magic struct{}

// Name implements Transformer.
func (Magic) Name() string { return "magic" }

// isAdorned reports whether the relation name carries an adornment
// segment. Malformed adornments indicate a bug in the adorn pass.
func isAdorned(name ast.QualifiedName) bool {
	last := name.Last()
	if last == "" || last[0] != '{' {
		return false
	}
	if last[len(last)-1] != '}' {
		panic(fmt.Sprintf("transform: unterminated adornment string in %s", name))
	}
	for _, c := range last[1 : len(last)-1] {
		if c != 'b' && c != 'f' {
			panic(fmt.Sprintf("transform: unexpected binding type %q in adornment of %s", c, name))
		}
	}
	return true
}

// adornmentOf extracts the b/f string from an adorned relation name.
func adornmentOf(name ast.QualifiedName) string {
	if !isAdorned(name) {
		panic(fmt.Sprintf("transform: relation %s is not adorned", name))
	}
	last := name.Last()
	return last[1 : len(last)-1]
}

// Apply implements Transformer.
func (Magic) Apply(set *analysis.Set, _ Context) bool {
	prog := set.Program()

	magicSeen := make(map[string]bool)

	// createMagicAtom builds the magic twin of an adorned atom, declaring
	// the magic relation on first use with the bound attribute positions.
	createMagicAtom := func(atom *ast.Atom) *ast.Atom {
		marker := adornmentOf(atom.Name)
		if len(marker) != len(atom.Args) {
			panic(fmt.Sprintf("transform: adornment %q does not match arity of %s", marker, atom.Name))
		}
		magicName := atom.Name.Prepend("@magic")

		magicAtom := &ast.Atom{Name: magicName}
		for i, arg := range atom.Args {
			if marker[i] == 'b' {
				magicAtom.Args = append(magicAtom.Args, arg.Clone())
			}
		}

		if !magicSeen[magicName.String()] {
			magicSeen[magicName.String()] = true
			original := prog.MustRelation(atom.Name)
			magicRel := &ast.Relation{Name: magicName}
			for i, attr := range original.Attributes {
				if marker[i] == 'b' {
					magicRel.Attributes = append(magicRel.Attributes, attr)
				}
			}
			prog.AddRelation(magicRel)
		}

		return magicAtom
	}

	var clausesToAdd []*ast.Clause
	originals := append([]*ast.Clause(nil), prog.Clauses()...)

	for _, clause := range originals {
		head := clause.Head
		headAdorned := isAdorned(head.Name)

		// (1) Refine the clause. Unadorned heads pass through unchanged:
		// every tuple of an ignored relation is relevant.
		if !headAdorned {
			clausesToAdd = append(clausesToAdd, clause.Clone())
		} else {
			refined := &ast.Clause{Head: head.CloneAtom(), Generated: true}
			refined.Body = append(refined.Body, createMagicAtom(head))
			for _, lit := range clause.Body {
				refined.Body = append(refined.Body, lit.Clone())
			}
			clausesToAdd = append(clausesToAdd, refined)
		}

		// (2) Derive the supplementary magic rules left to right.
		eqConstraints := equalityConstraints(clause)
		var atomsToTheLeft []*ast.Atom
		if headAdorned {
			// The magic head atom specializes the demand; output relations
			// are unadorned and so contribute no specialization.
			atomsToTheLeft = append(atomsToTheLeft, createMagicAtom(head))
		}
		for _, lit := range clause.Body {
			atom, ok := lit.(*ast.Atom)
			if !ok {
				continue
			}
			if !isAdorned(atom.Name) {
				atomsToTheLeft = append(atomsToTheLeft, atom.CloneAtom())
				continue
			}
			clausesToAdd = append(clausesToAdd, magicClause(createMagicAtom(atom), atomsToTheLeft, eqConstraints))
			atomsToTheLeft = append(atomsToTheLeft, atom.CloneAtom())
		}
	}

	prog.SetClauses(clausesToAdd)
	return len(originals) > 0 || len(clausesToAdd) > 0
}

// magicClause builds one supplementary rule: the magic head is derived
// from the atoms to its left plus those equality guards whose variable
// closure is already bound.
func magicClause(magicHead *ast.Atom, constrainingAtoms []*ast.Atom, eqConstraints []*ast.BinaryConstraint) *ast.Clause {
	clause := &ast.Clause{Head: magicHead, Generated: true}
	for _, atom := range constrainingAtoms {
		clause.Body = append(clause.Body, atom.CloneAtom())
	}

	seen := make(map[string]bool)
	for _, atom := range constrainingAtoms {
		ast.Visit(atom, func(v *ast.Variable) { seen[v.Name] = true })
	}
	ast.Visit(magicHead, func(v *ast.Variable) { seen[v.Name] = true })

	// Record equalities extend the bound set transitively: once one side
	// is seen, the variables of the whole constraint are reachable.
	for fixpoint := false; !fixpoint; {
		fixpoint = true
		for _, eq := range eqConstraints {
			grow := false
			if _, ok := eq.RHS.(*ast.RecordInit); ok {
				if v, isVar := eq.LHS.(*ast.Variable); isVar && seen[v.Name] {
					grow = true
				}
			}
			if _, ok := eq.LHS.(*ast.RecordInit); ok {
				if v, isVar := eq.RHS.(*ast.Variable); isVar && seen[v.Name] {
					grow = true
				}
			}
			if grow {
				ast.Visit(eq, func(v *ast.Variable) {
					if !seen[v.Name] {
						seen[v.Name] = true
						fixpoint = false
					}
				})
			}
		}
	}

	for _, eq := range eqConstraints {
		include := true
		ast.Visit(eq, func(v *ast.Variable) {
			if !seen[v.Name] {
				include = false
			}
		})
		if include {
			clause.Body = append(clause.Body, eq.CloneConstraint())
		}
	}

	return clause
}

// equalityConstraints collects the top-level `var = term` and `term =
// const` equalities usable as magic guards. Equalities involving
// aggregators are excluded: demand must not re-evaluate aggregates.
func equalityConstraints(clause *ast.Clause) []*ast.BinaryConstraint {
	var out []*ast.BinaryConstraint
	for _, lit := range clause.Body {
		bc, ok := lit.(*ast.BinaryConstraint)
		if !ok || !bc.Op.IsEquality() {
			continue
		}
		_, lhsVar := bc.LHS.(*ast.Variable)
		if !lhsVar && !ast.IsConstant(bc.RHS) {
			continue
		}
		hasAggregator := false
		ast.Visit(bc, func(*ast.Aggregator) { hasAggregator = true })
		if !hasAggregator {
			out = append(out, bc)
		}
	}
	return out
}

// AdornmentArity returns the number of bound positions in an adornment
// string, which equals the arity of the corresponding magic relation.
func AdornmentArity(adornment string) int {
	return strings.Count(adornment, "b")
}
