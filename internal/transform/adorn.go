package transform

import (
	"fmt"
	"strings"

	"github.com/stratlang/stratum/internal/analysis"
	"github.com/stratlang/stratum/internal/ast"
	"github.com/stratlang/stratum/internal/config"
)

// Adorn computes a binding pattern per predicate occurrence and
// specializes relations to the patterns under which they are demanded.
// Each adorned relation R with pattern α is materialized as a copy named
// R.{α}; body atoms are rewritten to reference the adorned copies.
type Adorn struct{}

// Name implements Transformer.
func (Adorn) Name() string { return "adorn" }

type adornedPredicate struct {
	name      ast.QualifiedName
	adornment string
}

func (p adornedPredicate) id() ast.QualifiedName {
	if p.adornment == "" {
		return p.name
	}
	return p.name.Append("{" + p.adornment + "}")
}

// Apply implements Transformer.
func (Adorn) Apply(set *analysis.Set, ctx Context) bool {
	prog := set.Program()
	io := set.IO()

	ignored := ignoredRelations(set, ctx.Opts)
	edb := edbRelations(set)

	var adornedClauses []*ast.Clause
	var redundantClauses []*ast.Clause

	var queue []adornedPredicate
	seen := make(map[string]bool)
	adornedRelations := make(map[string]bool)

	enqueue := func(p adornedPredicate) {
		key := p.id().String()
		if seen[key] {
			return
		}
		seen[key] = true
		queue = append(queue, p)
	}

	// Output relations trigger the adornment process; ignored relations
	// are enqueued unadorned so their clauses still drive demand.
	for _, rel := range prog.Relations() {
		if io.IsOutput(rel.Name) || io.IsPrintSize(rel.Name) || ignored[rel.Name.String()] {
			enqueue(adornedPredicate{name: rel.Name})
		}
	}

	for len(queue) > 0 {
		pred := queue[0]
		queue = queue[1:]

		rel := prog.MustRelation(pred.name)

		if pred.adornment != "" {
			adorned := rel.Clone()
			adorned.Name = pred.id()
			adorned.SrcLoc = ast.SrcLoc{}
			prog.AddRelation(adorned)
			adornedRelations[pred.name.String()] = true
		}

		for _, clause := range prog.ClausesOf(pred.name) {
			if len(pred.adornment) > 0 && clause.Head.Arity() != len(pred.adornment) {
				panic(fmt.Sprintf("transform: adornment %q does not match arity of %s", pred.adornment, pred.name))
			}

			adornedClause := adornClause(clause, pred, ignored, edb, ctx.Opts.SIPS, enqueue)
			if pred.adornment == "" {
				redundantClauses = append(redundantClauses, clause)
			}
			adornedClauses = append(adornedClauses, adornedClause)
		}
	}

	// Unadorned originals survive only for ignored head relations; the
	// clauses of adorned relations are fully replaced by their copies.
	remove := make(map[*ast.Clause]bool)
	for _, clause := range redundantClauses {
		remove[clause] = true
	}
	for _, clause := range prog.Clauses() {
		if adornedRelations[clause.Head.Name.String()] {
			remove[clause] = true
		}
	}

	var kept []*ast.Clause
	for _, clause := range prog.Clauses() {
		if !remove[clause] {
			kept = append(kept, clause)
		}
	}
	prog.SetClauses(append(kept, adornedClauses...))

	return len(adornedClauses) > 0 || len(remove) > 0
}

// adornClause rewrites one clause for the given head adornment, computing
// body atom adornments in SIPS order while preserving literal order.
func adornClause(clause *ast.Clause, head adornedPredicate, ignored, edb map[string]bool, sips config.SIPSStrategy, enqueue func(adornedPredicate)) *ast.Clause {
	bindings := newBindingStore()

	headName := head.name
	if head.adornment != "" {
		headName = head.id()
	}
	adornedHead := clause.Head.CloneAtom()
	adornedHead.Name = headName
	for i := 0; i < len(head.adornment); i++ {
		if head.adornment[i] == 'b' {
			bindings.bindArgument(clause.Head.Args[i])
		}
	}

	// Equalities of the form `x = const` seed further bindings.
	ast.Visit(clause, func(bc *ast.BinaryConstraint) {
		if !bc.Op.IsEquality() {
			return
		}
		if v, ok := bc.LHS.(*ast.Variable); ok && ast.IsConstant(bc.RHS) {
			bindings.bindVariable(v.Name)
		}
	})

	// Process atoms in SIPS order; each processed atom receives its
	// adornment from the current binding set, then binds its variables.
	atoms := clause.Atoms()
	adornments := make(map[*ast.Atom]string, len(atoms))
	pending := append([]*ast.Atom(nil), atoms...)
	for len(pending) > 0 {
		next := selectNextAtom(pending, bindings, edb, sips)
		atom := pending[next]
		pending = append(pending[:next], pending[next+1:]...)

		var marker strings.Builder
		if !ignored[atom.Name.String()] {
			for _, arg := range atom.Args {
				if bindings.argumentBound(arg) {
					marker.WriteByte('b')
				} else {
					marker.WriteByte('f')
				}
			}
		}
		adornments[atom] = marker.String()

		enqueue(adornedPredicate{name: atom.Name, adornment: marker.String()})
		for _, arg := range atom.Args {
			bindings.bindArgument(arg)
		}
	}

	adornedClause := &ast.Clause{Head: adornedHead, Generated: true, SrcLoc: clause.SrcLoc}
	for _, lit := range clause.Body {
		cloned := lit.Clone()
		if atom, ok := lit.(*ast.Atom); ok {
			pred := adornedPredicate{name: atom.Name, adornment: adornments[atom]}
			cloned.(*ast.Atom).Name = pred.id()
		}
		adornedClause.Body = append(adornedClause.Body, cloned)
	}
	if clause.Plan != nil {
		// Clauses with execution plans are always ignored, so the plan
		// survives untouched.
		adornedClause.Plan = clause.Plan
	}
	return adornedClause
}

// selectNextAtom applies the configured SIPS policy to the pending atoms.
func selectNextAtom(pending []*ast.Atom, bindings *bindingStore, edb map[string]bool, sips config.SIPSStrategy) int {
	boundCount := func(atom *ast.Atom) int {
		n := 0
		for _, arg := range atom.Args {
			if bindings.argumentBound(arg) {
				n++
			}
		}
		return n
	}

	if sips == config.SIPSNaive {
		// First atom with any bound argument, preferring EDB atoms.
		for _, wantEDB := range []bool{true, false} {
			for i, atom := range pending {
				if edb[atom.Name.String()] == wantEDB && boundCount(atom) > 0 {
					return i
				}
			}
		}
		return 0
	}

	// Max-bound: most bound argument positions wins; ties prefer EDB
	// atoms, then the leftmost.
	best := 0
	bestCount := -1
	bestEDB := false
	for i, atom := range pending {
		count := boundCount(atom)
		isEDB := edb[atom.Name.String()]
		if count > bestCount || (count == bestCount && isEDB && !bestEDB) {
			best, bestCount, bestEDB = i, count, isEDB
		}
	}
	return best
}

// ignoredRelations computes the set excluded from adornment: relations not
// selected by the magic-transform option, relations known in constant time
// (inputs and fact-only relations), negatively labelled relations,
// relations whose clauses carry float comparisons, order-dependent
// functors or execution plans, and eqrel relations.
func ignoredRelations(set *analysis.Set, opts config.Options) map[string]bool {
	prog := set.Program()
	io := set.IO()
	ignored := make(map[string]bool)

	if !opts.MagicTransform.MatchesAll() {
		for _, rel := range prog.Relations() {
			if !opts.MagicTransform.Matches(rel.Name.String()) {
				ignored[rel.Name.String()] = true
			}
		}
	}

	hasRules := func(name ast.QualifiedName) bool {
		for _, clause := range prog.ClausesOf(name) {
			found := false
			for _, lit := range clause.Body {
				ast.Visit(lit, func(*ast.Atom) { found = true })
			}
			if found {
				return true
			}
		}
		return false
	}

	for _, rel := range prog.Relations() {
		if io.IsInput(rel.Name) || !hasRules(rel.Name) {
			ignored[rel.Name.String()] = true
		}
		if rel.Representation == ast.RepEqrel {
			ignored[rel.Name.String()] = true
		}
	}

	ast.VisitProgram(prog, func(atom *ast.Atom) {
		if atom.Name.First() == "@neglabel" {
			ignored[atom.Name.String()] = true
		}
	})

	for _, clause := range prog.Clauses() {
		head := clause.Head.Name.String()
		ast.Visit(clause, func(bc *ast.BinaryConstraint) {
			if bc.Op.IsFloat() {
				ignored[head] = true
			}
		})
		ast.Visit(clause, func(fun *ast.IntrinsicFunctor) {
			if fun.Op.IsOrderDependent() {
				ignored[head] = true
			}
		})
		if clause.Plan != nil {
			ignored[head] = true
		}
	}

	return ignored
}

// edbRelations returns the relations known in constant time: inputs and
// fact-only relations. SIPS tie-breaking prefers them.
func edbRelations(set *analysis.Set) map[string]bool {
	prog := set.Program()
	io := set.IO()
	edb := make(map[string]bool)
	for _, rel := range prog.Relations() {
		if io.IsInput(rel.Name) {
			edb[rel.Name.String()] = true
			continue
		}
		factOnly := true
		for _, clause := range prog.ClausesOf(rel.Name) {
			for _, lit := range clause.Body {
				ast.Visit(lit, func(*ast.Atom) { factOnly = false })
			}
		}
		if factOnly {
			edb[rel.Name.String()] = true
		}
	}
	return edb
}

// bindingStore tracks which variables are bound at the current point of
// the sideways information passing walk.
type bindingStore struct {
	bound map[string]bool
}

func newBindingStore() *bindingStore {
	return &bindingStore{bound: make(map[string]bool)}
}

func (b *bindingStore) bindVariable(name string) {
	b.bound[name] = true
}

// bindArgument binds every variable occurring in the argument term.
func (b *bindingStore) bindArgument(arg ast.Argument) {
	ast.Visit(arg, func(v *ast.Variable) {
		b.bound[v.Name] = true
	})
}

// argumentBound reports whether the argument's value is available given
// the current bindings: all referenced variables bound. Constant-only
// terms are trivially bound.
func (b *bindingStore) argumentBound(arg ast.Argument) bool {
	boundOK := true
	ast.Visit(arg, func(v *ast.Variable) {
		if !b.bound[v.Name] {
			boundOK = false
		}
	})
	if _, isUnnamed := arg.(*ast.UnnamedVariable); isUnnamed {
		return false
	}
	return boundOK
}
