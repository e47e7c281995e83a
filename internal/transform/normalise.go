package transform

import (
	"fmt"

	"github.com/stratlang/stratum/internal/analysis"
	"github.com/stratlang/stratum/internal/ast"
)

// Normalise prepares the program for the magic-set rewrite by enforcing
// four structural invariants: no relation is both input and output, input
// relations are fact-only, all constants and underscores in clauses are
// lifted to fresh variables, and output relations are thin projections.
type Normalise struct{}

// Name implements Transformer.
func (Normalise) Name() string { return "normalise" }

// Apply implements Transformer.
func (Normalise) Apply(set *analysis.Set, _ Context) bool {
	changed := false
	if partitionIO(set) {
		changed = true
		set.Invalidate()
	}
	if extractIDB(set) {
		changed = true
		set.Invalidate()
	}
	if nameConstants(set) {
		changed = true
		set.Invalidate()
	}
	if querifyOutputs(set) {
		changed = true
		set.Invalidate()
	}
	return changed
}

// partitionIO splits relations that are simultaneously input and output:
// a fresh @split_in relation takes over the input directive and feeds the
// original through a copy rule.
func partitionIO(set *analysis.Set) bool {
	prog := set.Program()
	io := set.IO()

	var toSplit []ast.QualifiedName
	for _, rel := range prog.Relations() {
		if io.IsInput(rel.Name) && (io.IsOutput(rel.Name) || io.IsPrintSize(rel.Name)) {
			toSplit = append(toSplit, rel.Name)
		}
	}

	for _, relName := range toSplit {
		rel := prog.MustRelation(relName)
		newName := relName.Prepend("@split_in")

		newRel := rel.Clone()
		newRel.Name = newName
		newRel.SrcLoc = ast.SrcLoc{}

		head := &ast.Atom{Name: relName}
		body := &ast.Atom{Name: newName}
		for i := 0; i < rel.Arity(); i++ {
			varName := fmt.Sprintf("@var%d", i)
			head.Args = append(head.Args, &ast.Variable{Name: varName})
			body.Args = append(body.Args, &ast.Variable{Name: varName})
		}
		copyRule := &ast.Clause{Head: head, Body: []ast.Literal{body}, Generated: true}

		// Redirect input directives to the split relation, defaulting the
		// fact file name when none was given.
		var remove []*ast.Directive
		var add []*ast.Directive
		for _, d := range prog.Directives() {
			if !d.Relation.Equal(relName) || d.Kind != ast.DirectiveInput {
				continue
			}
			ioMode, hasIO := d.Param("IO")
			_, hasFile := d.Param("filename")
			newDir := d.Clone()
			newDir.Relation = newName
			if !hasIO || (ioMode == "file" && !hasFile) {
				newDir.SetParam("IO", "file")
				newDir.SetParam("filename", relName.String()+".facts")
			}
			add = append(add, newDir)
			remove = append(remove, d)
		}
		for _, d := range remove {
			prog.RemoveDirective(d)
		}
		for _, d := range add {
			prog.AddDirective(d)
		}

		prog.AddRelation(newRel)
		prog.AddClause(copyRule)
	}

	return len(toSplit) > 0
}

// extractIDB makes every input relation fact-only: relations with rules
// are renamed wholesale to an @interm_in twin, which is additionally fed
// from the original input relation by a copy rule.
func extractIDB(set *analysis.Set) bool {
	prog := set.Program()
	io := set.IO()

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

	var inputRels []*ast.Relation
	renamed := make(map[string]bool)
	for _, rel := range prog.Relations() {
		if io.IsInput(rel.Name) && hasRules(rel.Name) {
			twin := rel.Clone()
			twin.Name = rel.Name.Prepend("@interm_in")
			twin.SrcLoc = ast.SrcLoc{}
			prog.AddRelation(twin)
			inputRels = append(inputRels, rel)
			renamed[rel.Name.String()] = true
		}
	}

	ast.RenameProgramAtoms(prog, func(name ast.QualifiedName) (ast.QualifiedName, bool) {
		if renamed[name.String()] {
			return name.Prepend("@interm_in"), true
		}
		return name, false
	})

	for _, rel := range inputRels {
		head := &ast.Atom{Name: rel.Name.Prepend("@interm_in")}
		body := &ast.Atom{Name: rel.Name}
		for i := 0; i < rel.Arity(); i++ {
			varName := fmt.Sprintf("@query_x%d", i)
			head.Args = append(head.Args, &ast.Variable{Name: varName})
			body.Args = append(body.Args, &ast.Variable{Name: varName})
		}
		prog.AddClause(&ast.Clause{Head: head, Body: []ast.Literal{body}, Generated: true})
	}

	return len(inputRels) > 0
}

// nameConstants lifts every constant and underscore appearing as an
// argument into a fresh @abdul variable; constants additionally gain an
// equality constraint binding the variable. Pre-existing `var = term`
// equalities are left alone so already-lifted forms stay stable.
func nameConstants(set *analysis.Set) bool {
	prog := set.Program()
	changed := false

	for _, clause := range prog.Clauses() {
		// Facts hold constants by definition; lifting them would turn
		// facts into rules and lose the fact-only property of the EDB.
		if clause.IsFact() {
			continue
		}
		count := 0
		var constraints []*ast.BinaryConstraint

		mapper := func(arg ast.Argument) ast.Argument {
			if _, isVar := arg.(*ast.Variable); isVar {
				return arg
			}
			name := fmt.Sprintf("@abdul%d", count)
			count++
			if _, isUnnamed := arg.(*ast.UnnamedVariable); !isUnnamed {
				constraints = append(constraints, &ast.BinaryConstraint{
					Op:  ast.BinOpEQ,
					LHS: &ast.Variable{Name: name},
					RHS: arg.Clone(),
				})
			}
			return &ast.Variable{Name: name, SrcLoc: arg.Loc()}
		}

		ast.MapAtomArguments(clause.Head, mapper)
		for _, lit := range clause.Body {
			if bc, ok := lit.(*ast.BinaryConstraint); ok && bc.Op.IsEquality() {
				if _, isVar := bc.LHS.(*ast.Variable); isVar {
					continue
				}
			}
			ast.MapLiteralArguments(lit, mapper)
		}
		// Atoms nested inside skipped equalities (aggregator bodies) still
		// need their constants lifted.
		ast.Visit(clause, func(atom *ast.Atom) {
			if atom != clause.Head {
				ast.MapAtomArguments(atom, mapper)
			}
		})

		if count > 0 {
			changed = true
		}
		for _, bc := range constraints {
			clause.Body = append(clause.Body, bc)
		}
	}

	return changed
}

// querifyOutputs turns every output relation with multiple rules, or that
// is referenced by other rules, into a thin projection over an @interm_out
// twin holding the original definition.
func querifyOutputs(set *analysis.Set) bool {
	prog := set.Program()
	io := set.IO()

	isStrictlyOutput := func(name ast.QualifiedName) bool {
		referenced := false
		ruleCount := 0
		for _, clause := range prog.Clauses() {
			for _, lit := range clause.Body {
				ast.Visit(lit, func(atom *ast.Atom) {
					if atom.Name.Equal(name) {
						referenced = true
					}
				})
			}
			if clause.Head.Name.Equal(name) {
				ruleCount++
			}
		}
		return !referenced && ruleCount <= 1
	}

	var outputRels []*ast.Relation
	renamed := make(map[string]bool)
	for _, rel := range prog.Relations() {
		if (io.IsOutput(rel.Name) || io.IsPrintSize(rel.Name)) && !isStrictlyOutput(rel.Name) {
			twin := rel.Clone()
			twin.Name = rel.Name.Prepend("@interm_out")
			twin.SrcLoc = ast.SrcLoc{}
			prog.AddRelation(twin)
			outputRels = append(outputRels, rel)
			renamed[rel.Name.String()] = true
		}
	}

	ast.RenameProgramAtoms(prog, func(name ast.QualifiedName) (ast.QualifiedName, bool) {
		if renamed[name.String()] {
			return name.Prepend("@interm_out"), true
		}
		return name, false
	})

	for _, rel := range outputRels {
		head := &ast.Atom{Name: rel.Name}
		body := &ast.Atom{Name: rel.Name.Prepend("@interm_out")}
		for i := 0; i < rel.Arity(); i++ {
			varName := fmt.Sprintf("@query_x%d", i)
			head.Args = append(head.Args, &ast.Variable{Name: varName})
			body.Args = append(body.Args, &ast.Variable{Name: varName})
		}
		prog.AddClause(&ast.Clause{Head: head, Body: []ast.Literal{body}, Generated: true})
	}

	return len(outputRels) > 0
}
