package transform

import (
	"fmt"

	"github.com/stratlang/stratum/internal/analysis"
	"github.com/stratlang/stratum/internal/ast"
)

// Label rewrites the program so the magic-set restriction stays sound
// under negation and recursion: negated subgraphs are copied under
// @neglabel names, and the positive subgraphs that negatively labelled
// strata depend on are duplicated per negation boundary under @poscopy
// names.
type Label struct{}

// Name implements Transformer.
func (Label) Name() string { return "label" }

// Apply implements Transformer.
func (Label) Apply(set *analysis.Set, _ Context) bool {
	changed := negativeLabelling(set)
	if changed {
		set.Invalidate()
	}
	if positiveLabelling(set) {
		changed = true
	}
	return changed
}

func negLabel(name ast.QualifiedName) ast.QualifiedName {
	return name.Prepend("@neglabel")
}

func isNegLabelled(name ast.QualifiedName) bool {
	return name.First() == "@neglabel"
}

// negativeLabelling renames every negated (or aggregated-over) non-input
// atom to its @neglabel twin and copies the defining subgraph: every
// clause of a scheduled relation is duplicated with same-stratum body
// atoms relabelled.
func negativeLabelling(set *analysis.Set) bool {
	prog := set.Program()
	io := set.IO()
	scc := set.SCC()

	toLabel := make(map[string]ast.QualifiedName)
	schedule := func(name ast.QualifiedName) {
		toLabel[name.String()] = name
	}

	// Rename appearances of negated predicates.
	ast.VisitProgram(prog, func(neg *ast.Negation) {
		name := neg.Atom.Name
		if io.IsInput(name) || isNegLabelled(name) {
			return
		}
		neg.Atom.Name = negLabel(name)
		schedule(name)
	})
	ast.VisitProgram(prog, func(aggr *ast.Aggregator) {
		for _, lit := range aggr.Body {
			ast.Visit(lit, func(atom *ast.Atom) {
				name := atom.Name
				if io.IsInput(name) || isNegLabelled(name) {
					return
				}
				atom.Name = negLabel(name)
				schedule(name)
			})
		}
	})

	if len(toLabel) == 0 {
		return false
	}

	// Copy the rules for scheduled relations one stratum at a time,
	// relabelling same-stratum body references so recursion stays inside
	// the copy.
	var copies []*ast.Clause
	for stratum := 0; stratum < scc.NumSCCs(); stratum++ {
		members := scc.RelationsIn(stratum)
		inStratum := make(map[string]bool, len(members))
		for _, rel := range members {
			inStratum[rel.String()] = true
		}

		// Relabelling can schedule further same-stratum relations, so keep
		// sweeping the stratum until no new relation needs copying.
		copied := make(map[string]bool)
		for progress := true; progress; {
			progress = false
			for _, relName := range members {
				key := relName.String()
				if _, scheduled := toLabel[key]; !scheduled || copied[key] {
					continue
				}
				copied[key] = true
				progress = true
				for _, clause := range prog.ClausesOf(relName) {
					twin := clause.Clone()
					twin.Generated = true
					ast.RenameAtoms(twin, func(name ast.QualifiedName) (ast.QualifiedName, bool) {
						if inStratum[name.String()] {
							schedule(name)
							return negLabel(name), true
						}
						return name, false
					})
					copies = append(copies, twin)
				}
			}
		}
	}

	// Declare the labelled twins in declaration order.
	for _, rel := range prog.Relations() {
		if original, scheduled := toLabel[rel.Name.String()]; scheduled && rel.Name.Equal(original) {
			twin := rel.Clone()
			twin.Name = negLabel(rel.Name)
			twin.SrcLoc = ast.SrcLoc{}
			prog.AddRelation(twin)
		}
	}
	for _, clause := range copies {
		prog.AddClause(clause)
	}

	return true
}

// positiveLabelling duplicates, per negatively labelled stratum, the
// positive strata it depends on, so magic restrictions computed for the
// negated copy cannot leak into the positive evaluation.
func positiveLabelling(set *analysis.Set) bool {
	prog := set.Program()
	io := set.IO()
	scc := set.SCC()
	prec := set.Precedence()

	numStrata := scc.NumSCCs()
	labelledStrata := make(map[int]bool)
	copyCount := make(map[int]int)

	for stratum := 0; stratum < numStrata; stratum++ {
		members := scc.RelationsIn(stratum)
		negCount := 0
		for _, rel := range members {
			if isNegLabelled(rel) {
				negCount++
			}
		}
		if negCount != 0 && negCount != len(members) {
			panic(fmt.Sprintf("transform: stratum %d mixes neglabelled and unlabelled relations", stratum))
		}
		if negCount > 0 {
			labelledStrata[stratum] = true
		} else {
			copyCount[stratum] = 0
		}
	}

	// dependentStrata[p] holds every stratum that transitively depends on
	// a relation of p.
	dependentStrata := make(map[int]map[int]bool)
	for stratum := 0; stratum < numStrata; stratum++ {
		dependentStrata[stratum] = make(map[int]bool)
	}
	for _, rel := range prog.Relations() {
		stratum := scc.SCCOf(rel.Name)
		if stratum < 0 {
			continue
		}
		visited := make(map[string]bool)
		stack := append([]ast.QualifiedName(nil), prec.Dependents(rel.Name)...)
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[cur.String()] {
				continue
			}
			visited[cur.String()] = true
			if depStratum := scc.SCCOf(cur); depStratum >= 0 {
				dependentStrata[stratum][depStratum] = true
			}
			stack = append(stack, prec.Dependents(cur)...)
		}
	}

	changed := false
	for stratum := 0; stratum < numStrata; stratum++ {
		if !labelledStrata[stratum] {
			continue
		}
		members := scc.RelationsIn(stratum)

		// Relabel the positive references inside the labelled stratum's
		// clauses with the next copy number of their own stratum.
		for _, relName := range members {
			clauses := prog.ClausesOf(relName)
			relsToCopy := make(map[string]bool)
			for _, clause := range clauses {
				ast.Visit(clause, func(atom *ast.Atom) {
					name := atom.Name
					if !io.IsInput(name) && !isNegLabelled(name) {
						relsToCopy[name.String()] = true
					}
				})
			}
			for _, clause := range clauses {
				relabelPositiveAtoms(clause, scc, copyCount, relsToCopy)
				changed = true
			}
		}

		// Emit a numbered copy of every predecessor stratum this one
		// depends on.
		globalRelsToCopy := make(map[string]bool)
		for _, rel := range prog.Relations() {
			if !io.IsInput(rel.Name) && !isNegLabelled(rel.Name) {
				globalRelsToCopy[rel.Name.String()] = true
			}
		}

		for preStratum := stratum - 1; preStratum >= 0; preStratum-- {
			if labelledStrata[preStratum] {
				continue
			}
			if !dependentStrata[preStratum][stratum] {
				continue
			}
			for _, relName := range scc.RelationsIn(preStratum) {
				if io.IsInput(relName) {
					continue
				}
				for _, clause := range prog.ClausesOf(relName) {
					copy := clause.Clone()
					copy.Generated = true
					relabelPositiveAtoms(copy, scc, copyCount, globalRelsToCopy)
					prog.AddClause(copy)
				}
			}
			copyCount[preStratum]++
			changed = true
		}
	}

	// Declare the relation copies.
	for stratum := 0; stratum < numStrata; stratum++ {
		count := copyCount[stratum]
		for copy := 0; copy < count; copy++ {
			for _, relName := range scc.RelationsIn(stratum) {
				rel := prog.Relation(relName)
				if rel == nil {
					continue
				}
				twin := rel.Clone()
				twin.Name = relName.Prepend(fmt.Sprintf("@poscopy_%d", copy+1))
				twin.SrcLoc = ast.SrcLoc{}
				prog.AddRelation(twin)
			}
		}
	}

	return changed
}

// relabelPositiveAtoms renames every atom of the clause that lies in
// relsToCopy with the @poscopy prefix numbered after its own stratum's
// copy count.
func relabelPositiveAtoms(clause *ast.Clause, scc *analysis.SCCGraph, copyCount map[int]int, relsToCopy map[string]bool) {
	ast.RenameAtoms(clause, func(name ast.QualifiedName) (ast.QualifiedName, bool) {
		if !relsToCopy[name.String()] {
			return name, false
		}
		stratum := scc.SCCOf(name)
		if stratum < 0 {
			return name, false
		}
		return name.Prepend(fmt.Sprintf("@poscopy_%d", copyCount[stratum]+1)), true
	})
}
