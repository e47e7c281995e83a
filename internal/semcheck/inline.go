package semcheck

import (
	"strings"

	"github.com/stratlang/stratum/internal/analysis"
	"github.com/stratlang/stratum/internal/ast"
	"github.com/stratlang/stratum/internal/diag"
)

// checkInlining validates the legality of the inline qualifier: inlined
// relations must not be I/O, must not be cyclically dependent on each
// other, must not involve counters, must not appear in aggregators, and
// must not appear negated when they introduce body-only or unnamed
// variables.
func (c *checker) checkInlining() {
	io := c.set.IO()
	prec := c.set.Precedence()

	var inlined []*ast.Relation
	inlinedNames := make(map[string]bool)
	for _, rel := range c.prog.Relations() {
		if !rel.IsInline() {
			continue
		}
		inlined = append(inlined, rel)
		inlinedNames[rel.Name.String()] = true
		if io.IsIO(rel.Name) {
			diag.Errorf(c.rep, diag.CodeBadInlining, rel.SrcLoc,
				"IO relation %s cannot be inlined", rel.Name)
		}
	}

	// Check 1: the subgraph of the precedence graph restricted to inlined
	// relations must be acyclic, or expansion would not terminate.
	if cycle := findInlineCycle(prec, inlined, inlinedNames); len(cycle) > 0 {
		names := make([]string, len(cycle))
		for i, n := range cycle {
			names[i] = n.String()
		}
		var loc ast.SrcLoc
		if rel := c.prog.Relation(cycle[0]); rel != nil {
			loc = rel.SrcLoc
		}
		diag.Errorf(c.rep, diag.CodeBadInlining, loc,
			"Cannot inline cyclically dependent relations {%s}", strings.Join(names, ", "))
	}

	// Check 2: counters cannot survive inlining.
	ast.VisitProgram(c.prog, func(atom *ast.Atom) {
		if !inlinedNames[atom.Name.String()] {
			return
		}
		ast.Visit(atom, func(ctr *ast.Counter) {
			diag.Errorf(c.rep, diag.CodeBadInlining, ctr.SrcLoc,
				"Cannot inline literal containing a counter argument '$'")
		})
	})
	for _, rel := range inlined {
		for _, clause := range c.prog.ClausesOf(rel.Name) {
			ast.Visit(clause, func(ctr *ast.Counter) {
				diag.Errorf(c.rep, diag.CodeBadInlining, ctr.SrcLoc,
					"Cannot inline clause containing a counter argument '$'")
			})
		}
	}

	// Check 3: a negated inlined relation must not introduce body-only
	// variables, which would become ungrounded after expansion.
	nonNegatable := make(map[string]bool)
	for _, rel := range inlined {
		for _, clause := range c.prog.ClausesOf(rel.Name) {
			headVars := make(map[string]bool)
			ast.Visit(clause.Head, func(v *ast.Variable) { headVars[v.Name] = true })

			introduces := false
			for _, lit := range clause.Body {
				ast.Visit(lit, func(v *ast.Variable) {
					if !headVars[v.Name] {
						introduces = true
					}
				})
			}
			if introduces {
				nonNegatable[rel.Name.String()] = true
				break
			}
		}
	}
	ast.VisitProgram(c.prog, func(neg *ast.Negation) {
		if nonNegatable[neg.Atom.Name.String()] {
			diag.Errorf(c.rep, diag.CodeBadInlining, neg.SrcLoc,
				"Cannot inline negated relation which may introduce new variables")
		}
	})

	// Check 4: inlining inside aggregators changes aggregate results when
	// one expansion is empty, so it is rejected outright.
	ast.VisitProgram(c.prog, func(aggr *ast.Aggregator) {
		for _, lit := range aggr.Body {
			ast.Visit(lit, func(atom *ast.Atom) {
				if inlinedNames[atom.Name.String()] {
					diag.Errorf(c.rep, diag.CodeBadInlining, atom.SrcLoc,
						"Cannot inline relations that appear in aggregator")
				}
			})
		}
	})

	// Check 5: unnamed variables in a negated inlined atom would be named
	// during expansion and could appear multiple times, so they are
	// rejected unless nested inside an aggregator.
	ast.VisitProgram(c.prog, func(neg *ast.Negation) {
		if !inlinedNames[neg.Atom.Name.String()] {
			return
		}
		if loc, found := invalidUnderscore(neg.Atom); found {
			diag.Errorf(c.rep, diag.CodeBadInlining, loc,
				"Cannot inline negated atom containing an unnamed variable unless the variable is within an aggregator")
		}
	})
}

// invalidUnderscore searches for an unnamed variable outside aggregator
// scope, returning its location.
func invalidUnderscore(atom *ast.Atom) (ast.SrcLoc, bool) {
	var loc ast.SrcLoc
	found := false
	var search func(arg ast.Argument)
	search = func(arg ast.Argument) {
		if found {
			return
		}
		switch a := arg.(type) {
		case *ast.UnnamedVariable:
			loc, found = a.SrcLoc, true
		case *ast.TypeCast:
			search(a.Value)
		case *ast.IntrinsicFunctor:
			for _, sub := range a.Args {
				search(sub)
			}
		case *ast.UserDefinedFunctor:
			for _, sub := range a.Args {
				search(sub)
			}
		case *ast.RecordInit:
			for _, sub := range a.Args {
				search(sub)
			}
		case *ast.Aggregator:
			// Underscores within aggregators are automatically grounded.
		}
	}
	for _, arg := range atom.Args {
		search(arg)
	}
	return loc, found
}

// findInlineCycle returns one dependency cycle among inlined relations, or
// nil when the inlined subgraph is a DAG.
func findInlineCycle(prec *analysis.PrecedenceGraph, inlined []*ast.Relation, inlinedNames map[string]bool) []ast.QualifiedName {
	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)
	state := make(map[string]int)
	parent := make(map[string]string)
	nameOf := make(map[string]ast.QualifiedName)
	for _, rel := range inlined {
		nameOf[rel.Name.String()] = rel.Name
	}

	var cycle []string
	var dfs func(cur string) bool
	dfs = func(cur string) bool {
		state[cur] = visiting
		for _, succ := range prec.Successors(nameOf[cur]) {
			key := succ.String()
			if !inlinedNames[key] {
				continue
			}
			nameOf[key] = succ
			switch state[key] {
			case visited:
				continue
			case visiting:
				// Walk the parent chain back to close the cycle.
				cycle = append(cycle, key)
				for at := cur; at != key && at != ""; at = parent[at] {
					cycle = append(cycle, at)
				}
				return true
			default:
				parent[key] = cur
				if dfs(key) {
					return true
				}
			}
		}
		state[cur] = visited
		return false
	}

	for _, rel := range inlined {
		key := rel.Name.String()
		if state[key] == unvisited {
			if dfs(key) {
				break
			}
		}
	}

	if len(cycle) == 0 {
		return nil
	}
	// Reverse to report the cycle in traversal order.
	out := make([]ast.QualifiedName, 0, len(cycle))
	for i := len(cycle) - 1; i >= 0; i-- {
		out = append(out, nameOf[cycle[i]])
	}
	return out
}
