package semcheck

import (
	"fmt"
	"strings"

	"github.com/stratlang/stratum/internal/ast"
	"github.com/stratlang/stratum/internal/diag"
)

// checkStratification reports relations whose dependency cycle passes
// through a negation or an aggregation: such programs have no stratified
// bottom-up evaluation order.
func (c *checker) checkStratification() {
	prec := c.set.Precedence()

	for _, cur := range prec.Nodes() {
		if !prec.Reaches(cur, cur) {
			continue
		}
		clique := prec.Clique(cur)
		for _, member := range clique {
			found, isNegation := c.findCyclicLiteral(member, cur)
			if found == nil {
				continue
			}

			names := make([]string, len(clique))
			for i, rel := range clique {
				names[i] = rel.String()
			}
			negOrAgg := "aggregation"
			if isNegation {
				negOrAgg = "negation"
			}

			var curLoc ast.SrcLoc
			if rel := c.prog.Relation(cur); rel != nil {
				curLoc = rel.SrcLoc
			}
			c.rep.Report(diag.Diagnostic{
				Severity: diag.Error,
				Code:     diag.CodeUnstratifiable,
				Primary: diag.Message{
					Text: fmt.Sprintf("Unable to stratify relation(s) {%s}", strings.Join(names, ",")),
				},
				Secondary: []diag.Message{
					{Text: fmt.Sprintf("Relation %s", cur), Loc: curLoc},
					{Text: fmt.Sprintf("has cyclic %s", negOrAgg), Loc: found.Loc()},
				},
			})
			break
		}
	}
}

// findCyclicLiteral looks for a clause of `owner` that negates or
// aggregates over `target`. Returns the offending node and whether it was
// a negation.
func (c *checker) findCyclicLiteral(owner, target ast.QualifiedName) (ast.Node, bool) {
	for _, clause := range c.prog.ClausesOf(owner) {
		var foundNeg *ast.Negation
		ast.Visit(clause, func(neg *ast.Negation) {
			if foundNeg == nil && neg.Atom.Name.Equal(target) {
				foundNeg = neg
			}
		})
		if foundNeg != nil {
			return foundNeg, true
		}

		var foundAggAtom *ast.Atom
		ast.Visit(clause, func(aggr *ast.Aggregator) {
			for _, lit := range aggr.Body {
				ast.Visit(lit, func(atom *ast.Atom) {
					if foundAggAtom == nil && atom.Name.Equal(target) {
						foundAggAtom = atom
					}
				})
			}
		})
		if foundAggAtom != nil {
			return foundAggAtom, false
		}
	}
	return nil, false
}
