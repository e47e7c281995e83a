package semcheck

import (
	"fmt"

	"github.com/stratlang/stratum/internal/analysis"
	"github.com/stratlang/stratum/internal/ast"
	"github.com/stratlang/stratum/internal/diag"
)

// checkWitnessProblem detects variables that are grounded only inside an
// aggregator body yet used ungrounded outside it. The detection is
// differential: clone the body twice, keep aggregators intact in one clone
// and replace them with intrinsically grounded fresh variables in the
// other, then compare per-node groundedness. A node ungrounded in the
// aggregator-less clone but grounded in the original was grounded purely
// through aggregator scope escape.
func (c *checker) checkWitnessProblem() {
	for _, clause := range c.prog.Clauses() {
		literals := append([]ast.Literal(nil), clause.Body...)

		// Smuggle the head variables in under a negation: they must be
		// checked but must not ground anything.
		headProbe := &ast.Atom{Name: ast.Name("*")}
		ast.Visit(clause.Head, func(v *ast.Variable) {
			headProbe.Args = append(headProbe.Args, v.Clone())
		})
		literals = append(literals, &ast.Negation{Atom: headProbe})

		for _, loc := range c.usesInvalidWitness(literals, nil) {
			diag.Errorf(c.rep, diag.CodeWitnessProblem, loc,
				"Witness problem: argument grounded by an aggregator's inner scope is used ungrounded in outer scope")
		}
	}
}

func (c *checker) usesInvalidWitness(literals []ast.Literal, groundedArgs []ast.Argument) []ast.SrcLoc {
	var locs []ast.SrcLoc

	// Two synthetic clauses over the same body. Clone pairs are built
	// literal by literal so that corresponding argument nodes line up.
	original := &ast.Clause{Head: &ast.Atom{Name: ast.Name("*")}}
	aggregatorless := &ast.Clause{Head: &ast.Atom{Name: ast.Name("*")}}
	counterpart := make(map[ast.Argument]ast.Argument) // aggregatorless node -> original node

	for _, lit := range literals {
		first := lit.Clone()
		second := lit.Clone()

		var firstArgs, secondArgs []ast.Argument
		ast.Visit(first, func(arg ast.Argument) { firstArgs = append(firstArgs, arg) })
		ast.Visit(second, func(arg ast.Argument) { secondArgs = append(secondArgs, arg) })
		for i := range secondArgs {
			counterpart[secondArgs[i]] = firstArgs[i]
		}

		original.Body = append(original.Body, first)
		aggregatorless.Body = append(aggregatorless.Body, second)
	}

	// Replace aggregators in the second clone with fresh variables.
	var aggregatorVars []string
	for _, lit := range aggregatorless.Body {
		ast.MapLiteralArguments(lit, func(arg ast.Argument) ast.Argument {
			if _, ok := arg.(*ast.Aggregator); ok {
				name := fmt.Sprintf("+aggr_var_%d", c.aggrVarCount)
				c.aggrVarCount++
				aggregatorVars = append(aggregatorVars, name)
				return &ast.Variable{Name: name, SrcLoc: arg.Loc()}
			}
			return arg
		})
	}

	// A dummy atom forces the replacement variables and the already
	// grounded arguments to be grounded in both clauses.
	groundingAggregatorless := &ast.Atom{Name: ast.Name("+grounding_atom")}
	groundingOriginal := &ast.Atom{Name: ast.Name("+grounding_atom")}
	for _, name := range aggregatorVars {
		groundingAggregatorless.Args = append(groundingAggregatorless.Args, &ast.Variable{Name: name})
	}
	for _, arg := range groundedArgs {
		groundingAggregatorless.Args = append(groundingAggregatorless.Args, arg.Clone())
		groundingOriginal.Args = append(groundingOriginal.Args, arg.Clone())
	}
	aggregatorless.Body = append(aggregatorless.Body, groundingAggregatorless)
	original.Body = append(original.Body, groundingOriginal)

	originalGrounded := analysis.GroundedTerms(original)
	aggregatorlessGrounded := analysis.GroundedTerms(aggregatorless)

	// Deterministic node order for reporting.
	var newlyGrounded []ast.Argument
	for _, lit := range aggregatorless.Body {
		ast.Visit(lit, func(arg ast.Argument) {
			if !aggregatorlessGrounded[arg] && originalGrounded[counterpart[arg]] {
				locs = append(locs, arg.Loc())
			}
			if aggregatorlessGrounded[arg] {
				newlyGrounded = append(newlyGrounded, arg.Clone())
			}
		})
	}
	for _, arg := range groundedArgs {
		newlyGrounded = append(newlyGrounded, arg.Clone())
	}

	// Recurse into each aggregator body with the enlarged grounded set.
	for _, lit := range literals {
		ast.Visit(lit, func(aggr *ast.Aggregator) {
			locs = append(locs, c.usesInvalidWitness(aggr.Body, newlyGrounded)...)
		})
	}

	return locs
}
