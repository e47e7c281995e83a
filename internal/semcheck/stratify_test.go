package semcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stratlang/stratum/internal/ast"
	"github.com/stratlang/stratum/internal/diag"
)

func TestCyclicNegationRejected(t *testing.T) {
	// A(x) :- B(x).  B(x) :- C(x), !A(x).
	p := ast.NewProgram()
	declare(p, "A", "number")
	declare(p, "B", "number")
	declare(p, "C", "number")
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("C")})
	p.AddClause(rule(atom("A", variable("x")), atom("B", variable("x"))))
	p.AddClause(rule(atom("B", variable("x")), atom("C", variable("x")),
		&ast.Negation{Atom: atom("A", variable("x"))}))

	d := requireCode(t, check(p), diag.CodeUnstratifiable)
	assert.Contains(t, d.Primary.Text, "Unable to stratify")
	assert.NotEmpty(t, d.Secondary, "stratification errors carry diagnostic links")
}

func TestCyclicAggregationRejected(t *testing.T) {
	// A(x) :- x = count : { A(y) }.
	p := ast.NewProgram()
	declare(p, "A", "number")
	p.AddClause(rule(atom("A", variable("x")),
		&ast.BinaryConstraint{
			Op:  ast.BinOpEQ,
			LHS: variable("x"),
			RHS: &ast.Aggregator{Op: ast.AggregateCount, Body: []ast.Literal{atom("A", variable("y"))}},
		}))

	d := requireCode(t, check(p), diag.CodeUnstratifiable)
	found := false
	for _, m := range d.Secondary {
		if m.Text == "has cyclic aggregation" {
			found = true
		}
	}
	assert.True(t, found, "secondary messages: %v", d.Secondary)
}

func TestStratifiedNegationAccepted(t *testing.T) {
	// Negation across strata is legal: A(x) :- B(x), !C(x). with C not
	// depending on A.
	p := ast.NewProgram()
	declare(p, "A", "number")
	declare(p, "B", "number")
	declare(p, "C", "number")
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("B")})
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("C")})
	p.AddClause(rule(atom("A", variable("x")), atom("B", variable("x")),
		&ast.Negation{Atom: atom("C", variable("x"))}))

	for _, d := range check(p).All() {
		assert.NotEqual(t, diag.CodeUnstratifiable, d.Code)
	}
}

func TestRecursionWithoutNegationAccepted(t *testing.T) {
	p := ast.NewProgram()
	declare(p, "edge", "number", "number")
	declare(p, "path", "number", "number")
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("edge")})
	p.AddClause(rule(atom("path", variable("x"), variable("y")), atom("edge", variable("x"), variable("y"))))
	p.AddClause(rule(atom("path", variable("x"), variable("y")),
		atom("path", variable("x"), variable("z")), atom("edge", variable("z"), variable("y"))))

	for _, d := range check(p).All() {
		assert.NotEqual(t, diag.CodeUnstratifiable, d.Code)
	}
}
