package semcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stratlang/stratum/internal/ast"
	"github.com/stratlang/stratum/internal/diag"
)

func TestWitnessProblemDetected(t *testing.T) {
	// A(x, y) :- x = count : { B(y) }.  y escapes the aggregator scope.
	p := ast.NewProgram()
	declare(p, "A", "number", "number")
	declare(p, "B", "number")
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("B")})
	p.AddClause(rule(atom("A", variable("x"), variable("y")),
		&ast.BinaryConstraint{
			Op:  ast.BinOpEQ,
			LHS: variable("x"),
			RHS: &ast.Aggregator{Op: ast.AggregateCount, Body: []ast.Literal{atom("B", variable("y"))}},
		}))

	d := requireCode(t, check(p), diag.CodeWitnessProblem)
	assert.Contains(t, d.Primary.Text, "Witness problem")
}

func TestWitnessOkWhenGroundedOutside(t *testing.T) {
	// A(x, y) :- C(y), x = count : { B(y) }.  y is grounded positively
	// outside the aggregator, so there is no escape.
	p := ast.NewProgram()
	declare(p, "A", "number", "number")
	declare(p, "B", "number")
	declare(p, "C", "number")
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("B")})
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("C")})
	p.AddClause(rule(atom("A", variable("x"), variable("y")),
		atom("C", variable("y")),
		&ast.BinaryConstraint{
			Op:  ast.BinOpEQ,
			LHS: variable("x"),
			RHS: &ast.Aggregator{Op: ast.AggregateCount, Body: []ast.Literal{atom("B", variable("y"))}},
		}))

	for _, d := range check(p).All() {
		assert.NotEqual(t, diag.CodeWitnessProblem, d.Code)
	}
}

func TestWitnessOkWhenConfinedToAggregator(t *testing.T) {
	// A(x) :- x = count : { B(y) }.  y never leaves the aggregator body.
	p := ast.NewProgram()
	declare(p, "A", "number")
	declare(p, "B", "number")
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("B")})
	p.AddClause(rule(atom("A", variable("x")),
		&ast.BinaryConstraint{
			Op:  ast.BinOpEQ,
			LHS: variable("x"),
			RHS: &ast.Aggregator{Op: ast.AggregateCount, Body: []ast.Literal{atom("B", variable("y"))}},
		}))

	for _, d := range check(p).All() {
		assert.NotEqual(t, diag.CodeWitnessProblem, d.Code)
	}
}

func TestWitnessInNestedAggregator(t *testing.T) {
	// A(x, w) :- x = sum z : { B(z), z2 = count : { C(w) } }.  w escapes the
	// inner aggregator into the head.
	inner := &ast.Aggregator{Op: ast.AggregateCount, Body: []ast.Literal{atom("C", variable("w"))}}
	outer := &ast.Aggregator{
		Op:     ast.AggregateSum,
		Target: variable("z"),
		Body: []ast.Literal{
			atom("B", variable("z")),
			&ast.BinaryConstraint{Op: ast.BinOpEQ, LHS: variable("z2"), RHS: inner},
		},
	}

	p := ast.NewProgram()
	declare(p, "A", "number", "number")
	declare(p, "B", "number")
	declare(p, "C", "number")
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("B")})
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("C")})
	p.AddClause(rule(atom("A", variable("x"), variable("w")),
		&ast.BinaryConstraint{Op: ast.BinOpEQ, LHS: variable("x"), RHS: outer}))

	requireCode(t, check(p), diag.CodeWitnessProblem)
}
