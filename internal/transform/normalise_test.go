package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratlang/stratum/internal/analysis"
	"github.com/stratlang/stratum/internal/ast"
	"github.com/stratlang/stratum/internal/config"
)

func variable(name string) *ast.Variable { return &ast.Variable{Name: name} }

func atom(rel string, args ...ast.Argument) *ast.Atom {
	return &ast.Atom{Name: ast.ParseName(rel), Args: args}
}

func rule(head *ast.Atom, body ...ast.Literal) *ast.Clause {
	return &ast.Clause{Head: head, Body: body}
}

func declare(p *ast.Program, name string, arity int) {
	rel := &ast.Relation{Name: ast.Name(name)}
	for i := 0; i < arity; i++ {
		rel.Attributes = append(rel.Attributes, ast.Attribute{
			Name: string(rune('a' + i)),
			Type: ast.Name(ast.NumberName),
		})
	}
	p.AddRelation(rel)
}

func testContext() Context {
	return Context{Opts: config.Default()}
}

func findClause(p *ast.Program, rendered string) *ast.Clause {
	for _, c := range p.Clauses() {
		if ast.PrintClause(c) == rendered {
			return c
		}
	}
	return nil
}

func TestPartitionIO(t *testing.T) {
	p := ast.NewProgram()
	declare(p, "R", 2)
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("R")})
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveOutput, Relation: ast.Name("R")})

	set := analysis.NewSet(p)
	require.True(t, partitionIO(set))

	split := p.Relation(ast.Name("@split_in").Append("R"))
	require.NotNil(t, split, "split relation declared")
	assert.Equal(t, 2, split.Arity())

	// Input directive moved to the split relation with a default fact file.
	var inputRel string
	var filename string
	for _, d := range p.Directives() {
		if d.Kind == ast.DirectiveInput {
			inputRel = d.Relation.String()
			filename, _ = d.Param("filename")
		}
	}
	assert.Equal(t, "@split_in.R", inputRel)
	assert.Equal(t, "R.facts", filename)

	assert.NotNil(t, findClause(p, "R(@var0,@var1) :- @split_in.R(@var0,@var1)."))
}

func TestExtractIDB(t *testing.T) {
	// E is input but also derived by a rule; Q reads E.
	p := ast.NewProgram()
	declare(p, "E", 1)
	declare(p, "F", 1)
	declare(p, "Q", 1)
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("E")})
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("F")})
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveOutput, Relation: ast.Name("Q")})
	p.AddClause(rule(atom("E", variable("x")), atom("F", variable("x"))))
	p.AddClause(rule(atom("Q", variable("x")), atom("E", variable("x"))))

	set := analysis.NewSet(p)
	require.True(t, extractIDB(set))

	require.NotNil(t, p.Relation(ast.Name("@interm_in").Append("E")))

	// The original rule now derives the twin, Q reads the twin, and the
	// copy rule pulls the input facts across.
	assert.NotNil(t, findClause(p, "@interm_in.E(x) :- F(x)."))
	assert.NotNil(t, findClause(p, "Q(x) :- @interm_in.E(x)."))
	assert.NotNil(t, findClause(p, "@interm_in.E(@query_x0) :- E(@query_x0)."))

	// E itself is fact-only afterwards.
	for _, c := range p.ClausesOf(ast.Name("E")) {
		assert.True(t, c.IsFact())
	}
}

func TestExtractIDBSkipsFactOnlyInputs(t *testing.T) {
	p := ast.NewProgram()
	declare(p, "E", 1)
	declare(p, "Q", 1)
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("E")})
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveOutput, Relation: ast.Name("Q")})
	p.AddClause(rule(atom("Q", variable("x")), atom("E", variable("x"))))

	set := analysis.NewSet(p)
	assert.False(t, extractIDB(set))
	assert.Nil(t, p.Relation(ast.Name("@interm_in").Append("E")))
}

func TestNameConstants(t *testing.T) {
	// A(x, 3) :- B(x, "s").
	p := ast.NewProgram()
	declare(p, "A", 2)
	declare(p, "B", 2)
	p.AddClause(rule(atom("A", variable("x"), &ast.NumberConstant{Value: 3}),
		atom("B", variable("x"), &ast.StringConstant{Value: "s"})))

	set := analysis.NewSet(p)
	require.True(t, nameConstants(set))

	clause := p.Clauses()[0]
	assert.Equal(t, `A(x,@abdul0) :- B(x,@abdul1), @abdul0 = 3, @abdul1 = "s".`, ast.PrintClause(clause))
}

func TestNameConstantsSkipsExistingEqualities(t *testing.T) {
	// A(x) :- B(x), x = 3.  The pre-existing equality is left untouched.
	p := ast.NewProgram()
	declare(p, "A", 1)
	declare(p, "B", 1)
	p.AddClause(rule(atom("A", variable("x")),
		atom("B", variable("x")),
		&ast.BinaryConstraint{Op: ast.BinOpEQ, LHS: variable("x"), RHS: &ast.NumberConstant{Value: 3}}))

	set := analysis.NewSet(p)
	assert.False(t, nameConstants(set))
	assert.Equal(t, "A(x) :- B(x), x = 3.", ast.PrintClause(p.Clauses()[0]))
}

func TestNameConstantsLiftsUnderscoresWithoutEquality(t *testing.T) {
	p := ast.NewProgram()
	declare(p, "A", 1)
	declare(p, "B", 2)
	p.AddClause(rule(atom("A", variable("x")),
		atom("B", variable("x"), &ast.UnnamedVariable{})))

	set := analysis.NewSet(p)
	require.True(t, nameConstants(set))
	assert.Equal(t, "A(x) :- B(x,@abdul0).", ast.PrintClause(p.Clauses()[0]))
}

func TestQuerifyOutputs(t *testing.T) {
	// Q is output and referenced in a body, so it must become a thin
	// projection.
	p := ast.NewProgram()
	declare(p, "Q", 1)
	declare(p, "E", 1)
	declare(p, "R", 1)
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("E")})
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveOutput, Relation: ast.Name("Q")})
	p.AddClause(rule(atom("Q", variable("x")), atom("E", variable("x"))))
	p.AddClause(rule(atom("R", variable("x")), atom("Q", variable("x"))))

	set := analysis.NewSet(p)
	require.True(t, querifyOutputs(set))

	require.NotNil(t, p.Relation(ast.Name("@interm_out").Append("Q")))
	assert.NotNil(t, findClause(p, "@interm_out.Q(x) :- E(x)."))
	assert.NotNil(t, findClause(p, "R(x) :- @interm_out.Q(x)."))
	assert.NotNil(t, findClause(p, "Q(@query_x0) :- @interm_out.Q(@query_x0)."))

	// Exactly one rule remains for Q: the bridge.
	assert.Len(t, p.ClausesOf(ast.Name("Q")), 1)
}

func TestQuerifySkipsThinOutputs(t *testing.T) {
	p := ast.NewProgram()
	declare(p, "Q", 1)
	declare(p, "E", 1)
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("E")})
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveOutput, Relation: ast.Name("Q")})
	p.AddClause(rule(atom("Q", variable("x")), atom("E", variable("x"))))

	set := analysis.NewSet(p)
	assert.False(t, querifyOutputs(set))
}

func TestNormaliseFactsStayConstantFree(t *testing.T) {
	// Property: after normalisation every rule body constant has been
	// lifted to an equality and facts contain only constants.
	p := ast.NewProgram()
	declare(p, "E", 1)
	declare(p, "Q", 1)
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("E")})
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveOutput, Relation: ast.Name("Q")})
	p.AddClause(&ast.Clause{Head: atom("E", &ast.NumberConstant{Value: 1})})
	p.AddClause(rule(atom("Q", variable("x")), atom("E", variable("x"))))

	set := analysis.NewSet(p)
	Normalise{}.Apply(set, testContext())

	for _, c := range set.Program().Clauses() {
		if c.IsFact() {
			for _, arg := range c.Head.Args {
				assert.True(t, ast.IsConstant(arg), "fact argument must stay constant: %s", ast.PrintClause(c))
			}
			continue
		}
		for _, a := range c.Atoms() {
			for _, arg := range a.Args {
				_, isVar := arg.(*ast.Variable)
				assert.True(t, isVar, "rule atom arguments are variables after normalise: %s", ast.PrintClause(c))
			}
		}
	}
}
