package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratlang/stratum/internal/analysis"
	"github.com/stratlang/stratum/internal/ast"
)

// negationProgram: O(x) :- A(x), !B(x).  B(x) :- C(x).  C(x) :- D(x).
// A and D are inputs, O is output.
func negationProgram() *ast.Program {
	p := ast.NewProgram()
	declare(p, "O", 1)
	declare(p, "A", 1)
	declare(p, "B", 1)
	declare(p, "C", 1)
	declare(p, "D", 1)
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveOutput, Relation: ast.Name("O")})
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("A")})
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("D")})
	p.AddClause(rule(atom("O", variable("x")), atom("A", variable("x")),
		&ast.Negation{Atom: atom("B", variable("x"))}))
	p.AddClause(rule(atom("B", variable("x")), atom("C", variable("x"))))
	p.AddClause(rule(atom("C", variable("x")), atom("D", variable("x"))))
	return p
}

func TestNegativeLabelling(t *testing.T) {
	p := negationProgram()
	set := analysis.NewSet(p)
	require.True(t, negativeLabelling(set))

	// The negated occurrence was renamed and the twin declared.
	assert.NotNil(t, findClause(p, "O(x) :- A(x), !@neglabel.B(x)."))
	require.NotNil(t, p.Relation(ast.Name("@neglabel").Append("B")))

	// The defining clause was copied under the label; cross-stratum body
	// atoms keep their names.
	assert.NotNil(t, findClause(p, "@neglabel.B(x) :- C(x)."))

	// The original definition survives untouched.
	assert.NotNil(t, findClause(p, "B(x) :- C(x)."))
}

func TestNegativeLabellingSkipsInputs(t *testing.T) {
	p := ast.NewProgram()
	declare(p, "O", 1)
	declare(p, "A", 1)
	declare(p, "B", 1)
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("A")})
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("B")})
	p.AddClause(rule(atom("O", variable("x")), atom("A", variable("x")),
		&ast.Negation{Atom: atom("B", variable("x"))}))

	set := analysis.NewSet(p)
	assert.False(t, negativeLabelling(set), "negated inputs need no labelling")
	assert.NotNil(t, findClause(p, "O(x) :- A(x), !B(x)."))
}

func TestNegativeLabellingCopiesRecursion(t *testing.T) {
	// B is recursive: the copy must relabel the same-SCC body atom so the
	// recursion stays inside the labelled twin.
	p := ast.NewProgram()
	declare(p, "O", 1)
	declare(p, "A", 1)
	declare(p, "B", 1)
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveOutput, Relation: ast.Name("O")})
	p.AddDirective(&ast.Directive{Kind: ast.DirectiveInput, Relation: ast.Name("A")})
	p.AddClause(rule(atom("O", variable("x")), atom("A", variable("x")),
		&ast.Negation{Atom: atom("B", variable("x"))}))
	p.AddClause(rule(atom("B", variable("x")), atom("A", variable("x"))))
	p.AddClause(rule(atom("B", variable("x")), atom("B", variable("x"))))

	set := analysis.NewSet(p)
	require.True(t, negativeLabelling(set))

	assert.NotNil(t, findClause(p, "@neglabel.B(x) :- A(x)."))
	assert.NotNil(t, findClause(p, "@neglabel.B(x) :- @neglabel.B(x)."))
}

func TestPositiveLabellingCopiesSharedStratum(t *testing.T) {
	p := negationProgram()
	set := analysis.NewSet(p)
	require.True(t, Label{}.Apply(set, testContext()))

	// The labelled stratum's positive reference was renumbered.
	assert.NotNil(t, findClause(p, "@neglabel.B(x) :- @poscopy_1.C(x)."))

	// The copied positive subgraph exists alongside the original.
	require.NotNil(t, p.Relation(ast.Name("@poscopy_1").Append("C")))
	assert.NotNil(t, findClause(p, "@poscopy_1.C(x) :- D(x)."))
	assert.NotNil(t, findClause(p, "C(x) :- D(x)."))
}

func TestLabelPreservesStratification(t *testing.T) {
	// Property: after labelling, no SCC contains a negation of one of its
	// own members.
	p := negationProgram()
	set := analysis.NewSet(p)
	Label{}.Apply(set, testContext())
	set.Invalidate()

	scc := set.SCC()
	for _, clause := range set.Program().Clauses() {
		ast.Visit(clause, func(neg *ast.Negation) {
			assert.False(t, scc.SameSCC(clause.Head.Name, neg.Atom.Name),
				"clause %s negates inside its own stratum", ast.PrintClause(clause))
		})
	}
}
