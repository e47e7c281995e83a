package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func variable(name string) *Variable { return &Variable{Name: name} }

func atom(rel string, args ...Argument) *Atom {
	return &Atom{Name: Name(rel), Args: args}
}

func TestCloneIsDeep(t *testing.T) {
	clause := &Clause{
		Head: atom("path", variable("x"), variable("y")),
		Body: []Literal{
			atom("edge", variable("x"), variable("y")),
			&Negation{Atom: atom("blocked", variable("x"))},
			&BinaryConstraint{Op: BinOpNE, LHS: variable("x"), RHS: &NumberConstant{Value: 3}},
		},
	}

	clone := clause.Clone()
	require.True(t, EqualClause(clause, clone))

	// Mutating the clone must not leak into the original.
	clone.Body[0].(*Atom).Name = Name("other")
	clone.Head.Args[0] = variable("z")
	assert.Equal(t, "edge", clause.Body[0].(*Atom).Name.String())
	assert.Equal(t, "x", clause.Head.Args[0].(*Variable).Name)
	assert.False(t, EqualClause(clause, clone))
}

func TestWalkVisitsNestedScopes(t *testing.T) {
	aggr := &Aggregator{
		Op:     AggregateSum,
		Target: variable("z"),
		Body:   []Literal{atom("b", variable("z"), variable("w"))},
	}
	clause := &Clause{
		Head: atom("a", variable("x")),
		Body: []Literal{
			&BinaryConstraint{Op: BinOpEQ, LHS: variable("x"), RHS: aggr},
		},
	}

	var vars []string
	Visit(clause, func(v *Variable) { vars = append(vars, v.Name) })
	assert.Equal(t, []string{"x", "x", "z", "z", "w"}, vars)

	var atoms []string
	Visit(clause, func(a *Atom) { atoms = append(atoms, a.Name.String()) })
	assert.Equal(t, []string{"a", "b"}, atoms)
}

func TestMapArgumentIsPostOrder(t *testing.T) {
	fun := &IntrinsicFunctor{
		Op:   FunctorAdd,
		Args: []Argument{&NumberConstant{Value: 1}, &NumberConstant{Value: 2}},
	}
	a := atom("r", fun)

	var order []string
	MapAtomArguments(a, func(arg Argument) Argument {
		switch arg.(type) {
		case *NumberConstant:
			order = append(order, "const")
		case *IntrinsicFunctor:
			order = append(order, "functor")
		}
		return arg
	})
	assert.Equal(t, []string{"const", "const", "functor"}, order)
}

func TestMapArgumentReplaces(t *testing.T) {
	a := atom("r", &NumberConstant{Value: 7}, variable("x"))
	MapAtomArguments(a, func(arg Argument) Argument {
		if _, ok := arg.(*NumberConstant); ok {
			return variable("fresh")
		}
		return arg
	})
	require.Len(t, a.Args, 2)
	assert.Equal(t, "fresh", a.Args[0].(*Variable).Name)
	assert.Equal(t, "x", a.Args[1].(*Variable).Name)
}

func TestRenameAtomsReachesNegationsAndAggregators(t *testing.T) {
	clause := &Clause{
		Head: atom("a", variable("x")),
		Body: []Literal{
			&Negation{Atom: atom("b", variable("x"))},
			&BinaryConstraint{
				Op:  BinOpEQ,
				LHS: variable("c"),
				RHS: &Aggregator{Op: AggregateCount, Body: []Literal{atom("b", variable("y"))}},
			},
		},
	}

	RenameAtoms(clause, func(name QualifiedName) (QualifiedName, bool) {
		if name.String() == "b" {
			return name.Prepend("@neglabel"), true
		}
		return name, false
	})

	neg := clause.Body[0].(*Negation)
	assert.Equal(t, "@neglabel.b", neg.Atom.Name.String())
	aggr := clause.Body[1].(*BinaryConstraint).RHS.(*Aggregator)
	assert.Equal(t, "@neglabel.b", aggr.Body[0].(*Atom).Name.String())
	assert.Equal(t, "a", clause.Head.Name.String())
}

func TestProgramLookupAndRemove(t *testing.T) {
	p := NewProgram()
	p.AddRelation(&Relation{Name: Name("edge"), Attributes: []Attribute{{Name: "a", Type: Name(NumberName)}}})
	p.AddRelation(&Relation{Name: Name("path"), Attributes: []Attribute{{Name: "a", Type: Name(NumberName)}}})

	c1 := &Clause{Head: atom("path", variable("x")), Body: []Literal{atom("edge", variable("x"))}}
	c2 := &Clause{Head: atom("edge", &NumberConstant{Value: 1})}
	p.AddClause(c1)
	p.AddClause(c2)

	require.NotNil(t, p.Relation(Name("edge")))
	assert.Nil(t, p.Relation(Name("missing")))
	assert.Len(t, p.ClausesOf(Name("path")), 1)

	p.RemoveClause(c1)
	assert.Len(t, p.Clauses(), 1)
	assert.Empty(t, p.ClausesOf(Name("path")))
}

func TestProgramCloneIsIndependent(t *testing.T) {
	p := NewProgram()
	p.AddRelation(&Relation{Name: Name("r"), Attributes: []Attribute{{Name: "a", Type: Name(NumberName)}}})
	p.AddClause(&Clause{Head: atom("r", &NumberConstant{Value: 1})})
	p.AddDirective(&Directive{Kind: DirectiveOutput, Relation: Name("r")})

	clone := p.Clone()
	clone.Relation(Name("r")).Name = Name("renamed")
	clone.Clauses()[0].Head.Name = Name("renamed")

	assert.Equal(t, "r", p.Relations()[0].Name.String())
	assert.Equal(t, "r", p.Clauses()[0].Head.Name.String())
}

func TestOrderIsComplete(t *testing.T) {
	assert.True(t, (&Order{Positions: []int{2, 0, 1}}).IsComplete())
	assert.False(t, (&Order{Positions: []int{0, 0, 1}}).IsComplete())
	assert.False(t, (&Order{Positions: []int{0, 3, 1}}).IsComplete())
	assert.True(t, (&Order{}).IsComplete())
}
