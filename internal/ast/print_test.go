package ast

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func samplePrintProgram() *Program {
	p := NewProgram()

	p.AddType(&PrimitiveType{Name: Name("N"), Numeric: true})
	p.AddType(&UnionType{Name: Name("V"), Members: []QualifiedName{Name(NumberName), Name("N")}})
	p.AddType(&RecordType{Name: Name("Pair"), Fields: []TypeField{
		{Name: "a", Type: Name(NumberName)},
		{Name: "b", Type: Name(SymbolName)},
	}})

	p.AddFunctor(&FunctorDeclaration{Name: "f", Params: []Kind{KindNumber}, Result: KindSymbol})

	p.AddRelation(&Relation{
		Name: Name("edge"),
		Attributes: []Attribute{
			{Name: "a", Type: Name(NumberName)},
			{Name: "b", Type: Name(NumberName)},
		},
		Representation: RepBtree,
	})
	p.AddRelation(&Relation{
		Name: Name("path"),
		Attributes: []Attribute{
			{Name: "a", Type: Name(NumberName)},
			{Name: "b", Type: Name(NumberName)},
		},
	})

	p.AddDirective(&Directive{Kind: DirectiveInput, Relation: Name("edge"), Params: map[string]string{"IO": "file"}})
	p.AddDirective(&Directive{Kind: DirectiveOutput, Relation: Name("path")})

	p.AddClause(&Clause{Head: atom("edge", &NumberConstant{Value: 1}, &NumberConstant{Value: 2})})
	p.AddClause(&Clause{
		Head: atom("path", variable("x"), variable("y")),
		Body: []Literal{atom("edge", variable("x"), variable("y"))},
	})
	p.AddClause(&Clause{
		Head: atom("path", variable("x"), variable("y")),
		Body: []Literal{
			atom("path", variable("x"), variable("z")),
			atom("edge", variable("z"), variable("y")),
		},
	})

	return p
}

func TestPrintGolden(t *testing.T) {
	g := goldie.New(t)
	g.Assert(t, "program", []byte(Print(samplePrintProgram())))
}

func TestPrintArgumentForms(t *testing.T) {
	assert.Equal(t, "_", PrintArgument(&UnnamedVariable{}))
	assert.Equal(t, "$", PrintArgument(&Counter{}))
	assert.Equal(t, `"a"`, PrintArgument(&StringConstant{Value: "a"}))
	assert.Equal(t, "-7", PrintArgument(&NumberConstant{Value: -7}))
	assert.Equal(t, "(x + 1)", PrintArgument(&IntrinsicFunctor{
		Op:   FunctorAdd,
		Args: []Argument{variable("x"), &NumberConstant{Value: 1}},
	}))
	assert.Equal(t, "cat(a,b)", PrintArgument(&IntrinsicFunctor{
		Op:   FunctorCat,
		Args: []Argument{variable("a"), variable("b")},
	}))
	assert.Equal(t, "as(x, T)", PrintArgument(&TypeCast{Value: variable("x"), Type: Name("T")}))
	assert.Equal(t, "[x, y]", PrintArgument(&RecordInit{Type: Name("Pair"), Args: []Argument{variable("x"), variable("y")}}))
	assert.Equal(t, "count : { b(y) }", PrintArgument(&Aggregator{
		Op:   AggregateCount,
		Body: []Literal{atom("b", variable("y"))},
	}))
	assert.Equal(t, "sum z : { b(z) }", PrintArgument(&Aggregator{
		Op:     AggregateSum,
		Target: variable("z"),
		Body:   []Literal{atom("b", variable("z"))},
	}))
}

func TestFingerprintIsStable(t *testing.T) {
	first := Fingerprint(samplePrintProgram())
	second := Fingerprint(samplePrintProgram())
	assert.Equal(t, first, second)

	changed := samplePrintProgram()
	changed.AddClause(&Clause{Head: atom("edge", &NumberConstant{Value: 3}, &NumberConstant{Value: 4})})
	assert.NotEqual(t, first, Fingerprint(changed))
}
