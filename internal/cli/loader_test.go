package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratlang/stratum/internal/ast"
)

const sampleProgramYAML = `
types:
  - name: Kind
    union: [number]
relations:
  - name: edge
    attrs: [{name: a, type: number}, {name: b, type: number}]
    representation: btree
  - name: path
    attrs: [{name: a, type: number}, {name: b, type: number}]
directives:
  - kind: input
    relation: edge
  - kind: output
    relation: path
clauses:
  - head: {rel: path, args: [{var: x}, {var: y}]}
    body:
      - atom: {rel: edge, args: [{var: x}, {var: y}]}
    line: 10
  - head: {rel: path, args: [{var: x}, {var: y}]}
    body:
      - atom: {rel: path, args: [{var: x}, {var: z}]}
      - atom: {rel: edge, args: [{var: z}, {var: y}]}
`

func TestDecodeProgram(t *testing.T) {
	prog, err := decodeProgram([]byte(sampleProgramYAML), "sample.yaml")
	require.NoError(t, err)

	require.Len(t, prog.Relations(), 2)
	edge := prog.Relation(ast.Name("edge"))
	require.NotNil(t, edge)
	assert.Equal(t, ast.RepBtree, edge.Representation)
	assert.Equal(t, 2, edge.Arity())

	require.Len(t, prog.Clauses(), 2)
	first := prog.Clauses()[0]
	assert.Equal(t, "path(x,y) :- edge(x,y).", ast.PrintClause(first))
	assert.Equal(t, "sample.yaml", first.SrcLoc.File)
	assert.Equal(t, 10, first.SrcLoc.Line)

	require.Len(t, prog.Directives(), 2)
	assert.Equal(t, ast.DirectiveInput, prog.Directives()[0].Kind)
}

func TestDecodeArgumentForms(t *testing.T) {
	src := `
relations:
  - name: r
    attrs: [{name: a, type: number}]
clauses:
  - head: {rel: r, args: [{num: 1}]}
  - head: {rel: r, args: [{functor: add, args: [{num: 1}, {num: 2}]}]}
  - head: {rel: r, args: [{var: x}]}
    body:
      - cons:
          op: "="
          lhs: {var: x}
          rhs: {agg: {op: count, body: [{atom: {rel: r, args: [{unnamed: true}]}}]}}
`
	prog, err := decodeProgram([]byte(src), "args.yaml")
	require.NoError(t, err)
	require.Len(t, prog.Clauses(), 3)

	assert.Equal(t, "r(1).", ast.PrintClause(prog.Clauses()[0]))
	assert.Equal(t, "r((1 + 2)).", ast.PrintClause(prog.Clauses()[1]))
	assert.Equal(t, "r(x) :- x = count : { r(_) }.", ast.PrintClause(prog.Clauses()[2]))
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := decodeProgram([]byte("bogus: true\n"), "bad.yaml")
	assert.Error(t, err)
}

func TestDecodeRejectsUnknownOperators(t *testing.T) {
	src := `
clauses:
  - head: {rel: r}
    body:
      - cons: {op: "<>", lhs: {var: x}, rhs: {var: y}}
`
	_, err := decodeProgram([]byte(src), "bad.yaml")
	assert.Error(t, err)
}
