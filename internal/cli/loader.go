package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stratlang/stratum/internal/ast"
)

// The loader reads the YAML serialization of a parsed program: the
// abstract form an upstream parser emits, not a surface syntax. Decoding
// is strict; unknown fields are load errors.

type programDoc struct {
	Types      []typeDoc      `yaml:"types"`
	Functors   []functorDoc   `yaml:"functors"`
	Relations  []relationDoc  `yaml:"relations"`
	Directives []directiveDoc `yaml:"directives"`
	Clauses    []clauseDoc    `yaml:"clauses"`
}

type typeDoc struct {
	Name      string     `yaml:"name"`
	Primitive string     `yaml:"primitive,omitempty"`
	Union     []string   `yaml:"union,omitempty"`
	Record    []fieldDoc `yaml:"record,omitempty"`
	Line      int        `yaml:"line,omitempty"`
}

type fieldDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type functorDoc struct {
	Name   string   `yaml:"name"`
	Params []string `yaml:"params"`
	Result string   `yaml:"result"`
	Line   int      `yaml:"line,omitempty"`
}

type relationDoc struct {
	Name           string     `yaml:"name"`
	Attrs          []fieldDoc `yaml:"attrs"`
	Representation string     `yaml:"representation,omitempty"`
	Inline         bool       `yaml:"inline,omitempty"`
	Line           int        `yaml:"line,omitempty"`
}

type directiveDoc struct {
	Kind     string            `yaml:"kind"`
	Relation string            `yaml:"relation"`
	Params   map[string]string `yaml:"params,omitempty"`
	Line     int               `yaml:"line,omitempty"`
}

type clauseDoc struct {
	Head *atomDoc      `yaml:"head"`
	Body []literalDoc  `yaml:"body,omitempty"`
	Plan map[int][]int `yaml:"plan,omitempty"`
	Line int           `yaml:"line,omitempty"`
}

type atomDoc struct {
	Rel  string   `yaml:"rel"`
	Args []argDoc `yaml:"args,omitempty"`
	Line int      `yaml:"line,omitempty"`
}

type literalDoc struct {
	Atom *atomDoc       `yaml:"atom,omitempty"`
	Neg  *atomDoc       `yaml:"neg,omitempty"`
	Cons *constraintDoc `yaml:"cons,omitempty"`
	Bool *bool          `yaml:"bool,omitempty"`
	Line int            `yaml:"line,omitempty"`
}

type constraintDoc struct {
	Op  string  `yaml:"op"`
	LHS *argDoc `yaml:"lhs"`
	RHS *argDoc `yaml:"rhs"`
}

type argDoc struct {
	Var     *string  `yaml:"var,omitempty"`
	Unnamed bool     `yaml:"unnamed,omitempty"`
	Num     *int64   `yaml:"num,omitempty"`
	Str     *string  `yaml:"str,omitempty"`
	Counter bool     `yaml:"counter,omitempty"`
	Functor string   `yaml:"functor,omitempty"`
	UDF     string   `yaml:"udf,omitempty"`
	Args    []argDoc `yaml:"args,omitempty"`
	Cast    *castDoc `yaml:"cast,omitempty"`
	Record  *recDoc  `yaml:"record,omitempty"`
	Agg     *aggDoc  `yaml:"agg,omitempty"`
	Line    int      `yaml:"line,omitempty"`
}

type castDoc struct {
	Value *argDoc `yaml:"value"`
	Type  string  `yaml:"type"`
}

type recDoc struct {
	Type string   `yaml:"type"`
	Args []argDoc `yaml:"args,omitempty"`
}

type aggDoc struct {
	Op     string       `yaml:"op"`
	Target *argDoc      `yaml:"target,omitempty"`
	Body   []literalDoc `yaml:"body"`
}

var intrinsicsByName = map[string]ast.FunctorOp{
	"add": ast.FunctorAdd, "sub": ast.FunctorSub, "mul": ast.FunctorMul,
	"div": ast.FunctorDiv, "mod": ast.FunctorMod, "umod": ast.FunctorUMod,
	"fdiv": ast.FunctorFDiv, "exp": ast.FunctorExp, "neg": ast.FunctorNeg,
	"bnot": ast.FunctorBNot, "band": ast.FunctorBAnd, "bor": ast.FunctorBOr,
	"bxor": ast.FunctorBXor, "lnot": ast.FunctorLNot, "land": ast.FunctorLAnd,
	"lor": ast.FunctorLOr, "max": ast.FunctorMax, "min": ast.FunctorMin,
	"cat": ast.FunctorCat, "ord": ast.FunctorOrd, "strlen": ast.FunctorStrlen,
	"substr": ast.FunctorSubstr, "to_number": ast.FunctorToNumber,
	"to_string": ast.FunctorToString,
}

// LoadProgram reads a serialized program from path.
func LoadProgram(path string) (*ast.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}
	return decodeProgram(data, path)
}

func decodeProgram(data []byte, file string) (*ast.Program, error) {
	var doc programDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}

	loc := func(line int) ast.SrcLoc {
		if line == 0 {
			return ast.SrcLoc{}
		}
		return ast.SrcLoc{File: file, Line: line, Column: 1}
	}

	prog := ast.NewProgram()

	for _, t := range doc.Types {
		name := ast.ParseName(t.Name)
		switch {
		case t.Primitive != "":
			prog.AddType(&ast.PrimitiveType{
				Name:    name,
				Numeric: t.Primitive == ast.NumberName,
				SrcLoc:  loc(t.Line),
			})
		case t.Record != nil:
			rec := &ast.RecordType{Name: name, SrcLoc: loc(t.Line)}
			for _, f := range t.Record {
				rec.Fields = append(rec.Fields, ast.TypeField{Name: f.Name, Type: ast.ParseName(f.Type)})
			}
			prog.AddType(rec)
		default:
			union := &ast.UnionType{Name: name, SrcLoc: loc(t.Line)}
			for _, m := range t.Union {
				union.Members = append(union.Members, ast.ParseName(m))
			}
			prog.AddType(union)
		}
	}

	for _, f := range doc.Functors {
		decl := &ast.FunctorDeclaration{Name: f.Name, SrcLoc: loc(f.Line)}
		for _, p := range f.Params {
			kind, err := kindFromString(p)
			if err != nil {
				return nil, fmt.Errorf("functor %s: %w", f.Name, err)
			}
			decl.Params = append(decl.Params, kind)
		}
		kind, err := kindFromString(f.Result)
		if err != nil {
			return nil, fmt.Errorf("functor %s: %w", f.Name, err)
		}
		decl.Result = kind
		prog.AddFunctor(decl)
	}

	for _, r := range doc.Relations {
		rel := &ast.Relation{Name: ast.ParseName(r.Name), SrcLoc: loc(r.Line)}
		for _, a := range r.Attrs {
			rel.Attributes = append(rel.Attributes, ast.Attribute{Name: a.Name, Type: ast.ParseName(a.Type)})
		}
		switch r.Representation {
		case "":
			rel.Representation = ast.RepDefault
		case "btree":
			rel.Representation = ast.RepBtree
		case "brie":
			rel.Representation = ast.RepBrie
		case "eqrel":
			rel.Representation = ast.RepEqrel
		default:
			return nil, fmt.Errorf("relation %s: unknown representation %q", r.Name, r.Representation)
		}
		if r.Inline {
			rel.SetQualifier(ast.QualInline)
		}
		prog.AddRelation(rel)
	}

	for _, d := range doc.Directives {
		dir := &ast.Directive{Relation: ast.ParseName(d.Relation), Params: d.Params, SrcLoc: loc(d.Line)}
		switch d.Kind {
		case "input":
			dir.Kind = ast.DirectiveInput
		case "output":
			dir.Kind = ast.DirectiveOutput
		case "printsize":
			dir.Kind = ast.DirectivePrintSize
		default:
			return nil, fmt.Errorf("directive for %s: unknown kind %q", d.Relation, d.Kind)
		}
		prog.AddDirective(dir)
	}

	for i, c := range doc.Clauses {
		if c.Head == nil {
			return nil, fmt.Errorf("clause %d: missing head", i)
		}
		head, err := decodeAtom(c.Head, loc)
		if err != nil {
			return nil, fmt.Errorf("clause %d: %w", i, err)
		}
		clause := &ast.Clause{Head: head, SrcLoc: loc(c.Line)}
		for j := range c.Body {
			lit, err := decodeLiteral(&c.Body[j], loc)
			if err != nil {
				return nil, fmt.Errorf("clause %d literal %d: %w", i, j, err)
			}
			clause.Body = append(clause.Body, lit)
		}
		if len(c.Plan) > 0 {
			plan := &ast.ExecutionPlan{Orders: make(map[int]*ast.Order)}
			for version, positions := range c.Plan {
				plan.Orders[version] = &ast.Order{Positions: positions, SrcLoc: loc(c.Line)}
			}
			clause.Plan = plan
		}
		prog.AddClause(clause)
	}

	return prog, nil
}

func decodeAtom(doc *atomDoc, loc func(int) ast.SrcLoc) (*ast.Atom, error) {
	atom := &ast.Atom{Name: ast.ParseName(doc.Rel), SrcLoc: loc(doc.Line)}
	for i := range doc.Args {
		arg, err := decodeArg(&doc.Args[i], loc)
		if err != nil {
			return nil, fmt.Errorf("atom %s: %w", doc.Rel, err)
		}
		atom.Args = append(atom.Args, arg)
	}
	return atom, nil
}

func decodeLiteral(doc *literalDoc, loc func(int) ast.SrcLoc) (ast.Literal, error) {
	switch {
	case doc.Atom != nil:
		return decodeAtom(doc.Atom, loc)
	case doc.Neg != nil:
		atom, err := decodeAtom(doc.Neg, loc)
		if err != nil {
			return nil, err
		}
		return &ast.Negation{Atom: atom, SrcLoc: loc(doc.Line)}, nil
	case doc.Cons != nil:
		op, ok := ast.BinOpFromString(doc.Cons.Op)
		if !ok {
			return nil, fmt.Errorf("unknown constraint operator %q", doc.Cons.Op)
		}
		lhs, err := decodeArg(doc.Cons.LHS, loc)
		if err != nil {
			return nil, err
		}
		rhs, err := decodeArg(doc.Cons.RHS, loc)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryConstraint{Op: op, LHS: lhs, RHS: rhs, SrcLoc: loc(doc.Line)}, nil
	case doc.Bool != nil:
		return &ast.BooleanConstraint{Value: *doc.Bool, SrcLoc: loc(doc.Line)}, nil
	}
	return nil, fmt.Errorf("empty literal")
}

func decodeArg(doc *argDoc, loc func(int) ast.SrcLoc) (ast.Argument, error) {
	if doc == nil {
		return nil, fmt.Errorf("missing argument")
	}
	at := loc(doc.Line)
	switch {
	case doc.Var != nil:
		return &ast.Variable{Name: *doc.Var, SrcLoc: at}, nil
	case doc.Unnamed:
		return &ast.UnnamedVariable{SrcLoc: at}, nil
	case doc.Num != nil:
		return &ast.NumberConstant{Value: *doc.Num, SrcLoc: at}, nil
	case doc.Str != nil:
		return &ast.StringConstant{Value: *doc.Str, SrcLoc: at}, nil
	case doc.Counter:
		return &ast.Counter{SrcLoc: at}, nil
	case doc.Functor != "":
		op, ok := intrinsicsByName[doc.Functor]
		if !ok {
			return nil, fmt.Errorf("unknown intrinsic functor %q", doc.Functor)
		}
		fun := &ast.IntrinsicFunctor{Op: op, SrcLoc: at}
		for i := range doc.Args {
			arg, err := decodeArg(&doc.Args[i], loc)
			if err != nil {
				return nil, err
			}
			fun.Args = append(fun.Args, arg)
		}
		return fun, nil
	case doc.UDF != "":
		fun := &ast.UserDefinedFunctor{Name: doc.UDF, SrcLoc: at}
		for i := range doc.Args {
			arg, err := decodeArg(&doc.Args[i], loc)
			if err != nil {
				return nil, err
			}
			fun.Args = append(fun.Args, arg)
		}
		return fun, nil
	case doc.Cast != nil:
		value, err := decodeArg(doc.Cast.Value, loc)
		if err != nil {
			return nil, err
		}
		return &ast.TypeCast{Value: value, Type: ast.ParseName(doc.Cast.Type), SrcLoc: at}, nil
	case doc.Record != nil:
		rec := &ast.RecordInit{Type: ast.ParseName(doc.Record.Type), SrcLoc: at}
		for i := range doc.Record.Args {
			arg, err := decodeArg(&doc.Record.Args[i], loc)
			if err != nil {
				return nil, err
			}
			rec.Args = append(rec.Args, arg)
		}
		return rec, nil
	case doc.Agg != nil:
		agg := &ast.Aggregator{SrcLoc: at}
		switch doc.Agg.Op {
		case "count":
			agg.Op = ast.AggregateCount
		case "sum":
			agg.Op = ast.AggregateSum
		case "min":
			agg.Op = ast.AggregateMin
		case "max":
			agg.Op = ast.AggregateMax
		default:
			return nil, fmt.Errorf("unknown aggregate operator %q", doc.Agg.Op)
		}
		if doc.Agg.Target != nil {
			target, err := decodeArg(doc.Agg.Target, loc)
			if err != nil {
				return nil, err
			}
			agg.Target = target
		}
		for i := range doc.Agg.Body {
			lit, err := decodeLiteral(&doc.Agg.Body[i], loc)
			if err != nil {
				return nil, err
			}
			agg.Body = append(agg.Body, lit)
		}
		return agg, nil
	}
	return nil, fmt.Errorf("empty argument")
}

func kindFromString(s string) (ast.Kind, error) {
	switch s {
	case ast.NumberName:
		return ast.KindNumber, nil
	case ast.SymbolName:
		return ast.KindSymbol, nil
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}
