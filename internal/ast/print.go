package ast

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Print renders the program in canonical surface syntax: type declarations,
// functor declarations, relation declarations, I/O directives, then clauses,
// each section in declaration order. The output is byte-stable for
// structurally identical programs; symbol constants are NFC-normalized at
// this boundary so that fingerprints do not depend on the Unicode encoding
// of the input.
func Print(p *Program) string {
	var b strings.Builder
	for _, t := range p.Types() {
		printType(&b, t)
	}
	for _, f := range p.Functors() {
		printFunctor(&b, f)
	}
	for _, r := range p.Relations() {
		printRelation(&b, r)
	}
	for _, d := range p.Directives() {
		printDirective(&b, d)
	}
	for _, c := range p.Clauses() {
		b.WriteString(PrintClause(c))
		b.WriteByte('\n')
	}
	return b.String()
}

func printType(b *strings.Builder, t Type) {
	switch typ := t.(type) {
	case *PrimitiveType:
		if typ.Numeric {
			fmt.Fprintf(b, ".number_type %s\n", typ.Name)
		} else {
			fmt.Fprintf(b, ".symbol_type %s\n", typ.Name)
		}
	case *UnionType:
		members := make([]string, len(typ.Members))
		for i, m := range typ.Members {
			members[i] = m.String()
		}
		fmt.Fprintf(b, ".type %s = %s\n", typ.Name, strings.Join(members, " | "))
	case *RecordType:
		fields := make([]string, len(typ.Fields))
		for i, f := range typ.Fields {
			fields[i] = f.Name + ":" + f.Type.String()
		}
		fmt.Fprintf(b, ".type %s = [%s]\n", typ.Name, strings.Join(fields, ", "))
	}
}

func printFunctor(b *strings.Builder, f *FunctorDeclaration) {
	params := make([]string, len(f.Params))
	for i, k := range f.Params {
		params[i] = k.String()
	}
	fmt.Fprintf(b, ".functor %s(%s):%s\n", f.Name, strings.Join(params, ","), f.Result)
}

func printRelation(b *strings.Builder, r *Relation) {
	attrs := make([]string, len(r.Attributes))
	for i, a := range r.Attributes {
		attrs[i] = a.Name + ":" + a.Type.String()
	}
	fmt.Fprintf(b, ".decl %s(%s)", r.Name, strings.Join(attrs, ", "))
	if rep := r.Representation.String(); rep != "" {
		b.WriteByte(' ')
		b.WriteString(rep)
	}
	if r.IsInline() {
		b.WriteString(" inline")
	}
	if r.IsSuppressed() {
		b.WriteString(" suppressed")
	}
	b.WriteByte('\n')
}

func printDirective(b *strings.Builder, d *Directive) {
	fmt.Fprintf(b, ".%s %s", d.Kind, d.Relation)
	if len(d.Params) > 0 {
		keys := make([]string, 0, len(d.Params))
		for k := range d.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = fmt.Sprintf("%s=%s", k, strconv.Quote(d.Params[k]))
		}
		fmt.Fprintf(b, "(%s)", strings.Join(pairs, ", "))
	}
	b.WriteByte('\n')
}

// PrintClause renders a single clause with a trailing period.
func PrintClause(c *Clause) string {
	var b strings.Builder
	b.WriteString(PrintAtom(c.Head))
	if !c.IsFact() {
		b.WriteString(" :- ")
		parts := make([]string, len(c.Body))
		for i, lit := range c.Body {
			parts[i] = PrintLiteral(lit)
		}
		b.WriteString(strings.Join(parts, ", "))
	}
	b.WriteByte('.')
	if c.Plan != nil {
		b.WriteString(printPlan(c.Plan))
	}
	return b.String()
}

func printPlan(p *ExecutionPlan) string {
	versions := make([]int, 0, len(p.Orders))
	for v := range p.Orders {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	var parts []string
	for _, v := range versions {
		order := p.Orders[v]
		positions := make([]string, len(order.Positions))
		for i, pos := range order.Positions {
			positions[i] = strconv.Itoa(pos + 1)
		}
		parts = append(parts, fmt.Sprintf("%d:(%s)", v, strings.Join(positions, ",")))
	}
	return " .plan " + strings.Join(parts, ", ")
}

// PrintLiteral renders a body literal.
func PrintLiteral(lit Literal) string {
	switch l := lit.(type) {
	case *Atom:
		return PrintAtom(l)
	case *Negation:
		return "!" + PrintAtom(l.Atom)
	case *BinaryConstraint:
		return fmt.Sprintf("%s %s %s", PrintArgument(l.LHS), l.Op, PrintArgument(l.RHS))
	case *BooleanConstraint:
		if l.Value {
			return "true"
		}
		return "false"
	}
	return "?"
}

// PrintAtom renders an atom.
func PrintAtom(a *Atom) string {
	args := make([]string, len(a.Args))
	for i, arg := range a.Args {
		args[i] = PrintArgument(arg)
	}
	return fmt.Sprintf("%s(%s)", a.Name, strings.Join(args, ","))
}

// PrintArgument renders an argument term.
func PrintArgument(arg Argument) string {
	switch a := arg.(type) {
	case *Variable:
		return a.Name
	case *UnnamedVariable:
		return "_"
	case *NumberConstant:
		return strconv.FormatInt(a.Value, 10)
	case *StringConstant:
		return strconv.Quote(norm.NFC.String(a.Value))
	case *Counter:
		return "$"
	case *IntrinsicFunctor:
		sig := a.Op.Signature()
		if sig.Infix != "" && len(a.Args) == 2 {
			return fmt.Sprintf("(%s %s %s)", PrintArgument(a.Args[0]), sig.Infix, PrintArgument(a.Args[1]))
		}
		return printCall(a.Op.String(), a.Args)
	case *UserDefinedFunctor:
		return printCall("@"+a.Name, a.Args)
	case *TypeCast:
		return fmt.Sprintf("as(%s, %s)", PrintArgument(a.Value), a.Type)
	case *RecordInit:
		args := make([]string, len(a.Args))
		for i, sub := range a.Args {
			args[i] = PrintArgument(sub)
		}
		return fmt.Sprintf("[%s]", strings.Join(args, ", "))
	case *Aggregator:
		body := make([]string, len(a.Body))
		for i, lit := range a.Body {
			body[i] = PrintLiteral(lit)
		}
		inner := strings.Join(body, ", ")
		if a.Target == nil {
			return fmt.Sprintf("%s : { %s }", a.Op, inner)
		}
		return fmt.Sprintf("%s %s : { %s }", a.Op, PrintArgument(a.Target), inner)
	}
	return "?"
}

func printCall(name string, args []Argument) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = PrintArgument(arg)
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ","))
}
