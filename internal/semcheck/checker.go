// Package semcheck validates a program against the language's static
// semantics. The checker runs every pass against a fixed program and a
// diagnostic sink; it accumulates findings and never stops at the first
// error. Transformation must not proceed when any error-severity
// diagnostic was reported.
package semcheck

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stratlang/stratum/internal/analysis"
	"github.com/stratlang/stratum/internal/ast"
	"github.com/stratlang/stratum/internal/config"
	"github.com/stratlang/stratum/internal/diag"
)

// Result carries the checker's side observations back to the driver.
type Result struct {
	// RecordsSeen is set when any record type is used anywhere in the
	// program. The driver clears the engine option in response, since
	// subprogram compilation does not support records.
	RecordsSeen bool
}

// Check runs all validation passes.
func Check(p *ast.Program, opts config.Options, set *analysis.Set, rep diag.Reporter) Result {
	c := &checker{prog: p, opts: opts, set: set, rep: rep}
	c.run()
	return Result{RecordsSeen: c.recordsSeen}
}

type checker struct {
	prog *ast.Program
	opts config.Options
	set  *analysis.Set
	rep  diag.Reporter

	recordsSeen  bool
	aggrVarCount int
}

func (c *checker) run() {
	c.applySuppression()

	c.checkTypes()
	c.checkRelations()
	c.checkNamespaces()
	c.checkIODirectives()
	c.checkWitnessProblem()
	c.checkInlining()

	c.checkGroundedness()
	c.checkArgumentTypes()
	c.checkStratification()
}

// applySuppression marks relations matched by the suppress-warnings option
// with the suppressed qualifier.
func (c *checker) applySuppression() {
	m := c.opts.SuppressWarnings
	if m == nil {
		return
	}
	for _, rel := range c.prog.Relations() {
		if m.Matches(rel.Name.String()) {
			rel.SetQualifier(ast.QualSuppressed)
		}
	}
}

// -- type declarations --

func (c *checker) checkTypes() {
	for _, t := range c.prog.Types() {
		switch typ := t.(type) {
		case *ast.UnionType:
			c.checkUnionType(typ)
		case *ast.RecordType:
			c.checkRecordType(typ)
		}
	}
}

func (c *checker) checkUnionType(t *ast.UnionType) {
	env := c.set.TypeEnv()
	for _, member := range t.Members {
		s := member.String()
		if s == ast.NumberName || s == ast.SymbolName {
			continue
		}
		sub := c.prog.Type(member)
		if sub == nil {
			diag.Errorf(c.rep, diag.CodeUndeclaredType, t.SrcLoc,
				"Undefined type %s in definition of union type %s", member, t.Name)
			continue
		}
		switch sub.(type) {
		case *ast.UnionType, *ast.PrimitiveType:
		default:
			diag.Errorf(c.rep, diag.CodeMixedUnion, t.SrcLoc,
				"Union type %s contains the non-primitive type %s", t.Name, member)
		}
	}

	if env.UnionReaches(t.Name, ast.KindNumber) && env.UnionReaches(t.Name, ast.KindSymbol) {
		diag.Errorf(c.rep, diag.CodeMixedUnion, t.SrcLoc,
			"Union type %s contains a mixture of symbol and number types", t.Name)
	}
}

func (c *checker) checkRecordType(t *ast.RecordType) {
	for _, field := range t.Fields {
		s := field.Type.String()
		if s != ast.NumberName && s != ast.SymbolName && c.prog.Type(field.Type) == nil {
			diag.Errorf(c.rep, diag.CodeUndeclaredType, t.SrcLoc,
				"Undefined type %s in definition of field %s", field.Type, field.Name)
		}
	}
	for i, field := range t.Fields {
		for j := 0; j < i; j++ {
			if t.Fields[j].Name == field.Name {
				diag.Errorf(c.rep, diag.CodeDuplicateName, t.SrcLoc,
					"Doubly defined field name %s in definition of type %s", field.Name, t.Name)
			}
		}
	}
}

// -- relations and clauses --

func (c *checker) checkRelations() {
	for _, rel := range c.prog.Relations() {
		c.checkRelation(rel)
	}
}

func (c *checker) checkRelation(rel *ast.Relation) {
	io := c.set.IO()

	if rel.Representation == ast.RepEqrel {
		if rel.Arity() == 2 {
			if !rel.Attributes[0].Type.Equal(rel.Attributes[1].Type) {
				diag.Errorf(c.rep, diag.CodeBadRelation, rel.SrcLoc,
					"Domains of equivalence relation %s are different", rel.Name)
			}
		} else {
			diag.Errorf(c.rep, diag.CodeBadRelation, rel.SrcLoc,
				"Equivalence relation %s is not binary", rel.Name)
		}
	}

	c.checkRelationDeclaration(rel)

	for _, clause := range c.prog.ClausesOf(rel.Name) {
		c.checkClause(clause)
	}

	if len(c.prog.ClausesOf(rel.Name)) == 0 && !io.IsInput(rel.Name) && !rel.IsSuppressed() {
		diag.Warnf(c.rep, diag.CodeEmptyRelation, rel.SrcLoc,
			"No rules/facts defined for relation %s", rel.Name)
	}
}

func (c *checker) checkRelationDeclaration(rel *ast.Relation) {
	io := c.set.IO()
	env := c.set.TypeEnv()

	for i, attr := range rel.Attributes {
		typeName := attr.Type.String()

		if typeName != ast.NumberName && typeName != ast.SymbolName && c.prog.Type(attr.Type) == nil {
			diag.Errorf(c.rep, diag.CodeUndeclaredType, rel.SrcLoc,
				"Undefined type in attribute %s:%s", attr.Name, attr.Type)
		}

		for j := 0; j < i; j++ {
			if rel.Attributes[j].Name == attr.Name {
				diag.Errorf(c.rep, diag.CodeDuplicateName, rel.SrcLoc,
					"Doubly defined attribute name %s:%s", attr.Name, attr.Type)
			}
		}

		if kind, ok := env.Kind(attr.Type); ok && kind == ast.KindRecord {
			c.recordsSeen = true
			if io.IsInput(rel.Name) {
				diag.Errorf(c.rep, diag.CodeRecordInInput, rel.SrcLoc,
					"Input relations must not have record types. Attribute %s has record type %s",
					attr.Name, attr.Type)
			}
			if io.IsOutput(rel.Name) {
				diag.Warnf(c.rep, diag.CodeRecordInOutput, rel.SrcLoc,
					"Record types in output relations are not printed verbatim: attribute %s has record type %s",
					attr.Name, attr.Type)
			}
		}
	}
}

func (c *checker) checkClause(clause *ast.Clause) {
	c.checkAtom(clause.Head)

	if hasUnnamedVariable(clause.Head) {
		diag.Errorf(c.rep, diag.CodeUnderscoreInHead, clause.Head.SrcLoc,
			"Underscore in head of rule")
	}

	for _, lit := range clause.Body {
		c.checkLiteral(lit)
	}

	if clause.IsFact() {
		c.checkFact(clause)
	}

	c.checkUseOnceVariables(clause)
	c.checkExecutionPlan(clause)

	if c.set.Recursive().IsRecursive(clause) {
		ast.Visit(clause, func(ctr *ast.Counter) {
			diag.Errorf(c.rep, diag.CodeCounterInRecursion, ctr.SrcLoc,
				"Auto-increment functor in a recursive rule")
		})
	}
}

func (c *checker) checkAtom(atom *ast.Atom) {
	rel := c.prog.Relation(atom.Name)
	if rel == nil {
		diag.Errorf(c.rep, diag.CodeUndeclaredRelation, atom.SrcLoc,
			"Undefined relation %s", atom.Name)
	} else if rel.Arity() != atom.Arity() {
		diag.Errorf(c.rep, diag.CodeArityMismatch, atom.SrcLoc,
			"Mismatching arity of relation %s", atom.Name)
	}
	for _, arg := range atom.Args {
		c.checkArgument(arg)
	}
}

func (c *checker) checkLiteral(lit ast.Literal) {
	switch l := lit.(type) {
	case *ast.Atom:
		c.checkAtom(l)
	case *ast.Negation:
		c.checkAtom(l.Atom)
	case *ast.BinaryConstraint:
		c.checkArgument(l.LHS)
		c.checkArgument(l.RHS)
		if hasUnnamedVariableArg(l.LHS) || hasUnnamedVariableArg(l.RHS) {
			diag.Errorf(c.rep, diag.CodeUnderscoreInConstraint, l.SrcLoc,
				"Underscore in binary constraint")
		}
	}
}

// checkArgument descends into composite arguments: functor existence and
// arity, number ranges, record-init shape, nested aggregator bodies.
func (c *checker) checkArgument(arg ast.Argument) {
	switch a := arg.(type) {
	case *ast.NumberConstant:
		if a.Value > ast.MaxDomain || a.Value < ast.MinDomain {
			diag.Errorf(c.rep, diag.CodeNumberOutOfRange, a.SrcLoc,
				"Number constant not in range [%d, %d]", ast.MinDomain, ast.MaxDomain)
		}
	case *ast.IntrinsicFunctor:
		sig := a.Op.Signature()
		if len(sig.Params) != len(a.Args) {
			diag.Errorf(c.rep, diag.CodeArityMismatch, a.SrcLoc,
				"Mismatching number of arguments of functor")
		}
		for _, sub := range a.Args {
			c.checkArgument(sub)
		}
	case *ast.UserDefinedFunctor:
		decl := c.prog.Functor(a.Name)
		if decl == nil {
			diag.Errorf(c.rep, diag.CodeUndeclaredFunctor, a.SrcLoc,
				"User-defined functor %s hasn't been declared", a.Name)
		} else if decl.Arity() != len(a.Args) {
			diag.Errorf(c.rep, diag.CodeArityMismatch, a.SrcLoc,
				"Mismatching number of arguments of functor %s", a.Name)
		}
		for _, sub := range a.Args {
			c.checkArgument(sub)
		}
	case *ast.TypeCast:
		c.checkArgument(a.Value)
	case *ast.RecordInit:
		c.recordsSeen = true
		if typ := c.prog.Type(a.Type); typ == nil {
			diag.Errorf(c.rep, diag.CodeUndeclaredType, a.SrcLoc,
				"Type %s has not been declared", a.Type)
		} else if recType, ok := typ.(*ast.RecordType); !ok {
			diag.Errorf(c.rep, diag.CodeBadCast, a.SrcLoc,
				"Type %s is not a record type", a.Type)
		} else if len(recType.Fields) != len(a.Args) {
			diag.Errorf(c.rep, diag.CodeArityMismatch, a.SrcLoc,
				"Wrong number of arguments given to record")
		}
		for _, sub := range a.Args {
			c.checkArgument(sub)
		}
	case *ast.Aggregator:
		if a.Target != nil {
			c.checkArgument(a.Target)
		}
		for _, lit := range a.Body {
			c.checkLiteral(lit)
		}
	}
}

// -- facts --

func (c *checker) checkFact(fact *ast.Clause) {
	if c.prog.Relation(fact.Head.Name) == nil {
		return // reported by the clause check
	}
	for _, arg := range fact.Head.Args {
		c.checkConstantTerm(arg)
	}
}

// checkConstantTerm enforces that fact arguments are recursively constant:
// plain constants, constant-only numeric intrinsic functors, records of
// constants and casts of constants.
func (c *checker) checkConstantTerm(arg ast.Argument) {
	switch a := arg.(type) {
	case *ast.Variable:
		diag.Errorf(c.rep, diag.CodeFactNotConstant, a.SrcLoc, "Variable %s in fact", a.Name)
	case *ast.UnnamedVariable:
		diag.Errorf(c.rep, diag.CodeFactNotConstant, a.SrcLoc, "Underscore in fact")
	case *ast.Counter:
		diag.Errorf(c.rep, diag.CodeFactNotConstant, a.SrcLoc, "Counter in fact")
	case *ast.UserDefinedFunctor:
		diag.Errorf(c.rep, diag.CodeFactNotConstant, a.SrcLoc, "User-defined functor in fact")
	case *ast.IntrinsicFunctor:
		if !isConstantArithExpr(a) {
			diag.Errorf(c.rep, diag.CodeFactNotConstant, a.SrcLoc, "Function in fact")
		}
	case *ast.TypeCast:
		c.checkConstantTerm(a.Value)
	case *ast.RecordInit:
		for _, sub := range a.Args {
			c.checkConstantTerm(sub)
		}
	case *ast.Aggregator:
		diag.Errorf(c.rep, diag.CodeFactNotConstant, a.SrcLoc, "Aggregator in fact")
	}
}

func isConstantArithExpr(arg ast.Argument) bool {
	switch a := arg.(type) {
	case *ast.NumberConstant:
		return true
	case *ast.IntrinsicFunctor:
		if !a.Op.IsNumerical() {
			return false
		}
		for _, sub := range a.Args {
			if !isConstantArithExpr(sub) {
				return false
			}
		}
		return true
	}
	return false
}

// -- style and plans --

func (c *checker) checkUseOnceVariables(clause *ast.Clause) {
	if clause.Generated {
		return
	}
	counts := make(map[string]int)
	lastPos := make(map[string]*ast.Variable)
	var order []string
	ast.Visit(clause, func(v *ast.Variable) {
		if counts[v.Name] == 0 {
			order = append(order, v.Name)
		}
		counts[v.Name]++
		lastPos[v.Name] = v
	})
	for _, name := range order {
		if counts[name] == 1 && !strings.HasPrefix(name, "_") {
			diag.Warnf(c.rep, diag.CodeUnusedVariable, lastPos[name].SrcLoc,
				"Variable %s only occurs once", name)
		}
	}
}

func (c *checker) checkExecutionPlan(clause *ast.Clause) {
	if clause.Plan == nil {
		return
	}
	numAtoms := len(clause.Atoms())
	versions := make([]int, 0, len(clause.Plan.Orders))
	for v := range clause.Plan.Orders {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	for _, v := range versions {
		order := clause.Plan.Orders[v]
		if len(order.Positions) != numAtoms || !order.IsComplete() {
			diag.Errorf(c.rep, diag.CodeBadExecutionPlan, order.SrcLoc,
				"Invalid execution plan")
		}
	}

	// Versioned orders are only meaningful for recursive clauses, and only
	// up to the number of same-stratum body atoms.
	if !c.set.Recursive().IsRecursive(clause) {
		return
	}
	scc := c.set.SCC()
	version := 0
	for _, atom := range clause.Atoms() {
		if scc.SameSCC(atom.Name, clause.Head.Name) {
			version++
		}
	}
	if version <= clause.Plan.MaxVersion() {
		for _, v := range versions {
			order := clause.Plan.Orders[v]
			if v >= version {
				c.rep.Report(diag.Diagnostic{
					Severity: diag.Error,
					Code:     diag.CodeBadExecutionPlan,
					Primary:  diag.Message{Text: fmt.Sprintf("execution plan for version %d", v), Loc: order.SrcLoc},
					Secondary: []diag.Message{
						{Text: fmt.Sprintf("only versions 0..%d permitted", version-1)},
					},
				})
			}
		}
	}
}

// -- groundedness --

func (c *checker) checkGroundedness() {
	for _, clause := range c.prog.Clauses() {
		if clause.IsFact() {
			continue
		}
		isGrounded := analysis.GroundedTerms(clause)

		reported := make(map[string]bool)
		ast.Visit(clause, func(v *ast.Variable) {
			if !isGrounded[v] && !reported[v.Name] {
				reported[v.Name] = true
				diag.Errorf(c.rep, diag.CodeUngrounded, v.SrcLoc,
					"Ungrounded variable %s", v.Name)
			}
		})

		ast.Visit(clause, func(rec *ast.RecordInit) {
			if !isGrounded[rec] {
				diag.Errorf(c.rep, diag.CodeUngrounded, rec.SrcLoc, "Ungrounded record")
			}
		})
	}
}

// -- namespaces and directives --

func (c *checker) checkNamespaces() {
	names := make(map[string]ast.SrcLoc)

	for _, t := range c.prog.Types() {
		name := t.TypeName().String()
		if _, clash := names[name]; clash {
			diag.Errorf(c.rep, diag.CodeDuplicateName, t.Loc(), "Name clash on type %s", name)
		} else {
			names[name] = t.Loc()
		}
	}

	for _, rel := range c.prog.Relations() {
		name := rel.Name.String()
		if _, clash := names[name]; clash {
			diag.Errorf(c.rep, diag.CodeDuplicateName, rel.SrcLoc, "Name clash on relation %s", name)
		} else {
			names[name] = rel.SrcLoc
		}
	}
}

func (c *checker) checkIODirectives() {
	for _, d := range c.prog.Directives() {
		if c.prog.Relation(d.Relation) == nil {
			diag.Errorf(c.rep, diag.CodeUndeclaredRelation, d.SrcLoc,
				"Undefined relation %s", d.Relation)
		}
	}
}

// -- underscore helpers --

func hasUnnamedVariable(atom *ast.Atom) bool {
	for _, arg := range atom.Args {
		if hasUnnamedVariableArg(arg) {
			return true
		}
	}
	return false
}

func hasUnnamedVariableArg(arg ast.Argument) bool {
	switch a := arg.(type) {
	case *ast.UnnamedVariable:
		return true
	case *ast.TypeCast:
		return hasUnnamedVariableArg(a.Value)
	case *ast.IntrinsicFunctor:
		for _, sub := range a.Args {
			if hasUnnamedVariableArg(sub) {
				return true
			}
		}
	case *ast.UserDefinedFunctor:
		for _, sub := range a.Args {
			if hasUnnamedVariableArg(sub) {
				return true
			}
		}
	case *ast.RecordInit:
		for _, sub := range a.Args {
			if hasUnnamedVariableArg(sub) {
				return true
			}
		}
	case *ast.Aggregator:
		// Underscores inside an aggregator live in its own scope.
		return false
	}
	return false
}
