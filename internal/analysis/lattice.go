package analysis

import "github.com/stratlang/stratum/internal/ast"

type typeClass int

const (
	classTop typeClass = iota
	classPrim
	classNamed
	classBot
	classBotPrim
)

// AnalysisType is an element of the inference lattice:
//
//	Top  — no information
//	Prim — one of the primitive families (number, symbol, record)
//	Named — a refined declared type within a primitive family
//	Bot  — conflicting constraints within one family
//	BotPrim — conflicting constraints across families
type AnalysisType struct {
	class typeClass
	kind  ast.Kind
	name  ast.QualifiedName
}

// Top returns the no-information element.
func Top() AnalysisType { return AnalysisType{class: classTop} }

// Bot returns the same-family conflict element.
func Bot() AnalysisType { return AnalysisType{class: classBot} }

// BotPrim returns the cross-family conflict element.
func BotPrim() AnalysisType { return AnalysisType{class: classBotPrim} }

// Prim returns the primitive-family element for kind.
func Prim(kind ast.Kind) AnalysisType { return AnalysisType{class: classPrim, kind: kind} }

// Named returns the refined element for a declared type of the given kind.
func Named(name ast.QualifiedName, kind ast.Kind) AnalysisType {
	return AnalysisType{class: classNamed, kind: kind, name: name}
}

// IsValid reports whether the element carries a usable kind (i.e. it is
// neither Top nor a bottom element).
func (t AnalysisType) IsValid() bool {
	return t.class == classPrim || t.class == classNamed
}

// IsTop reports whether the element is Top.
func (t AnalysisType) IsTop() bool { return t.class == classTop }

// IsBot reports whether the element is the same-family conflict.
func (t AnalysisType) IsBot() bool { return t.class == classBot }

// IsBotPrim reports whether the element is the cross-family conflict.
func (t AnalysisType) IsBotPrim() bool { return t.class == classBotPrim }

// Kind returns the primitive family. Only meaningful when IsValid.
func (t AnalysisType) Kind() ast.Kind { return t.kind }

// Name returns the declared type name of a Named element.
func (t AnalysisType) Name() ast.QualifiedName { return t.name }

// Equal reports structural equality of lattice elements.
func (t AnalysisType) Equal(o AnalysisType) bool {
	return t.class == o.class && t.kind == o.kind && t.name.Equal(o.name)
}

func (t AnalysisType) String() string {
	switch t.class {
	case classTop:
		return "top"
	case classPrim:
		return t.kind.String()
	case classNamed:
		return t.name.String()
	case classBot:
		return "bot"
	case classBotPrim:
		return "bot-prim"
	}
	return "?"
}

// TypeLattice answers subtype and meet queries over AnalysisType elements,
// consulting the environment for union membership.
type TypeLattice struct {
	env *TypeEnvironment
}

// NewTypeLattice wraps a type environment.
func NewTypeLattice(env *TypeEnvironment) *TypeLattice {
	return &TypeLattice{env: env}
}

// TypeOfName maps a type name to its lattice element: the primitives map to
// Prim, declared types to Named, and undeclared names to Top (the error is
// reported elsewhere).
func (l *TypeLattice) TypeOfName(name ast.QualifiedName) AnalysisType {
	s := name.String()
	if s == ast.NumberName {
		return Prim(ast.KindNumber)
	}
	if s == ast.SymbolName {
		return Prim(ast.KindSymbol)
	}
	if kind, ok := l.env.Kind(name); ok {
		return Named(name, kind)
	}
	return Top()
}

// IsSubtype reports a ⊑ b.
func (l *TypeLattice) IsSubtype(a, b AnalysisType) bool {
	if b.class == classTop || a.class == classBot || a.class == classBotPrim {
		return true
	}
	switch a.class {
	case classTop:
		return false
	case classPrim:
		return b.class == classPrim && a.kind == b.kind
	case classNamed:
		switch b.class {
		case classPrim:
			return a.kind == b.kind
		case classNamed:
			return a.kind == b.kind && l.env.IsSubtypeName(a.name, b.name)
		}
	}
	return false
}

// Meet returns the greatest lower bound of a and b.
func (l *TypeLattice) Meet(a, b AnalysisType) AnalysisType {
	if a.class == classTop {
		return b
	}
	if b.class == classTop {
		return a
	}
	if a.class == classBotPrim || b.class == classBotPrim {
		return BotPrim()
	}
	if a.class == classBot || b.class == classBot {
		return Bot()
	}
	if a.kind != b.kind {
		return BotPrim()
	}
	if l.IsSubtype(a, b) {
		return a
	}
	if l.IsSubtype(b, a) {
		return b
	}
	return Bot()
}
