package analysis

import (
	"github.com/stratlang/stratum/internal/ast"
)

// TypeEnvironment resolves declared type names and their primitive kinds.
type TypeEnvironment struct {
	prog *ast.Program
}

// NewTypeEnvironment wraps the program's type declarations.
func NewTypeEnvironment(p *ast.Program) *TypeEnvironment {
	return &TypeEnvironment{prog: p}
}

// IsType reports whether name is `number`, `symbol`, or a declared type.
func (e *TypeEnvironment) IsType(name ast.QualifiedName) bool {
	s := name.String()
	if s == ast.NumberName || s == ast.SymbolName {
		return true
	}
	return e.prog.Type(name) != nil
}

// Kind resolves the primitive kind of a type name, following unions
// transitively. The second result is false when the name is undeclared or
// the kind cannot be determined (e.g. an empty or fully-dangling union).
func (e *TypeEnvironment) Kind(name ast.QualifiedName) (ast.Kind, bool) {
	return e.kind(name, make(map[string]bool))
}

func (e *TypeEnvironment) kind(name ast.QualifiedName, seen map[string]bool) (ast.Kind, bool) {
	s := name.String()
	switch s {
	case ast.NumberName:
		return ast.KindNumber, true
	case ast.SymbolName:
		return ast.KindSymbol, true
	}
	if seen[s] {
		return 0, false
	}
	seen[s] = true

	switch t := e.prog.Type(name).(type) {
	case *ast.PrimitiveType:
		if t.Numeric {
			return ast.KindNumber, true
		}
		return ast.KindSymbol, true
	case *ast.RecordType:
		return ast.KindRecord, true
	case *ast.UnionType:
		for _, member := range t.Members {
			if k, ok := e.kind(member, seen); ok {
				return k, true
			}
		}
	}
	return 0, false
}

// UnionReaches reports whether a union type transitively contains a member
// of the given kind.
func (e *TypeEnvironment) UnionReaches(name ast.QualifiedName, kind ast.Kind) bool {
	return e.unionReaches(name, kind, make(map[string]bool))
}

func (e *TypeEnvironment) unionReaches(name ast.QualifiedName, kind ast.Kind, seen map[string]bool) bool {
	s := name.String()
	if s == ast.NumberName {
		return kind == ast.KindNumber
	}
	if s == ast.SymbolName {
		return kind == ast.KindSymbol
	}
	if seen[s] {
		return false
	}
	seen[s] = true

	switch t := e.prog.Type(name).(type) {
	case *ast.PrimitiveType:
		if t.Numeric {
			return kind == ast.KindNumber
		}
		return kind == ast.KindSymbol
	case *ast.UnionType:
		for _, member := range t.Members {
			if e.unionReaches(member, kind, seen) {
				return true
			}
		}
	}
	return false
}

// IsSubtypeName reports whether sub is transitively a member of super
// (union membership), or the same type.
func (e *TypeEnvironment) IsSubtypeName(sub, super ast.QualifiedName) bool {
	if sub.Equal(super) {
		return true
	}
	union, ok := e.prog.Type(super).(*ast.UnionType)
	if !ok {
		return false
	}
	seen := map[string]bool{super.String(): true}
	return e.subtypeSearch(sub, union, seen)
}

func (e *TypeEnvironment) subtypeSearch(sub ast.QualifiedName, union *ast.UnionType, seen map[string]bool) bool {
	for _, member := range union.Members {
		if member.Equal(sub) {
			return true
		}
		key := member.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		if nested, ok := e.prog.Type(member).(*ast.UnionType); ok {
			if e.subtypeSearch(sub, nested, seen) {
				return true
			}
		}
	}
	return false
}
