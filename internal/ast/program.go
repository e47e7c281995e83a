package ast

import "fmt"

// Program owns the full tree: type declarations, relations, clauses,
// functor declarations and I/O directives. References between elements are
// by qualified name, never by handle, so passes can rebuild any part
// without dangling references.
//
// Declaration order is preserved everywhere; two identical inputs always
// produce structurally identical programs (determinism is load-bearing for
// the fingerprint tests).
type Program struct {
	types      []Type
	relations  []*Relation
	clauses    []*Clause
	directives []*Directive
	functors   []*FunctorDeclaration

	typeIndex    map[string]Type
	relIndex     map[string]*Relation
	functorIndex map[string]*FunctorDeclaration
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{
		typeIndex:    make(map[string]Type),
		relIndex:     make(map[string]*Relation),
		functorIndex: make(map[string]*FunctorDeclaration),
	}
}

// AddType appends a type declaration. On a name collision the first
// declaration wins for lookups; the checker reports the clash.
func (p *Program) AddType(t Type) {
	p.types = append(p.types, t)
	key := t.TypeName().String()
	if _, exists := p.typeIndex[key]; !exists {
		p.typeIndex[key] = t
	}
}

// AddRelation appends a relation declaration.
func (p *Program) AddRelation(r *Relation) {
	p.relations = append(p.relations, r)
	key := r.Name.String()
	if _, exists := p.relIndex[key]; !exists {
		p.relIndex[key] = r
	}
}

// AddFunctor appends a user-defined functor declaration.
func (p *Program) AddFunctor(f *FunctorDeclaration) {
	p.functors = append(p.functors, f)
	if _, exists := p.functorIndex[f.Name]; !exists {
		p.functorIndex[f.Name] = f
	}
}

// AddClause appends a clause.
func (p *Program) AddClause(c *Clause) {
	p.clauses = append(p.clauses, c)
}

// AddDirective appends an I/O directive.
func (p *Program) AddDirective(d *Directive) {
	p.directives = append(p.directives, d)
}

// Type looks up a declared type by name.
func (p *Program) Type(name QualifiedName) Type {
	return p.typeIndex[name.String()]
}

// Relation looks up a declared relation by name.
func (p *Program) Relation(name QualifiedName) *Relation {
	return p.relIndex[name.String()]
}

// Functor looks up a user-defined functor declaration.
func (p *Program) Functor(name string) *FunctorDeclaration {
	return p.functorIndex[name]
}

// Types returns the type declarations in order. Callers must not mutate
// the slice itself.
func (p *Program) Types() []Type { return p.types }

// Relations returns the relation declarations in order.
func (p *Program) Relations() []*Relation { return p.relations }

// Clauses returns all clauses in order.
func (p *Program) Clauses() []*Clause { return p.clauses }

// Directives returns all I/O directives in order.
func (p *Program) Directives() []*Directive { return p.directives }

// Functors returns the user-defined functor declarations in order.
func (p *Program) Functors() []*FunctorDeclaration { return p.functors }

// ClausesOf returns the clauses whose head relation is name, in order.
func (p *Program) ClausesOf(name QualifiedName) []*Clause {
	var out []*Clause
	for _, c := range p.clauses {
		if c.Head.Name.Equal(name) {
			out = append(out, c)
		}
	}
	return out
}

// DirectivesOf returns the directives targeting name, in order.
func (p *Program) DirectivesOf(name QualifiedName) []*Directive {
	var out []*Directive
	for _, d := range p.directives {
		if d.Relation.Equal(name) {
			out = append(out, d)
		}
	}
	return out
}

// RemoveClause deletes the clause identified by pointer.
func (p *Program) RemoveClause(c *Clause) {
	for i, cur := range p.clauses {
		if cur == c {
			p.clauses = append(p.clauses[:i], p.clauses[i+1:]...)
			return
		}
	}
}

// RemoveDirective deletes the directive identified by pointer.
func (p *Program) RemoveDirective(d *Directive) {
	for i, cur := range p.directives {
		if cur == d {
			p.directives = append(p.directives[:i], p.directives[i+1:]...)
			return
		}
	}
}

// SetClauses replaces the whole clause list.
func (p *Program) SetClauses(clauses []*Clause) {
	p.clauses = clauses
}

// Clone returns a deep copy of the program.
func (p *Program) Clone() *Program {
	cp := NewProgram()
	for _, t := range p.types {
		cp.AddType(t.CloneType())
	}
	for _, r := range p.relations {
		cp.AddRelation(r.Clone())
	}
	for _, f := range p.functors {
		cp.AddFunctor(f.Clone())
	}
	for _, c := range p.clauses {
		cp.AddClause(c.Clone())
	}
	for _, d := range p.directives {
		cp.AddDirective(d.Clone())
	}
	return cp
}

// MustRelation is Relation that panics on a missing declaration. Transform
// passes call it after the semantic checker has accepted the program, so a
// miss is a compiler bug, not a user error.
func (p *Program) MustRelation(name QualifiedName) *Relation {
	rel := p.Relation(name)
	if rel == nil {
		panic(fmt.Sprintf("ast: relation %s does not exist", name))
	}
	return rel
}
