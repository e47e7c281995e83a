package analysis

import "github.com/stratlang/stratum/internal/ast"

// IOType classifies relations by their I/O directives.
type IOType struct {
	input     map[string]bool
	output    map[string]bool
	printSize map[string]bool
}

// NewIOType builds the classification from the program's directives.
func NewIOType(p *ast.Program) *IOType {
	io := &IOType{
		input:     make(map[string]bool),
		output:    make(map[string]bool),
		printSize: make(map[string]bool),
	}
	for _, d := range p.Directives() {
		key := d.Relation.String()
		switch d.Kind {
		case ast.DirectiveInput:
			io.input[key] = true
		case ast.DirectiveOutput:
			io.output[key] = true
		case ast.DirectivePrintSize:
			io.printSize[key] = true
		}
	}
	return io
}

// IsInput reports whether the relation has an input directive.
func (io *IOType) IsInput(name ast.QualifiedName) bool { return io.input[name.String()] }

// IsOutput reports whether the relation has an output directive.
func (io *IOType) IsOutput(name ast.QualifiedName) bool { return io.output[name.String()] }

// IsPrintSize reports whether the relation has a printsize directive.
func (io *IOType) IsPrintSize(name ast.QualifiedName) bool { return io.printSize[name.String()] }

// IsIO reports whether the relation has any I/O directive.
func (io *IOType) IsIO(name ast.QualifiedName) bool {
	return io.IsInput(name) || io.IsOutput(name) || io.IsPrintSize(name)
}
