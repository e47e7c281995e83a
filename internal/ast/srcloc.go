package ast

import "fmt"

// SrcLoc identifies a position in an input program. The zero value means
// the node was generated by a transform rather than written by the user.
type SrcLoc struct {
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
	Line   int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column int    `json:"column,omitempty" yaml:"column,omitempty"`
}

// IsSet reports whether the location points at real source text.
func (l SrcLoc) IsSet() bool {
	return l.Line > 0
}

func (l SrcLoc) String() string {
	if !l.IsSet() {
		return "<generated>"
	}
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}
