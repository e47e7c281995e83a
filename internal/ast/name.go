package ast

import "strings"

// Reserved primitive type names. They are valid attribute types without a
// declaration and may not be redeclared.
const (
	NumberName = "number"
	SymbolName = "symbol"
)

// QualifiedName is a nonempty ordered sequence of name segments. It is the
// single namespace key for types, relations and functors. Transform passes
// derive new names by prepending marker segments (e.g. "@magic") or
// appending adornment segments (e.g. "{bf}"); the printed form joins
// segments with dots.
type QualifiedName struct {
	segments []string
}

// Name builds a qualified name from its segments.
func Name(segments ...string) QualifiedName {
	return QualifiedName{segments: append([]string(nil), segments...)}
}

// ParseName splits a dotted string into a qualified name.
func ParseName(s string) QualifiedName {
	return QualifiedName{segments: strings.Split(s, ".")}
}

// Prepend returns a copy with seg added as the new first segment.
func (n QualifiedName) Prepend(seg string) QualifiedName {
	segs := make([]string, 0, len(n.segments)+1)
	segs = append(segs, seg)
	segs = append(segs, n.segments...)
	return QualifiedName{segments: segs}
}

// Append returns a copy with seg added as the new last segment.
func (n QualifiedName) Append(seg string) QualifiedName {
	segs := make([]string, 0, len(n.segments)+1)
	segs = append(segs, n.segments...)
	segs = append(segs, seg)
	return QualifiedName{segments: segs}
}

// Segments returns the segment sequence. Callers must not mutate it.
func (n QualifiedName) Segments() []string {
	return n.segments
}

// First returns the first segment, or "" for the zero name. Marker prefixes
// introduced by the transform passes ("@neglabel", "@magic", ...) always
// occupy the first segment.
func (n QualifiedName) First() string {
	if len(n.segments) == 0 {
		return ""
	}
	return n.segments[0]
}

// Last returns the final segment, or "" for the zero name. Adornment
// markers ("{bf...}") always occupy the last segment.
func (n QualifiedName) Last() string {
	if len(n.segments) == 0 {
		return ""
	}
	return n.segments[len(n.segments)-1]
}

// IsZero reports whether the name has no segments.
func (n QualifiedName) IsZero() bool {
	return len(n.segments) == 0
}

// Equal is segment-wise equality.
func (n QualifiedName) Equal(other QualifiedName) bool {
	if len(n.segments) != len(other.segments) {
		return false
	}
	for i, seg := range n.segments {
		if other.segments[i] != seg {
			return false
		}
	}
	return true
}

func (n QualifiedName) String() string {
	return strings.Join(n.segments, ".")
}
