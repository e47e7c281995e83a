package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameString(t *testing.T) {
	assert.Equal(t, "edge", Name("edge").String())
	assert.Equal(t, "graph.edge", Name("graph", "edge").String())
}

func TestParseName(t *testing.T) {
	name := ParseName("graph.edge")
	assert.Equal(t, []string{"graph", "edge"}, name.Segments())
	assert.True(t, name.Equal(Name("graph", "edge")))
}

func TestNamePrependAppend(t *testing.T) {
	base := Name("edge")

	prefixed := base.Prepend("@magic")
	assert.Equal(t, "@magic.edge", prefixed.String())
	assert.Equal(t, "edge", base.String(), "prepend must not mutate the receiver")

	suffixed := base.Append("{bf}")
	assert.Equal(t, "edge.{bf}", suffixed.String())
	assert.Equal(t, "@magic", prefixed.First())
	assert.Equal(t, "{bf}", suffixed.Last())
}

func TestNameEqual(t *testing.T) {
	assert.True(t, Name("a", "b").Equal(Name("a", "b")))
	assert.False(t, Name("a", "b").Equal(Name("a")))
	assert.False(t, Name("a").Equal(Name("b")))
}
