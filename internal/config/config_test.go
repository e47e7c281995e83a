package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcherExactAndStar(t *testing.T) {
	m, err := CompileMatcher([]string{"edge", "path"})
	require.NoError(t, err)
	assert.True(t, m.Matches("edge"))
	assert.True(t, m.Matches("path"))
	assert.False(t, m.Matches("other"))
	assert.False(t, m.MatchesAll())

	all, err := CompileMatcher([]string{"*"})
	require.NoError(t, err)
	assert.True(t, all.MatchesAll())
	assert.True(t, all.Matches("anything"))
}

func TestMatcherGlobs(t *testing.T) {
	m, err := CompileMatcher([]string{"graph.*"})
	require.NoError(t, err)
	assert.True(t, m.Matches("graph.edge"))
	assert.False(t, m.Matches("graph.sub.edge"), "glob star does not cross name segments")
	assert.False(t, m.Matches("other.edge"))
}

func TestNilMatcherMatchesNothing(t *testing.T) {
	var m *Matcher
	assert.False(t, m.Matches("edge"))
	assert.False(t, m.MatchesAll())
}

func TestParseOptions(t *testing.T) {
	opts, err := Parse("noisy, other", "*", "")
	require.NoError(t, err)
	assert.True(t, opts.SuppressWarnings.Matches("noisy"))
	assert.True(t, opts.SuppressWarnings.Matches("other"), "patterns are trimmed")
	assert.True(t, opts.MagicTransform.MatchesAll())
	assert.Equal(t, SIPSMaxBound, opts.SIPS)

	opts, err = Parse("", "", "naive")
	require.NoError(t, err)
	assert.Equal(t, SIPSNaive, opts.SIPS)
	assert.Nil(t, opts.SuppressWarnings)

	_, err = Parse("", "", "bogus")
	assert.Error(t, err)
}

func TestDefaultRewritesEverything(t *testing.T) {
	opts := Default()
	assert.True(t, opts.MagicTransform.MatchesAll())
	assert.Nil(t, opts.SuppressWarnings)
	assert.Equal(t, SIPSMaxBound, opts.SIPS)
	assert.False(t, opts.Engine)
}
