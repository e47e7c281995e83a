// Package config carries the compiler options consumed by the semantic
// checker and the magic-set pipeline. Options are an explicit value
// threaded through every pass; there is no global configuration state.
package config

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// SIPSStrategy selects the sideways-information-passing policy used by the
// adornment pass.
type SIPSStrategy string

const (
	// SIPSMaxBound picks the unprocessed atom with the most bound argument
	// positions, preferring EDB atoms and then the leftmost on ties.
	SIPSMaxBound SIPSStrategy = "max-bound"
	// SIPSNaive picks the leftmost unprocessed atom with any bound
	// argument, preferring EDB atoms.
	SIPSNaive SIPSStrategy = "naive"
)

// Matcher matches relation names against a comma list of glob patterns.
// The single pattern "*" matches every relation. A nil Matcher matches
// nothing.
type Matcher struct {
	all   bool
	globs []glob.Glob
}

// CompileMatcher builds a Matcher from patterns. Patterns are matched
// against the dotted printed form of qualified names.
func CompileMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, pat := range patterns {
		pat = strings.TrimSpace(pat)
		if pat == "" {
			continue
		}
		if pat == "*" {
			m.all = true
			continue
		}
		g, err := glob.Compile(pat, '.')
		if err != nil {
			return nil, fmt.Errorf("invalid relation pattern %q: %w", pat, err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// MatchesAll reports whether the matcher was built with "*".
func (m *Matcher) MatchesAll() bool {
	return m != nil && m.all
}

// Matches reports whether name is selected.
func (m *Matcher) Matches(name string) bool {
	if m == nil {
		return false
	}
	if m.all {
		return true
	}
	for _, g := range m.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Options is the full option set consumed by the core.
type Options struct {
	// SuppressWarnings mutes "no rules/facts" warnings for matched
	// relations.
	SuppressWarnings *Matcher
	// MagicTransform restricts which relations the magic-set pipeline
	// rewrites.
	MagicTransform *Matcher
	// SIPS selects the adornment atom-selection policy.
	SIPS SIPSStrategy
	// Engine enables subprogram compilation. The driver clears it when the
	// checker reports that any record type is used.
	Engine bool
}

// Default returns options with magic-set enabled for all relations and the
// default SIPS policy.
func Default() Options {
	all, _ := CompileMatcher([]string{"*"})
	return Options{
		MagicTransform: all,
		SIPS:           SIPSMaxBound,
	}
}

// Parse builds Options from the raw comma-list option strings.
func Parse(suppressWarnings, magicTransform, sips string) (Options, error) {
	opts := Options{SIPS: SIPSMaxBound}

	if suppressWarnings != "" {
		m, err := CompileMatcher(strings.Split(suppressWarnings, ","))
		if err != nil {
			return Options{}, fmt.Errorf("suppress-warnings: %w", err)
		}
		opts.SuppressWarnings = m
	}

	if magicTransform != "" {
		m, err := CompileMatcher(strings.Split(magicTransform, ","))
		if err != nil {
			return Options{}, fmt.Errorf("magic-transform: %w", err)
		}
		opts.MagicTransform = m
	}

	switch sips {
	case "", string(SIPSMaxBound):
		opts.SIPS = SIPSMaxBound
	case string(SIPSNaive):
		opts.SIPS = SIPSNaive
	default:
		return Options{}, fmt.Errorf("unknown sips strategy %q", sips)
	}

	return opts, nil
}
