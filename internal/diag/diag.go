// Package diag defines the diagnostic model shared by the semantic checker
// and the transform pipeline. Checks accumulate diagnostics through a
// Reporter and never fail fast; the pipeline driver inspects the collected
// set to decide whether transformation may proceed.
package diag

import (
	"fmt"
	"strings"

	"github.com/stratlang/stratum/internal/ast"
)

// Severity distinguishes pipeline-halting errors from advisory warnings.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// MarshalJSON renders the severity as its name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON accepts the name form produced by MarshalJSON.
func (s *Severity) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"warning"`:
		*s = Warning
	case `"error"`:
		*s = Error
	default:
		return fmt.Errorf("diag: unknown severity %s", data)
	}
	return nil
}

// Stable diagnostic codes. Messages may be reworded; codes may not.
const (
	CodeUndeclaredType        = "UndeclaredType"
	CodeUndeclaredRelation    = "UndeclaredRelation"
	CodeUndeclaredFunctor     = "UndeclaredFunctor"
	CodeDuplicateName         = "DuplicateName"
	CodeArityMismatch         = "ArityMismatch"
	CodeUngrounded            = "Ungrounded"
	CodeFactNotConstant       = "FactNotConstant"
	CodeBadCast               = "BadCast"
	CodeKindMismatch          = "KindMismatch"
	CodeMixedUnion            = "MixedUnion"
	CodeRecordInInput         = "RecordInInput"
	CodeRecordInOutput        = "RecordInOutput"
	CodeUnstratifiable        = "UnstratifiableNegation"
	CodeWitnessProblem        = "WitnessProblem"
	CodeBadInlining           = "BadInlining"
	CodeBadExecutionPlan      = "BadExecutionPlan"
	CodeUnusedVariable        = "UnusedVariable"
	CodeBadRelation           = "BadRelation"
	CodeNumberOutOfRange      = "NumberOutOfRange"
	CodeCounterInRecursion    = "CounterInRecursion"
	CodeUnderscoreInHead      = "UnderscoreInHead"
	CodeUnderscoreInConstraint = "UnderscoreInConstraint"
	CodeEmptyRelation         = "EmptyRelation"
	CodeTypeError             = "TypeError"
)

// Message is a located piece of diagnostic text.
type Message struct {
	Text string     `json:"text"`
	Loc  ast.SrcLoc `json:"loc"`
}

// Diagnostic is a single finding: a severity, a stable code, a primary
// located message, and optional secondary messages that add context (e.g.
// the offending literal of a stratification cycle).
type Diagnostic struct {
	Severity  Severity  `json:"severity"`
	Code      string    `json:"code"`
	Primary   Message   `json:"primary"`
	Secondary []Message `json:"secondary,omitempty"`
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: [%s] %s", d.Severity, d.Code, d.Primary.Text)
	if d.Primary.Loc.IsSet() {
		fmt.Fprintf(&b, " at %s", d.Primary.Loc)
	}
	for _, m := range d.Secondary {
		fmt.Fprintf(&b, "\n  %s", m.Text)
		if m.Loc.IsSet() {
			fmt.Fprintf(&b, " at %s", m.Loc)
		}
	}
	return b.String()
}

// Reporter is the opaque diagnostic sink. The core only ever writes to it.
type Reporter interface {
	Report(Diagnostic)
}

// Collector is the standard Reporter: it accumulates diagnostics in
// reporting order.
type Collector struct {
	diags []Diagnostic
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Report appends d.
func (c *Collector) Report(d Diagnostic) {
	c.diags = append(c.diags, d)
}

// All returns the accumulated diagnostics in reporting order.
func (c *Collector) All() []Diagnostic {
	return c.diags
}

// HasErrors reports whether any error-severity diagnostic was collected.
func (c *Collector) HasErrors() bool {
	for _, d := range c.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Counts returns the number of errors and warnings.
func (c *Collector) Counts() (errors, warnings int) {
	for _, d := range c.diags {
		if d.Severity == Error {
			errors++
		} else {
			warnings++
		}
	}
	return
}

// Errorf reports an error diagnostic with a formatted primary message.
func Errorf(r Reporter, code string, loc ast.SrcLoc, format string, args ...any) {
	r.Report(Diagnostic{
		Severity: Error,
		Code:     code,
		Primary:  Message{Text: fmt.Sprintf(format, args...), Loc: loc},
	})
}

// Warnf reports a warning diagnostic with a formatted primary message.
func Warnf(r Reporter, code string, loc ast.SrcLoc, format string, args ...any) {
	r.Report(Diagnostic{
		Severity: Warning,
		Code:     code,
		Primary:  Message{Text: fmt.Sprintf(format, args...), Loc: loc},
	})
}
