// Package transform implements the magic-set rewrite as a four-stage
// pipeline over the program: Normalise, Adorn, Label and Magic. Each stage
// is an AST-to-AST transformation producing a semantically equivalent
// program with respect to the facts derivable for output relations.
package transform

import (
	"errors"

	"go.uber.org/zap"

	"github.com/stratlang/stratum/internal/analysis"
	"github.com/stratlang/stratum/internal/ast"
	"github.com/stratlang/stratum/internal/config"
	"github.com/stratlang/stratum/internal/diag"
	"github.com/stratlang/stratum/internal/semcheck"
)

// ErrProgramInvalid is returned when the semantic checker reports any
// error-severity diagnostic; the pipeline refuses to transform an invalid
// program.
var ErrProgramInvalid = errors.New("transform: program has semantic errors")

// Context carries the per-run state every transformer receives.
type Context struct {
	Opts   config.Options
	Logger *zap.Logger
}

// Transformer is a single pipeline stage. Apply mutates the program behind
// the analysis set and reports whether anything changed; the caller
// invalidates the analyses on change.
type Transformer interface {
	Name() string
	Apply(set *analysis.Set, ctx Context) bool
}

// Pipeline gates the magic-set rewrite behind the semantic checker and
// runs the four stages in order.
type Pipeline struct {
	opts   config.Options
	logger *zap.Logger
}

// New builds a pipeline. A nil logger disables logging.
func New(opts config.Options, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{opts: opts, logger: logger}
}

// Check runs only the semantic checker, reporting into rep. It returns the
// options as adjusted by checker observations (engine unset when records
// are in use).
func (p *Pipeline) Check(prog *ast.Program, rep *diag.Collector) config.Options {
	set := analysis.NewSet(prog)
	result := semcheck.Check(prog, p.opts, set, rep)

	opts := p.opts
	if result.RecordsSeen && opts.Engine {
		opts.Engine = false
		p.logger.Debug("disabling engine: program uses record types")
	}
	errs, warns := rep.Counts()
	p.logger.Debug("semantic check complete",
		zap.Int("errors", errs),
		zap.Int("warnings", warns))
	return opts
}

// Run checks the program and, when it is error-free, applies the
// magic-set pipeline in place. Diagnostics accumulate in rep either way.
func (p *Pipeline) Run(prog *ast.Program, rep *diag.Collector) error {
	opts := p.Check(prog, rep)
	if rep.HasErrors() {
		return ErrProgramInvalid
	}

	ctx := Context{Opts: opts, Logger: p.logger}
	set := analysis.NewSet(prog)

	stages := []Transformer{
		Normalise{},
		Adorn{},
		Label{},
		Magic{},
	}
	for _, stage := range stages {
		changed := stage.Apply(set, ctx)
		p.logger.Debug("pipeline stage complete",
			zap.String("stage", stage.Name()),
			zap.Bool("changed", changed),
			zap.Int("clauses", len(prog.Clauses())),
			zap.Int("relations", len(prog.Relations())))
		if changed {
			set.Invalidate()
		}
	}
	return nil
}
