package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/stratlang/stratum/internal/diag"
)

// OutputFormatter renders diagnostics and results as text or JSON.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CheckResult is the JSON shape of a check run.
type CheckResult struct {
	Valid       bool              `json:"valid"`
	Errors      int               `json:"errors"`
	Warnings    int               `json:"warnings"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
}

// TransformResult is the JSON shape of a transform run.
type TransformResult struct {
	CheckResult
	Program     string `json:"program,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// PrintDiagnostics writes the collected diagnostics in text form.
func (f *OutputFormatter) PrintDiagnostics(collector *diag.Collector) {
	for _, d := range collector.All() {
		fmt.Fprintln(f.Writer, d.Error())
	}
}

// PrintCheck writes the result of a check run.
func (f *OutputFormatter) PrintCheck(collector *diag.Collector) error {
	errs, warns := collector.Counts()
	if f.Format == "json" {
		return f.printJSON(CheckResult{
			Valid:       errs == 0,
			Errors:      errs,
			Warnings:    warns,
			Diagnostics: collector.All(),
		})
	}
	f.PrintDiagnostics(collector)
	if errs == 0 {
		fmt.Fprintf(f.Writer, "ok: %d warning(s)\n", warns)
	} else {
		fmt.Fprintf(f.Writer, "failed: %d error(s), %d warning(s)\n", errs, warns)
	}
	return nil
}

// PrintTransform writes the result of a transform run. program is empty
// when the check failed.
func (f *OutputFormatter) PrintTransform(collector *diag.Collector, program, fingerprint string) error {
	errs, warns := collector.Counts()
	if f.Format == "json" {
		return f.printJSON(TransformResult{
			CheckResult: CheckResult{
				Valid:       errs == 0,
				Errors:      errs,
				Warnings:    warns,
				Diagnostics: collector.All(),
			},
			Program:     program,
			Fingerprint: fingerprint,
		})
	}
	f.PrintDiagnostics(collector)
	if errs > 0 {
		fmt.Fprintf(f.Writer, "failed: %d error(s), %d warning(s)\n", errs, warns)
		return nil
	}
	fmt.Fprint(f.Writer, program)
	return nil
}

func (f *OutputFormatter) printJSON(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
