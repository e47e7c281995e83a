package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/stratlang/stratum/internal/ast"
	"github.com/stratlang/stratum/internal/config"
	"github.com/stratlang/stratum/internal/diag"
	"github.com/stratlang/stratum/internal/transform"
)

// NewTransformCommand creates the transform command.
func NewTransformCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transform <program.yaml>",
		Short: "Check a program and apply the magic-set rewrite",
		Long: `Run the semantic checker and, when the program is error-free, rewrite
it into demand-driven form with the magic-set pipeline
(normalise, adorn, label, magic). Prints the transformed program.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(rootOpts, args[0], cmd)
		},
	}
}

func runTransform(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	prog, err := LoadProgram(path)
	if err != nil {
		return err
	}

	coreOpts, err := config.Parse(opts.SuppressWarnings, opts.MagicTransform, opts.SIPS)
	if err != nil {
		return err
	}
	logger, err := newLogger(opts)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	collector := diag.NewCollector()
	runErr := transform.New(coreOpts, logger).Run(prog, collector)

	var printed, fingerprint string
	if runErr == nil {
		printed = ast.Print(prog)
		fingerprint = ast.Fingerprint(prog)
	}
	if err := formatter.PrintTransform(collector, printed, fingerprint); err != nil {
		return err
	}
	if runErr != nil {
		if errors.Is(runErr, transform.ErrProgramInvalid) {
			return errCheckFailed
		}
		return runErr
	}
	return nil
}
