package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/stratlang/stratum/internal/config"
	"github.com/stratlang/stratum/internal/diag"
	"github.com/stratlang/stratum/internal/transform"
)

// errCheckFailed signals a non-zero exit without an extra error message;
// the diagnostics were already printed.
var errCheckFailed = errors.New("check failed")

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <program.yaml>",
		Short: "Validate a program without transforming it",
		Long: `Run the semantic checker against a serialized program and report all
diagnostics. Exits non-zero when any error-severity diagnostic is found;
warnings never fail the command.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}
}

func runCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
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
	transform.New(coreOpts, logger).Check(prog, collector)

	if err := formatter.PrintCheck(collector); err != nil {
		return err
	}
	if collector.HasErrors() {
		return errCheckFailed
	}
	return nil
}
