// Package cli wires the compiler core to a command-line driver: program
// loading, the check and transform commands, and diagnostic output.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Option strings forwarded to config.Parse.
	SuppressWarnings string
	MagicTransform   string
	SIPS             string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the stratum CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "stratum",
		Short: "Stratum - Datalog semantic checker and magic-set compiler",
		Long: `Stratum validates Datalog programs against the language's static
semantics and rewrites them into demand-driven form via the magic-set
transformation. Programs are read in the serialized AST form produced by
an upstream parser.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.SuppressWarnings, "suppress-warnings", "", "comma list of relation globs to mute, or *")
	cmd.PersistentFlags().StringVar(&opts.MagicTransform, "magic-transform", "*", "comma list of relation globs to rewrite, or *")
	cmd.PersistentFlags().StringVar(&opts.SIPS, "sips", "max-bound", "sideways information passing strategy (max-bound|naive)")

	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewTransformCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// newLogger builds the command logger: development logging when verbose,
// otherwise silent.
func newLogger(opts *RootOptions) (*zap.Logger, error) {
	if !opts.Verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}
