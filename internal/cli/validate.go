package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	FailFast bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <chain.json>...",
		Short: "Validate chain documents against the schema",
		Long: `Validate chain documents: CUE schema conformance plus structural rules
(required parameters, UPDATE predicates, duplicate ids, back-reference
ordering).

Example:
  relay validate order-chain.json
  relay validate chains/*.json --fail-fast`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.FailFast, "fail-fast", false, "stop at the first error")

	return cmd
}

type validationReport struct {
	Path   string   `json:"path"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	mode := LoadModeCollectAll
	if opts.FailFast {
		mode = LoadModeFailFast
	}

	var reports []validationReport
	failed := false
	for _, path := range paths {
		_, errs := LoadCommand(path, mode)
		report := validationReport{Path: path, Valid: len(errs) == 0}
		for _, err := range errs {
			report.Errors = append(report.Errors, err.Error())
		}
		reports = append(reports, report)
		if !report.Valid {
			failed = true
			if opts.FailFast {
				break
			}
		}
	}

	if opts.Format == "json" {
		if err := out.Success(reports); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			if r.Valid {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", r.Path)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d error(s)\n", r.Path, len(r.Errors))
			for _, msg := range r.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", msg)
			}
		}
	}

	if failed {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}
