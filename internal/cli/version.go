package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the relay CLI version, overridable at build time with
// -ldflags "-X github.com/relaydb/relay/internal/cli.Version=...".
var Version = "0.2.0"

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the relay version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rootOpts.Format == "json" {
				out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return out.Success(map[string]string{"version": Version})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "relay "+Version)
			return nil
		},
	}
}
