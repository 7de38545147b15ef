// Package cli implements the nvmsim command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for nvmsim.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "nvmsim",
		Short:         "Run EEPROM driver scripts against a simulated XMEGA NVM controller",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log each EEPROM operation to stderr")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewInfoCommand())

	return cmd
}
