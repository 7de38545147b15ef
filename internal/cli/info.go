package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oxplot/go-nvm"
)

// NewInfoCommand creates the info command which prints the EEPROM geometry
// and NVM command opcodes.
func NewInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print EEPROM geometry and NVM commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "eeprom size: %d bytes\n", nvm.EEPROMSize)
			fmt.Fprintf(w, "page size:   %d bytes\n", nvm.PageSize)
			fmt.Fprintf(w, "pages:       %d\n", nvm.PageCount)
			fmt.Fprintln(w, "commands:")
			for _, c := range []nvm.Command{
				nvm.CmdReadEEPROM,
				nvm.CmdEraseEEPROM,
				nvm.CmdLoadEEPROMBuffer,
				nvm.CmdEraseWriteEEPROMPage,
			} {
				fmt.Fprintf(w, "  0x%02X %s\n", uint8(c), c)
			}
			return nil
		},
	}
}
