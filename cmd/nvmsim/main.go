// NVMSim runs scripts of EEPROM operations through the XMEGA NVM driver on a
// simulated controller and shows what the driver did to the registers and the
// memory.
package main

import (
	"fmt"
	"os"

	"github.com/oxplot/go-nvm/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "nvmsim:", err)
		os.Exit(1)
	}
}
