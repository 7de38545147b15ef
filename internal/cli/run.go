package cli

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oxplot/go-nvm"
	"github.com/oxplot/go-nvm/internal/script"
	"github.com/oxplot/go-nvm/nvmdriver/xmega"
	"github.com/oxplot/go-nvm/nvmlog"
	"github.com/oxplot/go-nvm/sim"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Image string
	Out   string
	Trace bool
	Dump  bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Run a script of EEPROM operations on a simulated controller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Image, "image", "", "raw EEPROM image to start from")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write the resulting EEPROM image to this file")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print every register access")
	cmd.Flags().BoolVar(&opts.Dump, "dump", false, "hex dump the EEPROM after the run")

	return cmd
}

func runScript(cmd *cobra.Command, opts *RunOptions, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	s, err := script.Parse(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	dev := sim.New(s.BusyPolls)
	if opts.Image != "" {
		img, err := os.ReadFile(opts.Image)
		if err != nil {
			return err
		}
		if len(img) > nvm.EEPROMSize {
			return fmt.Errorf("image %s is %d bytes, larger than the %d byte EEPROM", opts.Image, len(img), nvm.EEPROMSize)
		}
		dev.SetMemory(img)
	}

	c := xmega.New(dev, nil)
	var e nvm.EEPROM = c
	if opts.Verbose {
		e = nvmlog.NewLogger(cmd.ErrOrStderr(), "\n", c)
	}

	w := cmd.OutOrStdout()
	if err := s.Run(e, c, w); err != nil {
		return err
	}

	// EraseAll leaves the controller busy, let it settle before reporting.
	c.WaitForReady()

	if v := dev.Violations(); len(v) > 0 {
		fmt.Fprintf(w, "%d stores while busy:\n", len(v))
		for _, a := range v {
			fmt.Fprintf(w, "  %s\n", a)
		}
	}
	if opts.Trace {
		fmt.Fprint(w, dev.TraceString())
	}
	if opts.Dump {
		fmt.Fprint(w, hex.Dump(dev.Memory()))
	}
	if opts.Out != "" {
		if err := os.WriteFile(opts.Out, dev.Memory(), 0o644); err != nil {
			return err
		}
	}
	return nil
}
