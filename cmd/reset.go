package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rschlaikjer/faff/spiflash"
)

var resetHold bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the FPGA so it reloads its bitstream from flash",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := openTarget()
		if err != nil {
			return err
		}
		defer t.Close()

		ctx := cmd.Context()
		p := t.programmer(spiflash.DefaultConfig())

		if err := p.Hold(ctx); err != nil {
			return err
		}
		if resetHold {
			return nil
		}
		return p.Release(ctx)
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetHold, "hold", false, "Leave the FPGA in reset")
	rootCmd.AddCommand(resetCmd)
}
