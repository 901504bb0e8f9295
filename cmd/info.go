package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rschlaikjer/faff/spiflash"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the flash chip ID and the FPGA and flash status",
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

		id, err := p.Identify(ctx)
		if err != nil {
			return err
		}
		fpga, err := t.session.FPGAStatus(ctx)
		if err != nil {
			return err
		}
		flash, err := t.session.FlashStatus(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Flash chip:      %s\n", spiflash.ChipName(id))
		fmt.Printf("Manufacturer:    0x%02x\n", id.Manufacturer)
		fmt.Printf("Device ID:       0x%02x\n", id.Device)
		fmt.Printf("Unique ID:       0x%016x\n", id.UniqueID)
		fmt.Printf("FPGA status:     %s\n", fpga)
		fmt.Printf("Flash status:    %s\n", flash)

		return p.Release(ctx)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
