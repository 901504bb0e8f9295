package cmd

import (
	"fmt"
	"os"

	"github.com/google/gousb"
	"github.com/spf13/cobra"

	"github.com/rschlaikjer/faff/usb"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List attached devices with the selected VID:PID and their serials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := opts.selector()
		if err != nil {
			return err
		}

		ctx := gousb.NewContext()
		defer ctx.Close()

		fmt.Fprintf(os.Stderr, "Searching for devices with VID:PID %04x:%04x\n", sel.VendorID, sel.ProductID)

		infos, err := usb.List(usb.NewHost(ctx), sel.VendorID, sel.ProductID)
		if err != nil {
			return err
		}

		for i, info := range infos {
			fmt.Fprintf(os.Stderr, "[%d] %s\n", i, info)
		}
		if len(infos) > 0 {
			fmt.Fprintf(os.Stderr, "Found %d devices\n", len(infos))
		} else {
			fmt.Fprintln(os.Stderr, "Failed to find any devices")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
