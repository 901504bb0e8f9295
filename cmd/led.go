package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var ledCmd = &cobra.Command{
	Use:   "led <r> <g> <b>",
	Short: "Set the colour of the status LED",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rgb [3]uint8
		for i, a := range args {
			v, err := strconv.ParseUint(a, 0, 8)
			if err != nil {
				return fmt.Errorf("invalid colour component %q: %w", a, err)
			}
			rgb[i] = uint8(v)
		}

		t, err := openTarget()
		if err != nil {
			return err
		}
		defer t.Close()

		return t.session.SetRGBLED(cmd.Context(), rgb[0], rgb[1], rgb[2])
	},
}

func init() {
	rootCmd.AddCommand(ledCmd)
}
