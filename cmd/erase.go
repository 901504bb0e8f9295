package cmd

import (
	"errors"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/rschlaikjer/faff/spiflash"
)

var eraseOpts struct {
	addr   string
	length string
	chip   bool
}

var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase a sector aligned region or the whole flash",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !eraseOpts.chip && eraseOpts.length == "" {
			return errors.New("either --chip or --length is required")
		}

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

		if eraseOpts.chip {
			glog.Info("Erasing entire flash")
			if err := p.EraseChip(ctx); err != nil {
				return err
			}
		} else {
			addr, err := parseAddress(eraseOpts.addr)
			if err != nil {
				return err
			}
			n, err := parseLength(eraseOpts.length)
			if err != nil {
				return err
			}
			glog.Infof("Erasing 0x%x bytes at 0x%08x", n, addr)
			if err := p.EraseRange(ctx, addr, n); err != nil {
				return err
			}
		}

		return p.Release(ctx)
	},
}

func init() {
	f := eraseCmd.Flags()
	f.StringVar(&eraseOpts.addr, "addr", "0x0", "4K aligned flash `address` to start erasing at")
	f.StringVarP(&eraseOpts.length, "length", "n", "", "Number of `bytes` to erase, rounded up to 4K")
	f.BoolVar(&eraseOpts.chip, "chip", false, "Erase the entire flash")
	rootCmd.AddCommand(eraseCmd)
}
