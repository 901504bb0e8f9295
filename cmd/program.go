package cmd

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/rschlaikjer/faff/image"
	"github.com/rschlaikjer/faff/spiflash"
)

var programOpts struct {
	file     string
	lma      string
	noVerify bool
}

var errNoFile = errors.New("no input file specified, to view help run faff -h")

func registerProgramFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVarP(&programOpts.file, "file", "f", "", "The `binary` that should be written to the target (raw or Intel HEX)")
	f.StringVar(&programOpts.lma, "lma", "0x0", "The load memory `address` to use for the file")
	f.BoolVar(&programOpts.noVerify, "no-verify", false, "Disable reading back the programmed file to verify that programming was successful")
}

func runProgram(cmd *cobra.Command, args []string) error {
	if programOpts.file == "" {
		return errNoFile
	}

	lma, err := parseAddress(programOpts.lma)
	if err != nil {
		return err
	}

	/* Open the image before touching USB so a bad path fails fast */
	img, err := image.Load(programOpts.file)
	if err != nil {
		return fmt.Errorf("failed to open bitstream file '%s': %w", programOpts.file, err)
	}
	defer img.Close()

	if img.HasAddress {
		if cmd.Flags().Changed("lma") {
			return fmt.Errorf("%s carries its own load address 0x%08x, --lma cannot be used", programOpts.file, img.Address)
		}
		lma = img.Address
	}
	glog.Infof("Loaded %s: %d bytes, CRC32 %08x, load address 0x%08x", programOpts.file, img.Len(), img.CRC32(), lma)

	t, err := openTarget()
	if err != nil {
		return err
	}
	defer t.Close()

	cfg := spiflash.DefaultConfig()
	cfg.Verify = !programOpts.noVerify
	cfg.Progress = stderrProgress

	if err := t.programmer(cfg).Program(cmd.Context(), img.Bytes(), lma); err != nil {
		return err
	}

	glog.Infof("Programmed %d bytes at 0x%08x", img.Len(), lma)
	return nil
}
