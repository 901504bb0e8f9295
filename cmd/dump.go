package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"zappem.net/pub/debug/xxd"

	"github.com/rschlaikjer/faff/spiflash"
)

var dumpOpts struct {
	addr   string
	length string
	out    string
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Read back a region of the flash",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddress(dumpOpts.addr)
		if err != nil {
			return err
		}
		n, err := parseLength(dumpOpts.length)
		if err != nil {
			return err
		}

		t, err := openTarget()
		if err != nil {
			return err
		}
		defer t.Close()

		ctx := cmd.Context()
		cfg := spiflash.DefaultConfig()
		if dumpOpts.out != "" {
			cfg.Progress = stderrProgress
		}
		p := t.programmer(cfg)

		if err := p.Hold(ctx); err != nil {
			return err
		}
		data, err := p.Read(ctx, addr, n)
		if err != nil {
			return err
		}
		if err := p.Release(ctx); err != nil {
			return err
		}

		if dumpOpts.out == "" {
			xxd.Print(int(addr), data)
			return nil
		}
		if err := os.WriteFile(dumpOpts.out, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", dumpOpts.out, err)
		}
		return nil
	},
}

func init() {
	f := dumpCmd.Flags()
	f.StringVar(&dumpOpts.addr, "addr", "0x0", "Flash `address` to start reading at")
	f.StringVarP(&dumpOpts.length, "length", "n", "256", "Number of `bytes` to read")
	f.StringVarP(&dumpOpts.out, "output", "o", "", "Output `file` (default: hexdump to stdout)")
	rootCmd.AddCommand(dumpCmd)
}
