// Package cmd implements the faff command line.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rschlaikjer/faff/proto"
	"github.com/rschlaikjer/faff/usb"
)

type targetOptions struct {
	vid    string
	pid    string
	device string
	serial string

	iface int
	epTX  uint8
	epRX  uint8

	timeout     time.Duration
	busyTimeout time.Duration
}

var opts targetOptions

var rootCmd = &cobra.Command{
	Use:   "faff -f <binary>",
	Short: "faff: Find and Flash FPGA",
	Long: `faff programs the SPI configuration flash of an FPGA through its companion
microcontroller. The FPGA is held in reset while the flash is erased, written
and read back, then released.

Common usage: faff -f top.bin`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runProgram,
}

// Execute runs the command line against os.Args.
func Execute(ctx context.Context) error {
	/* glog complains when logging before the Go flag set is parsed */
	if err := flag.CommandLine.Parse(nil); err != nil {
		return err
	}
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flag.Set("logtostderr", "true")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.vid, "usb-vid", fmt.Sprintf("%04x", usb.DefaultVendorID), "Set vendor ID of device to use")
	pf.StringVar(&opts.pid, "usb-pid", fmt.Sprintf("%04x", usb.DefaultProductID), "Set product ID of device to use")
	pf.StringVar(&opts.device, "device", "", "Select device by `vid:pid`, overrides --usb-vid and --usb-pid")
	pf.StringVar(&opts.serial, "usb-serial", "", "Select device with specific `serial`. If not specified, the first device\nfound with a matching VID:PID is used")
	pf.IntVar(&opts.iface, "usb-interface", usb.DefaultEndpoints.Interface, "USB interface carrying the programming protocol")
	pf.Uint8Var(&opts.epTX, "usb-endpoint-tx", usb.DefaultEndpoints.TX, "Bulk OUT endpoint address")
	pf.Uint8Var(&opts.epRX, "usb-endpoint-rx", usb.DefaultEndpoints.RX, "Bulk IN endpoint address")
	pf.DurationVar(&opts.timeout, "timeout", proto.DefaultTimeout, "Timeout of every single USB transfer")
	pf.DurationVar(&opts.busyTimeout, "busy-timeout", 0, "Give up when the flash stays busy this long (0 waits forever)")
	pf.AddGoFlagSet(flag.CommandLine)

	registerProgramFlags(rootCmd)
}

func (o *targetOptions) selector() (usb.Selector, error) {
	var sel usb.Selector
	if o.device != "" {
		var err error
		if sel, err = usb.ParseSelector(o.device); err != nil {
			return sel, err
		}
	} else {
		vid, err := usb.ParseID(o.vid)
		if err != nil {
			return sel, err
		}
		pid, err := usb.ParseID(o.pid)
		if err != nil {
			return sel, err
		}
		sel = usb.Selector{VendorID: vid, ProductID: pid}
	}

	sel.Serial = o.serial
	return sel, nil
}

func (o *targetOptions) endpoints() usb.Endpoints {
	return usb.Endpoints{
		Interface: o.iface,
		TX:        o.epTX,
		RX:        o.epRX,
	}
}

func parseAddress(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint32(v), nil
}

func parseLength(s string) (int, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid length %q: %w", s, err)
	}
	return int(v), nil
}
