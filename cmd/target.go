package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/google/gousb"

	"github.com/rschlaikjer/faff/proto"
	"github.com/rschlaikjer/faff/spiflash"
	"github.com/rschlaikjer/faff/usb"
)

// target owns everything opened for one run and releases it in Close.
type target struct {
	usbctx  *gousb.Context
	dev     usb.Device
	session *proto.Session
}

func openTarget() (_ *target, err error) {
	sel, err := opts.selector()
	if err != nil {
		return nil, err
	}

	t := &target{usbctx: gousb.NewContext()}
	defer func() {
		if err != nil {
			t.Close()
		}
	}()

	t.dev, err = usb.Find(usb.NewHost(t.usbctx), sel)
	if errors.Is(err, usb.ErrNotFound) {
		return nil, fmt.Errorf("failed to find device %s: %w", sel, err)
	}
	if err != nil {
		return nil, err
	}

	pipe, err := t.dev.Claim(opts.endpoints())
	if err != nil {
		return nil, err
	}

	serial, err := t.dev.SerialNumber()
	if err != nil {
		glog.Warningf("Failed to query serial descriptor: %v", err)
	}
	glog.Infof("Claimed device %04x:%04x with serial %s", sel.VendorID, sel.ProductID, serial)

	t.session = proto.New(pipe)
	t.session.Timeout = opts.timeout
	return t, nil
}

func (t *target) programmer(cfg spiflash.Config) *spiflash.Programmer {
	cfg.BusyTimeout = opts.busyTimeout
	return spiflash.New(t.session, cfg)
}

func (t *target) Close() {
	if t.dev != nil {
		if err := t.dev.Close(); err != nil {
			glog.Warningf("Failed to close device: %v", err)
		}
		t.dev = nil
	}
	if t.usbctx != nil {
		t.usbctx.Close()
		t.usbctx = nil
	}
}

// progressPrinter rewrites one status line per pass on w.
func progressPrinter(w io.Writer) spiflash.ProgressFunc {
	return func(p spiflash.Progress) {
		fmt.Fprintf(w, "%s block 0x%012x / 0x%012x\r", p.Stage, p.Address, p.End)
		if p.Done == p.Total {
			fmt.Fprintln(w)
		}
	}
}

var stderrProgress = progressPrinter(os.Stderr)
