package usb

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
	"github.com/google/gousb"
)

var ErrNotFound = errors.New("matching USB device not found")

// Device is one opened USB device.
type Device interface {
	Descriptor() *gousb.DeviceDesc
	SerialNumber() (string, error)
	Claim(ep Endpoints) (*Pipe, error)
	Close() error
}

// Host enumerates the attached devices. OpenDevices calls opener with every
// descriptor in enumeration order and opens the ones it accepts. On error
// the returned slice may still hold opened devices.
type Host interface {
	OpenDevices(opener func(desc *gousb.DeviceDesc) bool) ([]Device, error)
}

// DiscoveryError is a hard failure while scanning the bus: a descriptor
// could not be read or a matching device could not be opened.
type DiscoveryError struct {
	Err error
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

func (e *DiscoveryError) Error() string {
	return "USB discovery failed: " + e.Err.Error()
}

func closeAll(devs []Device) {
	for _, d := range devs {
		if d != nil {
			d.Close()
		}
	}
}

func (s Selector) matches(desc *gousb.DeviceDesc) bool {
	return uint16(desc.Vendor) == s.VendorID && uint16(desc.Product) == s.ProductID
}

/* openCandidate opens only the k-th enumerated VID:PID match. It returns a
 * nil device once the enumeration has fewer than k+1 matches. */
func openCandidate(host Host, sel Selector, k int) (Device, error) {
	seen := 0
	devs, err := host.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if !sel.matches(desc) {
			return false
		}
		seen++
		return seen == k+1
	})
	if len(devs) == 0 {
		if err != nil {
			return nil, &DiscoveryError{Err: err}
		}
		return nil, nil
	}

	/* The candidate opened; the error belongs to some other device */
	if err != nil {
		glog.Warningf("Ignoring enumeration error while opening candidate %d: %v", k, err)
	}
	closeAll(devs[1:])
	return devs[0], nil
}

// Find returns the one opened device matching sel. Candidates are opened one
// at a time in enumeration order and the scan stops at the first acceptable
// one, so later devices are never opened. Without a serial the first VID:PID
// match wins; with a serial the first whose serial equals sel.Serial exactly.
// Every rejected candidate is closed before moving on.
func Find(host Host, sel Selector) (Device, error) {
	for k := 0; ; k++ {
		d, err := openCandidate(host, sel, k)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, ErrNotFound
		}

		if sel.Serial == "" {
			return d, nil
		}

		/* Failing to read one candidate's serial only rules out that candidate */
		serial, err := d.SerialNumber()
		if err != nil {
			glog.Warningf("Failed to query serial descriptor of candidate %d: %v", k, err)
			d.Close()
			continue
		}

		if serial == sel.Serial {
			return d, nil
		}
		glog.V(1).Infof("Skipping %s with serial %q", describe(d.Descriptor()), serial)
		d.Close()
	}
}

// Info describes one device seen by List.
type Info struct {
	Bus     int
	Address int
	Serial  string
}

func (i Info) String() string {
	return fmt.Sprintf("Serial: %s (bus %03d device %03d)", i.Serial, i.Bus, i.Address)
}

// List opens every device matching vid:pid, reads its serial and closes it
// again. Devices that fail to open are reported and skipped.
func List(host Host, vid, pid uint16) ([]Info, error) {
	sel := Selector{VendorID: vid, ProductID: pid}

	devs, err := host.OpenDevices(sel.matches)
	defer closeAll(devs)
	if err != nil {
		if len(devs) == 0 {
			return nil, &DiscoveryError{Err: err}
		}
		glog.Warningf("Some devices could not be opened: %v", err)
	}

	infos := make([]Info, 0, len(devs))
	for _, d := range devs {
		desc := d.Descriptor()
		serial, err := d.SerialNumber()
		if err != nil {
			glog.Warningf("Failed to query serial descriptor of %s: %v", describe(desc), err)
		}
		infos = append(infos, Info{Bus: desc.Bus, Address: desc.Address, Serial: serial})
	}
	return infos, nil
}

func describe(desc *gousb.DeviceDesc) string {
	if desc == nil {
		return "device"
	}
	return fmt.Sprintf("%s:%s at %d.%d", desc.Vendor, desc.Product, desc.Bus, desc.Address)
}
