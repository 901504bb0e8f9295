package usb

import (
	"github.com/google/gousb"
)

type contextHost struct {
	ctx *gousb.Context
}

// NewHost enumerates devices through a libusb context.
func NewHost(ctx *gousb.Context) Host {
	return contextHost{ctx: ctx}
}

func (h contextHost) OpenDevices(opener func(desc *gousb.DeviceDesc) bool) ([]Device, error) {
	/* gousb frees the libusb device list before returning */
	devs, err := h.ctx.OpenDevices(opener)

	result := make([]Device, 0, len(devs))
	for _, d := range devs {
		result = append(result, &device{dev: d})
	}
	return result, err
}

type device struct {
	dev  *gousb.Device
	pipe *Pipe
}

func (d *device) Descriptor() *gousb.DeviceDesc {
	return d.dev.Desc
}

func (d *device) SerialNumber() (string, error) {
	return d.dev.SerialNumber()
}

func (d *device) Claim(ep Endpoints) (*Pipe, error) {
	if d.pipe != nil {
		return d.pipe, nil
	}

	p, err := claim(d.dev, ep)
	if err != nil {
		return nil, err
	}
	d.pipe = p
	return p, nil
}

// Close releases a claimed interface first, then the device handle.
func (d *device) Close() error {
	if d.dev == nil {
		return nil
	}

	if d.pipe != nil {
		d.pipe.Close()
		d.pipe = nil
	}

	dev := d.dev
	d.dev = nil
	return dev.Close()
}
