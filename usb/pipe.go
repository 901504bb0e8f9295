package usb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/gousb"
)

const (
	endpointDirIn   = 0x80
	endpointNumMask = 0x0f
)

var (
	ErrShortIO      = errors.New("short transfer")
	ErrEndpointDir  = errors.New("endpoint address has the wrong direction")
	ErrPipeReleased = errors.New("pipe already released")
)

// Endpoints names the interface that carries the programming protocol and
// its bulk endpoint addresses.
type Endpoints struct {
	Interface int
	Alternate int
	TX        uint8
	RX        uint8
}

// The companion firmware exposes the programming interface as interface 2.
var DefaultEndpoints = Endpoints{
	Interface: 2,
	TX:        0x02,
	RX:        0x84,
}

func (e Endpoints) validate() error {
	if e.TX&endpointDirIn != 0 {
		return fmt.Errorf("TX 0x%02x: %w", e.TX, ErrEndpointDir)
	}
	if e.RX&endpointDirIn == 0 {
		return fmt.Errorf("RX 0x%02x: %w", e.RX, ErrEndpointDir)
	}
	return nil
}

// Pipe is a claimed interface with one bulk OUT and one bulk IN endpoint.
// Transfers are bounded by the context deadline.
type Pipe struct {
	cfg  *gousb.Config
	intf *gousb.Interface
	out  *gousb.OutEndpoint
	in   *gousb.InEndpoint
}

func claim(dev *gousb.Device, ep Endpoints) (_ *Pipe, err error) {
	if err := ep.validate(); err != nil {
		return nil, err
	}

	if err := dev.SetAutoDetach(true); err != nil {
		return nil, fmt.Errorf("failed to enable kernel driver auto-detach: %w", err)
	}

	num, err := dev.ActiveConfigNum()
	if err != nil {
		return nil, fmt.Errorf("failed to read active configuration: %w", err)
	}

	p := &Pipe{}
	defer func() {
		if err != nil {
			p.Close()
		}
	}()

	if p.cfg, err = dev.Config(num); err != nil {
		return nil, fmt.Errorf("failed to select configuration %d: %w", num, err)
	}
	if p.intf, err = p.cfg.Interface(ep.Interface, ep.Alternate); err != nil {
		return nil, fmt.Errorf("failed to claim usb interface 0x%02x: %w", ep.Interface, err)
	}
	if p.out, err = p.intf.OutEndpoint(int(ep.TX & endpointNumMask)); err != nil {
		return nil, fmt.Errorf("failed to open endpoint 0x%02x: %w", ep.TX, err)
	}
	if p.in, err = p.intf.InEndpoint(int(ep.RX & endpointNumMask)); err != nil {
		return nil, fmt.Errorf("failed to open endpoint 0x%02x: %w", ep.RX, err)
	}

	return p, nil
}

func (p *Pipe) Send(ctx context.Context, b []byte) error {
	if p.out == nil {
		return ErrPipeReleased
	}

	n, err := p.out.WriteContext(ctx, b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrShortIO, n, len(b))
	}
	return nil
}

func (p *Pipe) Receive(ctx context.Context, b []byte) error {
	if p.in == nil {
		return ErrPipeReleased
	}

	n, err := p.in.ReadContext(ctx, b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("%w: read %d of %d bytes", ErrShortIO, n, len(b))
	}
	return nil
}

// Close releases the interface and the configuration. It is safe to call
// more than once.
func (p *Pipe) Close() error {
	p.out = nil
	p.in = nil

	var err error
	if p.intf != nil {
		p.intf.Close()
		p.intf = nil
	}
	if p.cfg != nil {
		err = p.cfg.Close()
		p.cfg = nil
	}
	return err
}
