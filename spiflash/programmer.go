package spiflash

import (
	"bytes"
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/rschlaikjer/faff/proto"
)

// Device is the subset of the protocol session the programmer drives.
type Device interface {
	SetRGBLED(ctx context.Context, r, g, b uint8) error

	FPGAResetAssert(ctx context.Context) error
	FPGAResetDeassert(ctx context.Context) error
	FPGAUnderReset(ctx context.Context) (bool, error)

	FlashIdentify(ctx context.Context) (proto.FlashID, error)
	FlashErase4K(ctx context.Context, addr uint32) error
	FlashErase32K(ctx context.Context, addr uint32) error
	FlashErase64K(ctx context.Context, addr uint32) error
	FlashEraseChip(ctx context.Context) error
	FlashWrite(ctx context.Context, addr uint32, data []byte) error
	FlashRead(ctx context.Context, addr uint32, buf []byte) error
	FlashBusy(ctx context.Context) (bool, error)
}

/* Status LED colours */
var (
	ledHeld    = [3]uint8{0, 128, 0}
	ledWriting = [3]uint8{64, 32, 0}
	ledIdle    = [3]uint8{0, 16, 0}
)

type Programmer struct {
	dev Device
	cfg Config
}

func New(dev Device, cfg Config) *Programmer {
	if cfg.ChunkSize <= 0 || cfg.ChunkSize > proto.MaxChunk {
		cfg.ChunkSize = proto.MaxChunk
	}
	return &Programmer{
		dev: dev,
		cfg: cfg,
	}
}

func (p *Programmer) led(ctx context.Context, c [3]uint8) error {
	return p.dev.SetRGBLED(ctx, c[0], c[1], c[2])
}

func (p *Programmer) progress(stage string, addr, end uint32, done, total int) {
	if p.cfg.Progress != nil {
		p.cfg.Progress(Progress{Stage: stage, Address: addr, End: end, Done: done, Total: total})
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// waitIdle sleeps for interval, then polls the busy bit until it clears.
func (p *Programmer) waitIdle(ctx context.Context, interval time.Duration) error {
	var deadline time.Time
	if p.cfg.BusyTimeout > 0 {
		deadline = time.Now().Add(p.cfg.BusyTimeout)
	}

	for {
		if err := sleep(ctx, interval); err != nil {
			return err
		}

		busy, err := p.dev.FlashBusy(ctx)
		if err != nil {
			return err
		}
		if !busy {
			return nil
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			return ErrUnresponsive
		}
	}
}

// Hold asserts the FPGA reset line so the SPI flash is free, and checks the
// FPGA reports being under reset.
func (p *Programmer) Hold(ctx context.Context) error {
	if err := p.dev.FPGAResetAssert(ctx); err != nil {
		return err
	}
	if err := p.led(ctx, ledHeld); err != nil {
		return err
	}

	underReset, err := p.dev.FPGAUnderReset(ctx)
	if err != nil {
		return err
	}
	if !underReset {
		return &ResetError{Assert: true}
	}
	return nil
}

// Release deasserts the FPGA reset line and checks the FPGA left reset.
func (p *Programmer) Release(ctx context.Context) error {
	if err := p.dev.FPGAResetDeassert(ctx); err != nil {
		return err
	}

	underReset, err := p.dev.FPGAUnderReset(ctx)
	if err != nil {
		return err
	}
	if underReset {
		return &ResetError{Assert: false}
	}
	return p.led(ctx, ledIdle)
}

// Identify reads and logs the flash chip ID.
func (p *Programmer) Identify(ctx context.Context) (proto.FlashID, error) {
	id, err := p.dev.FlashIdentify(ctx)
	if err != nil {
		return id, err
	}
	glog.Infof("Flash chip mfgr: 0x%02x, Device ID: 0x%02x Unique ID: 0x%016x (%s)",
		id.Manufacturer, id.Device, id.UniqueID, ChipName(id))
	return id, nil
}

func checkRange(img []byte, lma uint32) error {
	if len(img) == 0 {
		return ErrEmptyImage
	}
	if uint64(lma)+uint64(len(img)) > 1<<32 {
		return ErrAddressRange
	}
	return nil
}

// Program writes img at lma, optionally verifies it, then releases the
// FPGA. On any error the FPGA is left in reset.
func (p *Programmer) Program(ctx context.Context, img []byte, lma uint32) error {
	if err := checkRange(img, lma); err != nil {
		return err
	}

	if err := p.Hold(ctx); err != nil {
		return err
	}

	if _, err := p.Identify(ctx); err != nil {
		return err
	}

	if err := p.led(ctx, ledWriting); err != nil {
		return err
	}

	if err := p.Write(ctx, img, lma); err != nil {
		return err
	}

	if p.cfg.Verify {
		if err := p.Verify(ctx, img, lma); err != nil {
			return err
		}
	}

	return p.Release(ctx)
}

// Write erases every 4K sector the image touches on first touch, then
// programs the image chunk by chunk. Chunks are at most ChunkSize bytes and
// never cross a 256-byte flash page.
func (p *Programmer) Write(ctx context.Context, img []byte, lma uint32) error {
	if err := checkRange(img, lma); err != nil {
		return err
	}

	end := lma + uint32(len(img)-1)
	cur := cursor{base: lma}
	for int(cur.offset) < len(img) {
		addr := cur.address()

		if sector, ok := cur.needsErase(); ok {
			glog.V(1).Infof("Erasing sector 0x%08x", sector)
			if err := p.dev.FlashErase4K(ctx, sector); err != nil {
				return err
			}
			if err := p.waitIdle(ctx, p.cfg.EraseInterval); err != nil {
				return err
			}
		}

		n := chunkLen(addr, len(img)-int(cur.offset), p.cfg.ChunkSize)
		chunk := img[cur.offset : int(cur.offset)+n]

		glog.V(2).Infof("Writing %d bytes at 0x%08x", n, addr)
		if err := p.dev.FlashWrite(ctx, addr, chunk); err != nil {
			return err
		}
		cur.offset += uint32(n)
		p.progress("Programming", addr, end, int(cur.offset), len(img))

		if err := p.waitIdle(ctx, p.cfg.WriteInterval); err != nil {
			return err
		}
	}

	return nil
}

// Verify reads the image back and compares it chunk by chunk. The first
// differing chunk is returned as a *VerifyError.
func (p *Programmer) Verify(ctx context.Context, img []byte, lma uint32) error {
	if err := checkRange(img, lma); err != nil {
		return err
	}

	end := lma + uint32(len(img)-1)
	var buf [proto.MaxChunk]byte
	return completeIO(lma, len(img), p.cfg.ChunkSize, func(addr uint32, offset int, n int) error {
		got := buf[:n]
		if err := p.dev.FlashRead(ctx, addr, got); err != nil {
			return err
		}
		p.progress("Reading", addr, end, offset+n, len(img))

		want := img[offset : offset+n]
		if !bytes.Equal(got, want) {
			return &VerifyError{
				Offset:   uint32(offset),
				Address:  addr,
				Expected: bytes.Clone(want),
				Actual:   bytes.Clone(got),
			}
		}
		return nil
	})
}

// Read returns n bytes of flash starting at addr.
func (p *Programmer) Read(ctx context.Context, addr uint32, n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	if uint64(addr)+uint64(n) > 1<<32 {
		return nil, ErrAddressRange
	}

	out := make([]byte, n)
	end := addr + uint32(n-1)
	err := completeIO(addr, n, p.cfg.ChunkSize, func(addr uint32, offset int, k int) error {
		if err := p.dev.FlashRead(ctx, addr, out[offset:offset+k]); err != nil {
			return err
		}
		p.progress("Reading", addr, end, offset+k, n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EraseRange erases size bytes (rounded up to whole sectors) starting at the
// 4K aligned addr, using the largest aligned block erase that fits.
func (p *Programmer) EraseRange(ctx context.Context, addr uint32, size int) error {
	const (
		block32K = 32 << 10
		block64K = 64 << 10
	)

	if addr%SectorSize != 0 {
		return ErrUnaligned
	}
	if size <= 0 {
		return nil
	}

	remaining := uint64(size+SectorSize-1) / SectorSize * SectorSize
	if uint64(addr)+remaining > 1<<32 {
		return ErrAddressRange
	}

	for remaining > 0 {
		var err error
		step := uint64(SectorSize)
		switch {
		case addr%block64K == 0 && remaining >= block64K:
			step = block64K
			err = p.dev.FlashErase64K(ctx, addr)
		case addr%block32K == 0 && remaining >= block32K:
			step = block32K
			err = p.dev.FlashErase32K(ctx, addr)
		default:
			err = p.dev.FlashErase4K(ctx, addr)
		}
		if err != nil {
			return err
		}
		glog.V(1).Infof("Erasing %dK at 0x%08x", step>>10, addr)

		if err := p.waitIdle(ctx, p.cfg.EraseInterval); err != nil {
			return err
		}

		remaining -= step
		addr += uint32(step)
	}
	return nil
}

// EraseChip erases the whole flash.
func (p *Programmer) EraseChip(ctx context.Context) error {
	if err := p.dev.FlashEraseChip(ctx); err != nil {
		return err
	}
	return p.waitIdle(ctx, chipEraseInterval)
}
