// Package image loads the bitstream that gets written to flash.
package image

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcinbor85/gohex"
	"golang.org/x/sys/unix"
)

var (
	ErrEmpty    = errors.New("image file is empty")
	ErrTooLarge = errors.New("image file does not fit in the 32-bit address space")
	ErrClosed   = errors.New("image already closed")
)

// Bitstream is a read-only image. Raw files are memory mapped and must be
// closed to unmap them.
type Bitstream struct {
	data []byte

	// Address is the load address carried by the file itself. It is only
	// set for Intel HEX images.
	Address    uint32
	HasAddress bool

	mapped bool
}

func (b *Bitstream) Bytes() []byte {
	return b.data
}

func (b *Bitstream) Len() int {
	return len(b.data)
}

// CRC32 fingerprints the image for the logs.
func (b *Bitstream) CRC32() uint32 {
	return crcCalculate(b.data)
}

func (b *Bitstream) Close() error {
	if !b.mapped {
		b.data = nil
		return nil
	}
	if b.data == nil {
		return ErrClosed
	}

	data := b.data
	b.data = nil
	return unix.Munmap(data)
}

func isHex(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".ihx", ".mcs":
		return true
	}
	return false
}

// Load opens path as Intel HEX if its extension says so, otherwise maps it
// as a raw binary.
func Load(path string) (*Bitstream, error) {
	if isHex(path) {
		return loadHex(path)
	}
	return loadRaw(path)
}

func loadRaw(path string) (*Bitstream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() == 0 {
		return nil, ErrEmpty
	}
	if fi.Size() > 1<<32 {
		return nil, ErrTooLarge
	}

	/* Private read-only mapping, the file is never changed */
	data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("failed to map %s: %w", path, err)
	}

	return &Bitstream{data: data, mapped: true}, nil
}

func loadHex(path string) (*Bitstream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return flatten(mem.GetDataSegments())
}

/* Segments are joined into one buffer, gaps are left erased (0xFF) */
func flatten(segments []gohex.DataSegment) (*Bitstream, error) {
	if len(segments) == 0 {
		return nil, ErrEmpty
	}

	start := uint64(segments[0].Address)
	end := start
	for _, s := range segments {
		start = min(start, uint64(s.Address))
		end = max(end, uint64(s.Address)+uint64(len(s.Data)))
	}
	if end == start {
		return nil, ErrEmpty
	}
	if end > 1<<32 {
		return nil, ErrTooLarge
	}

	data := make([]byte, end-start)
	for i := range data {
		data[i] = 0xFF
	}
	for _, s := range segments {
		copy(data[uint64(s.Address)-start:], s.Data)
	}

	return &Bitstream{data: data, Address: uint32(start), HasAddress: true}, nil
}
