package spiflash

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rschlaikjer/faff/diag"
)

var (
	ErrEmptyImage   = errors.New("image is empty")
	ErrAddressRange = errors.New("image does not fit in the 32-bit flash address space")
	ErrUnaligned    = errors.New("erase address must be 4K aligned")
	ErrUnresponsive = errors.New("device unresponsive: busy bit did not clear")
)

// ResetError means the transfer succeeded but the FPGA reported the wrong
// reset state afterwards.
type ResetError struct {
	Assert bool
}

func (e *ResetError) Error() string {
	if e.Assert {
		return "Failed to assert FPGA reset"
	}
	return "Failed to release FPGA reset"
}

// VerifyError is returned for the first chunk whose read back contents
// differ from the image.
type VerifyError struct {
	Offset   uint32 // into the image
	Address  uint32 // absolute flash address
	Expected []byte
	Actual   []byte
}

// FirstBad returns the flash address of the first byte that read back wrong.
func (e *VerifyError) FirstBad() uint32 {
	i := diag.FirstMismatch(e.Expected, e.Actual)
	if i < 0 {
		i = 0
	}
	return e.Address + uint32(i)
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verify failed at offset 0x%x, first bad byte at 0x%08x\n%s",
		e.Offset, e.FirstBad(), strings.TrimSuffix(diag.FormatDiff(e.Expected, e.Actual, e.Address), "\n"))
}
