package spiflash

const (
	SectorSize = 4096
	PageSize   = 256

	sectorMask = ^uint32(SectorSize - 1) // 0xFFFFF000
)

// SectorOf returns the 4K aligned sector containing addr.
func SectorOf(addr uint32) uint32 {
	return addr & sectorMask
}

/* Bytes left before the next page boundary */
func pageCrossLength(offset uint32, pageSize uint32) int {
	mask := pageSize - 1
	return int(pageSize - offset&mask)
}

// cursor tracks progress through an image. It only ever moves forward.
type cursor struct {
	base   uint32
	offset uint32

	sector uint32
	erased bool
}

func (c *cursor) address() uint32 {
	return c.base + c.offset
}

/* needsErase reports whether the chunk at the cursor touches a sector that
 * has not been erased yet in this run, and marks it erased. */
func (c *cursor) needsErase() (uint32, bool) {
	sector := SectorOf(c.address())
	if c.erased && sector == c.sector {
		return sector, false
	}
	c.sector = sector
	c.erased = true
	return sector, true
}

/* chunkLen is the size of the next transfer: at most chunkSize, never past
 * the end of the image and never across a flash page */
func chunkLen(addr uint32, remaining int, chunkSize int) int {
	return min(chunkSize, remaining, pageCrossLength(addr, PageSize))
}

func completeIO(addr uint32, total int, chunkSize int, f func(addr uint32, offset int, n int) error) error {
	for offset := 0; offset < total; {
		n := chunkLen(addr, total-offset, chunkSize)
		if err := f(addr, offset, n); err != nil {
			return err
		}
		addr += uint32(n)
		offset += n
	}
	return nil
}
