package image

import (
	"github.com/snksoft/crc"
)

var crcTable = crc.NewTable(crc.CRC32)

func crcCalculate(data []byte) uint32 {
	h := crc.NewHashWithTable(crcTable)
	h.Update(data)
	return h.CRC32()
}
