package proto

import "fmt"

type Opcode uint8

const (
	OpSetRGBLED Opcode = 0x01

	OpFPGAResetAssert   Opcode = 0x10
	OpFPGAResetDeassert Opcode = 0x11
	OpFPGAQueryStatus   Opcode = 0x12

	OpFlashIdentify    Opcode = 0x20
	OpFlashErase4K     Opcode = 0x21
	OpFlashErase32K    Opcode = 0x22
	OpFlashErase64K    Opcode = 0x23
	OpFlashEraseChip   Opcode = 0x24
	OpFlashWrite       Opcode = 0x25
	OpFlashRead        Opcode = 0x26
	OpFlashQueryStatus Opcode = 0x27
)

var opcodeNames = map[Opcode]string{
	OpSetRGBLED:         "SET_RGB_LED",
	OpFPGAResetAssert:   "FPGA_RESET_ASSERT",
	OpFPGAResetDeassert: "FPGA_RESET_DEASSERT",
	OpFPGAQueryStatus:   "FPGA_QUERY_STATUS",
	OpFlashIdentify:     "FLASH_IDENTIFY",
	OpFlashErase4K:      "FLASH_ERASE_4K",
	OpFlashErase32K:     "FLASH_ERASE_32K",
	OpFlashErase64K:     "FLASH_ERASE_64K",
	OpFlashEraseChip:    "FLASH_ERASE_CHIP",
	OpFlashWrite:        "FLASH_WRITE",
	OpFlashRead:         "FLASH_READ",
	OpFlashQueryStatus:  "FLASH_QUERY_STATUS",
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(0x%02x)", uint8(o))
}
