package proto

import "fmt"

// FlashStatus is the status byte returned by FLASH_QUERY_STATUS.
// Only bit 0 is defined; the remaining bits are reserved and ignored.
type FlashStatus byte

func (s FlashStatus) Busy() bool { return s&(1<<0) != 0 }

func (s FlashStatus) String() string {
	if s.Busy() {
		return fmt.Sprintf("%08b BUSY", byte(s))
	}
	return fmt.Sprintf("%08b", byte(s))
}

// FPGAStatus is the status byte returned by FPGA_QUERY_STATUS.
// Only bit 0 is defined; the remaining bits are reserved and ignored.
type FPGAStatus byte

func (s FPGAStatus) UnderReset() bool { return s&(1<<0) != 0 }

func (s FPGAStatus) String() string {
	if s.UnderReset() {
		return fmt.Sprintf("%08b UNDER_RESET", byte(s))
	}
	return fmt.Sprintf("%08b", byte(s))
}

// FlashID is the FLASH_IDENTIFY response.
type FlashID struct {
	Manufacturer byte
	Device       byte
	UniqueID     uint64
}

func (id FlashID) String() string {
	return fmt.Sprintf("mfgr 0x%02x, device 0x%02x, unique ID 0x%016x", id.Manufacturer, id.Device, id.UniqueID)
}
