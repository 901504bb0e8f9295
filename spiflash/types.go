package spiflash

import (
	"fmt"

	"github.com/rschlaikjer/faff/proto"
)

// Known chips, keyed by the manufacturer and device ID bytes returned by
// FLASH_IDENTIFY. The table is informational only, unknown chips are
// programmed the same way.
type flashDevice struct {
	manufacturer byte
	device       byte
	name         string
}

var manufacturers = map[byte]string{
	0x01: "Spansion",
	0x1F: "Adesto",
	0x20: "Micron",
	0x9D: "ISSI",
	0xBF: "SST",
	0xC2: "Macronix",
	0xC8: "GigaDevice",
	0xEF: "Winbond",
}

var devices = []flashDevice{
	{manufacturer: 0xEF, device: 0x13, name: "Winbond W25Q80"},
	{manufacturer: 0xEF, device: 0x14, name: "Winbond W25Q16"},
	{manufacturer: 0xEF, device: 0x15, name: "Winbond W25Q32"},
	{manufacturer: 0xEF, device: 0x16, name: "Winbond W25Q64"},
	{manufacturer: 0xEF, device: 0x17, name: "Winbond W25Q128"},
	{manufacturer: 0x20, device: 0x15, name: "Micron N25Q032"},
	{manufacturer: 0xC2, device: 0x15, name: "Macronix MX25L3233F"},
	{manufacturer: 0x9D, device: 0x15, name: "ISSI IS25LP032"},
}

func deviceLookup(id proto.FlashID) (flashDevice, bool) {
	for _, m := range devices {
		if m.manufacturer == id.Manufacturer && m.device == id.Device {
			return m, true
		}
	}
	return flashDevice{}, false
}

// ChipName returns a human readable name for id.
func ChipName(id proto.FlashID) string {
	if dev, ok := deviceLookup(id); ok {
		return dev.name
	}
	if mfgr, ok := manufacturers[id.Manufacturer]; ok {
		return fmt.Sprintf("%s device 0x%02x", mfgr, id.Device)
	}
	return "unknown"
}
