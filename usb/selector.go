package usb

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// Test VID:PID from http://pid.codes/pids/
	DefaultVendorID  = 0x1209
	DefaultProductID = 0x0001
)

var ErrInvalidSelector = errors.New("device selector must have the form vvvv:pppp")

// Selector identifies the device to bind to. An empty Serial matches any
// device with the right VID:PID.
type Selector struct {
	VendorID  uint16
	ProductID uint16
	Serial    string
}

func (s Selector) String() string {
	if s.Serial == "" {
		return fmt.Sprintf("%04x:%04x", s.VendorID, s.ProductID)
	}
	return fmt.Sprintf("%04x:%04x serial %q", s.VendorID, s.ProductID, s.Serial)
}

// ParseID parses a hexadecimal USB vendor or product ID, with or without a
// 0x prefix.
func ParseID(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(s) == 0 || len(s) > 4 {
		return 0, fmt.Errorf("USB ID %q is outside allowable range", s)
	}

	result, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("USB ID %q: %w", s, err)
	}
	return uint16(result), nil
}

// ParseSelector parses "vvvv:pppp" into a Selector without a serial.
func ParseSelector(s string) (Selector, error) {
	vid, pid, ok := strings.Cut(s, ":")
	if !ok {
		return Selector{}, ErrInvalidSelector
	}

	vendorID, err := ParseID(vid)
	if err != nil {
		return Selector{}, err
	}
	productID, err := ParseID(pid)
	if err != nil {
		return Selector{}, err
	}

	return Selector{VendorID: vendorID, ProductID: productID}, nil
}
