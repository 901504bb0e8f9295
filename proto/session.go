package proto

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/golang/glog"
)

const (
	// MaxChunk is the largest FLASH_WRITE/FLASH_READ payload. USB full speed
	// bulk packets are 64 bytes; with the 6 byte header the largest power of
	// two that fits is 32.
	MaxChunk = 32

	// DefaultTimeout bounds every single bulk transfer.
	DefaultTimeout = 100 * time.Millisecond

	addrHeader  = 1 + 4     // opcode + 32-bit address
	chunkHeader = 1 + 4 + 1 // opcode + 32-bit address + length
	maxFrame    = chunkHeader + MaxChunk

	identifyLen = 10
)

var ErrChunkSize = fmt.Errorf("chunk length must be between 1 and %d bytes", MaxChunk)

// Transport is a half-duplex request/response pipe to the device. Send writes
// one command frame, Receive fills p with exactly one response frame.
type Transport interface {
	Send(ctx context.Context, p []byte) error
	Receive(ctx context.Context, p []byte) error
}

// Error reports a failed transfer together with the operation that was in
// flight. It is fatal for the current run.
type Error struct {
	Op     Opcode
	Action string
	Err    error
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	return e.Action + ": " + e.Err.Error()
}

// Session speaks the command protocol over a Transport. It holds no state
// apart from the transport, every method is one synchronous exchange.
type Session struct {
	t Transport

	Timeout time.Duration
}

func New(t Transport) *Session {
	return &Session{
		t:       t,
		Timeout: DefaultTimeout,
	}
}

func (s *Session) send(ctx context.Context, frame []byte, action string) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	glog.V(3).Infof("tx %s % x", Opcode(frame[0]), frame[1:])
	if err := s.t.Send(ctx, frame); err != nil {
		return &Error{Op: Opcode(frame[0]), Action: action, Err: err}
	}
	return nil
}

func (s *Session) receive(ctx context.Context, op Opcode, resp []byte, action string) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	if err := s.t.Receive(ctx, resp); err != nil {
		return &Error{Op: op, Action: action, Err: err}
	}
	glog.V(3).Infof("rx %s % x", op, resp)
	return nil
}

/* Requests without a payload and without a response */
func (s *Session) simple(ctx context.Context, op Opcode, action string) error {
	frame := [1]byte{byte(op)}
	return s.send(ctx, frame[:], action)
}

/* Requests carrying only a big-endian address */
func (s *Session) addressed(ctx context.Context, op Opcode, addr uint32, action string) error {
	var frame [addrHeader]byte
	frame[0] = byte(op)
	binary.BigEndian.PutUint32(frame[1:], addr)
	return s.send(ctx, frame[:], action)
}

/* Requests with a one byte response */
func (s *Session) query(ctx context.Context, op Opcode, what string) (byte, error) {
	if err := s.simple(ctx, op, "Failed to request "+what); err != nil {
		return 0, err
	}

	var resp [1]byte
	if err := s.receive(ctx, op, resp[:], "Failed to read "+what+" response"); err != nil {
		return 0, err
	}
	return resp[0], nil
}

func (s *Session) SetRGBLED(ctx context.Context, r, g, b uint8) error {
	frame := [4]byte{byte(OpSetRGBLED), r, g, b}
	return s.send(ctx, frame[:], "Failed to set LED colour")
}

func (s *Session) FPGAResetAssert(ctx context.Context) error {
	return s.simple(ctx, OpFPGAResetAssert, "Failed to assert FPGA reset line")
}

func (s *Session) FPGAResetDeassert(ctx context.Context) error {
	return s.simple(ctx, OpFPGAResetDeassert, "Failed to deassert FPGA reset line")
}

func (s *Session) FPGAStatus(ctx context.Context) (FPGAStatus, error) {
	status, err := s.query(ctx, OpFPGAQueryStatus, "FPGA state")
	return FPGAStatus(status), err
}

// FPGAUnderReset reports bit 0 of the FPGA status byte.
func (s *Session) FPGAUnderReset(ctx context.Context) (bool, error) {
	status, err := s.FPGAStatus(ctx)
	if err != nil {
		return false, err
	}
	return status.UnderReset(), nil
}

func (s *Session) FlashIdentify(ctx context.Context) (FlashID, error) {
	if err := s.simple(ctx, OpFlashIdentify, "Failed to request Flash properties"); err != nil {
		return FlashID{}, err
	}

	var resp [identifyLen]byte
	if err := s.receive(ctx, OpFlashIdentify, resp[:], "Failed to read Flash properties response"); err != nil {
		return FlashID{}, err
	}

	return FlashID{
		Manufacturer: resp[0],
		Device:       resp[1],
		UniqueID:     binary.BigEndian.Uint64(resp[2:]),
	}, nil
}

func (s *Session) FlashErase4K(ctx context.Context, addr uint32) error {
	return s.addressed(ctx, OpFlashErase4K, addr, "Failed to initiate 4k sector erase")
}

func (s *Session) FlashErase32K(ctx context.Context, addr uint32) error {
	return s.addressed(ctx, OpFlashErase32K, addr, "Failed to initiate 32k block erase")
}

func (s *Session) FlashErase64K(ctx context.Context, addr uint32) error {
	return s.addressed(ctx, OpFlashErase64K, addr, "Failed to initiate 64k block erase")
}

func (s *Session) FlashEraseChip(ctx context.Context) error {
	return s.simple(ctx, OpFlashEraseChip, "Failed to initiate chip erase")
}

// FlashWrite programs up to MaxChunk bytes at addr. The caller is
// responsible for erasing the sector first and waiting for the busy bit.
func (s *Session) FlashWrite(ctx context.Context, addr uint32, data []byte) error {
	if len(data) == 0 || len(data) > MaxChunk {
		return ErrChunkSize
	}

	var frame [maxFrame]byte
	frame[0] = byte(OpFlashWrite)
	binary.BigEndian.PutUint32(frame[1:], addr)
	frame[5] = byte(len(data))
	n := copy(frame[chunkHeader:], data)

	return s.send(ctx, frame[:chunkHeader+n], "Failed to initiate flash write")
}

// FlashRead fills buf, which must hold between 1 and MaxChunk bytes, with
// the flash contents at addr.
func (s *Session) FlashRead(ctx context.Context, addr uint32, buf []byte) error {
	if len(buf) == 0 || len(buf) > MaxChunk {
		return ErrChunkSize
	}

	var frame [chunkHeader]byte
	frame[0] = byte(OpFlashRead)
	binary.BigEndian.PutUint32(frame[1:], addr)
	frame[5] = byte(len(buf))

	if err := s.send(ctx, frame[:], "Failed to request Flash read"); err != nil {
		return err
	}
	return s.receive(ctx, OpFlashRead, buf, "Failed to read Flash read response")
}

func (s *Session) FlashStatus(ctx context.Context) (FlashStatus, error) {
	status, err := s.query(ctx, OpFlashQueryStatus, "Flash status")
	return FlashStatus(status), err
}

// FlashBusy reports bit 0 of the flash status byte.
func (s *Session) FlashBusy(ctx context.Context) (bool, error) {
	status, err := s.FlashStatus(ctx)
	if err != nil {
		return false, err
	}
	return status.Busy(), nil
}
