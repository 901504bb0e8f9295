package proto

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

type fakeTransport struct {
	sent      [][]byte
	responses [][]byte

	sendErr    error
	receiveErr error
	deadlines  []bool
}

func (f *fakeTransport) Send(ctx context.Context, p []byte) error {
	_, ok := ctx.Deadline()
	f.deadlines = append(f.deadlines, ok)
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, append([]byte(nil), p...))
	return nil
}

func (f *fakeTransport) Receive(ctx context.Context, p []byte) error {
	_, ok := ctx.Deadline()
	f.deadlines = append(f.deadlines, ok)
	if f.receiveErr != nil {
		return f.receiveErr
	}
	if len(f.responses) == 0 {
		return errors.New("no response queued")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	if len(resp) != len(p) {
		return errors.New("response length mismatch")
	}
	copy(p, resp)
	return nil
}

func TestFrameEncoding(t *testing.T) {
	ctx := context.Background()
	tr := &fakeTransport{}
	s := New(tr)

	calls := []struct {
		name string
		call func() error
		want []byte
	}{
		{"led", func() error { return s.SetRGBLED(ctx, 1, 2, 3) }, []byte{0x01, 1, 2, 3}},
		{"assert", func() error { return s.FPGAResetAssert(ctx) }, []byte{0x10}},
		{"deassert", func() error { return s.FPGAResetDeassert(ctx) }, []byte{0x11}},
		{"erase4k", func() error { return s.FlashErase4K(ctx, 0x00012000) }, []byte{0x21, 0x00, 0x01, 0x20, 0x00}},
		{"erase32k", func() error { return s.FlashErase32K(ctx, 0x12345678) }, []byte{0x22, 0x12, 0x34, 0x56, 0x78}},
		{"erase64k", func() error { return s.FlashErase64K(ctx, 0xAABBCCDD) }, []byte{0x23, 0xAA, 0xBB, 0xCC, 0xDD}},
		{"chip", func() error { return s.FlashEraseChip(ctx) }, []byte{0x24}},
		{"write", func() error { return s.FlashWrite(ctx, 0x1000, []byte{9, 8, 7}) }, []byte{0x25, 0x00, 0x00, 0x10, 0x00, 3, 9, 8, 7}},
	}

	for _, c := range calls {
		tr.sent = nil
		if err := c.call(); err != nil {
			t.Errorf("%s: unexpected error: %v", c.name, err)
			continue
		}
		if len(tr.sent) != 1 || !bytes.Equal(tr.sent[0], c.want) {
			t.Errorf("%s: sent %x, want %x", c.name, tr.sent, c.want)
		}
	}

	for i, ok := range tr.deadlines {
		if !ok {
			t.Errorf("transfer %d ran without a deadline", i)
		}
	}
}

func TestFlashBusy(t *testing.T) {
	for _, c := range []struct {
		status byte
		busy   bool
	}{
		{0x01, true},
		{0x00, false},
		{0xFE, false},
		{0xFF, true},
	} {
		tr := &fakeTransport{responses: [][]byte{{c.status}}}
		busy, err := New(tr).FlashBusy(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if busy != c.busy {
			t.Errorf("status %02x: busy=%v, want %v", c.status, busy, c.busy)
		}
		if !bytes.Equal(tr.sent[0], []byte{0x27}) {
			t.Errorf("wrong query frame %x", tr.sent[0])
		}
	}
}

func TestFPGAUnderReset(t *testing.T) {
	tr := &fakeTransport{responses: [][]byte{{0x01}, {0xFE}}}
	s := New(tr)

	if under, err := s.FPGAUnderReset(context.Background()); err != nil || !under {
		t.Errorf("0x01: under=%v err=%v", under, err)
	}
	if under, err := s.FPGAUnderReset(context.Background()); err != nil || under {
		t.Errorf("0xFE: under=%v err=%v", under, err)
	}
	if !bytes.Equal(tr.sent[0], []byte{0x12}) {
		t.Errorf("wrong query frame %x", tr.sent[0])
	}
}

func TestFlashIdentify(t *testing.T) {
	tr := &fakeTransport{responses: [][]byte{{0xEF, 0x40, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}}}
	id, err := New(tr).FlashIdentify(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	want := FlashID{Manufacturer: 0xEF, Device: 0x40, UniqueID: 0x0102030405060708}
	if id != want {
		t.Errorf("got %v, want %v", id, want)
	}
}

func TestFlashRead(t *testing.T) {
	tr := &fakeTransport{responses: [][]byte{{0xDE, 0xAD, 0xBE, 0xEF}}}
	buf := make([]byte, 4)
	if err := New(tr).FlashRead(context.Background(), 0x00100020, buf); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(tr.sent[0], []byte{0x26, 0x00, 0x10, 0x00, 0x20, 4}) {
		t.Errorf("wrong read frame %x", tr.sent[0])
	}
	if !bytes.Equal(buf, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Errorf("wrong data %x", buf)
	}
}

func TestChunkBounds(t *testing.T) {
	tr := &fakeTransport{}
	s := New(tr)
	ctx := context.Background()

	if err := s.FlashWrite(ctx, 0, nil); err != ErrChunkSize {
		t.Error("empty write accepted:", err)
	}
	if err := s.FlashWrite(ctx, 0, make([]byte, MaxChunk+1)); err != ErrChunkSize {
		t.Error("oversized write accepted:", err)
	}
	if err := s.FlashRead(ctx, 0, make([]byte, MaxChunk+1)); err != ErrChunkSize {
		t.Error("oversized read accepted:", err)
	}
	if len(tr.sent) != 0 {
		t.Error("invalid requests reached the transport")
	}

	if err := s.FlashWrite(ctx, 0, make([]byte, MaxChunk)); err != nil {
		t.Error("full chunk rejected:", err)
	}
	if len(tr.sent[0]) != 6+MaxChunk {
		t.Errorf("full chunk frame is %d bytes", len(tr.sent[0]))
	}
}

func TestTransportError(t *testing.T) {
	cause := errors.New("LIBUSB_ERROR_TIMEOUT")
	tr := &fakeTransport{receiveErr: cause}
	s := New(tr)
	s.Timeout = time.Millisecond

	_, err := s.FlashStatus(context.Background())

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if perr.Op != OpFlashQueryStatus {
		t.Errorf("wrong opcode %v", perr.Op)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not wrapped")
	}
	if perr.Error() != "Failed to read Flash status response: LIBUSB_ERROR_TIMEOUT" {
		t.Errorf("unexpected message %q", perr.Error())
	}
}

func TestOpcodeString(t *testing.T) {
	if OpFlashEraseChip.String() != "FLASH_ERASE_CHIP" {
		t.Error(OpFlashEraseChip.String())
	}
	if Opcode(0x7f).String() != "Opcode(0x7f)" {
		t.Error(Opcode(0x7f).String())
	}
}
