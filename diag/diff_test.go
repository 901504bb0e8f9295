package diag

import "testing"

func TestFormatDiff(t *testing.T) {
	got := FormatDiff([]byte{0xAA, 0x5C, 0x01}, []byte{0xAA, 0x5D, 0x01}, 0x1020)
	want := "Verify error for block of size 3 at 0x00001020:\n" +
		"    Expected: AA 5C 01\n" +
		"    Read:     AA 5D 01\n" +
		"                 ^^\n"

	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatDiffTruncates(t *testing.T) {
	got := FormatDiff([]byte{0x0F, 0xF0}, []byte{0xF0}, 0)
	want := "Verify error for block of size 1 at 0x00000000:\n" +
		"    Expected: 0F\n" +
		"    Read:     F0\n" +
		"              ^^\n"

	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFirstMismatch(t *testing.T) {
	if i := FirstMismatch([]byte{1, 2, 3}, []byte{1, 2, 3}); i != -1 {
		t.Error("equal buffers reported mismatch at", i)
	}
	if i := FirstMismatch([]byte{1, 2, 3}, []byte{1, 9, 9}); i != 1 {
		t.Error("wrong mismatch index", i)
	}
	if i := FirstMismatch([]byte{1, 2}, []byte{1, 2, 3}); i != -1 {
		t.Error("length difference reported as mismatch at", i)
	}
}
