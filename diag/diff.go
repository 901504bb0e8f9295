// Package diag renders operator-facing reports for failed verification.
package diag

import (
	"fmt"
	"strings"
)

const hexDigits = "0123456789ABCDEF"

// FirstMismatch returns the index of the first differing byte in the common
// prefix of a and b, or -1 if they agree.
func FirstMismatch(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return -1
}

func hexPairs(sb *strings.Builder, buf []byte) {
	for i, v := range buf {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte(hexDigits[v>>4])
		sb.WriteByte(hexDigits[v&0xF])
	}
}

// FormatDiff shows the expected and the read back block as space separated
// hex pairs, with a marker line under every differing byte. addr is the
// absolute flash address of the first byte.
func FormatDiff(expected, actual []byte, addr uint32) string {
	n := min(len(expected), len(actual))
	expected, actual = expected[:n], actual[:n]

	var sb strings.Builder
	fmt.Fprintf(&sb, "Verify error for block of size %d at 0x%08x:\n", n, addr)

	sb.WriteString("    Expected: ")
	hexPairs(&sb, expected)
	sb.WriteString("\n    Read:     ")
	hexPairs(&sb, actual)

	sb.WriteString("\n              ")
	marks := make([]byte, 0, 3*n)
	for i := 0; i < n; i++ {
		if expected[i] != actual[i] {
			marks = append(marks, '^', '^', ' ')
		} else {
			marks = append(marks, ' ', ' ', ' ')
		}
	}
	sb.WriteString(strings.TrimRight(string(marks), " "))
	sb.WriteByte('\n')

	return sb.String()
}
