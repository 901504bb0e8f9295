package image

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
)

func TestCRC(t *testing.T) {
	result := crcCalculate([]byte("123456789"))
	correct := uint32(0xCBF43926)

	if result != correct {
		t.Errorf("CRC Error: %08x!=%08x", result, correct)
	}
}

func getRandomBuf(length int) []byte {
	out := make([]byte, length)
	rand.Read(out)
	return out
}

func writeFile(t *testing.T, name string, data []byte) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRaw(t *testing.T) {
	content := getRandomBuf(4100)
	path := writeFile(t, "top.bin", content)

	img, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if img.Len() != len(content) || !bytes.Equal(img.Bytes(), content) {
		t.Error("Mapped contents differ from the file")
	}
	if img.HasAddress {
		t.Error("Raw image claims a load address")
	}
	if img.CRC32() != crcCalculate(content) {
		t.Error("Wrong image CRC")
	}

	if err := img.Close(); err != nil {
		t.Error("Unmap failed:", err)
	}
	if err := img.Close(); err != ErrClosed {
		t.Error("Second close:", err)
	}
}

func TestLoadEmpty(t *testing.T) {
	if _, err := Load(writeFile(t, "empty.bin", nil)); err != ErrEmpty {
		t.Error("Empty file accepted:", err)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.bin")); !os.IsNotExist(err) {
		t.Error("Expected not-exist error:", err)
	}
}

func TestLoadHex(t *testing.T) {
	hex := ":0400100001020304E2\n" +
		":02001600AABB83\n" +
		":00000001FF\n"

	img, err := Load(writeFile(t, "top.hex", []byte(hex)))
	if err != nil {
		t.Fatal(err)
	}
	defer img.Close()

	if !img.HasAddress || img.Address != 0x10 {
		t.Errorf("Wrong load address %x", img.Address)
	}

	want := []byte{1, 2, 3, 4, 0xFF, 0xFF, 0xAA, 0xBB}
	if !bytes.Equal(img.Bytes(), want) {
		t.Errorf("Flattened image %x, want %x", img.Bytes(), want)
	}
}

func TestLoadHexInvalid(t *testing.T) {
	if _, err := Load(writeFile(t, "bad.ihx", []byte(":0400100001020304FF\n:00000001FF\n"))); err == nil {
		t.Error("Bad checksum accepted")
	}
	if _, err := Load(writeFile(t, "empty.hex", []byte(":00000001FF\n"))); err != ErrEmpty {
		t.Error("Hex without data accepted:", err)
	}
}
