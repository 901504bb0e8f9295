package spiflash

import (
	"time"

	"github.com/rschlaikjer/faff/proto"
)

// Progress is reported after every chunk of a write, verify or read pass.
type Progress struct {
	Stage   string
	Address uint32
	End     uint32
	Done    int
	Total   int
}

type ProgressFunc func(p Progress)

// Config is fixed for the lifetime of a Programmer.
type Config struct {
	// ChunkSize is the payload of one FLASH_WRITE/FLASH_READ, at most
	// proto.MaxChunk.
	ChunkSize int

	// Delay before each busy poll after an erase and after a write.
	EraseInterval time.Duration
	WriteInterval time.Duration

	// BusyTimeout bounds every wait for the busy bit. Zero waits forever.
	BusyTimeout time.Duration

	// Verify reads back the image after writing it.
	Verify bool

	Progress ProgressFunc
}

func DefaultConfig() Config {
	return Config{
		ChunkSize:     proto.MaxChunk,
		EraseInterval: 5 * time.Millisecond,
		WriteInterval: 1 * time.Millisecond,
		Verify:        true,
	}
}

const chipEraseInterval = 100 * time.Millisecond
