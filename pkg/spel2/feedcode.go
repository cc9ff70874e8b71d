package spel2

import (
	"bytes"
	"errors"

	"github.com/spelunky-fyi/memrauder/pkg/memrauder"
)

// Feedcode is the marker the game keeps a fixed distance after State.
var Feedcode = []byte{0x00, 0xde, 0xc0, 0xed, 0xfe}

const (
	// DefaultStateOffset is the offset of State relative to the feedcode.
	DefaultStateOffset = -0x5f
	// MinFeedcodeAddr is the lowest address the feedcode has been seen at.
	MinFeedcodeAddr = 0x40000000000

	findChunkSize = 4096
)

// ErrFeedcodeNotFound is returned by FindFeedcode when no region contains
// the marker.
var ErrFeedcodeNotFound = errors.New("failed to find feedcode within Spelunky 2 memory")

// Region is a readable range of the target's address space.
type Region struct {
	Addr uint64
	Size uint64
}

// FindFeedcode returns the address of the first feedcode in regions.
// Regions are scanned in order, in chunks that overlap so a marker
// straddling two chunks is still found.
func FindFeedcode(mem memrauder.MemoryReader, regions []Region) (uint64, error) {
	for _, r := range regions {
		if addr, ok := find(mem, r.Addr, r.Addr+r.Size, Feedcode); ok {
			return addr, nil
		}
	}
	return 0, ErrFeedcodeNotFound
}

func find(mem memrauder.MemoryReader, start, end uint64, needle []byte) (uint64, bool) {
	overlap := uint64(len(needle) - 1)
	buf := make([]byte, findChunkSize)
	for cursor := start; cursor < end; {
		chunk := buf
		if end-cursor < uint64(len(chunk)) {
			chunk = chunk[:end-cursor]
		}
		n, err := mem.ReadMemory(chunk, cursor)
		if err != nil || n == 0 {
			return 0, false
		}
		chunk = chunk[:n]
		if pos := bytes.Index(chunk, needle); pos >= 0 {
			return cursor + uint64(pos), true
		}
		if uint64(n) <= overlap {
			return 0, false
		}
		cursor += uint64(n) - overlap
	}
	return 0, false
}

// StateAddr returns the address of State given the feedcode address and
// the offset between them.
func StateAddr(feedcode uint64, offset int64) uint64 {
	return uint64(int64(feedcode) + offset)
}
