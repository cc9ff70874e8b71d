package memrauder

import (
	"errors"
	"fmt"
)

//go:generate mockgen -source reader.go -destination reader_mocks.go -package memrauder

// MemoryReader is like io.ReaderAt, but the offset is a uint64 so that it
// can address all of 64-bit memory of the target process.
//
// Implementations must report faults (process exited, unmapped page,
// access denied) as errors and never panic.
type MemoryReader interface {
	// ReadMemory is just like io.ReaderAt.ReadAt.
	ReadMemory(buf []byte, addr uint64) (n int, err error)
}

// ErrOutOfRange is returned by BytesReader for reads past the end of the
// slab.
var ErrOutOfRange = errors.New("read out of range")

// BytesReader is a MemoryReader backed by a byte slice. Address 0 is the
// first byte of the slice.
type BytesReader []byte

// ReadMemory implements MemoryReader.
func (b BytesReader) ReadMemory(buf []byte, addr uint64) (int, error) {
	upper := addr + uint64(len(buf))
	if upper < addr || upper > uint64(len(b)) {
		return 0, fmt.Errorf("%w: %#x+%d (slab size %d)", ErrOutOfRange, addr, len(buf), len(b))
	}
	return copy(buf, b[addr:upper]), nil
}

// readExact reads exactly size bytes at addr. The second return value is
// false if the reader failed or returned a short read.
func readExact(mem MemoryReader, addr uint64, size int) ([]byte, bool) {
	if size < 0 {
		return nil, false
	}
	buf := make([]byte, size)
	if size == 0 {
		return buf, true
	}
	n, err := mem.ReadMemory(buf, addr)
	if err != nil || n != size {
		return nil, false
	}
	return buf, true
}

// memCache serves reads falling entirely inside a window that was read in
// one go, and forwards everything else to the wrapped reader.
type memCache struct {
	cacheAddr uint64
	cache     []byte
	mem       MemoryReader
}

func (m *memCache) contains(addr uint64, size int) bool {
	if size > len(m.cache) {
		return false
	}
	return addr >= m.cacheAddr && addr <= (m.cacheAddr+uint64(len(m.cache)-size))
}

func (m *memCache) ReadMemory(data []byte, addr uint64) (n int, err error) {
	if m.contains(addr, len(data)) {
		copy(data, m.cache[addr-m.cacheAddr:])
		return len(data), nil
	}

	return m.mem.ReadMemory(data, addr)
}

// CacheMemory reads size bytes at addr in one go and returns a reader
// answering reads inside that window from the copy. If the window can not
// be read the original reader is returned unchanged.
func CacheMemory(mem MemoryReader, addr uint64, size int) MemoryReader {
	if size <= 0 {
		return mem
	}
	if cacheMem, isCache := mem.(*memCache); isCache {
		if cacheMem.contains(addr, size) {
			return mem
		}
		mem = cacheMem.mem
	}
	cache, ok := readExact(mem, addr, size)
	if !ok {
		return mem
	}
	return &memCache{addr, cache, mem}
}
