package procmem

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/spelunky-fyi/memrauder/pkg/memrauder"
)

// PageSize is the granularity of the page cache.
const PageSize = 0x1000

// maxCachedRead is the largest read served through the cache; bigger reads,
// such as vector backing arrays, go straight to the process.
const maxCachedRead = 16 * PageSize

// PageCache keeps recently read pages of the target. Decoding a struct
// issues many small reads of neighbouring fields; with the cache they cost
// one read per page.
type PageCache struct {
	mem   memrauder.MemoryReader
	pages *lru.Cache
}

// NewPageCache returns a cache of up to size pages in front of mem.
func NewPageCache(mem memrauder.MemoryReader, size int) (*PageCache, error) {
	pages, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &PageCache{mem: mem, pages: pages}, nil
}

func (c *PageCache) page(base uint64) ([]byte, bool) {
	if v, ok := c.pages.Get(base); ok {
		return v.([]byte), true
	}
	buf := make([]byte, PageSize)
	n, err := c.mem.ReadMemory(buf, base)
	if err != nil || n != PageSize {
		return nil, false
	}
	c.pages.Add(base, buf)
	return buf, true
}

// ReadMemory implements memrauder.MemoryReader.
func (c *PageCache) ReadMemory(buf []byte, addr uint64) (int, error) {
	if len(buf) == 0 || len(buf) > maxCachedRead {
		return c.mem.ReadMemory(buf, addr)
	}
	n := 0
	for n < len(buf) {
		cur := addr + uint64(n)
		base := cur &^ (PageSize - 1)
		page, ok := c.page(base)
		if !ok {
			// Not a whole readable page, let the target decide.
			return c.mem.ReadMemory(buf, addr)
		}
		n += copy(buf[n:], page[cur-base:])
	}
	return n, nil
}

// Len returns the number of cached pages.
func (c *PageCache) Len() int { return c.pages.Len() }

// Purge drops every cached page.
func (c *PageCache) Purge() { c.pages.Purge() }
