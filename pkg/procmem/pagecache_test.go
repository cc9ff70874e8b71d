package procmem_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/spelunky-fyi/memrauder/pkg/memrauder"
	"github.com/spelunky-fyi/memrauder/pkg/procmem"
)

func fillPage(buf []byte, addr uint64) (int, error) {
	for i := range buf {
		buf[i] = byte(addr + uint64(i))
	}
	return len(buf), nil
}

func TestPageCacheSharesPages(t *testing.T) {
	ctrl := gomock.NewController(t)
	mem := memrauder.NewMockMemoryReader(ctrl)
	mem.EXPECT().ReadMemory(gomock.Len(procmem.PageSize), uint64(0x10000)).DoAndReturn(fillPage).Times(1)
	mem.EXPECT().ReadMemory(gomock.Len(procmem.PageSize), uint64(0x11000)).DoAndReturn(fillPage).Times(1)

	c, err := procmem.NewPageCache(mem, 4)
	require.NoError(t, err)

	buf := make([]byte, 4)
	n, err := c.ReadMemory(buf, 0x10010)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, []byte{0x10, 0x11, 0x12, 0x13}, buf)

	_, err = c.ReadMemory(buf, 0x10020)
	require.NoError(t, err)
	require.Equal(t, []byte{0x20, 0x21, 0x22, 0x23}, buf)

	// Straddles the page boundary.
	n, err = c.ReadMemory(buf, 0x10ffe)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, []byte{0xfe, 0xff, 0x00, 0x01}, buf)
	require.Equal(t, 2, c.Len())
}

func TestPageCachePurge(t *testing.T) {
	ctrl := gomock.NewController(t)
	mem := memrauder.NewMockMemoryReader(ctrl)
	mem.EXPECT().ReadMemory(gomock.Len(procmem.PageSize), uint64(0)).DoAndReturn(fillPage).Times(2)

	c, err := procmem.NewPageCache(mem, 4)
	require.NoError(t, err)
	buf := make([]byte, 8)
	_, err = c.ReadMemory(buf, 0)
	require.NoError(t, err)
	c.Purge()
	require.Equal(t, 0, c.Len())
	_, err = c.ReadMemory(buf, 0)
	require.NoError(t, err)
}

func TestPageCacheUnreadablePage(t *testing.T) {
	ctrl := gomock.NewController(t)
	mem := memrauder.NewMockMemoryReader(ctrl)
	errUnmapped := errors.New("bad address")
	gomock.InOrder(
		mem.EXPECT().ReadMemory(gomock.Len(procmem.PageSize), uint64(0x5000)).Return(0, errUnmapped),
		mem.EXPECT().ReadMemory(gomock.Len(8), uint64(0x5ff8)).DoAndReturn(fillPage),
	)

	c, err := procmem.NewPageCache(mem, 4)
	require.NoError(t, err)
	buf := make([]byte, 8)
	n, err := c.ReadMemory(buf, 0x5ff8)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	require.Equal(t, 0, c.Len())
}

func TestPageCacheBypassesLargeReads(t *testing.T) {
	ctrl := gomock.NewController(t)
	mem := memrauder.NewMockMemoryReader(ctrl)
	size := 32 * procmem.PageSize
	mem.EXPECT().ReadMemory(gomock.Len(size), uint64(0x100000)).DoAndReturn(fillPage).Times(1)

	c, err := procmem.NewPageCache(mem, 4)
	require.NoError(t, err)
	_, err = c.ReadMemory(make([]byte, size), 0x100000)
	require.NoError(t, err)
	require.Equal(t, 0, c.Len())
}
