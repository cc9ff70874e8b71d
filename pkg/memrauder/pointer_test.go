package memrauder_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/spelunky-fyi/memrauder/pkg/memrauder"
)

func addr(a uint64) []byte {
	return []byte{byte(a), byte(a >> 8), byte(a >> 16), byte(a >> 24), byte(a >> 32), byte(a >> 40), byte(a >> 48), byte(a >> 56)}
}

func TestPointer(t *testing.T) {
	mt := memrauder.MustBuild(memrauder.Pointer(memrauder.Uint8[int]()))
	require.Equal(t, memrauder.PointerSize, mt.FieldSize())
	ctx := memrauder.NewContext(memrauder.BytesReader{0x0c, 0x03, 0x10})

	v, err := mt.FromBytes(addr(1), ctx)
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, 3, *v)

	v, err = mt.FromBytes(addr(2), ctx)
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, 16, *v)
}

func TestPointerNullPerformsNoRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	mem := memrauder.NewMockMemoryReader(ctrl)

	mt := memrauder.MustBuild(memrauder.Pointer(memrauder.Uint64[uint64]()))
	v, err := mt.FromBytes(make([]byte, 8), memrauder.NewContext(mem))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestPointerUnreadableIsAbsent(t *testing.T) {
	ctrl := gomock.NewController(t)
	mem := memrauder.NewMockMemoryReader(ctrl)
	mem.EXPECT().ReadMemory(gomock.Any(), uint64(0xdead)).Return(0, errors.New("EFAULT"))

	mt := memrauder.MustBuild(memrauder.Pointer(memrauder.Uint32[uint32]()))
	v, err := mt.FromBytes(addr(0xdead), memrauder.NewContext(mem))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestPointerShortReadIsAbsent(t *testing.T) {
	mt := memrauder.MustBuild(memrauder.Pointer(memrauder.Uint32[uint32]()))
	v, err := mt.FromBytes(addr(2), memrauder.NewContext(memrauder.BytesReader{1, 2, 3}))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestPointerPointeeErrorPropagates(t *testing.T) {
	mt := memrauder.MustBuild(memrauder.Pointer(memrauder.EnumOf[fourEnum](memrauder.CTypeUint8)))
	_, err := mt.FromBytes(addr(1), memrauder.NewContext(memrauder.BytesReader{0, 9}))
	require.True(t, memrauder.IsKind(err, memrauder.KindScalarConstruction), "got %v", err)
}

func TestPointerTruncated(t *testing.T) {
	mt := memrauder.MustBuild(memrauder.Pointer(memrauder.Uint8[int]()))
	_, err := mt.FromBytes([]byte{1, 0, 0}, nil)
	require.True(t, memrauder.IsKind(err, memrauder.KindInsufficientBytes), "got %v", err)
}
