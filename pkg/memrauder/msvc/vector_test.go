package msvc_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/spelunky-fyi/memrauder/pkg/memrauder"
	"github.com/spelunky-fyi/memrauder/pkg/memrauder/msvc"
)

type level uint8

func (l level) Valid() bool { return l >= 1 && l <= 4 }

func vectorHeader(arrayAddr uint64, size uint32) []byte {
	img := make(image, 0x14)
	img.putU64(0x8, arrayAddr)
	img.putU32(0x10, size)
	return img
}

func TestVector(t *testing.T) {
	mt := memrauder.MustBuild(msvc.Vector(memrauder.Uint8[int]()))
	require.Equal(t, 0x14, mt.FieldSize())

	header := []byte{
		0, 0, 0, 0, 0, 0, 0, 0,
		1, 0, 0, 0, 0, 0, 0, 0,
		3, 0, 0, 0,
	}
	ctx := memrauder.NewContext(memrauder.BytesReader{0x0a, 0x0b, 0x0c, 0x0d})
	v, err := mt.FromBytes(header, ctx)
	require.NoError(t, err)
	require.Equal(t, []int{11, 12, 13}, v)

	v, err = mt.FromBytes(vectorHeader(2, 1), ctx)
	require.NoError(t, err)
	require.Equal(t, []int{12}, v)
}

func TestVectorUnreadableBackingArray(t *testing.T) {
	mt := memrauder.MustBuild(msvc.Vector(memrauder.Uint8[int]()))
	ctx := memrauder.NewContext(memrauder.BytesReader{0x0a, 0x0b, 0x0c, 0x0d})

	_, err := mt.FromBytes(vectorHeader(10, 3), ctx)
	require.True(t, memrauder.IsKind(err, memrauder.KindRemoteRead), "got %v", err)

	_, err = mt.FromBytes(vectorHeader(1, 10), ctx)
	require.True(t, memrauder.IsKind(err, memrauder.KindRemoteRead), "got %v", err)
}

func TestVectorNullPerformsNoRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := memrauder.NewContext(memrauder.NewMockMemoryReader(ctrl))

	mt := memrauder.MustBuild(msvc.Vector(memrauder.Uint32[uint32]()))
	v, err := mt.FromBytes(vectorHeader(0, 5), ctx)
	require.NoError(t, err)
	require.Nil(t, v)

	set := memrauder.MustBuild(msvc.VectorSet(memrauder.Uint32[uint32]()))
	s, err := set.FromBytes(vectorHeader(0, 5), ctx)
	require.NoError(t, err)
	require.Nil(t, s)
}

func TestVectorEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := memrauder.NewContext(memrauder.NewMockMemoryReader(ctrl))

	mt := memrauder.MustBuild(msvc.Vector(memrauder.Uint32[uint32]()))
	v, err := mt.FromBytes(vectorHeader(0x1000, 0), ctx)
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Empty(t, v)
}

func TestVectorSingleBulkRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	mem := memrauder.NewMockMemoryReader(ctrl)
	mem.EXPECT().ReadMemory(gomock.Any(), uint64(0x1000)).DoAndReturn(func(buf []byte, _ uint64) (int, error) {
		require.Len(t, buf, 8)
		return copy(buf, []byte{1, 0, 0, 0, 2, 0, 0, 0}), nil
	}).Times(1)

	mt := memrauder.MustBuild(msvc.Vector(memrauder.Uint32[uint32]()))
	v, err := mt.FromBytes(vectorHeader(0x1000, 2), memrauder.NewContext(mem))
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2}, v)
}

func TestVectorCeiling(t *testing.T) {
	mt := memrauder.MustBuild(msvc.Vector(memrauder.Uint32[uint32]()))
	ctx := memrauder.NewContext(make(memrauder.BytesReader, 0x100), memrauder.WithMaxVectorBytes(8))

	_, err := mt.FromBytes(vectorHeader(0x10, 2), ctx)
	require.NoError(t, err)

	_, err = mt.FromBytes(vectorHeader(0x10, 3), ctx)
	require.True(t, memrauder.IsKind(err, memrauder.KindInvariant), "got %v", err)

	unbounded := memrauder.NewContext(make(memrauder.BytesReader, 0x100), memrauder.WithMaxVectorBytes(0))
	v, err := mt.FromBytes(vectorHeader(0x10, 0x30), unbounded)
	require.NoError(t, err)
	require.Len(t, v, 0x30)
}

func TestVectorElementErrorKeepsKind(t *testing.T) {
	mt := memrauder.MustBuild(msvc.Vector(memrauder.EnumOf[level](memrauder.CTypeUint8)))
	ctx := memrauder.NewContext(memrauder.BytesReader{0, 1, 9, 4})

	v, err := mt.FromBytes(vectorHeader(3, 1), ctx)
	require.NoError(t, err)
	require.Equal(t, []level{4}, v)

	_, err = mt.FromBytes(vectorHeader(1, 3), ctx)
	var derr *memrauder.DecodeError
	require.True(t, errors.As(err, &derr))
	require.Equal(t, memrauder.KindScalarConstruction, derr.Kind)
	require.Equal(t, 1, derr.Index)
}

func TestVectorTruncatedHeader(t *testing.T) {
	mt := memrauder.MustBuild(msvc.Vector(memrauder.Uint8[int]()))
	_, err := mt.FromBytes(make([]byte, 0x10), nil)
	require.True(t, memrauder.IsKind(err, memrauder.KindInsufficientBytes), "got %v", err)
}

type vecWrap struct {
	Items []uint16
}

func (vecWrap) Layout() memrauder.Layout[vecWrap] {
	return memrauder.Layout[vecWrap]{
		Fields: []memrauder.FieldSpec[vecWrap]{
			memrauder.Field("items", 0x1, msvc.Vector(memrauder.Uint16[uint16]()), func(w *vecWrap, v []uint16) { w.Items = v }),
		},
	}
}

func TestVectorInStruct(t *testing.T) {
	mt := memrauder.MustBuild(memrauder.StructOf[vecWrap]())
	require.Equal(t, 0x15, mt.FieldSize())

	buf := append([]byte{0xee}, vectorHeader(1, 2)...)
	ctx := memrauder.NewContext(memrauder.BytesReader{0xff, 0x03, 0x00, 0x09, 0x00})
	v, err := mt.FromBytes(buf, ctx)
	require.NoError(t, err)
	require.Equal(t, []uint16{3, 9}, v.Items)
}

func TestVectorSet(t *testing.T) {
	mt := memrauder.MustBuild(msvc.VectorSet(memrauder.Uint8[int]()))
	ctx := memrauder.NewContext(memrauder.BytesReader{5, 6, 5, 7})
	s, err := mt.FromBytes(vectorHeader(0x0, 0), ctx)
	require.NoError(t, err)
	require.Nil(t, s)

	s, err = mt.FromBytes(vectorHeader(0x1, 3), ctx)
	require.NoError(t, err)
	require.Equal(t, memrauder.NewSet(5, 6, 7), s)
}
