package memrauder_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spelunky-fyi/memrauder/pkg/memrauder"
)

func TestArray(t *testing.T) {
	mt := memrauder.MustBuild(memrauder.Array(memrauder.Uint16[int](), 3))
	require.Equal(t, 6, mt.FieldSize())
	v, err := memrauder.FromBytes(mt, []byte{1, 0, 2, 0, 0xff, 0xff}, nil)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 0xffff}, v)
}

func TestArraySetCollapsesDuplicates(t *testing.T) {
	mt := memrauder.MustBuild(memrauder.ArraySet(memrauder.Bool(), 4))
	v, err := memrauder.FromBytes(mt, []byte{1, 0, 1, 1}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, v.Len())
	require.True(t, v.Has(true))
	require.True(t, v.Has(false))
}

func TestArrayOfStructsUsesElementSize(t *testing.T) {
	mt := memrauder.MustBuild(memrauder.Array(memrauder.StructOf[player](), 2))
	require.Equal(t, 6, mt.FieldSize())
	v, err := memrauder.FromBytes(mt, []byte{1, 2, 0xff, 3, 4, 0xff}, nil)
	require.NoError(t, err)
	require.Equal(t, []player{{1, 2}, {3, 4}}, v)
}

func TestArrayTruncatedReportsIndex(t *testing.T) {
	mt := memrauder.MustBuild(memrauder.Array(memrauder.Uint16[int](), 3))
	_, err := memrauder.FromBytes(mt, []byte{1, 0, 2, 0, 3}, nil)
	var derr *memrauder.DecodeError
	require.True(t, errors.As(err, &derr))
	require.Equal(t, memrauder.KindInsufficientBytes, derr.Kind)
	require.Equal(t, 2, derr.Index)
}

func TestArrayElementErrorReportsIndex(t *testing.T) {
	mt := memrauder.MustBuild(memrauder.Array(memrauder.EnumOf[fourEnum](memrauder.CTypeUint8), 4))
	_, err := memrauder.FromBytes(mt, []byte{1, 2, 7, 4}, nil)
	var derr *memrauder.DecodeError
	require.True(t, errors.As(err, &derr))
	require.Equal(t, memrauder.KindScalarConstruction, derr.Kind)
	require.Equal(t, 2, derr.Index)
}

func TestArraySchemaErrors(t *testing.T) {
	var serr *memrauder.SchemaError

	// lowest declares no element size
	_, err := memrauder.Build(memrauder.Array(memrauder.StructOf[lowest](), 2))
	require.True(t, errors.As(err, &serr), "got %v", err)

	_, err = memrauder.Build(memrauder.Array(memrauder.Uint8[int](), -1))
	require.True(t, errors.As(err, &serr), "got %v", err)
}

func TestSetSorted(t *testing.T) {
	s := memrauder.NewSet(3, 1, 2, 3)
	require.Equal(t, []int{1, 2, 3}, s.Sorted(func(a, b int) bool { return a < b }))
}
