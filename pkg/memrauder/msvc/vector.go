// Package msvc decodes the runtime containers of the MSVC standard library
// (std::vector, std::unordered_map) as laid out on x86-64.
package msvc

import (
	"fmt"

	"github.com/spelunky-fyi/memrauder/pkg/memrauder"
)

// vectorMeta is the part of a std::vector header that is needed to find
// its elements.
type vectorMeta struct {
	ArrayAddr uint64
	Size      uint32
}

func (vectorMeta) Layout() memrauder.Layout[vectorMeta] {
	return memrauder.Layout[vectorMeta]{
		Fields: []memrauder.FieldSpec[vectorMeta]{
			memrauder.Field("array_addr", 0x8, memrauder.VoidP[uint64](), func(m *vectorMeta, v uint64) { m.ArrayAddr = v }),
			memrauder.Field("size", 0x10, memrauder.Uint32[uint32](), func(m *vectorMeta, v uint32) { m.Size = v }),
		},
	}
}

type vectorType[T, C any] struct {
	path     memrauder.FieldPath
	elem     memrauder.MemType[T]
	elemSize int
	meta     memrauder.MemType[vectorMeta]
	collect  memrauder.Collector[T, C]
}

// VectorOf returns a constructor for a std::vector field whose elements are
// decoded with elem and assembled by collect. A vector with a null backing
// array decodes to the zero value of C.
func VectorOf[T, C any](elem memrauder.Deferred[T], collect memrauder.Collector[T, C]) memrauder.Deferred[C] {
	return func(path memrauder.FieldPath) (memrauder.MemType[C], error) {
		mt, elemSize, err := memrauder.ElementMemType(path, elem)
		if err != nil {
			return nil, err
		}
		meta, err := memrauder.StructOf[vectorMeta]()(path.Append("__vector_meta"))
		if err != nil {
			return nil, err
		}
		return &vectorType[T, C]{path: path, elem: mt, elemSize: elemSize, meta: meta, collect: collect}, nil
	}
}

// Vector returns a constructor for a std::vector decoded as a slice. A
// null backing array decodes to a nil slice, an empty vector to an empty
// non-nil slice.
func Vector[T any](elem memrauder.Deferred[T]) memrauder.Deferred[[]T] {
	return VectorOf[T, []T](elem, memrauder.Ordered[T])
}

// VectorSet returns a constructor for a std::vector decoded as a set. A
// null backing array decodes to a nil set.
func VectorSet[T comparable](elem memrauder.Deferred[T]) memrauder.Deferred[memrauder.Set[T]] {
	return VectorOf[T, memrauder.Set[T]](elem, memrauder.Unordered[T])
}

func (v *vectorType[T, C]) FieldSize() int { return v.meta.FieldSize() }

func (v *vectorType[T, C]) ElementSize() int { return v.meta.FieldSize() }

func (v *vectorType[T, C]) Alignment() int { return 8 }

func (v *vectorType[T, C]) FromBytes(buf []byte, ctx *memrauder.Context) (C, error) {
	var zero C
	meta, err := v.meta.FromBytes(buf, ctx)
	if err != nil {
		return zero, err
	}

	// Don't try to dereference NULL
	if meta.ArrayAddr == 0 {
		return zero, nil
	}

	count := int(meta.Size)
	size := count * v.elemSize
	if limit := ctx.MaxVectorBytes(); limit > 0 && size > limit {
		return zero, memrauder.NewDecodeError(memrauder.KindInvariant, v.path,
			fmt.Sprintf("vector of %d elements needs %d bytes, more than the limit of %d", count, size, limit), nil)
	}

	// Single read for the whole backing array.
	elemBuf, ok := ctx.Read(meta.ArrayAddr, size)
	if !ok {
		return zero, memrauder.RemoteReadFailed(v.path, meta.ArrayAddr, size)
	}

	elems, err := memrauder.DecodeElements(v.path, v.elem, v.elemSize, count, elemBuf, ctx)
	if err != nil {
		return zero, err
	}
	return v.collect(elems), nil
}
