package msvc

import (
	"fmt"
	"hash/fnv"

	"github.com/spelunky-fyi/memrauder/pkg/memrauder"
)

// unorderedMapMeta is the std::unordered_map header. The elements live in
// a doubly linked list terminated by End; the bucket array holds the first
// and last node of each bucket's run.
type unorderedMapMeta struct {
	End        uint64
	Size       uint64
	BucketsPtr uint64
	Mask       uint64
	BucketSize uint64
}

func (unorderedMapMeta) Layout() memrauder.Layout[unorderedMapMeta] {
	return memrauder.Layout[unorderedMapMeta]{
		Fields: []memrauder.FieldSpec[unorderedMapMeta]{
			memrauder.Field("end", 0x8, memrauder.Uint64[uint64](), func(m *unorderedMapMeta, v uint64) { m.End = v }),
			memrauder.Field("size", 0x10, memrauder.Uint64[uint64](), func(m *unorderedMapMeta, v uint64) { m.Size = v }),
			memrauder.Field("buckets_ptr", 0x18, memrauder.VoidP[uint64](), func(m *unorderedMapMeta, v uint64) { m.BucketsPtr = v }),
			memrauder.Field("mask", 0x30, memrauder.Uint64[uint64](), func(m *unorderedMapMeta, v uint64) { m.Mask = v }),
			memrauder.Field("bucket_size", 0x38, memrauder.Uint64[uint64](), func(m *unorderedMapMeta, v uint64) { m.BucketSize = v }),
		},
		Size:        0x40,
		ElementSize: 0x40,
	}
}

type unorderedMapBucket struct {
	First uint64
	Last  uint64
}

const bucketSize = 16

func (unorderedMapBucket) Layout() memrauder.Layout[unorderedMapBucket] {
	return memrauder.Layout[unorderedMapBucket]{
		Fields: []memrauder.FieldSpec[unorderedMapBucket]{
			memrauder.Field("first", 0x0, memrauder.VoidP[uint64](), func(b *unorderedMapBucket, v uint64) { b.First = v }),
			memrauder.Field("last", 0x8, memrauder.VoidP[uint64](), func(b *unorderedMapBucket, v uint64) { b.Last = v }),
		},
		ElementSize: bucketSize,
	}
}

// Node layout: next pointer, prev pointer, then the key/value pair.
const (
	nodeNextOffset = 0x0
	nodeKeyOffset  = 0x10
)

// KeyEncoder is implemented by key schemas able to reproduce the in-memory
// bytes of a key, which is what std::hash feeds to FNV-1a.
type KeyEncoder[K any] interface {
	ToBytes(key K) []byte
}

// HashKey returns the MSVC std::hash value of the key bytes (64-bit
// FNV-1a).
func HashKey(keyBytes []byte) uint64 {
	h := fnv.New64a()
	h.Write(keyBytes)
	return h.Sum64()
}

// UnorderedMap is a read-only view of a std::unordered_map in the target.
// Only the header is decoded eagerly; Get walks the target's nodes on
// demand.
type UnorderedMap[K comparable, V any] struct {
	path memrauder.FieldPath
	meta unorderedMapMeta
	t    *unorderedMapType[K, V]
	mem  *memrauder.Context
}

// Len returns the number of elements the map reports.
func (m *UnorderedMap[K, V]) Len() uint64 { return m.meta.Size }

// Get looks up key. The boolean result is false if the key is not in the
// map. Unreadable buckets or nodes are errors: a non-sentinel link claims
// the node exists.
func (m *UnorderedMap[K, V]) Get(key K) (V, bool, error) {
	var zero V
	if m.meta.BucketsPtr == 0 {
		return zero, false, nil
	}

	idx := HashKey(m.t.keyEnc.ToBytes(key)) & m.meta.Mask
	bucketAddr := m.meta.BucketsPtr + idx*bucketSize
	bucket, ok, err := memrauder.AtAddr(m.mem, m.t.bucket, bucketAddr)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		return zero, false, memrauder.RemoteReadFailed(m.path, bucketAddr, bucketSize)
	}

	// Empty bucket
	if bucket.First == m.meta.End {
		return zero, false, nil
	}

	next := bucket.First
	for steps := uint64(0); next != m.meta.End; steps++ {
		if steps > m.meta.Size {
			return zero, false, memrauder.NewDecodeError(memrauder.KindInvariant, m.path,
				fmt.Sprintf("bucket %d chain is longer than the map (%d elements)", idx, m.meta.Size), nil)
		}
		node, ok := m.mem.Read(next, m.t.nodeSize)
		if !ok {
			return zero, false, memrauder.RemoteReadFailed(m.path, next, m.t.nodeSize)
		}
		nodeKey, err := m.t.key.FromBytes(node[nodeKeyOffset:m.t.valueOffset], m.mem)
		if err != nil {
			return zero, false, err
		}
		if nodeKey == key {
			v, err := m.t.value.FromBytes(node[m.t.valueOffset:], m.mem)
			if err != nil {
				return zero, false, err
			}
			return v, true, nil
		}

		// We've searched the whole bucket, give up.
		if next == bucket.Last {
			return zero, false, nil
		}
		next, err = memrauder.DecodeAddress(m.path, node[nodeNextOffset:])
		if err != nil {
			return zero, false, err
		}
	}
	return zero, false, nil
}

type unorderedMapType[K comparable, V any] struct {
	path        memrauder.FieldPath
	meta        memrauder.MemType[unorderedMapMeta]
	bucket      memrauder.MemType[unorderedMapBucket]
	key         memrauder.MemType[K]
	keyEnc      KeyEncoder[K]
	value       memrauder.MemType[V]
	valueOffset int
	nodeSize    int
}

// UnorderedMapOf returns a constructor for a std::unordered_map field. The
// key schema must implement KeyEncoder, as the scalar schemas do.
func UnorderedMapOf[K comparable, V any](key memrauder.Deferred[K], value memrauder.Deferred[V]) memrauder.Deferred[*UnorderedMap[K, V]] {
	return func(path memrauder.FieldPath) (memrauder.MemType[*UnorderedMap[K, V]], error) {
		keyType, err := key(path.Append("__key"))
		if err != nil {
			return nil, err
		}
		keyEnc, ok := keyType.(KeyEncoder[K])
		if !ok {
			return nil, memrauder.SchemaErrorf(path, "map key type must be able to encode keys to bytes")
		}
		valueType, err := value(path.Append("__value"))
		if err != nil {
			return nil, err
		}
		meta, err := memrauder.StructOf[unorderedMapMeta]()(path)
		if err != nil {
			return nil, err
		}
		bucket, err := memrauder.StructOf[unorderedMapBucket]()(path.Append("__bucket"))
		if err != nil {
			return nil, err
		}

		align := memrauder.AlignOf(valueType)
		if align <= 0 {
			return nil, memrauder.SchemaErrorf(path, "map value type has no known alignment")
		}
		valueOffset := nodeKeyOffset + keyType.FieldSize()
		valueOffset = (valueOffset + align - 1) &^ (align - 1)

		return &unorderedMapType[K, V]{
			path:        path,
			meta:        meta,
			bucket:      bucket,
			key:         keyType,
			keyEnc:      keyEnc,
			value:       valueType,
			valueOffset: valueOffset,
			nodeSize:    valueOffset + valueType.FieldSize(),
		}, nil
	}
}

func (t *unorderedMapType[K, V]) FieldSize() int { return t.meta.FieldSize() }

func (t *unorderedMapType[K, V]) ElementSize() int { return t.meta.ElementSize() }

func (t *unorderedMapType[K, V]) Alignment() int { return 8 }

func (t *unorderedMapType[K, V]) FromBytes(buf []byte, ctx *memrauder.Context) (*UnorderedMap[K, V], error) {
	meta, err := t.meta.FromBytes(buf, ctx)
	if err != nil {
		return nil, err
	}
	return &UnorderedMap[K, V]{path: t.path, meta: meta, t: t, mem: ctx}, nil
}
