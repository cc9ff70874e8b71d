package memrauder

import "sort"

// Set is an unordered collection without duplicates.
type Set[T comparable] map[T]struct{}

// NewSet returns a set holding elems.
func NewSet[T comparable](elems ...T) Set[T] {
	s := make(Set[T], len(elems))
	for _, e := range elems {
		s[e] = struct{}{}
	}
	return s
}

// Has reports whether e is in the set.
func (s Set[T]) Has(e T) bool {
	_, ok := s[e]
	return ok
}

// Len returns the number of distinct elements.
func (s Set[T]) Len() int { return len(s) }

// Sorted returns the elements ordered by less.
func (s Set[T]) Sorted(less func(a, b T) bool) []T {
	out := make([]T, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Collector assembles decoded elements into the declared collection.
type Collector[T, C any] func(elems []T) C

// Ordered keeps elements in memory order.
func Ordered[T any](elems []T) []T {
	return elems
}

// Unordered collapses elements into a set. Element order is lost and
// duplicates collapse.
func Unordered[T comparable](elems []T) Set[T] {
	return NewSet(elems...)
}

// arrayType decodes a fixed number of consecutive elements.
type arrayType[T, C any] struct {
	path     FieldPath
	elem     MemType[T]
	count    int
	elemSize int
	collect  Collector[T, C]
}

// ElementMemType checks that elem can be laid out in an array and returns
// its stride.
func ElementMemType[T any](path FieldPath, d Deferred[T]) (MemType[T], int, error) {
	elem, err := d(path)
	if err != nil {
		return nil, 0, err
	}
	elemSize := elem.ElementSize()
	if elemSize <= 0 {
		return nil, 0, SchemaErrorf(path, "element type must declare an element size to be used in an array")
	}
	return elem, elemSize, nil
}

// ArrayOf returns a constructor for a fixed-size array of count elements,
// assembled by collect.
func ArrayOf[T, C any](elem Deferred[T], count int, collect Collector[T, C]) Deferred[C] {
	return func(path FieldPath) (MemType[C], error) {
		if count < 0 {
			return nil, SchemaErrorf(path, "negative array count %d", count)
		}
		mt, elemSize, err := ElementMemType(path, elem)
		if err != nil {
			return nil, err
		}
		return &arrayType[T, C]{path: path, elem: mt, count: count, elemSize: elemSize, collect: collect}, nil
	}
}

// Array returns a constructor for a fixed-size array decoded as a slice.
func Array[T any](elem Deferred[T], count int) Deferred[[]T] {
	return ArrayOf[T, []T](elem, count, Ordered[T])
}

// ArraySet returns a constructor for a fixed-size array decoded as a set.
func ArraySet[T comparable](elem Deferred[T], count int) Deferred[Set[T]] {
	return ArrayOf[T, Set[T]](elem, count, Unordered[T])
}

func (a *arrayType[T, C]) FieldSize() int { return a.elemSize * a.count }

func (a *arrayType[T, C]) ElementSize() int { return a.FieldSize() }

func (a *arrayType[T, C]) Alignment() int { return AlignOf(a.elem) }

func (a *arrayType[T, C]) FromBytes(buf []byte, ctx *Context) (C, error) {
	var zero C
	elems, err := DecodeElements(a.path, a.elem, a.elemSize, a.count, buf, ctx)
	if err != nil {
		return zero, err
	}
	return a.collect(elems), nil
}

// DecodeElements decodes count elements of stride elemSize from buf.
// Failures carry the index of the offending element.
func DecodeElements[T any](path FieldPath, elem MemType[T], elemSize, count int, buf []byte, ctx *Context) ([]T, error) {
	elems := make([]T, 0, count)
	for i := 0; i < count; i++ {
		lo, hi := i*elemSize, (i+1)*elemSize
		if len(buf) < hi {
			return nil, InsufficientBytes(path, i, hi, len(buf))
		}
		v, err := elem.FromBytes(buf[lo:hi], ctx)
		if err != nil {
			return nil, WrapIndex(path, i, err)
		}
		elems = append(elems, v)
	}
	return elems, nil
}
