package memrauder

// PolyPointer is an address in the target together with the best known
// decoded value at that address. The Context it was decoded with is kept
// so the same address can be reinterpreted as a more specific type.
//
// PolyPointer is a value type and is never modified after construction.
type PolyPointer[T any] struct {
	addr  uint64
	value *T
	ctx   *Context
}

// NewPolyPointer returns a PolyPointer at addr holding value. A nil value
// means the value is unknown.
func NewPolyPointer[T any](addr uint64, value *T, ctx *Context) PolyPointer[T] {
	if value != nil {
		v := *value
		value = &v
	}
	return PolyPointer[T]{addr: addr, value: value, ctx: ctx}
}

// EmptyPoly returns the "nothing here" pointer: address 0 and no value.
func EmptyPoly[T any](ctx *Context) PolyPointer[T] {
	return PolyPointer[T]{ctx: ctx}
}

// Addr returns the address the pointer refers to.
func (p PolyPointer[T]) Addr() uint64 { return p.addr }

// Value returns a copy of the decoded value, and false if there is none.
func (p PolyPointer[T]) Value() (T, bool) {
	if p.value == nil {
		var zero T
		return zero, false
	}
	return *p.value, true
}

// Present reports whether the pointer holds a decoded value.
func (p PolyPointer[T]) Present() bool { return p.value != nil }

// IsEmpty reports whether p is the empty pointer.
func (p PolyPointer[T]) IsEmpty() bool { return p.addr == 0 && p.value == nil }

// Context returns the context the pointer was decoded with.
func (p PolyPointer[T]) Context() *Context { return p.ctx }

// AsPolyType re-reads the memory at p's address and decodes it with mt.
// If the memory can not be read the empty pointer is returned. p is not
// modified.
func AsPolyType[U, T any](p PolyPointer[T], mt MemType[U]) (PolyPointer[U], error) {
	if p.addr == 0 {
		return EmptyPoly[U](p.ctx), nil
	}
	v, ok, err := AtAddr(p.ctx, mt, p.addr)
	if err != nil {
		return EmptyPoly[U](p.ctx), err
	}
	if !ok {
		return EmptyPoly[U](p.ctx), nil
	}
	return PolyPointer[U]{addr: p.addr, value: &v, ctx: p.ctx}, nil
}

// AsType is like AsPolyType but only returns the value.
func AsType[U, T any](p PolyPointer[T], mt MemType[U]) (U, bool, error) {
	pp, err := AsPolyType(p, mt)
	if err != nil {
		var zero U
		return zero, false, err
	}
	v, ok := pp.Value()
	return v, ok, nil
}

// polyPointerType decodes a pointer field into a PolyPointer.
type polyPointerType[T any] struct {
	path     FieldPath
	pointee  MemType[T]
	readSize int
}

// Poly returns a constructor for a pointer field decoded as a PolyPointer.
// A null address decodes to the empty pointer; an unreadable pointee keeps
// the address with no value.
func Poly[T any](pointee Deferred[T]) Deferred[PolyPointer[T]] {
	return func(path FieldPath) (MemType[PolyPointer[T]], error) {
		mt, err := pointee(path)
		if err != nil {
			return nil, err
		}
		return &polyPointerType[T]{path: path, pointee: mt, readSize: mt.FieldSize()}, nil
	}
}

func (p *polyPointerType[T]) FieldSize() int { return PointerSize }

func (p *polyPointerType[T]) ElementSize() int { return PointerSize }

func (p *polyPointerType[T]) Alignment() int { return PointerSize }

func (p *polyPointerType[T]) FromBytes(buf []byte, ctx *Context) (PolyPointer[T], error) {
	addr, err := DecodeAddress(p.path, buf)
	if err != nil {
		return PolyPointer[T]{}, err
	}
	if addr == 0 {
		return EmptyPoly[T](ctx), nil
	}
	pointeeBuf, ok := ctx.Read(addr, p.readSize)
	if !ok {
		return PolyPointer[T]{addr: addr, ctx: ctx}, nil
	}
	v, err := p.pointee.FromBytes(pointeeBuf, ctx)
	if err != nil {
		return PolyPointer[T]{}, err
	}
	return PolyPointer[T]{addr: addr, value: &v, ctx: ctx}, nil
}
