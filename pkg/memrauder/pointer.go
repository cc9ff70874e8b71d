package memrauder

import "encoding/binary"

// DecodeAddress reads a pointer-sized little-endian address from buf.
func DecodeAddress(path FieldPath, buf []byte) (uint64, error) {
	if len(buf) < PointerSize {
		return 0, InsufficientBytes(path, NoIndex, PointerSize, len(buf))
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// pointerType follows an address and decodes the pointee.
type pointerType[T any] struct {
	path     FieldPath
	pointee  MemType[T]
	readSize int
}

// Pointer returns a constructor for a pointer field. A null pointer, or a
// pointee that can not be read, decodes to nil.
func Pointer[T any](pointee Deferred[T]) Deferred[*T] {
	return func(path FieldPath) (MemType[*T], error) {
		mt, err := pointee(path)
		if err != nil {
			return nil, err
		}
		return &pointerType[T]{path: path, pointee: mt, readSize: mt.FieldSize()}, nil
	}
}

func (p *pointerType[T]) FieldSize() int { return PointerSize }

func (p *pointerType[T]) ElementSize() int { return PointerSize }

func (p *pointerType[T]) Alignment() int { return PointerSize }

func (p *pointerType[T]) FromBytes(buf []byte, ctx *Context) (*T, error) {
	addr, err := DecodeAddress(p.path, buf)
	if err != nil {
		return nil, err
	}
	// Don't try to dereference NULL
	if addr == 0 {
		return nil, nil
	}
	pointeeBuf, ok := ctx.Read(addr, p.readSize)
	if !ok {
		return nil, nil
	}
	v, err := p.pointee.FromBytes(pointeeBuf, ctx)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
