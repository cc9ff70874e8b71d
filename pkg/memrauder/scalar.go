package memrauder

import (
	"encoding/binary"
	"math"

	"golang.org/x/exp/constraints"
)

// PointerSize is the width of addresses in the target process.
const PointerSize = 8

// CType is a primitive C type as laid out by MSVC on x86-64.
type CType uint8

const (
	CTypeBool CType = iota
	CTypeInt8
	CTypeUint8
	CTypeInt16
	CTypeUint16
	CTypeInt32
	CTypeUint32
	CTypeInt64
	CTypeUint64
	CTypeVoidP
	CTypeFloat
	CTypeDouble
	// CTypeLongDouble is the same as double with MSVC.
	CTypeLongDouble
)

var ctypeNames = [...]string{
	CTypeBool:       "bool",
	CTypeInt8:       "int8_t",
	CTypeUint8:      "uint8_t",
	CTypeInt16:      "int16_t",
	CTypeUint16:     "uint16_t",
	CTypeInt32:      "int32_t",
	CTypeUint32:     "uint32_t",
	CTypeInt64:      "int64_t",
	CTypeUint64:     "uint64_t",
	CTypeVoidP:      "void*",
	CTypeFloat:      "float",
	CTypeDouble:     "double",
	CTypeLongDouble: "long double",
}

func (c CType) String() string {
	if int(c) < len(ctypeNames) {
		return ctypeNames[c]
	}
	return "unknown"
}

// Size returns the width of the type in bytes.
func (c CType) Size() int {
	switch c {
	case CTypeBool, CTypeInt8, CTypeUint8:
		return 1
	case CTypeInt16, CTypeUint16:
		return 2
	case CTypeInt32, CTypeUint32, CTypeFloat:
		return 4
	case CTypeInt64, CTypeUint64, CTypeDouble, CTypeLongDouble:
		return 8
	case CTypeVoidP:
		return PointerSize
	}
	return 0
}

func (c CType) isInteger() bool {
	return c >= CTypeInt8 && c <= CTypeVoidP
}

func (c CType) isSigned() bool {
	switch c {
	case CTypeInt8, CTypeInt16, CTypeInt32, CTypeInt64:
		return true
	}
	return false
}

func (c CType) isFloat() bool {
	return c == CTypeFloat || c == CTypeDouble || c == CTypeLongDouble
}

// bits returns the little-endian value in the first c.Size() bytes of buf.
func (c CType) bits(buf []byte) uint64 {
	switch c.Size() {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(buf))
	case 4:
		return uint64(binary.LittleEndian.Uint32(buf))
	default:
		return binary.LittleEndian.Uint64(buf)
	}
}

func (c CType) putBits(bits uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, bits)
	return buf[:c.Size()]
}

func signExtend(bits uint64, size int) int64 {
	shift := 64 - 8*uint(size)
	return int64(bits<<shift) >> shift
}

// Enum is satisfied by integer types that can tell whether a value is one
// of their declared members.
type Enum interface {
	constraints.Integer
	Valid() bool
}

// BitFlags is satisfied by integer flag sets that can report which bits
// have a declared meaning.
type BitFlags interface {
	constraints.Integer
	KnownBits() uint64
}

// Scalar decodes a primitive C value into the logical type T.
type Scalar[T any] struct {
	path  FieldPath
	ctype CType
	conv  func(bits uint64) (v T, raw any, ok bool)
	enc   func(v T) uint64
}

// CType returns the C representation decoded by s.
func (s *Scalar[T]) CType() CType { return s.ctype }

func (s *Scalar[T]) FieldSize() int { return s.ctype.Size() }

func (s *Scalar[T]) ElementSize() int { return s.ctype.Size() }

// Alignment is the size of the C type; every C type here is naturally
// aligned.
func (s *Scalar[T]) Alignment() int { return s.ctype.Size() }

func (s *Scalar[T]) FromBytes(buf []byte, _ *Context) (T, error) {
	var zero T
	size := s.ctype.Size()
	if len(buf) < size {
		return zero, InsufficientBytes(s.path, NoIndex, size, len(buf))
	}
	v, raw, ok := s.conv(s.ctype.bits(buf))
	if !ok {
		return zero, &DecodeError{Kind: KindScalarConstruction, Path: s.path, Index: NoIndex, Value: raw}
	}
	return v, nil
}

// ToBytes encodes v with the C representation of s. It is used to hash
// map keys the way the target does.
func (s *Scalar[T]) ToBytes(v T) []byte {
	return s.ctype.putBits(s.enc(v))
}

func convertInt[T constraints.Integer](ct CType, bits uint64) (T, any, bool) {
	if ct.isSigned() {
		x := signExtend(bits, ct.Size())
		v := T(x)
		if int64(v) != x || (x < 0) != (v < 0) {
			return v, x, false
		}
		return v, x, true
	}
	v := T(bits)
	if uint64(v) != bits || v < 0 {
		return v, bits, false
	}
	return v, bits, true
}

func newInt[T constraints.Integer](path FieldPath, ct CType, valid func(T) bool) (MemType[T], error) {
	if !ct.isInteger() {
		return nil, SchemaErrorf(path, "C type %s can not hold an integer value", ct)
	}
	return &Scalar[T]{
		path:  path,
		ctype: ct,
		conv: func(bits uint64) (T, any, bool) {
			v, raw, ok := convertInt[T](ct, bits)
			if ok && valid != nil && !valid(v) {
				return v, raw, false
			}
			return v, raw, ok
		},
		enc: func(v T) uint64 { return uint64(v) },
	}, nil
}

// IntOf returns a constructor decoding the integer C type ct into T. Values
// that do not fit T fail with KindScalarConstruction.
func IntOf[T constraints.Integer](ct CType) Deferred[T] {
	return func(path FieldPath) (MemType[T], error) {
		return newInt[T](path, ct, nil)
	}
}

// EnumOf is like IntOf but also rejects values that are not members of T.
func EnumOf[T Enum](ct CType) Deferred[T] {
	return func(path FieldPath) (MemType[T], error) {
		return newInt[T](path, ct, func(v T) bool { return v.Valid() })
	}
}

// FlagsOf is like IntOf but rejects values with bits T does not declare.
func FlagsOf[T BitFlags](ct CType) Deferred[T] {
	return func(path FieldPath) (MemType[T], error) {
		return newInt[T](path, ct, func(v T) bool {
			return uint64(v)&^v.KnownBits() == 0
		})
	}
}

// FloatOf returns a constructor decoding the floating point C type ct.
func FloatOf[T constraints.Float](ct CType) Deferred[T] {
	return func(path FieldPath) (MemType[T], error) {
		if !ct.isFloat() {
			return nil, SchemaErrorf(path, "C type %s can not hold a floating point value", ct)
		}
		return &Scalar[T]{
			path:  path,
			ctype: ct,
			conv: func(bits uint64) (T, any, bool) {
				if ct == CTypeFloat {
					return T(math.Float32frombits(uint32(bits))), bits, true
				}
				return T(math.Float64frombits(bits)), bits, true
			},
			enc: func(v T) uint64 {
				if ct == CTypeFloat {
					return uint64(math.Float32bits(float32(v)))
				}
				return math.Float64bits(float64(v))
			},
		}, nil
	}
}

// BoolOf returns a constructor decoding a C bool. Any non-zero byte is
// true.
func BoolOf[T ~bool](ct CType) Deferred[T] {
	return func(path FieldPath) (MemType[T], error) {
		if ct != CTypeBool {
			return nil, SchemaErrorf(path, "C type %s can not hold a bool value", ct)
		}
		return &Scalar[T]{
			path:  path,
			ctype: ct,
			conv: func(bits uint64) (T, any, bool) {
				return T(bits != 0), bits, true
			},
			enc: func(v T) uint64 {
				if bool(v) {
					return 1
				}
				return 0
			},
		}, nil
	}
}
