package memrauder

import "golang.org/x/exp/constraints"

// Ready-made constructors for the primitive C types. The type parameter is
// the logical Go type the field is stored as, for example
//
//	memrauder.Field("bombs", 0x4, memrauder.Uint8[int](), func(i *Inventory, v int) { i.Bombs = v })

// Bool decodes a one byte C bool. Any non-zero byte is true.
func Bool() Deferred[bool] { return BoolOf[bool](CTypeBool) }

// Int8 decodes a signed char.
func Int8[T constraints.Integer]() Deferred[T] { return IntOf[T](CTypeInt8) }

// Uint8 decodes an unsigned char.
func Uint8[T constraints.Integer]() Deferred[T] { return IntOf[T](CTypeUint8) }

// Int16 decodes a little-endian int16_t.
func Int16[T constraints.Integer]() Deferred[T] { return IntOf[T](CTypeInt16) }

// Uint16 decodes a little-endian uint16_t.
func Uint16[T constraints.Integer]() Deferred[T] { return IntOf[T](CTypeUint16) }

// Int32 decodes a little-endian int32_t.
func Int32[T constraints.Integer]() Deferred[T] { return IntOf[T](CTypeInt32) }

// Uint32 decodes a little-endian uint32_t.
func Uint32[T constraints.Integer]() Deferred[T] { return IntOf[T](CTypeUint32) }

// Int64 decodes a little-endian int64_t.
func Int64[T constraints.Integer]() Deferred[T] { return IntOf[T](CTypeInt64) }

// Uint64 decodes a little-endian uint64_t.
func Uint64[T constraints.Integer]() Deferred[T] { return IntOf[T](CTypeUint64) }

// VoidP decodes a pointer-sized address without following it.
func VoidP[T constraints.Integer]() Deferred[T] { return IntOf[T](CTypeVoidP) }

// Float decodes a 4 byte IEEE 754 float.
func Float[T constraints.Float]() Deferred[T] { return FloatOf[T](CTypeFloat) }

// Double decodes an 8 byte IEEE 754 double.
func Double[T constraints.Float]() Deferred[T] { return FloatOf[T](CTypeDouble) }

// LongDouble decodes a long double, which MSVC stores as a double.
func LongDouble[T constraints.Float]() Deferred[T] { return FloatOf[T](CTypeLongDouble) }
