// Package memrauder decodes typed values out of raw memory images taken
// from another process.
//
// A MemType describes how to decode a value of some Go type from the bytes
// of its in-memory representation. Schemas are composed with deferred
// constructors: Uint8, Float, Array, Pointer, Poly and StructOf each
// return a Deferred that is turned into a MemType once the path of the
// field is known. Record types describe their fields with Field and
// Embed in a Layout method.
//
// Decoding is synchronous. Decoders that follow pointers read through the
// MemoryReader of the Context; every decode failure is a *DecodeError
// whose Kind survives wrapping by enclosing structs and arrays.
package memrauder
