package memrauder

import (
	"errors"
	"fmt"
)

// ErrorKind classifies decode failures.
type ErrorKind uint8

const (
	// KindUnknown is reported by KindOf for errors that did not come out of
	// a decoder.
	KindUnknown ErrorKind = iota
	// KindInsufficientBytes means a buffer was shorter than the schema
	// requires.
	KindInsufficientBytes
	// KindScalarConstruction means the raw bytes decoded fine but the value
	// is not a member of the declared enum or flag set.
	KindScalarConstruction
	// KindRemoteRead means the MemoryReader returned no data for a range
	// that had to exist.
	KindRemoteRead
	// KindInvariant means decoded data violates a structural invariant of
	// the container it describes.
	KindInvariant
)

func (k ErrorKind) String() string {
	switch k {
	case KindInsufficientBytes:
		return "insufficient bytes"
	case KindScalarConstruction:
		return "scalar value construction"
	case KindRemoteRead:
		return "remote read"
	case KindInvariant:
		return "invariant violation"
	default:
		return "unknown"
	}
}

// NoIndex is the DecodeError.Index of failures not tied to an element.
const NoIndex = -1

// DecodeError is returned by every MemType.FromBytes failure. Decoders that
// wrap a child failure keep the child's Kind.
type DecodeError struct {
	Kind  ErrorKind
	Path  FieldPath
	Index int    // element index, NoIndex if not applicable
	Addr  uint64 // remote address involved, if any
	Want  int    // bytes needed, for KindInsufficientBytes
	Got   int    // bytes available, for KindInsufficientBytes
	Value any    // raw value, for KindScalarConstruction
	Msg   string
	Err   error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("field %s", e.Path)
	if e.Index != NoIndex {
		msg += fmt.Sprintf(" index %d", e.Index)
	}
	switch {
	case e.Msg != "":
		msg += ": " + e.Msg
	case e.Kind == KindInsufficientBytes:
		msg += fmt.Sprintf(": need %d bytes, got %d", e.Want, e.Got)
	case e.Kind == KindScalarConstruction:
		msg += fmt.Sprintf(": failed to construct value from C value %v", e.Value)
	case e.Kind == KindRemoteRead:
		msg += fmt.Sprintf(": could not read %d bytes at %#x", e.Want, e.Addr)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the DecodeError carried by err. Wrapping
// decoders copy the kind of the failure they wrap, so the outermost
// DecodeError is as good as the innermost.
func KindOf(err error) ErrorKind {
	var derr *DecodeError
	if !errors.As(err, &derr) {
		return KindUnknown
	}
	return derr.Kind
}

// IsKind reports whether err carries a DecodeError of kind k.
func IsKind(err error, k ErrorKind) bool {
	return err != nil && KindOf(err) == k
}

// InsufficientBytes reports a slice shorter than the schema requires.
func InsufficientBytes(path FieldPath, index, want, got int) error {
	return &DecodeError{Kind: KindInsufficientBytes, Path: path, Index: index, Want: want, Got: got}
}

// RemoteReadFailed reports a remote range that had to be readable but was
// not.
func RemoteReadFailed(path FieldPath, addr uint64, size int) error {
	return &DecodeError{Kind: KindRemoteRead, Path: path, Index: NoIndex, Addr: addr, Want: size}
}

// NewDecodeError builds a DecodeError with a free-form message.
func NewDecodeError(kind ErrorKind, path FieldPath, msg string, err error) error {
	return &DecodeError{Kind: kind, Path: path, Index: NoIndex, Msg: msg, Err: err}
}

// WrapField annotates a child failure with the path of the field that was
// being decoded, keeping its kind.
func WrapField(path FieldPath, err error) error {
	return &DecodeError{Kind: KindOf(err), Path: path, Index: NoIndex, Msg: "failed to get value", Err: err}
}

// WrapIndex annotates an element failure with its index, keeping its kind.
func WrapIndex(path FieldPath, index int, err error) error {
	return &DecodeError{Kind: KindOf(err), Path: path, Index: index, Msg: "failed to deserialize element", Err: err}
}

// SchemaError is returned when a schema can not be constructed, for
// example an array of a struct that declares no element size.
type SchemaError struct {
	Path FieldPath
	Msg  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Path, e.Msg)
}

// SchemaErrorf builds a SchemaError.
func SchemaErrorf(path FieldPath, format string, args ...any) error {
	return &SchemaError{Path: path, Msg: fmt.Sprintf(format, args...)}
}
