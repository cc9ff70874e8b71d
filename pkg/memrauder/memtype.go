package memrauder

import (
	"github.com/spelunky-fyi/memrauder/pkg/logflags"
)

// MemType describes how to decode a T out of a buffer holding the
// in-memory representation of the value.
//
// Instances are immutable once built and can be reused for multiple fields
// and for any number of FromBytes calls.
type MemType[T any] interface {
	// FieldSize is the number of bytes FromBytes needs to succeed. It is
	// the size occupied inline in a containing struct.
	FieldSize() int
	// ElementSize is the distance between consecutive elements when the
	// type is used in an array. It equals FieldSize unless only a prefix of
	// the in-memory representation is decoded. Zero means the type can not
	// be used as an array element.
	ElementSize() int
	// FromBytes decodes a value from buf. ctx is used to follow pointers.
	FromBytes(buf []byte, ctx *Context) (T, error)
}

// Aligner is implemented by schemas that know the C alignment of the
// values they decode.
type Aligner interface {
	Alignment() int
}

// AlignOf returns the C alignment of the values decoded by mt, 0 if mt does
// not report one.
func AlignOf[T any](mt MemType[T]) int {
	if a, ok := mt.(Aligner); ok {
		return a.Alignment()
	}
	return 0
}

// Deferred builds a MemType for the field at path. Deferred constructors
// must not perform I/O; they only wire schemas together.
type Deferred[T any] func(path FieldPath) (MemType[T], error)

// Build runs a deferred constructor at the root path.
func Build[T any](d Deferred[T]) (MemType[T], error) {
	return d(FieldPath{})
}

// MustBuild is like Build but panics on schema errors. Intended for
// package level schema variables.
func MustBuild[T any](d Deferred[T]) MemType[T] {
	mt, err := Build(d)
	if err != nil {
		panic(err)
	}
	return mt
}

// Context carries the state shared by a whole decode tree: the reader for
// the target's memory plus the diagnostics sink.
//
// A Context is created once per attach to a target and discarded when the
// session ends. It is not safe for concurrent reads unless the underlying
// MemoryReader is.
type Context struct {
	reader         MemoryReader
	log            logflags.Logger
	maxVectorBytes int
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithLogger sets the diagnostics sink used by decoders that report
// recoverable problems.
func WithLogger(l logflags.Logger) ContextOption {
	return func(c *Context) {
		c.log = l
	}
}

// WithMaxVectorBytes bounds the size of a single bulk read issued for a
// dynamic array. Zero disables the bound.
func WithMaxVectorBytes(n int) ContextOption {
	return func(c *Context) {
		c.maxVectorBytes = n
	}
}

// DefaultMaxVectorBytes is the bulk read bound of contexts created without
// WithMaxVectorBytes.
const DefaultMaxVectorBytes = 64 << 20

// NewContext returns a Context reading through r. A nil r behaves like an
// empty BytesReader.
func NewContext(r MemoryReader, opts ...ContextOption) *Context {
	if r == nil {
		r = BytesReader(nil)
	}
	c := &Context{reader: r, maxVectorBytes: DefaultMaxVectorBytes}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logflags.MemrauderLogger()
	}
	return c
}

var emptyContext = NewContext(nil)

// Reader returns the MemoryReader of the context.
func (c *Context) Reader() MemoryReader {
	if c == nil {
		return emptyContext.reader
	}
	return c.reader
}

// Logger returns the diagnostics sink of the context.
func (c *Context) Logger() logflags.Logger {
	if c == nil {
		return emptyContext.log
	}
	return c.log
}

// MaxVectorBytes returns the bulk read bound, zero if unbounded.
func (c *Context) MaxVectorBytes() int {
	if c == nil {
		return emptyContext.maxVectorBytes
	}
	return c.maxVectorBytes
}

// Read reads exactly size bytes at addr. It returns false if the target
// memory could not be read.
func (c *Context) Read(addr uint64, size int) ([]byte, bool) {
	buf, ok := readExact(c.Reader(), addr, size)
	if !ok && logflags.Memrauder() {
		c.Logger().Debugf("could not read %d bytes at %#x", size, addr)
	}
	return buf, ok
}

// WithReader returns a copy of c reading through r instead.
func (c *Context) WithReader(r MemoryReader) *Context {
	if c == nil {
		c = emptyContext
	}
	nc := *c
	nc.reader = r
	return &nc
}

// FromBytes decodes buf with mt. A nil ctx is replaced by one reading from
// empty memory, which is enough for schemas that do not follow pointers.
func FromBytes[T any](mt MemType[T], buf []byte, ctx *Context) (T, error) {
	if ctx == nil {
		ctx = emptyContext
	}
	return mt.FromBytes(buf, ctx)
}

// AtAddr reads mt.FieldSize() bytes at addr and decodes them. The boolean
// result is false, with a nil error, if the memory could not be read.
func AtAddr[T any](ctx *Context, mt MemType[T], addr uint64) (T, bool, error) {
	var zero T
	buf, ok := ctx.Read(addr, mt.FieldSize())
	if !ok {
		return zero, false, nil
	}
	v, err := mt.FromBytes(buf, ctx)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}
