package memrauder

// FieldSpec describes one field of the record type R: its name, its byte
// offset inside the record and how to decode and store it.
type FieldSpec[R any] struct {
	Name   string
	Offset int
	bind   func(path FieldPath) (boundField[R], error)
}

// boundField is a FieldSpec whose MemType has been built.
type boundField[R any] struct {
	path   FieldPath
	offset int
	size   int
	align  int
	decode func(buf []byte, ctx *Context, rec *R) error
}

// Field declares a field of R at offset, decoded with d and stored with
// set.
func Field[R, F any](name string, offset int, d Deferred[F], set func(*R, F)) FieldSpec[R] {
	return FieldSpec[R]{
		Name:   name,
		Offset: offset,
		bind: func(path FieldPath) (boundField[R], error) {
			mt, err := d(path)
			if err != nil {
				return boundField[R]{}, err
			}
			return boundField[R]{
				path:   path,
				offset: offset,
				size:   mt.FieldSize(),
				align:  AlignOf(mt),
				decode: func(buf []byte, ctx *Context, rec *R) error {
					v, err := mt.FromBytes(buf, ctx)
					if err != nil {
						return err
					}
					set(rec, v)
					return nil
				},
			}, nil
		},
	}
}

// Embed lifts the fields of a base record E into R, which stores its E
// part at get(r). Offsets are unchanged, mirroring C++ single inheritance
// where the base class sits at the start of the derived object.
func Embed[R, E any](get func(*R) *E, base []FieldSpec[E]) []FieldSpec[R] {
	fields := make([]FieldSpec[R], 0, len(base))
	for _, bf := range base {
		bf := bf
		fields = append(fields, FieldSpec[R]{
			Name:   bf.Name,
			Offset: bf.Offset,
			bind: func(path FieldPath) (boundField[R], error) {
				inner, err := bf.bind(path)
				if err != nil {
					return boundField[R]{}, err
				}
				return boundField[R]{
					path:   inner.path,
					offset: inner.offset,
					size:   inner.size,
					align:  inner.align,
					decode: func(buf []byte, ctx *Context, rec *R) error {
						return inner.decode(buf, ctx, get(rec))
					},
				}, nil
			},
		})
	}
	return fields
}

// Layout is the in-memory description of a record type.
type Layout[R any] struct {
	Fields []FieldSpec[R]
	// Size overrides the computed struct size, for structs with trailing
	// bytes that no field covers.
	Size int
	// ElementSize is the stride of the record in arrays. Records with no
	// ElementSize can not be array elements.
	ElementSize int
	// Align overrides the computed alignment, for records whose undeclared
	// members are more strictly aligned than the declared fields.
	Align int
}

// Record is implemented by types describing their own layout. Layout is
// called on the zero value.
type Record[R any] interface {
	Layout() Layout[R]
}

// FieldInfo describes a decoded field, for diagnostics.
type FieldInfo struct {
	Path   FieldPath
	Offset int
	Size   int
}

// Struct decodes a record type R field by field.
type Struct[R any] struct {
	path     FieldPath
	fields   []boundField[R]
	size     int
	elemSize int
	align    int
}

// NewStruct builds the schema of R at path. The field schemas are built
// once here and reused by every FromBytes call.
func NewStruct[R any](path FieldPath, layout Layout[R]) (*Struct[R], error) {
	s := &Struct[R]{path: path, elemSize: layout.ElementSize, align: 1}
	unaligned := false
	seen := make(map[string]bool, len(layout.Fields))
	for _, spec := range layout.Fields {
		if seen[spec.Name] {
			return nil, SchemaErrorf(path, "duplicate field %q", spec.Name)
		}
		seen[spec.Name] = true
		if spec.Offset < 0 {
			return nil, SchemaErrorf(path.Append(spec.Name), "negative offset %d", spec.Offset)
		}
		bf, err := spec.bind(path.Append(spec.Name))
		if err != nil {
			return nil, err
		}
		if upper := bf.offset + bf.size; upper > s.size {
			s.size = upper
		}
		if bf.align == 0 {
			unaligned = true
		} else if bf.align > s.align {
			s.align = bf.align
		}
		s.fields = append(s.fields, bf)
	}
	if layout.Size != 0 {
		if layout.Size < s.size {
			return nil, SchemaErrorf(path, "declared size %#x is smaller than the fields (%#x)", layout.Size, s.size)
		}
		s.size = layout.Size
	}
	switch {
	case layout.Align < 0 || layout.Align&(layout.Align-1) != 0:
		return nil, SchemaErrorf(path, "alignment %d is not a power of two", layout.Align)
	case layout.Align != 0:
		s.align = layout.Align
	case unaligned:
		s.align = 0
	}
	return s, nil
}

// StructOf returns a constructor for the struct schema of a Record.
func StructOf[R Record[R]]() Deferred[R] {
	return func(path FieldPath) (MemType[R], error) {
		var zero R
		s, err := NewStruct(path, zero.Layout())
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func (s *Struct[R]) FieldSize() int { return s.size }

func (s *Struct[R]) ElementSize() int { return s.elemSize }

// Alignment is the largest alignment of the fields, or Layout.Align. It is
// 0 if a field does not report its alignment.
func (s *Struct[R]) Alignment() int { return s.align }

// Fields returns the path, offset and size of every field.
func (s *Struct[R]) Fields() []FieldInfo {
	infos := make([]FieldInfo, len(s.fields))
	for i, f := range s.fields {
		infos[i] = FieldInfo{Path: f.path, Offset: f.offset, Size: f.size}
	}
	return infos
}

func (s *Struct[R]) FromBytes(buf []byte, ctx *Context) (R, error) {
	var rec R
	for _, f := range s.fields {
		upper := f.offset + f.size
		if len(buf) < upper {
			var zero R
			return zero, InsufficientBytes(f.path, NoIndex, upper, len(buf))
		}
		if err := f.decode(buf[f.offset:upper], ctx, &rec); err != nil {
			var zero R
			return zero, WrapField(f.path, err)
		}
	}
	return rec, nil
}
