package memrauder

import (
	"strconv"
	"strings"
)

// FieldPath identifies where in a nested decode a value lives. It is only
// used for diagnostics. The zero value is the root path.
type FieldPath struct {
	parts []string
}

// NewFieldPath returns a path made of the given parts.
func NewFieldPath(parts ...string) FieldPath {
	return FieldPath{parts: append([]string(nil), parts...)}
}

// Append returns a new path with part added at the end. The receiver is
// not modified.
func (p FieldPath) Append(part string) FieldPath {
	parts := make([]string, len(p.parts), len(p.parts)+1)
	copy(parts, p.parts)
	return FieldPath{parts: append(parts, part)}
}

// Index returns a new path with an element index added at the end.
func (p FieldPath) Index(i int) FieldPath {
	return p.Append("[" + strconv.Itoa(i) + "]")
}

// Parts returns a copy of the path segments.
func (p FieldPath) Parts() []string {
	return append([]string(nil), p.parts...)
}

// Len returns the number of segments.
func (p FieldPath) Len() int {
	return len(p.parts)
}

func (p FieldPath) String() string {
	if len(p.parts) == 0 {
		return "<root>"
	}
	var sb strings.Builder
	for i, part := range p.parts {
		if i > 0 && !strings.HasPrefix(part, "[") {
			sb.WriteByte('.')
		}
		sb.WriteString(part)
	}
	return sb.String()
}
