package dataset

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"slices"
)

// Array is a named dense array stored as little-endian element bytes in
// row-major order.
type Array struct {
	Name  string
	DType DType
	Shape []int
	Data  []byte
}

// Len is the number of elements implied by Shape.
func (a *Array) Len() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

// Element decodes element i into its Go type.
func (a *Array) Element(i int) any {
	size := a.DType.Size()
	b := a.Data[i*size : (i+1)*size]
	le := binary.LittleEndian
	switch a.DType {
	case Int8:
		return int8(b[0])
	case Uint8:
		return b[0]
	case Int16:
		return int16(le.Uint16(b))
	case Uint16:
		return le.Uint16(b)
	case Int32:
		return int32(le.Uint32(b))
	case Uint32:
		return le.Uint32(b)
	case Int64:
		return int64(le.Uint64(b))
	case Uint64:
		return le.Uint64(b)
	case Float32:
		return math.Float32frombits(le.Uint32(b))
	case Float64:
		return math.Float64frombits(le.Uint64(b))
	}
	return nil
}

// Validate checks that Data holds exactly Len elements of DType.
func (a *Array) Validate() error {
	if a.DType.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, a.DType)
	}
	if want := a.Len() * a.DType.Size(); len(a.Data) != want {
		return fmt.Errorf("array %q: %d data bytes, want %d", a.Name, len(a.Data), want)
	}
	return nil
}

// Diff explains the first difference between a and b, or returns "" when
// they have the same shape, type and bytes.
func (a *Array) Diff(b *Array) string {
	if !slices.Equal(a.Shape, b.Shape) {
		return fmt.Sprintf("shape %v != %v", a.Shape, b.Shape)
	}
	if a.DType != b.DType {
		return fmt.Sprintf("dtype %s != %s", a.DType, b.DType)
	}
	if bytes.Equal(a.Data, b.Data) {
		return ""
	}
	size := a.DType.Size()
	n := min(len(a.Data), len(b.Data)) / size
	for i := 0; i < n; i++ {
		if !bytes.Equal(a.Data[i*size:(i+1)*size], b.Data[i*size:(i+1)*size]) {
			return fmt.Sprintf("element %d: %v != %v", i, a.Element(i), b.Element(i))
		}
	}
	return fmt.Sprintf("length %d != %d bytes", len(a.Data), len(b.Data))
}

func (a *Array) Equal(b *Array) bool {
	return a.Diff(b) == ""
}
