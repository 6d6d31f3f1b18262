package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnsupportedType = errors.New("unsupported data type")

// DType is a canonical element type name.
type DType string

const (
	Int8    DType = "int8"
	Int16   DType = "int16"
	Int32   DType = "int32"
	Int64   DType = "int64"
	Uint8   DType = "uint8"
	Uint16  DType = "uint16"
	Uint32  DType = "uint32"
	Uint64  DType = "uint64"
	Float32 DType = "float32"
	Float64 DType = "float64"
)

var dtypeAliases = map[string]DType{
	"int8": Int8, "i1": Int8, "byte": Int8,
	"int16": Int16, "i2": Int16, "short": Int16,
	"int32": Int32, "i4": Int32, "intc": Int32,
	"int64": Int64, "i8": Int64, "int": Int64, "long": Int64, "longlong": Int64,
	"uint8": Uint8, "u1": Uint8, "ubyte": Uint8,
	"uint16": Uint16, "u2": Uint16, "ushort": Uint16,
	"uint32": Uint32, "u4": Uint32, "uintc": Uint32,
	"uint64": Uint64, "u8": Uint64, "uint": Uint64, "ulonglong": Uint64,
	"float32": Float32, "f4": Float32, "single": Float32,
	"float64": Float64, "f8": Float64, "float": Float64, "double": Float64,
}

// ParseDType accepts canonical names and the usual numpy spellings,
// optionally prefixed with a little-endian or native byte-order mark.
func ParseDType(tag string) (DType, error) {
	key := strings.ToLower(strings.TrimSpace(tag))
	key = strings.TrimLeft(key, "<=|")
	if d, ok := dtypeAliases[key]; ok {
		return d, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, tag)
}

// Size is the element width in bytes.
func (d DType) Size() int {
	switch d {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	}
	return 0
}

func (d DType) IsInteger() bool {
	switch d {
	case Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64:
		return true
	}
	return false
}

func (d DType) IsFloat() bool {
	return d == Float32 || d == Float64
}

func (d DType) IsSigned() bool {
	switch d {
	case Int8, Int16, Int32, Int64:
		return true
	}
	return false
}
