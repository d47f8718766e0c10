// Package element reads the MAT v5 data element stream.
//
// A MAT file is a 128-byte header followed by a sequence of tagged data
// elements. Every element carries a storage type and byte count; array
// elements (miMATRIX) nest further tagged sub-elements describing flags,
// dimensions, name, and class-specific payloads. This package exposes the
// byte-level element API consumed by the subsystem decoder in package mat.
package element

import (
	stdbinary "encoding/binary"
	"fmt"
)

// DataType identifies the storage type in an element tag.
type DataType uint32

const (
	MiInt8       DataType = 1
	MiUint8      DataType = 2
	MiInt16      DataType = 3
	MiUint16     DataType = 4
	MiInt32      DataType = 5
	MiUint32     DataType = 6
	MiSingle     DataType = 7
	MiDouble     DataType = 9
	MiInt64      DataType = 12
	MiUint64     DataType = 13
	MiMatrix     DataType = 14
	MiCompressed DataType = 15
	MiUTF8       DataType = 16
	MiUTF16      DataType = 17
	MiUTF32      DataType = 18
)

// Class identifies the array class in a miMATRIX flags word.
type Class uint8

const (
	ClassCell     Class = 1
	ClassStruct   Class = 2
	ClassObject   Class = 3
	ClassChar     Class = 4
	ClassSparse   Class = 5
	ClassDouble   Class = 6
	ClassSingle   Class = 7
	ClassInt8     Class = 8
	ClassUint8    Class = 9
	ClassInt16    Class = 10
	ClassUint16   Class = 11
	ClassInt32    Class = 12
	ClassUint32   Class = 13
	ClassInt64    Class = 14
	ClassUint64   Class = 15
	ClassFunction Class = 16
	ClassOpaque   Class = 17
)

// String returns the MATLAB-facing class name.
func (c Class) String() string {
	switch c {
	case ClassCell:
		return "cell"
	case ClassStruct:
		return "struct"
	case ClassObject:
		return "object"
	case ClassChar:
		return "char"
	case ClassSparse:
		return "sparse"
	case ClassDouble:
		return "double"
	case ClassSingle:
		return "single"
	case ClassInt8:
		return "int8"
	case ClassUint8:
		return "uint8"
	case ClassInt16:
		return "int16"
	case ClassUint16:
		return "uint16"
	case ClassInt32:
		return "int32"
	case ClassUint32:
		return "uint32"
	case ClassInt64:
		return "int64"
	case ClassUint64:
		return "uint64"
	case ClassFunction:
		return "function_handle"
	case ClassOpaque:
		return "opaque"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// Array flags bits.
const (
	flagLogical = 0x0200
	flagGlobal  = 0x0400
	flagComplex = 0x0800
)

// Element is one parsed data element. For miMATRIX elements the class
// determines which of the class-specific fields are populated; for all
// other types only Type, DataType and Data are set.
type Element struct {
	Type  DataType
	Class Class
	Dims  []int
	Name  string

	Complex bool
	Logical bool
	Global  bool

	// Numeric and char payloads, kept raw; DataType records the storage
	// type the bytes were written with.
	Data     []byte
	DataType DataType
	Imag     []byte
	ImagType DataType

	// Cell arrays.
	Cells []*Element

	// Struct arrays: Fields[i][j] is field FieldNames[j] of array element i.
	FieldNames []string
	Fields     [][]*Element

	// Opaque arrays.
	TypeSystem string
	ClassName  string
	Metadata   *Element

	order stdbinary.ByteOrder
}

// Order returns the byte order the element was read with.
func (e *Element) Order() stdbinary.ByteOrder {
	if e.order == nil {
		return stdbinary.LittleEndian
	}
	return e.order
}

// NumElements returns the total element count declared by Dims.
func (e *Element) NumElements() int {
	if len(e.Dims) == 0 {
		return 0
	}
	n := 1
	for _, d := range e.Dims {
		n *= d
	}
	return n
}

// IsEmpty reports whether the element is a zero-length placeholder or an
// array with no elements.
func (e *Element) IsEmpty() bool {
	if e.Type == 0 {
		return true
	}
	if e.Class == 0 {
		return e.Type == MiMatrix && len(e.Data) == 0
	}
	return e.NumElements() == 0 && len(e.Data) == 0 && len(e.Cells) == 0 && len(e.Fields) == 0
}

// Field returns field name of the first struct array element.
func (e *Element) Field(name string) (*Element, bool) {
	if len(e.Fields) == 0 {
		return nil, false
	}
	for j, fn := range e.FieldNames {
		if fn == name {
			return e.Fields[0][j], true
		}
	}
	return nil, false
}

func typeSize(dt DataType) int {
	switch dt {
	case MiInt8, MiUint8, MiUTF8:
		return 1
	case MiInt16, MiUint16, MiUTF16:
		return 2
	case MiInt32, MiUint32, MiSingle, MiUTF32:
		return 4
	case MiDouble, MiInt64, MiUint64:
		return 8
	default:
		return 0
	}
}
