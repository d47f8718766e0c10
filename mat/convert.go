package mat

import (
	"fmt"

	"github.com/robert-malhotra/go-mat/internal/element"
)

// convertValue maps a parsed element to its canonical value. Object
// reference detection runs before any numeric interpretation: the sentinel
// bit pattern is structurally indistinguishable from legitimate numeric
// data, and the producing system relies on this convention.
func convertValue(e *element.Element) (any, error) {
	if e == nil || e.IsEmpty() {
		return nil, nil
	}

	switch e.Class {
	case element.ClassChar:
		s, err := e.Chars()
		if err != nil {
			return nil, err
		}
		return &CharArray{Dims: e.Dims, Value: s}, nil

	case element.ClassCell:
		vals := make([]any, len(e.Cells))
		for i, c := range e.Cells {
			v, err := convertValue(c)
			if err != nil {
				return nil, fmt.Errorf("cell %d: %w", i, err)
			}
			vals[i] = v
		}
		return &CellArray{Dims: e.Dims, Values: vals}, nil

	case element.ClassStruct, element.ClassObject:
		elems := make([][]any, len(e.Fields))
		for i, fields := range e.Fields {
			elems[i] = make([]any, len(fields))
			for j, f := range fields {
				v, err := convertValue(f)
				if err != nil {
					return nil, fmt.Errorf("field %q: %w", e.FieldNames[j], err)
				}
				elems[i][j] = v
			}
		}
		return &StructArray{Dims: e.Dims, FieldNames: e.FieldNames, Elements: elems}, nil

	case element.ClassOpaque:
		meta, err := convertValue(e.Metadata)
		if err != nil {
			return nil, err
		}
		return &Opaque{TypeSystem: e.TypeSystem, ClassName: e.ClassName, Metadata: meta}, nil

	case element.ClassSparse, element.ClassFunction:
		return &Unparsed{Class: e.Class.String(), Data: e.Data}, nil

	case element.ClassDouble, element.ClassSingle,
		element.ClassInt8, element.ClassUint8,
		element.ClassInt16, element.ClassUint16,
		element.ClassInt32, element.ClassUint32,
		element.ClassInt64, element.ClassUint64:
		return convertNumeric(e)

	default:
		return &Unparsed{Class: e.Class.String(), Data: e.Data}, nil
	}
}

func convertNumeric(e *element.Element) (any, error) {
	data, err := numericData(e)
	if err != nil {
		return nil, err
	}

	switch d := data.(type) {
	case []uint32:
		if ref, isRef := detectReference(e.Dims, d); isRef {
			return ref, nil
		}
	case []int32:
		words := make([]uint32, len(d))
		for i, v := range d {
			words[i] = uint32(v)
		}
		if ref, isRef := detectReference(e.Dims, words); isRef {
			return ref, nil
		}
	}

	arr := &NumericArray{
		Dims:    e.Dims,
		Class:   e.Class.String(),
		Data:    data,
		Logical: e.Logical,
	}
	if e.Complex {
		if arr.Imag, err = e.ImagFloat64s(); err != nil {
			return nil, err
		}
	}
	return arr, nil
}

// detectReference classifies a 32-bit integer column array as an object
// reference tuple when it carries the reserved leading sentinel and a
// plausible (classID, objectID) pair:
//
//	[0xDD000000, classID, 0, type1ID, type2ID, objectID]
//
// mirroring an object-table record with the first word replaced by the
// sentinel.
func detectReference(dims []int, words []uint32) (*Reference, bool) {
	if len(words) != 6 {
		return nil, false
	}
	if len(dims) != 2 || dims[0] != 6 || dims[1] != 1 {
		return nil, false
	}
	if words[0] != refSentinel {
		return nil, false
	}
	classID, objectID := words[1], words[5]
	if classID == 0 || objectID == 0 {
		return nil, false
	}
	return &Reference{ClassID: classID, ObjectID: objectID}, true
}

// numericData converts the element payload to a typed slice matching the
// declared class. Integer classes keep exact integer representations; the
// writer may have stored them with a narrower type.
func numericData(e *element.Element) (any, error) {
	switch e.Class {
	case element.ClassDouble:
		return e.Float64s()

	case element.ClassSingle:
		f, err := e.Float64s()
		if err != nil {
			return nil, err
		}
		out := make([]float32, len(f))
		for i, v := range f {
			out[i] = float32(v)
		}
		return out, nil

	case element.ClassUint64:
		if e.DataType == element.MiUint64 || e.DataType == element.MiInt64 {
			return e.Uint64s()
		}
		f, err := e.Float64s()
		if err != nil {
			return nil, err
		}
		out := make([]uint64, len(f))
		for i, v := range f {
			out[i] = uint64(v)
		}
		return out, nil

	case element.ClassInt64:
		if e.DataType == element.MiUint64 || e.DataType == element.MiInt64 {
			u, err := e.Uint64s()
			if err != nil {
				return nil, err
			}
			out := make([]int64, len(u))
			for i, v := range u {
				out[i] = int64(v)
			}
			return out, nil
		}
		f, err := e.Float64s()
		if err != nil {
			return nil, err
		}
		out := make([]int64, len(f))
		for i, v := range f {
			out[i] = int64(v)
		}
		return out, nil

	case element.ClassUint32:
		if e.DataType == element.MiUint32 || e.DataType == element.MiInt32 {
			return e.Uint32s()
		}
		f, err := e.Float64s()
		if err != nil {
			return nil, err
		}
		out := make([]uint32, len(f))
		for i, v := range f {
			out[i] = uint32(v)
		}
		return out, nil

	case element.ClassInt32:
		f, err := e.Float64s()
		if err != nil {
			return nil, err
		}
		out := make([]int32, len(f))
		for i, v := range f {
			out[i] = int32(v)
		}
		return out, nil

	case element.ClassInt16:
		f, err := e.Float64s()
		if err != nil {
			return nil, err
		}
		out := make([]int16, len(f))
		for i, v := range f {
			out[i] = int16(v)
		}
		return out, nil

	case element.ClassUint16:
		f, err := e.Float64s()
		if err != nil {
			return nil, err
		}
		out := make([]uint16, len(f))
		for i, v := range f {
			out[i] = uint16(v)
		}
		return out, nil

	case element.ClassInt8:
		f, err := e.Float64s()
		if err != nil {
			return nil, err
		}
		out := make([]int8, len(f))
		for i, v := range f {
			out[i] = int8(v)
		}
		return out, nil

	case element.ClassUint8:
		f, err := e.Float64s()
		if err != nil {
			return nil, err
		}
		out := make([]uint8, len(f))
		for i, v := range f {
			out[i] = uint8(v)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("class %s is not numeric", e.Class)
	}
}
