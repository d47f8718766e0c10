package mat

import "fmt"

// Enumeration instance arrays live in the main file, not the subsystem:
// an opaque variable whose metadata is a struct carrying a fixed tag
// field. Its Values property is an array of object references into the
// subsystem graph and ValueIndices gives the enumeration array's shape.

const enumTagField = "EnumerationInstanceTag"

// isEnumeration reports whether converted opaque metadata is an
// enumeration instance.
func isEnumeration(meta any) bool {
	sa, ok := meta.(*StructArray)
	if !ok {
		return false
	}
	for _, n := range sa.FieldNames {
		if n == enumTagField {
			return true
		}
	}
	return false
}

// decodeEnumeration resolves an enumeration instance against the
// subsystem graph.
func (ss *Subsystem) decodeEnumeration(meta *StructArray) (*Enumeration, error) {
	if len(meta.Elements) == 0 {
		return nil, fmt.Errorf("empty enumeration metadata")
	}
	inner := &Object{}
	for j, name := range meta.FieldNames {
		inner.Fields = append(inner.Fields, Field{Name: name, Value: meta.Elements[0][j]})
	}

	tag, err := uint32Prop(inner, enumTagField)
	if err != nil {
		return nil, err
	}
	if len(tag) == 0 || tag[0] != refSentinel {
		return nil, fmt.Errorf("enumeration tag %#x, want %#x", tag, uint32(refSentinel))
	}

	e := &Enumeration{}

	classIdx, err := uint32Prop(inner, "ClassName")
	if err != nil {
		return nil, err
	}
	if len(classIdx) != 1 {
		return nil, fmt.Errorf("enumeration class name index has %d values", len(classIdx))
	}
	if e.Class, err = ss.meta.Name(classIdx[0]); err != nil {
		return nil, subsystemErr(err)
	}

	if builtinIdx, err := uint32Prop(inner, "BuiltinClassName"); err == nil &&
		len(builtinIdx) == 1 && builtinIdx[0] != 0 {
		if e.BuiltinClass, err = ss.meta.Name(builtinIdx[0]); err != nil {
			return nil, subsystemErr(err)
		}
	}

	nameIdx, err := uint32Prop(inner, "ValueNames")
	if err != nil {
		return nil, err
	}
	e.ValueNames = make([]string, len(nameIdx))
	for i, idx := range nameIdx {
		if e.ValueNames[i], err = ss.meta.Name(idx); err != nil {
			return nil, subsystemErr(err)
		}
	}

	valueIdxProp, ok := inner.Get("ValueIndices")
	if !ok {
		return nil, fmt.Errorf("enumeration has no ValueIndices property")
	}
	idxArr, ok := valueIdxProp.(*NumericArray)
	if !ok {
		return nil, fmt.Errorf("ValueIndices property is %T, want numeric array", valueIdxProp)
	}
	indices, ok := idxArr.Data.([]uint32)
	if !ok {
		return nil, fmt.Errorf("ValueIndices class %s, want uint32", idxArr.Class)
	}
	e.Dims = idxArr.Dims

	valuesProp, _ := inner.Get("Values")
	var cells []any
	if ca, ok := valuesProp.(*CellArray); ok {
		cells = ca.Values
	}
	if len(cells) == 0 {
		// An empty Values array yields an enumeration of names only.
		return e, nil
	}

	e.Values = make([]any, len(indices))
	for i, idx := range indices {
		if int(idx) >= len(cells) {
			return nil, fmt.Errorf("value index %d outside %d values", idx, len(cells))
		}
		e.Values[i] = ss.resolveRootValue(cells[idx])
	}
	return e, nil
}

// uint32Prop reads a numeric property as uint32 values.
func uint32Prop(obj *Object, name string) ([]uint32, error) {
	v, ok := obj.Get(name)
	if !ok {
		return nil, fmt.Errorf("missing %s property", name)
	}
	arr, ok := v.(*NumericArray)
	if !ok {
		return nil, fmt.Errorf("%s property is %T, want numeric array", name, v)
	}
	switch d := arr.Data.(type) {
	case []uint32:
		return d, nil
	case []int32:
		out := make([]uint32, len(d))
		for i, x := range d {
			out[i] = uint32(x)
		}
		return out, nil
	case []float64:
		out := make([]uint32, len(d))
		for i, x := range d {
			out[i] = uint32(x)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s property class %s, want uint32", name, arr.Class)
	}
}

// resolveRootValue substitutes a reference from the main file with its
// decoded object, recording a diagnostic when it dangles.
func (ss *Subsystem) resolveRootValue(v any) any {
	ref, ok := v.(*Reference)
	if !ok {
		return v
	}
	if ref.ObjectID == 0 || int(ref.ObjectID) >= len(ss.objects) {
		ss.diag(Diagnostic{
			Kind:    DiagDanglingReference,
			Message: fmt.Sprintf("root reference to object %d of %d", ref.ObjectID, ss.NumObjects()),
		})
		return ref
	}
	return ss.valueOf(ref.ObjectID)
}
