package mat

import "fmt"

// decodeTable converts a tabular aggregate: the data property is a
// column-major cell array of column values, varnames and rownames are cell
// arrays of names (possibly empty), and props is a nested metadata struct
// carried as a side-map.
func decodeTable(ss *Subsystem, obj *Object) (any, error) {
	t := &Table{}

	var err error
	if t.NumRows, err = intProp(obj, "nrows"); err != nil {
		return nil, err
	}
	if t.NumVars, err = intProp(obj, "nvars"); err != nil {
		return nil, err
	}

	if t.Columns, err = cellValues(obj, "data"); err != nil {
		return nil, err
	}
	if len(t.Columns) != t.NumVars {
		return nil, fmt.Errorf("table declares %d variables but has %d columns", t.NumVars, len(t.Columns))
	}

	if t.VarNames, err = nameList(obj, "varnames"); err != nil {
		return nil, err
	}
	if len(t.VarNames) != t.NumVars {
		return nil, fmt.Errorf("table declares %d variables but names %d", t.NumVars, len(t.VarNames))
	}

	// Row labels are optional: an empty cell array means none.
	if t.RowNames, err = nameList(obj, "rownames"); err != nil {
		return nil, err
	}

	if v, ok := obj.Get("props"); ok {
		if sa, ok := v.(*StructArray); ok && len(sa.Elements) > 0 {
			for j, name := range sa.FieldNames {
				t.Props = append(t.Props, Field{Name: name, Value: sa.Elements[0][j]})
			}
		}
	}

	return t, nil
}

// decodeTimetable converts an indexed tabular aggregate. The property
// contents are nested one level under a wrapping "any" struct; rowTimes is
// an object reference resolved through the same machinery as every other
// reference, so by decode time it is a timestamp or interval value.
func decodeTimetable(ss *Subsystem, obj *Object) (any, error) {
	v, ok := obj.Get("any")
	if !ok {
		return nil, fmt.Errorf("timetable has no any property")
	}
	sa, ok := v.(*StructArray)
	if !ok || len(sa.Elements) == 0 {
		return nil, fmt.Errorf("timetable any property is %T, want struct", v)
	}
	inner := &Object{Class: obj.Class, ID: obj.ID}
	for j, name := range sa.FieldNames {
		inner.Fields = append(inner.Fields, Field{Name: name, Value: sa.Elements[0][j]})
	}

	tt := &Timetable{}
	var err error
	if tt.NumRows, err = intProp(inner, "numRows"); err != nil {
		return nil, err
	}
	if tt.NumVars, err = intProp(inner, "numVars"); err != nil {
		return nil, err
	}
	if tt.Columns, err = cellValues(inner, "data"); err != nil {
		return nil, err
	}
	if len(tt.Columns) != tt.NumVars {
		return nil, fmt.Errorf("timetable declares %d variables but has %d columns", tt.NumVars, len(tt.Columns))
	}
	if tt.VarNames, err = nameList(inner, "varNames"); err != nil {
		return nil, err
	}
	if tt.DimNames, err = nameList(inner, "dimNames"); err != nil {
		return nil, err
	}
	tt.RowTimes, _ = inner.Get("rowTimes")

	return tt, nil
}

// intProp reads a scalar numeric property as an int.
func intProp(obj *Object, name string) (int, error) {
	v, ok := obj.Get(name)
	if !ok {
		return 0, fmt.Errorf("missing %s property", name)
	}
	arr, ok := v.(*NumericArray)
	if !ok {
		return 0, fmt.Errorf("%s property is %T, want numeric scalar", name, v)
	}
	switch d := arr.Data.(type) {
	case []float64:
		if len(d) == 1 {
			return int(d[0]), nil
		}
	case []int32:
		if len(d) == 1 {
			return int(d[0]), nil
		}
	case []uint32:
		if len(d) == 1 {
			return int(d[0]), nil
		}
	case []int64:
		if len(d) == 1 {
			return int(d[0]), nil
		}
	case []uint64:
		if len(d) == 1 {
			return int(d[0]), nil
		}
	}
	return 0, fmt.Errorf("%s property is not a scalar", name)
}

// cellValues reads a cell-array property's values, nil for absent or
// empty.
func cellValues(obj *Object, name string) ([]any, error) {
	v, ok := obj.Get(name)
	if !ok || v == nil {
		return nil, nil
	}
	ca, ok := v.(*CellArray)
	if !ok {
		return nil, fmt.Errorf("%s property is %T, want cell array", name, v)
	}
	return ca.Values, nil
}

// nameList reads a cell array of char arrays as a string list. Cells that
// resolved to decoded string objects are accepted too.
func nameList(obj *Object, name string) ([]string, error) {
	vals, err := cellValues(obj, name)
	if err != nil || len(vals) == 0 {
		return nil, err
	}
	out := make([]string, 0, len(vals))
	for i, v := range vals {
		switch t := v.(type) {
		case *CharArray:
			out = append(out, t.Value)
		case *StringArray:
			if len(t.Values) != 1 {
				return nil, fmt.Errorf("%s cell %d holds %d strings", name, i, len(t.Values))
			}
			out = append(out, t.Values[0])
		case nil:
			out = append(out, "")
		default:
			return nil, fmt.Errorf("%s cell %d is %T, want char", name, i, v)
		}
	}
	return out, nil
}
