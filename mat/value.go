package mat

import "time"

// Decoded values are canonical, language-neutral representations: array
// payloads are linear slices in column-major order accompanied by their
// declared dimensions.

// Field is one (name, value) pair of an object's ordered property map.
type Field struct {
	Name  string
	Value any
}

// Object is a resolved object from the subsystem graph: a class name plus
// an ordered property map. Objects without a registered type decoder, and
// every object in raw mode, surface as *Object.
type Object struct {
	Class  string
	ID     uint32
	Fields []Field
}

// Get returns the value of the named property.
func (o *Object) Get(name string) (any, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Reference identifies another object in the subsystem graph. It appears
// as a field value only when the reference could not be resolved.
type Reference struct {
	ClassID  uint32
	ObjectID uint32
}

// NumericArray is a numeric array with its declared class. Data holds a
// typed slice matching the class ([]float64, []uint32, ...); Imag is nil
// for real arrays.
type NumericArray struct {
	Dims    []int
	Class   string
	Data    any
	Imag    []float64
	Logical bool
}

// CharArray is a character array decoded to a Go string.
type CharArray struct {
	Dims  []int
	Value string
}

// CellArray is a cell array with converted cell values.
type CellArray struct {
	Dims   []int
	Values []any
}

// StructArray is a struct array. Elements[i][j] is field FieldNames[j] of
// array element i.
type StructArray struct {
	Dims       []int
	FieldNames []string
	Elements   [][]any
}

// Get returns the named field of the first array element.
func (s *StructArray) Get(name string) (any, bool) {
	if len(s.Elements) == 0 {
		return nil, false
	}
	for j, fn := range s.FieldNames {
		if fn == name {
			return s.Elements[0][j], true
		}
	}
	return nil, false
}

// Opaque is an opaque array that is not part of the subsystem's type
// system, preserved rather than interpreted.
type Opaque struct {
	TypeSystem string
	ClassName  string
	Metadata   any
}

// Unparsed preserves the raw bytes of array classes this reader does not
// interpret (sparse matrices, function handles).
type Unparsed struct {
	Class string
	Data  []byte
}

// StringArray is a decoded packed string array.
type StringArray struct {
	Dims   []int
	Values []string
}

// DateTime is a decoded composite timestamp array. Times are absolute UTC
// instants; TimeZone and Format are display metadata passed through
// unmodified.
type DateTime struct {
	Dims     []int
	Times    []time.Time
	TimeZone string
	Format   string
}

// Duration is a decoded composite interval array. Millis is the canonical
// value in milliseconds; Format is a display unit tag ("s", "m", "h", "d",
// ...) and does not affect the value.
type Duration struct {
	Dims   []int
	Millis []float64
	Format string
}

// Seconds returns the interval values in seconds.
func (d *Duration) Seconds() []float64 {
	out := make([]float64, len(d.Millis))
	for i, ms := range d.Millis {
		out[i] = ms / 1000
	}
	return out
}

// Table is a decoded tabular aggregate: ordered named columns, optional
// row labels, and a metadata side-map.
type Table struct {
	NumRows  int
	NumVars  int
	VarNames []string
	Columns  []any
	RowNames []string
	Props    []Field
}

// Column returns the named column's values.
func (t *Table) Column(name string) (any, bool) {
	for i, n := range t.VarNames {
		if n == name {
			return t.Columns[i], true
		}
	}
	return nil, false
}

// Timetable is a decoded indexed tabular aggregate. RowTimes is the
// resolved row index: a *DateTime or *Duration, or an unresolved marker
// when the reference dangles.
type Timetable struct {
	NumRows  int
	NumVars  int
	VarNames []string
	Columns  []any
	DimNames []string
	RowTimes any
}

// Enumeration is a decoded enumeration instance array. Values holds the
// resolved member objects reshaped per the instance's value indices.
type Enumeration struct {
	Class        string
	BuiltinClass string
	Dims         []int
	ValueNames   []string
	Values       []any
}
