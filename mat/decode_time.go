package mat

import (
	"fmt"
	"math"
	"time"
)

// decodeDateTime converts a composite timestamp object. The data property
// is a complex array: the real part is milliseconds since the Unix epoch,
// the imaginary part fractional microseconds. The timezone and display
// format properties pass through unmodified as metadata.
func decodeDateTime(ss *Subsystem, obj *Object) (any, error) {
	dt := &DateTime{
		TimeZone: fieldString(obj, "tmz", "tz"),
		Format:   fieldString(obj, "fmt"),
	}

	v, ok := obj.Get("data")
	if !ok || v == nil {
		return dt, nil
	}
	arr, ok := v.(*NumericArray)
	if !ok {
		return nil, fmt.Errorf("data property is %T, want numeric array", v)
	}
	millis, ok := arr.Data.([]float64)
	if !ok {
		return nil, fmt.Errorf("data property class %s, want double", arr.Class)
	}

	dt.Dims = arr.Dims
	dt.Times = make([]time.Time, len(millis))
	for i, ms := range millis {
		var micros float64
		if i < len(arr.Imag) {
			micros = arr.Imag[i]
		}
		// Splitting off the whole milliseconds keeps the conversion
		// exact; a single float64 nanosecond product loses precision
		// past 2^53.
		whole, frac := math.Modf(ms)
		sub := time.Duration(frac*1e6 + micros*1e3)
		dt.Times[i] = time.UnixMilli(int64(whole)).Add(sub).UTC()
	}
	return dt, nil
}

// decodeDuration converts a composite interval object: a real-valued
// millisecond array plus a unit-format tag controlling display only.
func decodeDuration(ss *Subsystem, obj *Object) (any, error) {
	d := &Duration{Format: fieldString(obj, "fmt")}

	v, ok := obj.Get("millis")
	if !ok || v == nil {
		return d, nil
	}
	arr, ok := v.(*NumericArray)
	if !ok {
		return nil, fmt.Errorf("millis property is %T, want numeric array", v)
	}
	millis, ok := arr.Data.([]float64)
	if !ok {
		return nil, fmt.Errorf("millis property class %s, want double", arr.Class)
	}

	d.Dims = arr.Dims
	d.Millis = millis
	return d, nil
}
