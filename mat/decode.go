package mat

// classDecoder converts an assembled property map into the canonical value
// for a built-in class. A decoder error degrades the object to its raw
// property map with an UnsupportedType diagnostic; it never aborts the
// decode of sibling objects.
type classDecoder func(ss *Subsystem, obj *Object) (any, error)

// classDecoders is the type-decoder registry. Dispatch is by class name,
// with the per-field rules applied inside each decoder; classes without an
// entry pass through as raw property maps so unknown or future classes
// never cause decode failure, only loss of semantic typing.
var classDecoders = map[string]classDecoder{
	"datetime":  decodeDateTime,
	"duration":  decodeDuration,
	"string":    decodeString,
	"table":     decodeTable,
	"timetable": decodeTimetable,
}

// fieldString extracts a char-array property as a string, returning empty
// for absent or empty values.
func fieldString(obj *Object, names ...string) string {
	for _, name := range names {
		v, ok := obj.Get(name)
		if !ok {
			continue
		}
		if ca, ok := v.(*CharArray); ok {
			return ca.Value
		}
	}
	return ""
}
