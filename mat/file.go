package mat

import (
	"errors"
	"fmt"
	"os"

	"github.com/robert-malhotra/go-mat/internal/element"
)

// Variable is one root variable of the main file.
type Variable struct {
	Name   string
	Value  any
	Global bool
}

// File is a decoded MAT-file: the root variables with object values
// substituted from the resolved subsystem graph.
type File struct {
	header    *element.Header
	vars      []Variable
	subsystem *Subsystem
	diags     []Diagnostic
}

// Open reads and decodes the MAT-file at path.
func Open(path string, opts ...Option) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	f, err := Decode(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return f, nil
}

// Decode decodes a MAT-file from memory. The subsystem block, when
// present, is decoded once; every root variable holding an object
// reference or enumeration instance is substituted lazily from the
// resolved graph.
func Decode(data []byte, opts ...Option) (*File, error) {
	o := defaultDecodeOptions()
	for _, opt := range opts {
		opt(o)
	}

	stream, err := element.NewStream(data)
	if err != nil {
		if errors.Is(err, element.ErrNotMAT) {
			return nil, fmt.Errorf("%w: %v", ErrNotMAT, err)
		}
		return nil, err
	}
	// Version 0x0200 marks the HDF5-based container, a different format
	// entirely.
	if v := stream.Header.Version; v != 0x0100 {
		return nil, fmt.Errorf("%w: header version %#04x", ErrUnsupported, v)
	}

	f := &File{header: stream.Header}

	// First pass over the element stream: collect root variables and
	// locate the subsystem data element by its header offset.
	var roots []*element.Element
	for stream.More() {
		e, offset, err := stream.Next()
		if err != nil {
			return nil, fmt.Errorf("reading element at %d: %w", offset, err)
		}
		if f.header.SubsystemOffset != 0 && uint64(offset) == f.header.SubsystemOffset {
			ss, err := decodeSubsystem(e.Data, o)
			if err != nil {
				return nil, err
			}
			f.subsystem = ss
			continue
		}
		roots = append(roots, e)
	}

	for _, e := range roots {
		val, err := f.resolveRoot(e)
		if err != nil {
			return nil, fmt.Errorf("decoding variable %q: %w", e.Name, err)
		}
		f.vars = append(f.vars, Variable{
			Name:   e.Name,
			Value:  val,
			Global: e.Global,
		})
	}

	if f.subsystem != nil {
		f.diags = append(f.diags, f.subsystem.Diagnostics()...)
	}
	return f, nil
}

// resolveRoot decodes one root variable, substituting opaque object
// arrays with values from the subsystem graph.
func (f *File) resolveRoot(e *element.Element) (any, error) {
	if e.Class != element.ClassOpaque || e.TypeSystem != typeSystemMCOS {
		return convertValue(e)
	}

	meta, err := convertValue(e.Metadata)
	if err != nil {
		return nil, err
	}

	if f.subsystem == nil {
		f.diags = append(f.diags, Diagnostic{
			Kind:    DiagDanglingReference,
			Field:   e.Name,
			Message: "object variable without a subsystem block",
		})
		return meta, nil
	}

	if isEnumeration(meta) {
		return f.subsystem.decodeEnumeration(meta.(*StructArray))
	}
	if ref, ok := meta.(*Reference); ok {
		return f.subsystem.resolveRootValue(ref), nil
	}

	f.diags = append(f.diags, Diagnostic{
		Kind:    DiagUnsupportedType,
		Field:   e.Name,
		Message: fmt.Sprintf("opaque metadata of type %T", meta),
	})
	return &Opaque{TypeSystem: e.TypeSystem, ClassName: e.ClassName, Metadata: meta}, nil
}

// Header text of the file.
func (f *File) Header() string {
	return f.header.Text
}

// Version returns the header version word.
func (f *File) Version() uint16 {
	return f.header.Version
}

// Vars returns the root variables in file order.
func (f *File) Vars() []Variable {
	return f.vars
}

// Var returns the named root variable's value.
func (f *File) Var(name string) (any, bool) {
	for _, v := range f.vars {
		if v.Name == name {
			return v.Value, true
		}
	}
	return nil, false
}

// Subsystem returns the decoded subsystem block, or nil when the file has
// none.
func (f *File) Subsystem() *Subsystem {
	return f.subsystem
}

// Diagnostics returns all non-fatal problems collected during the decode.
func (f *File) Diagnostics() []Diagnostic {
	return f.diags
}
