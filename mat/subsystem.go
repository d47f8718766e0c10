package mat

import (
	stdbinary "encoding/binary"
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-mat/internal/binary"
	"github.com/robert-malhotra/go-mat/internal/element"
	"github.com/robert-malhotra/go-mat/internal/linkmeta"
)

// leadingCells is the number of non-content cells before the field-content
// range (the linking-metadata blob and a zero-length placeholder), and
// trailingCells the number of reserved cells after it.
const (
	leadingCells  = 2
	trailingCells = 3
)

// Subsystem is one decoded subsystem block: the linking metadata, the
// field-content cells, and the object graph resolved from them. All state
// is built during a single decode and read-only afterwards.
type Subsystem struct {
	order stdbinary.ByteOrder
	meta  *linkmeta.Metadata
	cells []*element.Element

	objects   []*Object      // indexed by object ID, entry 0 unused
	decoded   map[uint32]any // memoized final value per object ID
	resolving map[uint32]bool
	diags     []Diagnostic
	raw       bool
}

// DecodeSubsystem decodes a subsystem block from the raw bytes of the
// subsystem data element (the payload of the byte array addressed by the
// file header's subsystem offset).
func DecodeSubsystem(data []byte, opts ...Option) (*Subsystem, error) {
	o := defaultDecodeOptions()
	for _, opt := range opts {
		opt(o)
	}
	return decodeSubsystem(data, o)
}

func decodeSubsystem(data []byte, o *decodeOptions) (*Subsystem, error) {
	ss, err := parseSubsystemContainer(data)
	if err != nil {
		return nil, err
	}
	ss.raw = o.rawObjects

	blob := ss.cells[0]
	if len(blob.Data) == 0 {
		return nil, fmt.Errorf("%w: linking metadata cell is empty", ErrMalformedSubsystem)
	}
	meta, err := linkmeta.Decode(blob.Data, ss.order)
	if err != nil {
		return nil, subsystemErr(err)
	}
	ss.meta = meta
	for _, w := range meta.Warnings {
		ss.diags = append(ss.diags, Diagnostic{
			Kind:    DiagUnknownRegion,
			Message: fmt.Sprintf("region %d: %s", w.Region, w.Message),
		})
	}

	if err := ss.resolveAll(); err != nil {
		return nil, err
	}
	return ss, nil
}

// parseSubsystemContainer unwraps the subsystem block down to its metadata
// cell array: private version header, one struct element with a single
// field, an opaque wrapper array whose metadata is a cell array of N+5
// entries rather than an ordinary opaque payload.
func parseSubsystemContainer(data []byte) (*Subsystem, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: %d byte block", ErrMalformedSubsystem, len(data))
	}
	order, err := element.OrderForIndicator(data[2], data[3])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSubsystem, err)
	}

	r := binary.NewReader(data, order)
	r.Skip(8) // version + endianness indicator, padded

	wrapper, err := element.Read(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading wrapper element: %v", ErrMalformedSubsystem, err)
	}
	if wrapper.Class != element.ClassStruct {
		return nil, fmt.Errorf("%w: top element is %s, want struct", ErrMalformedSubsystem, wrapper.Class)
	}
	if len(wrapper.FieldNames) != 1 || len(wrapper.Fields) != 1 {
		return nil, fmt.Errorf("%w: wrapper struct has %d fields, want 1",
			ErrMalformedSubsystem, len(wrapper.FieldNames))
	}

	opaque := wrapper.Fields[0][0]
	if opaque.Class != element.ClassOpaque {
		return nil, fmt.Errorf("%w: wrapper field is %s, want opaque", ErrMalformedSubsystem, opaque.Class)
	}
	if opaque.ClassName != wrapperClassTag {
		return nil, fmt.Errorf("%w: wrapper class %q, want %q",
			ErrMalformedSubsystem, opaque.ClassName, wrapperClassTag)
	}
	if opaque.Name != "" {
		return nil, fmt.Errorf("%w: wrapper array is named %q", ErrMalformedSubsystem, opaque.Name)
	}

	cellArr := opaque.Metadata
	if cellArr == nil || cellArr.Class != element.ClassCell {
		return nil, fmt.Errorf("%w: wrapper metadata is not a cell array", ErrMalformedSubsystem)
	}
	if len(cellArr.Dims) != 2 || cellArr.Dims[1] != 1 || cellArr.Dims[0] < leadingCells+trailingCells {
		return nil, fmt.Errorf("%w: metadata cell dimensions %v", ErrMalformedSubsystem, cellArr.Dims)
	}
	if len(cellArr.Cells) != cellArr.Dims[0] {
		return nil, fmt.Errorf("%w: metadata cell count %d, declared %d",
			ErrMalformedSubsystem, len(cellArr.Cells), cellArr.Dims[0])
	}

	return &Subsystem{
		order:     order,
		cells:     cellArr.Cells,
		decoded:   make(map[uint32]any),
		resolving: make(map[uint32]bool),
	}, nil
}

// subsystemErr maps internal malformed-metadata errors onto the public
// sentinel, preserving the detail text.
func subsystemErr(err error) error {
	if errors.Is(err, linkmeta.ErrMalformed) {
		return fmt.Errorf("%w: %v", ErrMalformedSubsystem, err)
	}
	return err
}

// NumObjects returns the number of real objects in the graph.
func (ss *Subsystem) NumObjects() int {
	if len(ss.objects) == 0 {
		return 0
	}
	return len(ss.objects) - 1
}

// NumContentCells returns N, the number of field-content cells.
func (ss *Subsystem) NumContentCells() int {
	return len(ss.cells) - leadingCells - trailingCells
}

// Object returns the decoded value for an object ID: the canonical
// built-in value for registered classes, or a *Object property map.
func (ss *Subsystem) Object(id uint32) (any, error) {
	if id == 0 || int(id) >= len(ss.objects) {
		return nil, fmt.Errorf("object ID %d outside graph of %d", id, ss.NumObjects())
	}
	return ss.valueOf(id), nil
}

// Diagnostics returns the non-fatal problems collected during the decode.
func (ss *Subsystem) Diagnostics() []Diagnostic {
	return ss.diags
}

// ReservedRegions returns the unidentified metadata byte spans, preserved
// verbatim for forward compatibility.
func (ss *Subsystem) ReservedRegions() [][]byte {
	return ss.meta.Reserved[:]
}

func (ss *Subsystem) diag(d Diagnostic) {
	ss.diags = append(ss.diags, d)
}

// contentCell fetches the raw content element for a 0-based field content
// ID, offset past the two leading non-content cells.
func (ss *Subsystem) contentCell(contentID uint32) (*element.Element, error) {
	idx := int(contentID) + leadingCells
	if idx >= len(ss.cells)-trailingCells {
		return nil, fmt.Errorf("%w: field content ID %d outside %d content cells",
			ErrMalformedSubsystem, contentID, ss.NumContentCells())
	}
	return ss.cells[idx], nil
}
