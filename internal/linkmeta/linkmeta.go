// Package linkmeta decodes the linking-metadata blob of a subsystem block.
//
// The blob is cell 1 of the subsystem's metadata cell array: a raw byte
// array, not a tagged element. It carries the name pool shared by every
// class and field in the file, the class table, the object table, the two
// field-descriptor regions binding fields to content cells, and several
// regions whose purpose is not confirmed. The layout is:
//
//	int32    header        (preserved, not interpreted)
//	int32    numNames
//	int32[8] region offsets, relative to the start of the blob
//	bytes    name pool     (null-terminated strings, up to offsets[0])
//	...      regions addressed by the offsets
//
// All integers use the file byte order.
package linkmeta

import (
	stdbinary "encoding/binary"
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-mat/internal/binary"
)

// ErrMalformed reports a structural violation in the blob. It is fatal to
// the whole subsystem decode.
var ErrMalformed = errors.New("malformed linking metadata")

// Record sizes in bytes.
const (
	classRecordSize  = 16
	objectRecordSize = 24
	fieldRecordSize  = 12
	handleRecordSize = 4

	headerSize = 8 + 8*4 // two leading ints plus eight offsets
)

// Field descriptor kinds.
const (
	// FieldKindContent binds the field to a content cell; the descriptor
	// value is a 0-based index into the field-content cell range.
	FieldKindContent = 1

	// FieldKindInline stores a logical scalar directly in the descriptor
	// value word.
	FieldKindInline = 2
)

// ClassEntry is one record of the class table. Record 0 is the all-zero
// sentinel; the class ID of record i is i.
type ClassEntry struct {
	// HandleNameIndex is a 1-based name-pool index of the namespace
	// prefix, or 0 when the class is not namespaced.
	HandleNameIndex uint32

	// NameIndex is the 1-based name-pool index of the class name.
	NameIndex uint32

	// Raw preserves the full on-disk record, reserved words included.
	Raw [4]uint32
}

// ObjectEntry is one record of the object table. Record 0 is the all-zero
// sentinel; the object ID of record i is i.
type ObjectEntry struct {
	ClassID uint32

	// Type1ID and Type2ID are dense 1-based slot indices into the type-1
	// and type-2 field-descriptor regions. Exactly one is nonzero for a
	// special built-in object, neither for a plain object.
	Type1ID uint32
	Type2ID uint32

	// DepID is the sixth record word. In every observed file it equals
	// the record index; the handle-instance region is keyed by it.
	DepID uint32

	// Raw preserves the full on-disk record.
	Raw [6]uint32
}

// FieldDescriptor is one (field, content) binding inside a type-1 or
// type-2 descriptor block.
type FieldDescriptor struct {
	// NameIndex is the 1-based name-pool index of the field name.
	NameIndex uint32

	// Kind is FieldKindContent or FieldKindInline.
	Kind uint32

	// Value is a content-cell index or an inline logical, per Kind.
	Value uint32
}

// Metadata is the fully decoded linking-metadata blob.
type Metadata struct {
	Header   uint32
	NumNames uint32
	Offsets  [8]uint32

	// Names is the shared name pool, in on-disk order. Indices stored in
	// the tables are 1-based; use Name to resolve them.
	Names []string

	Classes []ClassEntry
	Objects []ObjectEntry

	// Type1Fields and Type2Fields hold one descriptor block per slot;
	// slot 0 is the empty sentinel block.
	Type1Fields [][]FieldDescriptor
	Type2Fields [][]FieldDescriptor

	// HandleInstances holds, per dependency slot, the type-2 instance IDs
	// of handle objects attached to that object.
	HandleInstances [][]uint32

	// Reserved preserves the byte spans of the regions at offsets 5..7
	// and the tail past offsets[7], in that order.
	Reserved [3][]byte

	// Warnings collects non-fatal region anomalies.
	Warnings []Warning
}

// Warning records an unexpected but tolerable region shape.
type Warning struct {
	Region  int
	Message string
}

// Name resolves a 1-based name-pool index.
func (m *Metadata) Name(index uint32) (string, error) {
	if index == 0 || int(index) > len(m.Names) {
		return "", fmt.Errorf("%w: name index %d outside pool of %d", ErrMalformed, index, len(m.Names))
	}
	return m.Names[index-1], nil
}

// ClassName resolves the effective class name for a class ID, including
// the namespace prefix for handle classes.
func (m *Metadata) ClassName(classID uint32) (string, error) {
	if int(classID) >= len(m.Classes) {
		return "", fmt.Errorf("%w: class ID %d outside table of %d", ErrMalformed, classID, len(m.Classes))
	}
	entry := m.Classes[classID]
	name, err := m.Name(entry.NameIndex)
	if err != nil {
		return "", err
	}
	if entry.HandleNameIndex != 0 {
		prefix, err := m.Name(entry.HandleNameIndex)
		if err != nil {
			return "", err
		}
		return prefix + "." + name, nil
	}
	return name, nil
}

// FieldsFor returns the descriptor block applicable to obj: the type-1
// block when Type1ID is set, the type-2 block when Type2ID is set, and nil
// when the object declares no fields of its own. A record claiming both
// slots is malformed. A slot beyond the parsed region resolves to zero
// descriptors rather than an error, so files with an absent region still
// decode.
func (m *Metadata) FieldsFor(obj ObjectEntry) ([]FieldDescriptor, error) {
	switch {
	case obj.Type1ID != 0 && obj.Type2ID != 0:
		return nil, fmt.Errorf("%w: object record claims both field slots %d and %d",
			ErrMalformed, obj.Type1ID, obj.Type2ID)
	case obj.Type1ID != 0:
		if int(obj.Type1ID) < len(m.Type1Fields) {
			return m.Type1Fields[obj.Type1ID], nil
		}
	case obj.Type2ID != 0:
		if int(obj.Type2ID) < len(m.Type2Fields) {
			return m.Type2Fields[obj.Type2ID], nil
		}
	}
	return nil, nil
}

// Decode parses the linking-metadata blob.
func Decode(data []byte, order stdbinary.ByteOrder) (*Metadata, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d byte blob", ErrMalformed, len(data))
	}
	r := binary.NewReader(data, order)

	m := &Metadata{}
	m.Header, _ = r.ReadUint32()
	m.NumNames, _ = r.ReadUint32()
	offs, err := r.ReadUint32s(8)
	if err != nil {
		return nil, fmt.Errorf("%w: reading region offsets", ErrMalformed)
	}
	copy(m.Offsets[:], offs)

	if err := checkOffsets(m.Offsets, len(data)); err != nil {
		return nil, err
	}

	m.Names = parseNamePool(data[headerSize:m.Offsets[0]])
	if len(m.Names) < int(m.NumNames) {
		return nil, fmt.Errorf("%w: name pool holds %d names, table declares %d",
			ErrMalformed, len(m.Names), m.NumNames)
	}

	if m.Classes, err = parseClassTable(data[m.Offsets[0]:m.Offsets[1]], order); err != nil {
		return nil, err
	}
	if m.Objects, err = parseObjectTable(data[m.Offsets[2]:m.Offsets[3]], order); err != nil {
		return nil, err
	}
	if m.Type1Fields, err = parseFieldRegion(data[m.Offsets[1]:m.Offsets[2]], order, 1); err != nil {
		return nil, err
	}
	if m.Type2Fields, err = parseFieldRegion(data[m.Offsets[3]:m.Offsets[4]], order, 3); err != nil {
		return nil, err
	}

	handles, warn := parseHandleRegion(data[m.Offsets[4]:m.Offsets[5]], order)
	m.HandleInstances = handles
	if warn != nil {
		m.Warnings = append(m.Warnings, *warn)
	}

	m.Reserved[0] = data[m.Offsets[5]:m.Offsets[6]]
	m.Reserved[1] = data[m.Offsets[6]:m.Offsets[7]]
	m.Reserved[2] = data[m.Offsets[7]:]

	return m, nil
}

// checkOffsets validates that the eight region offsets are monotonic and
// inside the blob, and that the name pool does not overrun the first one.
func checkOffsets(offsets [8]uint32, size int) error {
	prev := uint32(headerSize)
	for i, off := range offsets {
		if off < prev {
			return fmt.Errorf("%w: offset[%d]=%d is non-monotonic", ErrMalformed, i, off)
		}
		if int(off) > size {
			return fmt.Errorf("%w: offset[%d]=%d outside %d byte blob", ErrMalformed, i, off, size)
		}
		prev = off
	}
	return nil
}

func parseNamePool(pool []byte) []string {
	var names []string
	start := -1
	for i, b := range pool {
		if b == 0 {
			if start >= 0 {
				names = append(names, string(pool[start:i]))
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		names = append(names, string(pool[start:]))
	}
	return names
}

func parseClassTable(region []byte, order stdbinary.ByteOrder) ([]ClassEntry, error) {
	if len(region)%classRecordSize != 0 {
		return nil, fmt.Errorf("%w: class table size %d", ErrMalformed, len(region))
	}
	entries := make([]ClassEntry, len(region)/classRecordSize)
	for i := range entries {
		rec := region[i*classRecordSize:]
		e := ClassEntry{
			HandleNameIndex: order.Uint32(rec[0:]),
			NameIndex:       order.Uint32(rec[4:]),
		}
		for j := 0; j < 4; j++ {
			e.Raw[j] = order.Uint32(rec[4*j:])
		}
		entries[i] = e
	}
	return entries, nil
}

func parseObjectTable(region []byte, order stdbinary.ByteOrder) ([]ObjectEntry, error) {
	if len(region)%objectRecordSize != 0 {
		return nil, fmt.Errorf("%w: object table size %d", ErrMalformed, len(region))
	}
	entries := make([]ObjectEntry, len(region)/objectRecordSize)
	for i := range entries {
		rec := region[i*objectRecordSize:]
		e := ObjectEntry{
			ClassID: order.Uint32(rec[0:]),
			Type1ID: order.Uint32(rec[12:]),
			Type2ID: order.Uint32(rec[16:]),
			DepID:   order.Uint32(rec[20:]),
		}
		for j := 0; j < 6; j++ {
			e.Raw[j] = order.Uint32(rec[4*j:])
		}
		entries[i] = e
	}
	return entries, nil
}

// parseFieldRegion parses a concatenation of per-slot descriptor blocks:
// a 32-bit count, count 12-byte sub-records, padded to an 8-byte boundary.
func parseFieldRegion(region []byte, order stdbinary.ByteOrder, regionIdx int) ([][]FieldDescriptor, error) {
	var slots [][]FieldDescriptor
	pos := 0
	for pos < len(region) {
		if pos+4 > len(region) {
			return nil, fmt.Errorf("%w: field region %d truncated at %d", ErrMalformed, regionIdx, pos)
		}
		count := int(order.Uint32(region[pos:]))
		pos += 4
		if count < 0 || pos+count*fieldRecordSize > len(region) {
			return nil, fmt.Errorf("%w: field block of %d records overruns region %d",
				ErrMalformed, count, regionIdx)
		}
		block := make([]FieldDescriptor, count)
		for i := range block {
			rec := region[pos+i*fieldRecordSize:]
			block[i] = FieldDescriptor{
				NameIndex: order.Uint32(rec[0:]),
				Kind:      order.Uint32(rec[4:]),
				Value:     order.Uint32(rec[8:]),
			}
		}
		pos += count * fieldRecordSize
		if (4+count*fieldRecordSize)%8 != 0 {
			pos += 4
		}
		slots = append(slots, block)
	}
	return slots, nil
}

// parseHandleRegion parses the region at offsets[4]: per dependency slot,
// a block of 4-byte type-2 instance IDs in the same count-prefixed layout
// as the field regions. An irregular region degrades to a warning and an
// opaque skip rather than an error, since its layout is only partially
// confirmed.
func parseHandleRegion(region []byte, order stdbinary.ByteOrder) ([][]uint32, *Warning) {
	var slots [][]uint32
	pos := 0
	for pos < len(region) {
		if pos+4 > len(region) {
			return slots, &Warning{Region: 4, Message: fmt.Sprintf("truncated block at %d", pos)}
		}
		count := int(order.Uint32(region[pos:]))
		pos += 4
		if count < 0 || pos+count*handleRecordSize > len(region) {
			return slots, &Warning{Region: 4, Message: fmt.Sprintf("block of %d records overruns region", count)}
		}
		ids := make([]uint32, count)
		for i := range ids {
			ids[i] = order.Uint32(region[pos+i*handleRecordSize:])
		}
		pos += count * handleRecordSize
		if (4+count*handleRecordSize)%8 != 0 {
			pos += 4
		}
		slots = append(slots, ids)
	}
	return slots, nil
}
