package mat

import (
	"bytes"
	stdbinary "encoding/binary"

	"github.com/robert-malhotra/go-mat/internal/element"
	"github.com/robert-malhotra/go-mat/internal/linkmeta"
)

// Fixtures are little-endian throughout, assembled with the same
// tagged-element encoding the parser consumes.

const (
	fxComplexFlag = 0x0800
	fxLogicalFlag = 0x0200
)

func fxWords32(vs ...uint32) []byte {
	var buf bytes.Buffer
	stdbinary.Write(&buf, stdbinary.LittleEndian, vs)
	return buf.Bytes()
}

func fxInt32s(vs ...int32) []byte {
	var buf bytes.Buffer
	stdbinary.Write(&buf, stdbinary.LittleEndian, vs)
	return buf.Bytes()
}

func fxFloat64s(vs ...float64) []byte {
	var buf bytes.Buffer
	stdbinary.Write(&buf, stdbinary.LittleEndian, vs)
	return buf.Bytes()
}

func fxUint64s(vs ...uint64) []byte {
	var buf bytes.Buffer
	stdbinary.Write(&buf, stdbinary.LittleEndian, vs)
	return buf.Bytes()
}

// fxSub encodes one sub-element with a full tag, padded to 8 bytes.
func fxSub(dt element.DataType, payload []byte) []byte {
	var buf bytes.Buffer
	stdbinary.Write(&buf, stdbinary.LittleEndian, uint32(dt))
	stdbinary.Write(&buf, stdbinary.LittleEndian, uint32(len(payload)))
	buf.Write(payload)
	for buf.Len()%8 != 0 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

// fxMatrix wraps encoded sub-elements into one miMATRIX element.
func fxMatrix(subs ...[]byte) []byte {
	var body bytes.Buffer
	for _, s := range subs {
		body.Write(s)
	}
	var buf bytes.Buffer
	stdbinary.Write(&buf, stdbinary.LittleEndian, uint32(element.MiMatrix))
	stdbinary.Write(&buf, stdbinary.LittleEndian, uint32(body.Len()))
	buf.Write(body.Bytes())
	return buf.Bytes()
}

func fxFlags(class element.Class, flags uint32) []byte {
	return fxSub(element.MiUint32, fxWords32(uint32(class)|flags, 0))
}

func fxEmpty() []byte {
	return fxMatrix()
}

func fxDouble(name string, dims []int32, vals ...float64) []byte {
	return fxMatrix(
		fxFlags(element.ClassDouble, 0),
		fxSub(element.MiInt32, fxInt32s(dims...)),
		fxSub(element.MiInt8, []byte(name)),
		fxSub(element.MiDouble, fxFloat64s(vals...)),
	)
}

func fxComplexDouble(dims []int32, re, im []float64) []byte {
	return fxMatrix(
		fxFlags(element.ClassDouble, fxComplexFlag),
		fxSub(element.MiInt32, fxInt32s(dims...)),
		fxSub(element.MiInt8, nil),
		fxSub(element.MiDouble, fxFloat64s(re...)),
		fxSub(element.MiDouble, fxFloat64s(im...)),
	)
}

func fxChar(s string) []byte {
	units := make([]byte, 2*len(s))
	for i, r := range []byte(s) {
		units[2*i] = r
	}
	return fxMatrix(
		fxFlags(element.ClassChar, 0),
		fxSub(element.MiInt32, fxInt32s(1, int32(len(s)))),
		fxSub(element.MiInt8, nil),
		fxSub(element.MiUint16, units),
	)
}

func fxUint32Matrix(dims []int32, vals ...uint32) []byte {
	return fxMatrix(
		fxFlags(element.ClassUint32, 0),
		fxSub(element.MiInt32, fxInt32s(dims...)),
		fxSub(element.MiInt8, nil),
		fxSub(element.MiUint32, fxWords32(vals...)),
	)
}

func fxUint64Matrix(dims []int32, vals ...uint64) []byte {
	return fxMatrix(
		fxFlags(element.ClassUint64, 0),
		fxSub(element.MiInt32, fxInt32s(dims...)),
		fxSub(element.MiInt8, nil),
		fxSub(element.MiUint64, fxUint64s(vals...)),
	)
}

func fxCell(dims []int32, cells ...[]byte) []byte {
	subs := [][]byte{
		fxFlags(element.ClassCell, 0),
		fxSub(element.MiInt32, fxInt32s(dims...)),
		fxSub(element.MiInt8, nil),
	}
	subs = append(subs, cells...)
	return fxMatrix(subs...)
}

func fxStruct(name string, fieldNames []string, fields ...[]byte) []byte {
	const nameLen = 32
	table := make([]byte, nameLen*len(fieldNames))
	for i, fn := range fieldNames {
		copy(table[i*nameLen:], fn)
	}
	subs := [][]byte{
		fxFlags(element.ClassStruct, 0),
		fxSub(element.MiInt32, fxInt32s(1, 1)),
		fxSub(element.MiInt8, []byte(name)),
		fxSub(element.MiInt32, fxInt32s(nameLen)),
		fxSub(element.MiInt8, table),
	}
	subs = append(subs, fields...)
	return fxMatrix(subs...)
}

func fxOpaque(name, typeSystem, className string, metadata []byte) []byte {
	return fxMatrix(
		fxFlags(element.ClassOpaque, 0),
		fxSub(element.MiInt8, []byte(name)),
		fxSub(element.MiInt8, []byte(typeSystem)),
		fxSub(element.MiInt8, []byte(className)),
		metadata,
	)
}

// fxRef encodes an object-reference tuple addressing (classID, objectID).
func fxRef(classID, objectID uint32) []byte {
	return fxUint32Matrix([]int32{6, 1}, refSentinel, classID, 0, 0, 0, objectID)
}

// ssFixture assembles a complete subsystem block from declarative parts.
type ssFixture struct {
	names    []string
	classes  [][2]uint32                  // (handle name index, name index)
	objects  [][4]uint32                  // (classID, type1, type2, dep)
	type1    [][]linkmeta.FieldDescriptor // per slot, slot 0 implied
	type2    [][]linkmeta.FieldDescriptor
	handles  [][]uint32
	contents [][]byte // encoded content-cell elements
	defaults []byte   // encoded last trailing cell, empty matrix if nil
}

func (f *ssFixture) nameIndex(name string) uint32 {
	for i, n := range f.names {
		if n == name {
			return uint32(i + 1)
		}
	}
	f.names = append(f.names, name)
	return uint32(len(f.names))
}

func (f *ssFixture) addClass(name string) uint32 {
	f.classes = append(f.classes, [2]uint32{0, f.nameIndex(name)})
	return uint32(len(f.classes))
}

// addContent appends a content cell and returns its 0-based content ID.
func (f *ssFixture) addContent(el []byte) uint32 {
	f.contents = append(f.contents, el)
	return uint32(len(f.contents) - 1)
}

// addObject appends an object with a type-1 field block and returns its ID.
func (f *ssFixture) addObject(classID uint32, fields []linkmeta.FieldDescriptor) uint32 {
	f.type1 = append(f.type1, fields)
	id := uint32(len(f.objects) + 1)
	f.objects = append(f.objects, [4]uint32{classID, uint32(len(f.type1)), 0, id})
	return id
}

func (f *ssFixture) field(name string, kind, value uint32) linkmeta.FieldDescriptor {
	return linkmeta.FieldDescriptor{NameIndex: f.nameIndex(name), Kind: kind, Value: value}
}

func (f *ssFixture) contentField(name string, el []byte) linkmeta.FieldDescriptor {
	return f.field(name, linkmeta.FieldKindContent, f.addContent(el))
}

// blob encodes the linking-metadata buffer.
func (f *ssFixture) blob() []byte {
	var pool bytes.Buffer
	for _, n := range f.names {
		pool.WriteString(n)
		pool.WriteByte(0)
	}
	for pool.Len()%8 != 0 {
		pool.WriteByte(0)
	}

	var classTable bytes.Buffer
	stdbinary.Write(&classTable, stdbinary.LittleEndian, [4]uint32{})
	for _, c := range f.classes {
		stdbinary.Write(&classTable, stdbinary.LittleEndian, [4]uint32{c[0], c[1], 0, 0})
	}

	var objTable bytes.Buffer
	stdbinary.Write(&objTable, stdbinary.LittleEndian, [6]uint32{})
	for _, o := range f.objects {
		stdbinary.Write(&objTable, stdbinary.LittleEndian, [6]uint32{o[0], 0, 0, o[1], o[2], o[3]})
	}

	fieldRegion := func(slots [][]linkmeta.FieldDescriptor) []byte {
		var buf bytes.Buffer
		encode := func(descs []linkmeta.FieldDescriptor) {
			stdbinary.Write(&buf, stdbinary.LittleEndian, uint32(len(descs)))
			for _, d := range descs {
				stdbinary.Write(&buf, stdbinary.LittleEndian, [3]uint32{d.NameIndex, d.Kind, d.Value})
			}
			if buf.Len()%8 != 0 {
				buf.Write(make([]byte, 8-buf.Len()%8))
			}
		}
		encode(nil) // slot 0 sentinel
		for _, s := range slots {
			encode(s)
		}
		return buf.Bytes()
	}

	var handleRegion bytes.Buffer
	if len(f.handles) > 0 {
		encode := func(ids []uint32) {
			stdbinary.Write(&handleRegion, stdbinary.LittleEndian, uint32(len(ids)))
			stdbinary.Write(&handleRegion, stdbinary.LittleEndian, ids)
			if handleRegion.Len()%8 != 0 {
				handleRegion.Write(make([]byte, 8-handleRegion.Len()%8))
			}
		}
		for _, ids := range f.handles {
			encode(ids)
		}
	}

	regions := [][]byte{
		classTable.Bytes(),
		fieldRegion(f.type1),
		objTable.Bytes(),
		fieldRegion(f.type2),
		handleRegion.Bytes(),
	}

	var offsets [8]uint32
	off := uint32(40) + uint32(pool.Len())
	for i := 0; i < 8; i++ {
		offsets[i] = off
		if i < len(regions) {
			off += uint32(len(regions[i]))
		}
	}

	var buf bytes.Buffer
	stdbinary.Write(&buf, stdbinary.LittleEndian, uint32(4))
	stdbinary.Write(&buf, stdbinary.LittleEndian, uint32(len(f.names)))
	stdbinary.Write(&buf, stdbinary.LittleEndian, offsets)
	buf.Write(pool.Bytes())
	for _, r := range regions {
		buf.Write(r)
	}
	return buf.Bytes()
}

// build encodes the full subsystem block: private header, wrapper struct,
// opaque array, metadata cell array.
func (f *ssFixture) build() []byte {
	blob := f.blob()
	blobCell := fxMatrix(
		fxFlags(element.ClassUint8, 0),
		fxSub(element.MiInt32, fxInt32s(1, int32(len(blob)))),
		fxSub(element.MiInt8, nil),
		fxSub(element.MiUint8, blob),
	)

	cells := [][]byte{blobCell, fxEmpty()}
	cells = append(cells, f.contents...)
	defaults := f.defaults
	if defaults == nil {
		defaults = fxEmpty()
	}
	cells = append(cells, fxEmpty(), fxEmpty(), defaults)

	metadata := fxCell([]int32{int32(len(cells)), 1}, cells...)
	wrapper := fxStruct("", []string{"MCOS"},
		fxOpaque("", "MCOS", "FileWrapper__", metadata))

	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x01, 'I', 'M', 0, 0, 0, 0})
	buf.Write(wrapper)
	return buf.Bytes()
}

// buildFile assembles a complete MAT file from encoded top-level elements,
// appending the subsystem block (when given) as a byte array element and
// recording its offset in the header.
func buildFile(vars [][]byte, subsystem []byte) []byte {
	var buf bytes.Buffer
	text := make([]byte, 116)
	copy(text, "MATLAB 5.0 MAT-file, written by go-mat test fixtures")
	for i, b := range text {
		if b == 0 {
			text[i] = ' '
		}
	}
	buf.Write(text)
	buf.Write(make([]byte, 8)) // subsystem offset, patched below
	buf.Write([]byte{0x00, 0x01, 'I', 'M'})

	for _, v := range vars {
		buf.Write(v)
		for buf.Len()%8 != 0 {
			buf.WriteByte(0)
		}
	}

	out := buf.Bytes()
	if subsystem != nil {
		offset := uint64(len(out))
		var el bytes.Buffer
		stdbinary.Write(&el, stdbinary.LittleEndian, uint32(element.MiUint8))
		stdbinary.Write(&el, stdbinary.LittleEndian, uint32(len(subsystem)))
		el.Write(subsystem)
		out = append(out, el.Bytes()...)
		stdbinary.LittleEndian.PutUint64(out[116:], offset)
	}
	return out
}
