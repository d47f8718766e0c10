package element

import (
	"bytes"
	stdbinary "encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zlib"

	"github.com/robert-malhotra/go-mat/internal/binary"
)

// Parse errors.
var (
	ErrTruncated    = errors.New("truncated element")
	ErrBadArrayFlag = errors.New("malformed array flags sub-element")
)

// readTag reads one element tag, handling the small-element format where
// the byte count is packed into the upper 16 bits of the type word and the
// payload into the following 4 bytes.
func readTag(r *binary.Reader) (dt DataType, size int, small bool, err error) {
	word, err := r.ReadUint32()
	if err != nil {
		return 0, 0, false, err
	}
	if word>>16 != 0 {
		return DataType(word & 0xFFFF), int(word >> 16), true, nil
	}
	n, err := r.ReadUint32()
	if err != nil {
		return 0, 0, false, err
	}
	return DataType(word), int(n), false, nil
}

// readSub reads one sub-element and returns its storage type and payload.
// The reader is left aligned on the next 8-byte boundary.
func readSub(r *binary.Reader) (DataType, []byte, error) {
	dt, size, small, err := readTag(r)
	if err != nil {
		return 0, nil, err
	}
	if small {
		buf, err := r.ReadBytes(4)
		if err != nil {
			return 0, nil, err
		}
		if size > 4 {
			return 0, nil, fmt.Errorf("%w: small element claims %d bytes", ErrTruncated, size)
		}
		return dt, buf[:size], nil
	}
	buf, err := r.ReadBytes(size)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %d byte payload", ErrTruncated, size)
	}
	r.Align(8)
	return dt, buf, nil
}

// Read parses the element starting at the reader's current position and
// advances past it. miCOMPRESSED elements are inflated transparently.
func Read(r *binary.Reader) (*Element, error) {
	dt, size, small, err := readTag(r)
	if err != nil {
		return nil, err
	}
	var payload []byte
	if small {
		buf, err := r.ReadBytes(4)
		if err != nil {
			return nil, err
		}
		if size > 4 {
			return nil, fmt.Errorf("%w: small element claims %d bytes", ErrTruncated, size)
		}
		payload = buf[:size]
	} else {
		payload, err = r.ReadBytes(size)
		if err != nil {
			return nil, fmt.Errorf("%w: %d byte payload", ErrTruncated, size)
		}
		// Compressed elements are written without trailing padding.
		if dt != MiCompressed {
			r.Align(8)
		}
	}

	switch dt {
	case MiCompressed:
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("inflating element: %w", err)
		}
		defer zr.Close()
		inflated, err := binary.ReadFull(zr)
		if err != nil {
			return nil, fmt.Errorf("inflating element: %w", err)
		}
		return Read(binary.NewReader(inflated, r.ByteOrder()))

	case MiMatrix:
		if len(payload) == 0 {
			// Zero-length placeholder array.
			return &Element{Type: MiMatrix, order: r.ByteOrder()}, nil
		}
		return parseMatrix(binary.NewReader(payload, r.ByteOrder()))

	default:
		return &Element{Type: dt, DataType: dt, Data: payload, order: r.ByteOrder()}, nil
	}
}

func parseMatrix(r *binary.Reader) (*Element, error) {
	e := &Element{Type: MiMatrix, order: r.ByteOrder()}

	ft, flagBuf, err := readSub(r)
	if err != nil {
		return nil, fmt.Errorf("reading array flags: %w", err)
	}
	if ft != MiUint32 || len(flagBuf) != 8 {
		return nil, ErrBadArrayFlag
	}
	flags := r.ByteOrder().Uint32(flagBuf)
	e.Class = Class(flags & 0xFF)
	e.Complex = flags&flagComplex != 0
	e.Global = flags&flagGlobal != 0
	e.Logical = flags&flagLogical != 0

	// Opaque arrays carry no dimensions element: the name is followed by
	// the type-system name, the class name, and a single metadata element.
	if e.Class == ClassOpaque {
		if e.Name, err = readName(r); err != nil {
			return nil, err
		}
		if e.TypeSystem, err = readName(r); err != nil {
			return nil, err
		}
		if e.ClassName, err = readName(r); err != nil {
			return nil, err
		}
		if e.Metadata, err = Read(r); err != nil {
			return nil, fmt.Errorf("reading opaque metadata: %w", err)
		}
		return e, nil
	}

	if err := readDims(r, e); err != nil {
		return nil, err
	}
	if e.Name, err = readName(r); err != nil {
		return nil, err
	}

	switch e.Class {
	case ClassCell:
		// Every nested element occupies at least one 8-byte tag, which
		// bounds how many the remaining payload can hold.
		n := e.NumElements()
		if max := r.Remaining() / 8; n < 0 || n > max {
			return nil, fmt.Errorf("%w: cell array declares %d elements, payload holds at most %d", ErrTruncated, n, max)
		}
		e.Cells = make([]*Element, 0, n)
		for i := 0; i < n; i++ {
			c, err := Read(r)
			if err != nil {
				return nil, fmt.Errorf("reading cell %d: %w", i, err)
			}
			e.Cells = append(e.Cells, c)
		}

	case ClassStruct, ClassObject:
		if e.Class == ClassObject {
			// Legacy object arrays prepend the class name.
			if e.ClassName, err = readName(r); err != nil {
				return nil, err
			}
		}
		if err := readStructFields(r, e); err != nil {
			return nil, err
		}

	case ClassChar:
		e.DataType, e.Data, err = readSub(r)
		if err != nil {
			return nil, fmt.Errorf("reading char payload: %w", err)
		}

	case ClassSparse, ClassFunction:
		// Preserved raw, not interpreted.
		e.Data, err = r.ReadBytes(r.Remaining())
		if err != nil {
			return nil, err
		}

	default:
		e.DataType, e.Data, err = readSub(r)
		if err != nil {
			return nil, fmt.Errorf("reading %s payload: %w", e.Class, err)
		}
		if e.Complex {
			e.ImagType, e.Imag, err = readSub(r)
			if err != nil {
				return nil, fmt.Errorf("reading imaginary payload: %w", err)
			}
		}
	}

	return e, nil
}

func readDims(r *binary.Reader, e *Element) error {
	dt, buf, err := readSub(r)
	if err != nil {
		return fmt.Errorf("reading dimensions: %w", err)
	}
	if dt != MiInt32 || len(buf)%4 != 0 {
		return fmt.Errorf("bad dimensions sub-element type %d", dt)
	}
	e.Dims = make([]int, len(buf)/4)
	for i := range e.Dims {
		e.Dims[i] = int(int32(r.ByteOrder().Uint32(buf[4*i:])))
	}
	return nil
}

func readName(r *binary.Reader) (string, error) {
	_, buf, err := readSub(r)
	if err != nil {
		return "", fmt.Errorf("reading name: %w", err)
	}
	return strings.TrimRight(string(buf), "\x00"), nil
}

func readStructFields(r *binary.Reader, e *Element) error {
	dt, buf, err := readSub(r)
	if err != nil {
		return fmt.Errorf("reading field name length: %w", err)
	}
	if dt != MiInt32 || len(buf) < 4 {
		return fmt.Errorf("bad field name length sub-element")
	}
	nameLen := int(int32(r.ByteOrder().Uint32(buf)))
	if nameLen <= 0 {
		return fmt.Errorf("bad field name length %d", nameLen)
	}

	_, nameBuf, err := readSub(r)
	if err != nil {
		return fmt.Errorf("reading field names: %w", err)
	}
	if len(nameBuf)%nameLen != 0 {
		return fmt.Errorf("field name table size %d not a multiple of %d", len(nameBuf), nameLen)
	}
	numFields := len(nameBuf) / nameLen
	e.FieldNames = make([]string, numFields)
	for j := 0; j < numFields; j++ {
		e.FieldNames[j] = strings.TrimRight(string(nameBuf[j*nameLen:(j+1)*nameLen]), "\x00")
	}

	n := e.NumElements()
	if numFields == 0 {
		return nil
	}
	if max := r.Remaining() / (8 * numFields); n < 0 || n > max {
		return fmt.Errorf("%w: struct array declares %d elements, payload holds at most %d", ErrTruncated, n, max)
	}
	e.Fields = make([][]*Element, n)
	for i := 0; i < n; i++ {
		e.Fields[i] = make([]*Element, numFields)
		for j := 0; j < numFields; j++ {
			f, err := Read(r)
			if err != nil {
				return fmt.Errorf("reading field %q: %w", e.FieldNames[j], err)
			}
			e.Fields[i][j] = f
		}
	}
	return nil
}

// OrderForIndicator maps an MI/IM endianness indicator to a byte order.
func OrderForIndicator(b0, b1 byte) (stdbinary.ByteOrder, error) {
	switch {
	case b0 == 'I' && b1 == 'M':
		return stdbinary.LittleEndian, nil
	case b0 == 'M' && b1 == 'I':
		return stdbinary.BigEndian, nil
	default:
		return nil, fmt.Errorf("bad endianness indicator %q", string([]byte{b0, b1}))
	}
}
