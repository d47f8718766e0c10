package element

import (
	stdbinary "encoding/binary"
	"fmt"
	"math"

	"golang.org/x/text/encoding/unicode"
)

// Uint32s interprets the real payload as 32-bit unsigned integers.
// Signed storage is reinterpreted bit-for-bit.
func (e *Element) Uint32s() ([]uint32, error) {
	if e.DataType != MiInt32 && e.DataType != MiUint32 {
		return nil, fmt.Errorf("payload type %d is not 32-bit integer", e.DataType)
	}
	if len(e.Data)%4 != 0 {
		return nil, fmt.Errorf("32-bit payload has %d bytes", len(e.Data))
	}
	out := make([]uint32, len(e.Data)/4)
	for i := range out {
		out[i] = e.Order().Uint32(e.Data[4*i:])
	}
	return out, nil
}

// Uint64s interprets the real payload as 64-bit unsigned integers.
func (e *Element) Uint64s() ([]uint64, error) {
	if e.DataType != MiInt64 && e.DataType != MiUint64 {
		return nil, fmt.Errorf("payload type %d is not 64-bit integer", e.DataType)
	}
	if len(e.Data)%8 != 0 {
		return nil, fmt.Errorf("64-bit payload has %d bytes", len(e.Data))
	}
	out := make([]uint64, len(e.Data)/8)
	for i := range out {
		out[i] = e.Order().Uint64(e.Data[8*i:])
	}
	return out, nil
}

// Float64s converts the real payload to float64 regardless of the storage
// type the writer chose.
func (e *Element) Float64s() ([]float64, error) {
	return e.floats(e.Data, e.DataType)
}

// ImagFloat64s converts the imaginary payload to float64.
func (e *Element) ImagFloat64s() ([]float64, error) {
	if !e.Complex {
		return nil, fmt.Errorf("element is not complex")
	}
	return e.floats(e.Imag, e.ImagType)
}

func (e *Element) floats(data []byte, dt DataType) ([]float64, error) {
	sz := typeSize(dt)
	if sz == 0 {
		return nil, fmt.Errorf("payload type %d is not numeric", dt)
	}
	if len(data)%sz != 0 {
		return nil, fmt.Errorf("numeric payload has %d bytes, element size %d", len(data), sz)
	}
	n := len(data) / sz
	out := make([]float64, n)
	order := e.Order()
	for i := 0; i < n; i++ {
		b := data[i*sz:]
		switch dt {
		case MiInt8:
			out[i] = float64(int8(b[0]))
		case MiUint8:
			out[i] = float64(b[0])
		case MiInt16:
			out[i] = float64(int16(order.Uint16(b)))
		case MiUint16:
			out[i] = float64(order.Uint16(b))
		case MiInt32:
			out[i] = float64(int32(order.Uint32(b)))
		case MiUint32:
			out[i] = float64(order.Uint32(b))
		case MiSingle:
			out[i] = float64(math.Float32frombits(order.Uint32(b)))
		case MiDouble:
			out[i] = math.Float64frombits(order.Uint64(b))
		case MiInt64:
			out[i] = float64(int64(order.Uint64(b)))
		case MiUint64:
			out[i] = float64(order.Uint64(b))
		default:
			return nil, fmt.Errorf("payload type %d is not numeric", dt)
		}
	}
	return out, nil
}

// Chars decodes a char payload to a Go string. Two-byte storage types are
// treated as UTF-16 code units in the element's byte order.
func (e *Element) Chars() (string, error) {
	switch e.DataType {
	case MiUint16, MiUTF16:
		return DecodeUTF16(e.Data, e.Order())
	case MiInt8, MiUint8, MiUTF8:
		return string(e.Data), nil
	default:
		return "", fmt.Errorf("char payload type %d not supported", e.DataType)
	}
}

// DecodeUTF16 decodes raw UTF-16 code units in the given byte order.
func DecodeUTF16(data []byte, order stdbinary.ByteOrder) (string, error) {
	endian := unicode.LittleEndian
	if order == stdbinary.ByteOrder(stdbinary.BigEndian) {
		endian = unicode.BigEndian
	}
	dec := unicode.UTF16(endian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decoding UTF-16: %w", err)
	}
	return string(out), nil
}
