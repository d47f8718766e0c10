// Package binary provides low-level binary reading for MAT-file parsing.
package binary

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrOutOfBounds is returned when a read would run past the end of the buffer.
var ErrOutOfBounds = errors.New("read past end of buffer")

// Reader provides positioned reads over an in-memory byte buffer with a
// configurable byte order. All element payloads in a MAT stream are fully
// materialized before parsing, so the reader works on a slice rather than
// an io.ReaderAt.
type Reader struct {
	data  []byte
	order binary.ByteOrder
	pos   int
}

// NewReader creates a reader over data using the given byte order.
func NewReader(data []byte, order binary.ByteOrder) *Reader {
	return &Reader{data: data, order: order}
}

// At returns a new reader over the same buffer positioned at offset.
func (r *Reader) At(offset int) *Reader {
	return &Reader{data: r.data, order: r.order, pos: offset}
}

// Pos returns the current read position.
func (r *Reader) Pos() int {
	return r.pos
}

// Len returns the total buffer length.
func (r *Reader) Len() int {
	return len(r.data)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// ByteOrder returns the configured byte order.
func (r *Reader) ByteOrder() binary.ByteOrder {
	return r.order
}

// ReadBytes reads exactly n bytes from the current position.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, ErrOutOfBounds
	}
	buf := r.data[r.pos : r.pos+n]
	r.pos += n
	return buf, nil
}

// ReadUint8 reads an unsigned 8-bit integer.
func (r *Reader) ReadUint8() (uint8, error) {
	buf, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	buf, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(buf), nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(buf), nil
}

// ReadUint64 reads an unsigned 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(buf), nil
}

// ReadInt32 reads a signed 32-bit integer.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadUint32s reads n unsigned 32-bit integers.
func (r *Reader) ReadUint32s(n int) ([]uint32, error) {
	buf, err := r.ReadBytes(4 * n)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = r.order.Uint32(buf[4*i:])
	}
	return out, nil
}

// Skip advances the position by n bytes. Skipping past the end of the
// buffer is reported on the next read.
func (r *Reader) Skip(n int) {
	r.pos += n
}

// Align advances the position to the next multiple of alignment.
// If already aligned, the position is unchanged.
func (r *Reader) Align(alignment int) {
	if alignment <= 1 {
		return
	}
	if rem := r.pos % alignment; rem != 0 {
		r.pos += alignment - rem
	}
}

// Peek reads n bytes without advancing the position.
func (r *Reader) Peek(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, ErrOutOfBounds
	}
	return r.data[r.pos : r.pos+n], nil
}

// EOF reports whether the position has reached the end of the buffer.
func (r *Reader) EOF() bool {
	return r.pos >= len(r.data)
}

// ReadFull reads all of rd into memory, for callers that start from a stream.
func ReadFull(rd io.Reader) ([]byte, error) {
	return io.ReadAll(rd)
}
