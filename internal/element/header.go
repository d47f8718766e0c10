package element

import (
	stdbinary "encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-mat/internal/binary"
)

// HeaderSize is the fixed size of the MAT file header.
const HeaderSize = 128

// ErrNotMAT is returned when the file header is not a level-5 MAT header.
var ErrNotMAT = errors.New("not a MAT-file")

// Header is the parsed 128-byte file header.
type Header struct {
	// Text is the descriptive text field, trimmed.
	Text string

	// SubsystemOffset is the byte offset of the subsystem data element,
	// or 0 when the file carries no subsystem block.
	SubsystemOffset uint64

	// Version is the header version word (0x0100 for level 5).
	Version uint16

	// Order is the byte order declared by the MI/IM indicator.
	Order stdbinary.ByteOrder
}

// ParseHeader parses the file header from the start of data.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d byte header", ErrNotMAT, len(data))
	}

	order, err := OrderForIndicator(data[126], data[127])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMAT, err)
	}

	h := &Header{
		Text:    strings.TrimRight(string(data[:116]), " \t\n\x00"),
		Version: order.Uint16(data[124:126]),
		Order:   order,
	}

	// The subsystem offset field is spaces or zeros when absent.
	offsetField := data[116:124]
	blank := true
	for _, b := range offsetField {
		if b != 0 && b != ' ' {
			blank = false
			break
		}
	}
	if !blank {
		h.SubsystemOffset = order.Uint64(offsetField)
	}

	return h, nil
}

// Stream iterates over the top-level elements of a MAT file.
type Stream struct {
	Header *Header
	r      *binary.Reader
}

// NewStream parses the header of data and positions the stream at the
// first top-level element.
func NewStream(data []byte) (*Stream, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	r := binary.NewReader(data, h.Order)
	r.Skip(HeaderSize)
	return &Stream{Header: h, r: r}, nil
}

// More reports whether another element follows.
func (s *Stream) More() bool {
	return s.r.Remaining() >= 8
}

// Next reads the next top-level element and returns it together with the
// byte offset it started at.
func (s *Stream) Next() (*Element, int, error) {
	offset := s.r.Pos()
	e, err := Read(s.r)
	if err != nil {
		return nil, offset, err
	}
	return e, offset, nil
}
