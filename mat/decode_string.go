package mat

import (
	"fmt"

	"github.com/robert-malhotra/go-mat/internal/element"
)

// packedStringVersion is the expected leading word of a packed string
// buffer.
const packedStringVersion = 1

// decodeString converts a packed string array. The sole property "any" is
// a uint64 buffer laid out as:
//
//	[version] [ndims] [ndims dimension sizes] [K character counts]
//	[remaining words: UTF-16 code units]
//
// where K is the product of the dimensions. The character data is sliced
// per the counts, in column-major order, and reshaped to the declared
// dimensions.
func decodeString(ss *Subsystem, obj *Object) (any, error) {
	v, ok := obj.Get("any")
	if !ok || v == nil {
		return &StringArray{}, nil
	}
	arr, ok := v.(*NumericArray)
	if !ok {
		return nil, fmt.Errorf("any property is %T, want numeric array", v)
	}
	words, ok := arr.Data.([]uint64)
	if !ok {
		return nil, fmt.Errorf("any property class %s, want uint64", arr.Class)
	}
	return decodePackedString(ss, obj.ID, words)
}

func decodePackedString(ss *Subsystem, id uint32, words []uint64) (*StringArray, error) {
	if len(words) < 2 {
		return nil, fmt.Errorf("packed string buffer has %d words", len(words))
	}
	if words[0] != packedStringVersion {
		ss.diag(Diagnostic{
			Kind: DiagUnknownRegion, ObjectID: id,
			Message: fmt.Sprintf("packed string version %d, expected %d", words[0], packedStringVersion),
		})
	}

	ndims := int(words[1])
	if ndims < 0 || 2+ndims > len(words) {
		return nil, fmt.Errorf("packed string declares %d dimensions in %d words", ndims, len(words))
	}
	dims := make([]int, ndims)
	count := 1
	for i := range dims {
		dims[i] = int(words[2+i])
		count *= dims[i]
	}
	if count < 0 || 2+ndims+count > len(words) {
		return nil, fmt.Errorf("packed string declares %d strings in %d words", count, len(words))
	}
	charCounts := words[2+ndims : 2+ndims+count]

	// The remaining words are raw UTF-16 code units; re-serialize them in
	// the file byte order to recover the character stream.
	tail := words[2+ndims+count:]
	raw := make([]byte, 8*len(tail))
	for i, w := range tail {
		ss.order.PutUint64(raw[8*i:], w)
	}

	out := &StringArray{Dims: dims, Values: make([]string, 0, count)}
	pos := 0
	for _, cc := range charCounts {
		n := int(cc) * 2 // UTF-16 code units
		if pos+n > len(raw) {
			return nil, fmt.Errorf("packed string character data truncated at %d of %d bytes", pos+n, len(raw))
		}
		s, err := element.DecodeUTF16(raw[pos:pos+n], ss.order)
		if err != nil {
			return nil, err
		}
		out.Values = append(out.Values, s)
		pos += n
	}
	return out, nil
}
