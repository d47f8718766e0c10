// Package mat provides a pure Go reader for MAT-files, including the
// subsystem data block holding the serialized object graph of user-defined
// and built-in objects (timestamps, strings, tables, enumerations).
package mat

import "errors"

// Common errors
var (
	ErrNotMAT             = errors.New("not a MAT-file")
	ErrMalformedSubsystem = errors.New("malformed subsystem data")
	ErrNoSubsystem        = errors.New("file has no subsystem block")
	ErrUnsupported        = errors.New("unsupported feature")
)

// wrapperClassTag is the reserved class name of the opaque array that wraps
// the subsystem's metadata cell array.
const wrapperClassTag = "FileWrapper__"

// typeSystemMCOS is the type-system name of object arrays handled by the
// subsystem decoder.
const typeSystemMCOS = "MCOS"

// refSentinel is the leading word of an object-reference tuple.
const refSentinel = 0xDD000000
