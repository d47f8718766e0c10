package mat

import "fmt"

// DiagnosticKind classifies a non-fatal decode problem.
type DiagnosticKind int

const (
	// DiagDanglingReference marks a field whose object reference points
	// to a nonexistent object ID. The field keeps its unresolved
	// Reference value.
	DiagDanglingReference DiagnosticKind = iota + 1

	// DiagUnknownRegion marks a metadata region with an unexpected shape.
	// The region bytes are preserved opaquely.
	DiagUnknownRegion

	// DiagUnsupportedType marks a recognized class or field whose payload
	// could not be parsed. The field degrades to its raw value.
	DiagUnsupportedType
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagDanglingReference:
		return "dangling reference"
	case DiagUnknownRegion:
		return "unknown region"
	case DiagUnsupportedType:
		return "unsupported type"
	default:
		return fmt.Sprintf("diagnostic(%d)", int(k))
	}
}

// Diagnostic records one non-fatal problem encountered during a decode.
// Diagnostics are collected alongside the best-effort result so a consumer
// always gets whatever could be recovered plus an accounting of what could
// not.
type Diagnostic struct {
	Kind     DiagnosticKind
	ObjectID uint32 // 0 when not tied to an object
	Field    string // empty when not tied to a field
	Message  string
}

func (d Diagnostic) String() string {
	s := d.Kind.String()
	if d.ObjectID != 0 {
		s += fmt.Sprintf(" (object %d", d.ObjectID)
		if d.Field != "" {
			s += ", field " + d.Field
		}
		s += ")"
	} else if d.Field != "" {
		s += " (field " + d.Field + ")"
	}
	return s + ": " + d.Message
}
