package shared

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness or idempotency conflict.
	ErrConflict = errors.New("conflict")
)

// FieldError pinpoints one rejected input field. Group and Position are
// zero-based indexes into the submitted groups/positions, or -1 when the
// error is not tied to a line item.
type FieldError struct {
	Field    string
	Group    int
	Position int
	Message  string
}

func (e FieldError) String() string {
	if e.Position >= 0 {
		return fmt.Sprintf("groups[%d].positions[%d].%s: %s", e.Group, e.Position, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError aggregates caller-correctable input failures. It is always
// raised before any persistence happens.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a document-level field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Group: -1, Position: -1, Message: message})
}

// AddAt records a field error tied to a specific group/position.
func (e *ValidationError) AddAt(group, position int, field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Group: group, Position: position, Message: message})
}

// Empty reports whether any field errors were recorded.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}
