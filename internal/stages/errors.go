package stages

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a stage failed
type ErrorKind string

// Error kinds
const (
	KindTransport  ErrorKind = "transport"
	KindTimeout    ErrorKind = "timeout"
	KindValidation ErrorKind = "validation"
)

// ErrNoMaterial is returned when no document or free text yielded any usable text
var ErrNoMaterial = errors.New("case material is empty after ingestion")

// StageExecutionError reports a failed stage. Stages never retry.
type StageExecutionError struct {
	Stage string
	Index int
	Kind  ErrorKind
	Cause error
}

func (e *StageExecutionError) Error() string {
	return fmt.Sprintf("stage %d (%s) failed: %s: %v", e.Index, e.Stage, e.Kind, e.Cause)
}

func (e *StageExecutionError) Unwrap() error {
	return e.Cause
}

// ParseError represents a stage output that is not valid JSON for its contract
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ReferenceError reports an id in a stage output that does not resolve to an
// earlier stage's output, or an id that is declared twice.
type ReferenceError struct {
	Field   string
	Value   string
	Message string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Message)
}

// MissingInputError reports that a required earlier stage output is absent
type MissingInputError struct {
	Stage    string
	Requires string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s requires the output of %s", e.Stage, e.Requires)
}
