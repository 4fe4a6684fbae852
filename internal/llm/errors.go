package llm

import (
	"errors"
	"fmt"
)

// ErrNoImage is returned when an image response carries no inline image data
var ErrNoImage = errors.New("no image in response")

// APICallError represents a failed call to the provider API
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// EmptyResponseError represents a response that carried no usable content
type EmptyResponseError struct {
	Message string
}

func (e *EmptyResponseError) Error() string {
	return e.Message
}
