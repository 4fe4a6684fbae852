package imagegen

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyImage is returned when the image model responds without image data
	ErrEmptyImage = errors.New("image model returned no image data")
	// ErrInconsistent is returned when a generated image fails the consistency check
	ErrInconsistent = errors.New("image failed consistency check")
)

// ShotGenerationError reports a shot whose attempts were exhausted
type ShotGenerationError struct {
	ShotID   string
	Attempts int
	Cause    error
}

func (e *ShotGenerationError) Error() string {
	return fmt.Sprintf("shot %s failed after %d attempt(s): %v", e.ShotID, e.Attempts, e.Cause)
}

func (e *ShotGenerationError) Unwrap() error {
	return e.Cause
}
