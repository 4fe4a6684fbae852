package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/courtroom-viz/internal/pipeline"
	"github.com/jonathan/courtroom-viz/internal/types"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates a run or image does not exist
type ErrNotFound struct {
	What string
	ID   string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.What, e.ID)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validation *ErrValidation
	var notFound *ErrNotFound
	var input *types.CaseInputError
	var failure *pipeline.PipelineFailure

	switch {
	case errors.As(err, &validation), errors.As(err, &input):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &failure):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON body of an error response
func errorBody(err error) map[string]any {
	body := map[string]any{"error": err.Error()}
	var failure *pipeline.PipelineFailure
	if errors.As(err, &failure) {
		body["failed_stage"] = failure.FailedStage
		body["stage_index"] = failure.Index
	}
	return body
}
