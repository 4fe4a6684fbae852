package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/courtroom-viz/internal/pipeline"
	"github.com/jonathan/courtroom-viz/internal/types"
)

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "quality", Message: "must be a number"}
	assert.Equal(t, "validation error: quality - must be a number", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestErrNotFound(t *testing.T) {
	err := &ErrNotFound{What: "run", ID: "abc"}
	assert.Equal(t, "run not found: abc", err.Error())
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	failure := &pipeline.PipelineFailure{FailedStage: "scene_reconstructor", Index: 2, Cause: errors.New("bad")}

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"case input", &types.CaseInputError{Message: "empty"}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("parse: %w", &ErrValidation{Field: "x"}), http.StatusBadRequest},
		{"pipeline failure", failure, http.StatusUnprocessableEntity},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestErrorBody_PipelineFailure(t *testing.T) {
	body := errorBody(&pipeline.PipelineFailure{FailedStage: "scene_reconstructor", Index: 2, Cause: errors.New("bad")})
	assert.Equal(t, "scene_reconstructor", body["failed_stage"])
	assert.Equal(t, 2, body["stage_index"])

	body = errorBody(errors.New("plain"))
	assert.NotContains(t, body, "failed_stage")
}
