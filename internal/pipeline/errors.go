package pipeline

import (
	"errors"
	"fmt"

	"github.com/jonathan/courtroom-viz/internal/stages"
)

// PipelineFailure aborts a run. It names the first stage that failed; outputs of
// the stages before it are discarded.
//
//nolint:revive
type PipelineFailure struct {
	FailedStage string
	Index       int
	Cause       error
}

func (e *PipelineFailure) Error() string {
	return fmt.Sprintf("pipeline failed at stage %d (%s): %v", e.Index, e.FailedStage, e.Cause)
}

func (e *PipelineFailure) Unwrap() error {
	return e.Cause
}

func newFailure(name string, index int, err error) *PipelineFailure {
	var stageErr *stages.StageExecutionError
	if errors.As(err, &stageErr) {
		return &PipelineFailure{FailedStage: stageErr.Stage, Index: stageErr.Index, Cause: stageErr}
	}
	return &PipelineFailure{FailedStage: name, Index: index, Cause: err}
}
