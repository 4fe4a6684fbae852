package pipeline

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Run statuses recorded for a run
const (
	StatusRunning   = "running"
	StatusFailed    = "failed"
	StatusCompleted = "completed"
)

// emitProgress calls the progress callback if configured
func (o *Orchestrator) emitProgress(runID, step, category, message string, content any) {
	if o.onProgress != nil {
		o.onProgress(ProgressEvent{
			Step:     step,
			Category: category,
			Message:  message,
			RunID:    runID,
			Content:  content,
		})
	}
}
