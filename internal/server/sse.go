package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/courtroom-viz/internal/pipeline"
)

// SSE event names sent on POST /runs/stream
const (
	EventProgress = "progress"
	EventResult   = "result"
	EventError    = "error"
	EventComplete = "complete"
)

// SSEWriter writes Server-Sent Events. Progress callbacks may arrive from more
// than one goroutine, so writes are serialized.
type SSEWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter sets the event-stream headers on w
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends one named event with a JSON payload
func (s *SSEWriter) WriteEvent(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteProgress forwards a pipeline progress event
func (s *SSEWriter) WriteProgress(event pipeline.ProgressEvent) error {
	return s.WriteEvent(EventProgress, event)
}

// WriteError sends the error body used by the JSON endpoints
func (s *SSEWriter) WriteError(err error) {
	s.WriteEvent(EventError, errorBody(err)) //nolint:errcheck
}

// WriteComplete sends the terminal event of a stream
func (s *SSEWriter) WriteComplete(runID uuid.UUID, status string) {
	s.WriteEvent(EventComplete, map[string]string{ //nolint:errcheck
		"run_id": runID.String(),
		"status": status,
	})
}
