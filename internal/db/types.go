package db

import (
	"time"

	"github.com/google/uuid"
)

// Run statuses
const (
	StatusRunning   = "running"
	StatusFailed    = "failed"
	StatusCompleted = "completed"
)

// Run represents a pipeline run record
type Run struct {
	ID          uuid.UUID  `json:"id"`
	CaseType    string     `json:"case_type"`
	Style       string     `json:"style"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RunFilters holds optional filters for listing runs
type RunFilters struct {
	CaseType string
	Status   string
	Limit    int
}
