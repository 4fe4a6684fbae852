package types

import (
	"time"

	"github.com/google/uuid"
)

// PipelineResult aggregates the four stage outputs. During a run it is threaded
// forward and each stage fills exactly one field.
type PipelineResult struct {
	Evidence       *EvidenceAnalysis    `json:"evidence,omitempty"`
	Reconstruction *SceneReconstruction `json:"reconstruction,omitempty"`
	Characters     *CharacterRoster     `json:"characters,omitempty"`
	Plan           *ImageGenerationPlan `json:"plan,omitempty"`
}

// Complete reports whether every stage output is present
func (p PipelineResult) Complete() bool {
	return p.Evidence != nil && p.Reconstruction != nil && p.Characters != nil && p.Plan != nil
}

// ArtifactStatus is the terminal state of a shot
type ArtifactStatus string

// Artifact statuses
const (
	ArtifactSuccess         ArtifactStatus = "success"
	ArtifactFailedExhausted ArtifactStatus = "failed_exhausted"
)

// GeneratedArtifact is the outcome of generating one shot
type GeneratedArtifact struct {
	ShotID       string         `json:"shot_id"`
	Status       ArtifactStatus `json:"status"`
	ImageBytes   []byte         `json:"-"`
	MIMEType     string         `json:"mime_type,omitempty"`
	AttemptCount int            `json:"attempt_count"`
	LastError    string         `json:"last_error,omitempty"`
	StorageURI   string         `json:"storage_uri,omitempty"`
}

// ResultSet is the final, ordered output of a run
type ResultSet struct {
	RunID      uuid.UUID           `json:"run_id"`
	Artifacts  []GeneratedArtifact `json:"artifacts"`
	Analysis   PipelineResult      `json:"analysis"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
}

// Succeeded returns the number of shots that produced an image
func (r *ResultSet) Succeeded() int {
	n := 0
	for _, a := range r.Artifacts {
		if a.Status == ArtifactSuccess {
			n++
		}
	}
	return n
}

// Failed returns the number of shots that exhausted their attempts
func (r *ResultSet) Failed() int {
	return len(r.Artifacts) - r.Succeeded()
}

// Artifact returns the artifact for a shot id
func (r *ResultSet) Artifact(shotID string) (GeneratedArtifact, bool) {
	for _, a := range r.Artifacts {
		if a.ShotID == shotID {
			return a, true
		}
	}
	return GeneratedArtifact{}, false
}
