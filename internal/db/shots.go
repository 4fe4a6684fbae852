package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/courtroom-viz/internal/types"
)

// SaveShot stores the outcome of one planned shot. Image bytes are not stored
// here; StorageURI points at them.
func (db *DB) SaveShot(ctx context.Context, runID uuid.UUID, index int, artifact types.GeneratedArtifact) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO viz_shots (run_id, position, shot_id, status, attempt_count, mime_type, last_error, storage_uri)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (run_id, position) DO UPDATE SET
		   shot_id = $3, status = $4, attempt_count = $5, mime_type = $6, last_error = $7, storage_uri = $8`,
		runID, index, artifact.ShotID, string(artifact.Status), artifact.AttemptCount,
		nullIfEmpty(artifact.MIMEType), nullIfEmpty(artifact.LastError), nullIfEmpty(artifact.StorageURI),
	)
	if err != nil {
		return fmt.Errorf("failed to save shot %s: %w", artifact.ShotID, err)
	}
	return nil
}

// ListShots returns the shots of a run in plan order
func (db *DB) ListShots(ctx context.Context, runID uuid.UUID) ([]types.GeneratedArtifact, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT shot_id, status, attempt_count, COALESCE(mime_type, ''), COALESCE(last_error, ''), COALESCE(storage_uri, '')
		 FROM viz_shots WHERE run_id = $1 ORDER BY position ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shots: %w", err)
	}
	defer rows.Close()

	var shots []types.GeneratedArtifact
	for rows.Next() {
		var a types.GeneratedArtifact
		var status string
		if err := rows.Scan(&a.ShotID, &status, &a.AttemptCount, &a.MIMEType, &a.LastError, &a.StorageURI); err != nil {
			return nil, fmt.Errorf("failed to scan shot: %w", err)
		}
		a.Status = types.ArtifactStatus(status)
		shots = append(shots, a)
	}
	return shots, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
