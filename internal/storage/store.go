// Package storage persists generated images outside the process.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an object does not exist
var ErrNotFound = errors.New("object not found")

// ImageStore saves and loads image bytes keyed by run and object name
type ImageStore interface {
	// Put stores data and returns a URI that identifies it
	Put(ctx context.Context, runID uuid.UUID, name string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, runID uuid.UUID, name string) ([]byte, error)
}

// ObjectName returns the object name for a shot image with the given MIME type
func ObjectName(shotID, mimeType string) string {
	return sanitize(shotID) + extensionFor(mimeType)
}

func extensionFor(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "image"
	}
	return out
}

func validateKey(runID uuid.UUID, name string) (string, error) {
	if runID == uuid.Nil {
		return "", fmt.Errorf("run_id is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("name is required")
	}
	if name != path.Base(name) || name == ".." {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return name, nil
}

func objectKey(runID uuid.UUID, name string) string {
	return runID.String() + "/" + name
}
