package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DefaultLocalDir is where images are written when no directory is configured
const DefaultLocalDir = "output"

// LocalStore writes images under Dir/<run_id>/<name>
type LocalStore struct {
	Dir string
}

// NewLocalStore creates a store rooted at dir
func NewLocalStore(dir string) *LocalStore {
	if dir == "" {
		dir = DefaultLocalDir
	}
	return &LocalStore{Dir: dir}
}

// Put implements ImageStore
func (s *LocalStore) Put(_ context.Context, runID uuid.UUID, name string, data []byte, _ string) (string, error) {
	name, err := validateKey(runID, name)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(s.Dir, runID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return p, nil
}

// Get implements ImageStore
func (s *LocalStore) Get(_ context.Context, runID uuid.UUID, name string) ([]byte, error) {
	name, err := validateKey(runID, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, runID.String(), name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}
