package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/courtroom-viz/internal/llm"
	"github.com/jonathan/courtroom-viz/internal/types"
)

// MockStage is a stage whose behavior is supplied by the test
type MockStage struct {
	name    string
	deps    []string
	RunFunc func(ctx context.Context, input *types.CaseInput, prior types.PipelineResult) (types.PipelineResult, error)
}

func (m *MockStage) Name() string           { return m.name }
func (m *MockStage) Dependencies() []string { return m.deps }

func (m *MockStage) Run(ctx context.Context, input *types.CaseInput, prior types.PipelineResult) (types.PipelineResult, error) {
	return m.RunFunc(ctx, input, prior)
}

// MockLLMClient is a mock implementation of llm.Client for testing
type MockLLMClient struct {
	GenerateJSONFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

func (m *MockLLMClient) GenerateContent(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
	return "", nil
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return m.GenerateJSONFunc(ctx, prompt, tier)
}

func (m *MockLLMClient) GetModel(_ llm.ModelTier) string { return "mock-model" }
func (m *MockLLMClient) Close() error                    { return nil }

// MockImageGenerator is a mock implementation of llm.ImageGenerator for testing
type MockImageGenerator struct {
	GenerateImageFunc func(ctx context.Context, req llm.ImageRequest) (*llm.Image, error)

	mu       sync.Mutex
	requests []llm.ImageRequest
}

func (m *MockImageGenerator) GenerateImage(ctx context.Context, req llm.ImageRequest) (*llm.Image, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.GenerateImageFunc(ctx, req)
}

func (m *MockImageGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// MockRecorder records every persistence call
type MockRecorder struct {
	mu        sync.Mutex
	created   []uuid.UUID
	artifacts []string
	shots     []types.GeneratedArtifact
	statuses  []string
}

func (m *MockRecorder) CreateRun(_ context.Context, runID uuid.UUID, _ types.CaseType, _ types.Style) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, runID)
	return nil
}

func (m *MockRecorder) SaveArtifact(_ context.Context, _ uuid.UUID, step, _ string, _ any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifacts = append(m.artifacts, step)
	return nil
}

func (m *MockRecorder) SaveShot(_ context.Context, _ uuid.UUID, _ int, artifact types.GeneratedArtifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shots = append(m.shots, artifact)
	return nil
}

func (m *MockRecorder) CompleteRun(_ context.Context, _ uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	img.Set(1, 1, color.RGBA{G: 180, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// stageFixtures maps each stage role to its canned JSON response
func stageFixtures(t *testing.T) map[string]string {
	t.Helper()
	load := func(name string) string {
		data, err := os.ReadFile(filepath.Join("testdata", name))
		require.NoError(t, err)
		return string(data)
	}
	return map[string]string{
		"Senior Forensic Evidence Analyst":      load("evidence_analysis.json"),
		"Crime Scene Reconstruction Specialist": load("scene_reconstruction.json"),
		"Forensic Character Profiler":           load("character_roster.json"),
		"Legal Visualization Director":          load("image_generation_plan.json"),
	}
}

func respondByRole(fixtures map[string]string) func(context.Context, string, llm.ModelTier) (string, error) {
	return func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
		for role, body := range fixtures {
			if strings.Contains(prompt, "You are the "+role+".") {
				return body, nil
			}
		}
		return "{}", nil
	}
}

func trafficCase(t *testing.T) *types.CaseInput {
	t.Helper()
	input, err := types.NewCaseInput(types.CaseInput{
		CaseType: types.CaseTypeTrafficAccident,
		FreeText: "single vehicle collision, one witness",
		Style:    types.StyleProfessional,
	})
	require.NoError(t, err)
	return input
}
