package stages

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/jonathan/courtroom-viz/internal/llm"
)

// MockLLMClient is a mock implementation of llm.Client for testing
type MockLLMClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (m *MockLLMClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return "{}", nil
}

func (m *MockLLMClient) GetModel(_ llm.ModelTier) string {
	return "mock-model"
}

func (m *MockLLMClient) Close() error {
	return nil
}

func (m *MockLLMClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// respondByRole answers with the fixture whose stage role appears in the prompt
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

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const (
	roleForensic  = "Senior Forensic Evidence Analyst"
	roleScene     = "Crime Scene Reconstruction Specialist"
	roleCharacter = "Forensic Character Profiler"
	roleDirector  = "Legal Visualization Director"
)

const evidenceFixture = "```json\n" + `{
  "case_summary": "A single vehicle left the road and struck a lamp post; one pedestrian witnessed it.",
  "evidence": [
    {"id": "E1", "category": "testimonial", "description": "Pedestrian saw the sedan swerve before impact", "source_reference": "free text"},
    {"id": "E2", "category": "physical", "description": "Skid marks leading to the lamp post", "technical_specs": {"length": "14 m", "length_m": 14.2, "braking": true}, "source_reference": "free text"}
  ],
  "legal_notes": ["Witness distance from the scene should be confirmed"]
}` + "\n```"

const sceneFixture = `{
  "spatial_layout": [
    {"name": "Sedan", "kind": "vehicle", "position": "against lamp post, east kerb", "orientation": "facing north-east"},
    {"name": "Witness", "kind": "person", "position": "north-west corner", "orientation": "facing the road"}
  ],
  "timeline": [
    {"sequence": 1, "timestamp": "21:14", "description": "Sedan swerves", "supporting_evidence_ids": ["E1"]},
    {"sequence": 2, "description": "Sedan skids into the post", "supporting_evidence_ids": ["E1", "E2"]}
  ],
  "environmental_factors": ["wet road"],
  "lighting_conditions": "street lighting",
  "dimensions": {"road_width": "7 m"}
}`

const rosterFixture = `{
  "characters": [
    {"id": "driver_1", "name": "Driver", "role_in_scene": "driver of the sedan", "consistency_tag": "model-made",
     "visual_descriptor": {"build": "medium build", "clothing": "dark blue jacket", "age_range": "30-40"}},
    {"id": "witness_1", "name": "Witness", "role_in_scene": "pedestrian witness",
     "visual_descriptor": {"build": "slim", "clothing": "yellow raincoat", "distinguishing_features": "umbrella"}}
  ],
  "objects": [{"id": "vehicle_1", "description": "silver four-door sedan"}]
}`

const planFixture = `{
  "narrative_flow": "Overview, then the moment of impact, then the witness view.",
  "shots": [
    {"id": "shot_1", "title": "Overview", "camera_angle": "overhead", "composition_notes": "Whole junction", "style": "dramatic"},
    {"id": "shot_2", "title": "Impact", "camera_angle": "street level", "included_character_ids": ["driver_1"], "composition_notes": "Sedan meets post"},
    {"id": "shot_3", "title": "Witness view", "camera_angle": "eye level from north-west", "included_character_ids": ["witness_1", "driver_1"], "composition_notes": "What the witness saw"}
  ]
}`

func allFixtures() map[string]string {
	return map[string]string{
		roleForensic:  evidenceFixture,
		roleScene:     sceneFixture,
		roleCharacter: rosterFixture,
		roleDirector:  planFixture,
	}
}
