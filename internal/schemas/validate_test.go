package schemas

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	evidenceSchema = "evidence_analysis.schema.json"
	sceneSchema    = "scene_reconstruction.schema.json"
	rosterSchema   = "character_roster.schema.json"
	planSchema     = "image_generation_plan.schema.json"
)

func TestList_EmbeddedSchemas(t *testing.T) {
	assert.Equal(t, []string{rosterSchema, evidenceSchema, planSchema, sceneSchema}, List())
}

func TestEmbeddedSchemas_ValidJSON(t *testing.T) {
	for _, name := range List() {
		t.Run(name, func(t *testing.T) {
			content, err := Get(name)
			require.NoError(t, err)

			var v map[string]any
			require.NoError(t, json.Unmarshal([]byte(content), &v))
			assert.Equal(t, "object", v["type"])

			_, err = load(name)
			assert.NoError(t, err, "schema should compile")
		})
	}
}

func TestValidate_Evidence(t *testing.T) {
	valid := `{
		"case_summary": "Single vehicle struck a lamp post.",
		"evidence": [
			{"id": "E1", "category": "testimonial", "description": "Witness saw the car swerve", "source_reference": "statement.txt"},
			{"id": "E2", "category": "physical", "description": "Skid marks", "technical_specs": {"length": "14 m"}, "source_reference": "report.pdf"},
			{"id": "E3", "category": "digital", "description": "Speed log", "technical_specs": {"speed_kmh": 72, "abs_engaged": true}, "source_reference": "ecu.csv"}
		]
	}`
	assert.NoError(t, Validate(evidenceSchema, valid))

	tests := []struct {
		name  string
		json  string
		field string
	}{
		{"empty evidence", `{"case_summary": "x", "evidence": []}`, "evidence"},
		{"bad category", `{"case_summary": "x", "evidence": [{"id": "E1", "category": "hearsay", "description": "d", "source_reference": "s"}]}`, "evidence.0.category"},
		{"missing summary", `{"evidence": [{"id": "E1", "category": "physical", "description": "d", "source_reference": "s"}]}`, "(root)"},
		{"nested spec", `{"case_summary": "x", "evidence": [{"id": "E1", "category": "physical", "description": "d", "source_reference": "s", "technical_specs": {"speed": {"value": 40}}}]}`, "evidence.0.technical_specs.speed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(evidenceSchema, tt.json)
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			fields := make([]string, 0, len(ve.Errors))
			for _, fe := range ve.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidate_Scene(t *testing.T) {
	valid := `{
		"spatial_layout": [{"name": "Sedan", "kind": "vehicle", "position": "northbound lane", "orientation": "facing north"}],
		"timeline": [{"sequence": 1, "timestamp": "21:14", "description": "Sedan leaves lane", "supporting_evidence_ids": ["E1"]}],
		"lighting_conditions": "street lights only"
	}`
	assert.NoError(t, Validate(sceneSchema, valid))

	assert.Error(t, Validate(sceneSchema, `{"spatial_layout": [], "timeline": []}`))
	assert.Error(t, Validate(sceneSchema, `{"spatial_layout": [{"name": "x", "position": "y"}], "timeline": [{"sequence": "first", "description": "d"}]}`))
}

func TestValidate_Roster(t *testing.T) {
	valid := `{
		"characters": [{"id": "driver_1", "role_in_scene": "driver", "visual_descriptor": {"build": "stocky", "clothing": "grey hoodie"}}],
		"objects": [{"id": "vehicle_1", "description": "blue 2015 sedan"}]
	}`
	assert.NoError(t, Validate(rosterSchema, valid))

	assert.Error(t, Validate(rosterSchema, `{"characters": [{"id": "driver_1", "role_in_scene": "driver", "visual_descriptor": {"build": "stocky"}}]}`))
}

func TestValidate_Plan(t *testing.T) {
	valid := `{"shots": [{"id": "shot_1", "camera_angle": "overhead", "composition_notes": "Full intersection", "included_character_ids": ["driver_1"]}]}`
	assert.NoError(t, Validate(planSchema, valid))

	assert.Error(t, Validate(planSchema, `{"shots": []}`))
	assert.Error(t, Validate(planSchema, `{"shots": [{"id": "shot_1"}]}`))
}

func TestValidate_MalformedJSON(t *testing.T) {
	err := Validate(evidenceSchema, `{"case_summary": `)
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Error(), "malformed JSON")
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("verdict.schema.json", `{}`)
	require.Error(t, err)

	var le *SchemaLoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "verdict.schema.json", le.Path)
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"shots": [{"id": "s", "camera_angle": "a", "composition_notes": "c"}]}`), 0o600))

	assert.NoError(t, ValidateFile(planSchema, path))
	assert.Error(t, ValidateFile(planSchema, filepath.Join(dir, "missing.json")))
}

func TestValidateJSONString_Valid(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"}
		}
	}`
	jsonContent := `{"name": "test"}`

	err := ValidateJSONString(schemaContent, jsonContent)
	assert.NoError(t, err)
}

func TestValidateJSONString_Invalid(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"}
		}
	}`
	jsonContent := `{"age": 30}`

	err := ValidateJSONString(schemaContent, jsonContent)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "shots", Message: "Array must have at least 1 items"},
			{Field: "shots.0.id", Message: "is required"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "1. shots")
	assert.Contains(t, errorMsg, "2. shots.0.id")
}
