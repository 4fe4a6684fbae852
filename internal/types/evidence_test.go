package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvidenceRecord_MixedSpecValues(t *testing.T) {
	var rec EvidenceRecord
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "E2",
		"category": "physical",
		"description": "Skid marks",
		"technical_specs": {"length": "14 m", "speed_kmh": 72, "abs_engaged": false}
	}`), &rec))

	assert.Equal(t, "14 m", rec.TechnicalSpecs["length"])
	assert.Equal(t, float64(72), rec.TechnicalSpecs["speed_kmh"])
	assert.Equal(t, false, rec.TechnicalSpecs["abs_engaged"])
	assert.Equal(t, "abs_engaged=false; length=14 m; speed_kmh=72", rec.SpecSummary())
}

func TestEvidenceRecord_SpecSummaryEmpty(t *testing.T) {
	assert.Empty(t, EvidenceRecord{}.SpecSummary())
}
