package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchema_DefinesTables(t *testing.T) {
	for _, table := range []string{"viz_runs", "viz_artifacts", "viz_shots"} {
		assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, schemaSQL, "UNIQUE (run_id, step)")
	assert.Equal(t, 3, strings.Count(schemaSQL, "CREATE TABLE"))
}

func TestRunType(t *testing.T) {
	run := Run{CaseType: "traffic_accident", Style: "technical", Status: StatusRunning}

	assert.Equal(t, "traffic_accident", run.CaseType)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Nil(t, run.CompletedAt)
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	got := nullIfEmpty("s3://viz/a.png")
	if assert.NotNil(t, got) {
		assert.Equal(t, "s3://viz/a.png", *got)
	}
}
