// Package stages implements the four analysis stages. Each stage is a single
// reasoning call whose JSON output is checked against its schema, its struct
// constraints, and the ids produced by earlier stages.
package stages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/courtroom-viz/internal/agents"
	"github.com/jonathan/courtroom-viz/internal/llm"
	"github.com/jonathan/courtroom-viz/internal/prompts"
	"github.com/jonathan/courtroom-viz/internal/schemas"
	"github.com/jonathan/courtroom-viz/internal/types"
)

// Stage is one step of the analysis pipeline. Run returns prior with exactly the
// stage's own output added; prior itself is not modified.
type Stage interface {
	Name() string
	Dependencies() []string
	Run(ctx context.Context, input *types.CaseInput, prior types.PipelineResult) (types.PipelineResult, error)
}

var validate = validator.New()

// agent carries what every stage needs to make its reasoning call
type agent struct {
	def    agents.Definition
	index  int
	client llm.Client
	logger *slog.Logger
}

func (a *agent) Name() string {
	return a.def.Name
}

func (a *agent) Dependencies() []string {
	return a.def.DependsOn
}

func (a *agent) fail(kind ErrorKind, cause error) error {
	return &StageExecutionError{Stage: a.def.Name, Index: a.index, Kind: kind, Cause: cause}
}

// call makes the reasoning call and decodes a validated output into out
func call[T any](ctx context.Context, a *agent, prompt string, out *T) error {
	ctx, cancel := context.WithTimeout(ctx, a.def.Timeout)
	defer cancel()

	a.logger.Debug("stage call", "stage", a.def.Name, "tier", a.def.Tier, "prompt_chars", len(prompt))

	raw, err := a.client.GenerateJSON(ctx, prompt, a.def.Tier)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return a.fail(KindTimeout, err)
		}
		return a.fail(KindTransport, err)
	}

	cleaned := llm.CleanJSONBlock(raw)
	if err := schemas.Validate(a.def.Schema, cleaned); err != nil {
		return a.fail(KindValidation, err)
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return a.fail(KindValidation, &ParseError{Message: "failed to decode stage output", Cause: err})
	}
	if err := validate.Struct(out); err != nil {
		return a.fail(KindValidation, err)
	}
	return nil
}

// render fills the shared stage frame with this stage's persona, task and schema
func (a *agent) render(input *types.CaseInput, sections ...string) (string, error) {
	schema, err := schemas.Get(a.def.Schema)
	if err != nil {
		return "", err
	}

	task := prompts.Format(a.def.Task, map[string]string{
		"CaseType": input.CaseType.Label(),
		"Style":    string(input.Style),
	})

	guidance, err := guidance(input)
	if err != nil {
		return "", err
	}

	return prompts.Render("stages.json", "stage-prompt", map[string]string{
		"Role":           a.def.Role,
		"Goal":           a.def.Goal,
		"Backstory":      a.def.Backstory,
		"Task":           task,
		"Guidance":       guidance,
		"Context":        strings.Join(sections, "\n"),
		"ExpectedOutput": a.def.ExpectedOutput,
		"Schema":         schema,
	})
}

// guidance turns case options and focus into prompt instructions
func guidance(input *types.CaseInput) (string, error) {
	var lines []string
	add := func(key string, data map[string]string) error {
		line, err := prompts.Render("stages.json", key, data)
		if err != nil {
			return err
		}
		lines = append(lines, line)
		return nil
	}

	if input.Option(types.OptionIncludeMeasurements) {
		if err := add("section-measurements", nil); err != nil {
			return "", err
		}
	}
	if input.Option(types.OptionExpertReview) {
		if err := add("section-expert-review", nil); err != nil {
			return "", err
		}
	}
	if len(input.Focus.EvidenceTypes) > 0 {
		if err := add("section-focus-evidence", map[string]string{"Items": strings.Join(input.Focus.EvidenceTypes, ", ")}); err != nil {
			return "", err
		}
	}
	if len(input.Focus.FocusAreas) > 0 {
		if err := add("section-focus-areas", map[string]string{"Items": strings.Join(input.Focus.FocusAreas, ", ")}); err != nil {
			return "", err
		}
	}
	if custom := strings.TrimSpace(input.Focus.CustomInstructions); custom != "" {
		if err := add("section-custom", map[string]string{"Instructions": custom}); err != nil {
			return "", err
		}
	}
	return strings.Join(lines, "\n"), nil
}

// jsonSection renders a prior stage output into a named prompt section
func jsonSection(key, field string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", field, err)
	}
	return prompts.Render("stages.json", key, map[string]string{field: string(data)})
}

// uniqueIDs returns a ReferenceError for the first repeated id
func uniqueIDs(field string, ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return &ReferenceError{Field: field, Value: id, Message: "declared more than once"}
		}
		seen[id] = true
	}
	return nil
}
