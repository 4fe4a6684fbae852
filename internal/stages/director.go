package stages

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jonathan/courtroom-viz/internal/agents"
	"github.com/jonathan/courtroom-viz/internal/prompts"
	"github.com/jonathan/courtroom-viz/internal/types"
)

// VisualDirector plans the shots that visualize the reconstruction
type VisualDirector struct {
	agent
}

// Run plans the shots. Every shot may only reference profiled characters, and its
// style is always the style requested for the case.
func (s *VisualDirector) Run(ctx context.Context, input *types.CaseInput, prior types.PipelineResult) (types.PipelineResult, error) {
	if prior.Reconstruction == nil {
		return prior, s.fail(KindValidation, &MissingInputError{Stage: s.Name(), Requires: agents.SceneReconstructor})
	}
	if prior.Characters == nil {
		return prior, s.fail(KindValidation, &MissingInputError{Stage: s.Name(), Requires: agents.CharacterProfiler})
	}

	prompt, err := s.prompt(input, prior)
	if err != nil {
		return prior, s.fail(KindValidation, err)
	}

	var out types.ImageGenerationPlan
	if err := call(ctx, &s.agent, prompt, &out); err != nil {
		return prior, err
	}

	shotIDs := make([]string, len(out.Shots))
	for i, shot := range out.Shots {
		shotIDs[i] = shot.ID
	}
	if err := uniqueIDs("shot id", shotIDs); err != nil {
		return prior, s.fail(KindValidation, err)
	}

	plan := types.ImageGenerationPlan{
		NarrativeFlow:     out.NarrativeFlow,
		VisualConsistency: out.VisualConsistency,
		Shots:             make([]types.ShotSpec, len(out.Shots)),
	}
	for i, shot := range out.Shots {
		for _, id := range shot.IncludedCharacterIDs {
			if _, ok := prior.Characters.Find(id); !ok {
				return prior, s.fail(KindValidation, &ReferenceError{
					Field:   fmt.Sprintf("shots[%d].included_character_ids", i),
					Value:   id,
					Message: "does not name a profiled character",
				})
			}
		}
		shot.Style = input.Style
		plan.Shots[i] = shot
	}

	s.logger.Info("shots planned", "shots", len(plan.Shots), "style", input.Style)

	prior.Plan = &plan
	return prior, nil
}

func (s *VisualDirector) prompt(input *types.CaseInput, prior types.PipelineResult) (string, error) {
	reconstruction, err := jsonSection("section-reconstruction", "Reconstruction", prior.Reconstruction)
	if err != nil {
		return "", err
	}
	characters, err := jsonSection("section-characters", "Characters", prior.Characters)
	if err != nil {
		return "", err
	}

	stylePrompt, err := prompts.Get("imaging.json", "style-"+string(input.Style))
	if err != nil {
		return "", err
	}
	style, err := prompts.Render("stages.json", "section-style", map[string]string{
		"Style":       string(input.Style),
		"StylePrompt": stylePrompt,
	})
	if err != nil {
		return "", err
	}

	minShots, maxShots := shotRange(input.QualityLevel)
	quality, err := prompts.Render("stages.json", "section-quality", map[string]string{
		"Quality":  strconv.Itoa(input.QualityLevel),
		"MinShots": strconv.Itoa(minShots),
		"MaxShots": strconv.Itoa(maxShots),
	})
	if err != nil {
		return "", err
	}

	return s.render(input, reconstruction, characters, style, quality)
}

// shotRange scales the number of planned shots with the requested quality level
func shotRange(quality int) (int, int) {
	switch {
	case quality <= 3:
		return 1, 3
	case quality <= 7:
		return 3, 5
	default:
		return 4, 6
	}
}
