package stages

import (
	"context"
	"fmt"

	"github.com/jonathan/courtroom-viz/internal/agents"
	"github.com/jonathan/courtroom-viz/internal/types"
)

// SceneReconstructor builds the spatial layout and timeline from the evidence
type SceneReconstructor struct {
	agent
}

// Run reconstructs the scene. Every timeline citation must name an evidence id.
func (s *SceneReconstructor) Run(ctx context.Context, input *types.CaseInput, prior types.PipelineResult) (types.PipelineResult, error) {
	if prior.Evidence == nil {
		return prior, s.fail(KindValidation, &MissingInputError{Stage: s.Name(), Requires: agents.ForensicAnalyst})
	}

	evidence, err := jsonSection("section-evidence", "Evidence", prior.Evidence)
	if err != nil {
		return prior, s.fail(KindValidation, err)
	}
	prompt, err := s.render(input, evidence)
	if err != nil {
		return prior, s.fail(KindValidation, err)
	}

	var out types.SceneReconstruction
	if err := call(ctx, &s.agent, prompt, &out); err != nil {
		return prior, err
	}

	known := prior.Evidence.IDs()
	for i, event := range out.Timeline {
		for _, id := range event.SupportingEvidenceIDs {
			if !known[id] {
				return prior, s.fail(KindValidation, &ReferenceError{
					Field:   fmt.Sprintf("timeline[%d].supporting_evidence_ids", i),
					Value:   id,
					Message: "does not name an identified evidence record",
				})
			}
		}
	}

	s.logger.Info("scene reconstructed", "entities", len(out.SpatialLayout), "events", len(out.Timeline))

	prior.Reconstruction = &out
	return prior, nil
}
