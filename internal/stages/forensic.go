package stages

import (
	"context"

	"github.com/jonathan/courtroom-viz/internal/ingestion"
	"github.com/jonathan/courtroom-viz/internal/llm"
	"github.com/jonathan/courtroom-viz/internal/prompts"
	"github.com/jonathan/courtroom-viz/internal/types"
)

// ForensicAnalyst identifies and categorizes the evidence in the case material
type ForensicAnalyst struct {
	agent
	reader llm.DocumentReader
}

// Run ingests the case documents and extracts evidence records
func (s *ForensicAnalyst) Run(ctx context.Context, input *types.CaseInput, prior types.PipelineResult) (types.PipelineResult, error) {
	material, err := ingestion.Compose(ctx, s.reader, input, s.logger)
	if err != nil {
		return prior, s.fail(KindTransport, err)
	}
	if material.IsEmpty() {
		return prior, s.fail(KindValidation, ErrNoMaterial)
	}

	section, err := prompts.Render("stages.json", "section-case-material", map[string]string{
		"CaseType": input.CaseType.Label(),
		"Material": material.Text,
	})
	if err != nil {
		return prior, s.fail(KindValidation, err)
	}
	prompt, err := s.render(input, section)
	if err != nil {
		return prior, s.fail(KindValidation, err)
	}

	var out types.EvidenceAnalysis
	if err := call(ctx, &s.agent, prompt, &out); err != nil {
		return prior, err
	}

	ids := make([]string, len(out.Evidence))
	for i, rec := range out.Evidence {
		ids[i] = rec.ID
	}
	if err := uniqueIDs("evidence id", ids); err != nil {
		return prior, s.fail(KindValidation, err)
	}

	s.logger.Info("evidence identified",
		"records", len(out.Evidence),
		"testimonial", out.CountByCategory(types.EvidenceTestimonial),
		"sources", len(material.Sources))

	prior.Evidence = &out
	return prior, nil
}
