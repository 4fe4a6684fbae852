package stages

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/jonathan/courtroom-viz/internal/agents"
	"github.com/jonathan/courtroom-viz/internal/types"
)

// CharacterProfiler fixes the appearance of every person and recurring object
type CharacterProfiler struct {
	agent
}

// Run profiles the characters and assigns their consistency tags
func (s *CharacterProfiler) Run(ctx context.Context, input *types.CaseInput, prior types.PipelineResult) (types.PipelineResult, error) {
	if prior.Reconstruction == nil {
		return prior, s.fail(KindValidation, &MissingInputError{Stage: s.Name(), Requires: agents.SceneReconstructor})
	}

	reconstruction, err := jsonSection("section-reconstruction", "Reconstruction", prior.Reconstruction)
	if err != nil {
		return prior, s.fail(KindValidation, err)
	}
	prompt, err := s.render(input, reconstruction)
	if err != nil {
		return prior, s.fail(KindValidation, err)
	}

	var out types.CharacterRoster
	if err := call(ctx, &s.agent, prompt, &out); err != nil {
		return prior, err
	}

	characterIDs := make([]string, len(out.Characters))
	for i, c := range out.Characters {
		characterIDs[i] = c.ID
	}
	if err := uniqueIDs("character id", characterIDs); err != nil {
		return prior, s.fail(KindValidation, err)
	}
	objectIDs := make([]string, len(out.Objects))
	for i, o := range out.Objects {
		objectIDs[i] = o.ID
	}
	if err := uniqueIDs("object id", objectIDs); err != nil {
		return prior, s.fail(KindValidation, err)
	}

	roster := AssignConsistencyTags(out)
	s.logger.Info("characters profiled", "characters", len(roster.Characters), "objects", len(roster.Objects))

	prior.Characters = &roster
	return prior, nil
}

// AssignConsistencyTags returns a copy of roster where every character carries a
// tag derived from its position and id. Any tag supplied by the model is replaced.
func AssignConsistencyTags(roster types.CharacterRoster) types.CharacterRoster {
	out := types.CharacterRoster{
		Characters: make([]types.CharacterProfile, len(roster.Characters)),
		Objects:    append([]types.ObjectSpec(nil), roster.Objects...),
	}
	for i, c := range roster.Characters {
		sum := sha256.Sum256([]byte(c.ID))
		c.ConsistencyTag = fmt.Sprintf("CHR-%02d-%s", i+1, hex.EncodeToString(sum[:4]))
		out.Characters[i] = c
	}
	return out
}
