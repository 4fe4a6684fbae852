package types

import (
	"fmt"
	"strings"
)

// VisualDescriptor is the canonical appearance of a character
type VisualDescriptor struct {
	Build                  string `json:"build" validate:"required"`
	Clothing               string `json:"clothing" validate:"required"`
	DistinguishingFeatures string `json:"distinguishing_features,omitempty"`
	AgeRange               string `json:"age_range,omitempty"`
}

// String renders the descriptor as the fixed text embedded in image prompts
func (v VisualDescriptor) String() string {
	parts := []string{
		fmt.Sprintf("build: %s", v.Build),
		fmt.Sprintf("clothing: %s", v.Clothing),
	}
	if v.AgeRange != "" {
		parts = append(parts, fmt.Sprintf("age: %s", v.AgeRange))
	}
	if v.DistinguishingFeatures != "" {
		parts = append(parts, fmt.Sprintf("features: %s", v.DistinguishingFeatures))
	}
	return strings.Join(parts, "; ")
}

// CharacterProfile describes one person who appears in the visualizations.
// ConsistencyTag is assigned by the pipeline, never by the model.
type CharacterProfile struct {
	ID               string           `json:"id" validate:"required"`
	Name             string           `json:"name,omitempty"`
	VisualDescriptor VisualDescriptor `json:"visual_descriptor"`
	RoleInScene      string           `json:"role_in_scene" validate:"required"`
	ConsistencyTag   string           `json:"consistency_tag,omitempty"`
}

// ObjectSpec describes a recurring object (vehicle, weapon, furniture) in the scene
type ObjectSpec struct {
	ID          string `json:"id" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// CharacterRoster is the character profiler's output
type CharacterRoster struct {
	Characters []CharacterProfile `json:"characters" validate:"dive"`
	Objects    []ObjectSpec       `json:"objects,omitempty" validate:"dive"`
}

// Find returns the character with the given id
func (r *CharacterRoster) Find(id string) (CharacterProfile, bool) {
	for _, c := range r.Characters {
		if c.ID == id {
			return c, true
		}
	}
	return CharacterProfile{}, false
}
