package types

// ShotSpec is a single image to generate
type ShotSpec struct {
	ID                   string   `json:"id" validate:"required"`
	Title                string   `json:"title,omitempty"`
	SceneReference       string   `json:"scene_reference"`
	CameraAngle          string   `json:"camera_angle" validate:"required"`
	IncludedCharacterIDs []string `json:"included_character_ids,omitempty"`
	IncludedObjectRefs   []string `json:"included_object_refs,omitempty"`
	CompositionNotes     string   `json:"composition_notes" validate:"required"`
	LightingNotes        string   `json:"lighting_notes,omitempty"`
	Purpose              string   `json:"purpose,omitempty"`
	Style                Style    `json:"style"`
}

// ImageGenerationPlan is the visual director's output
type ImageGenerationPlan struct {
	NarrativeFlow     string     `json:"narrative_flow,omitempty"`
	VisualConsistency string     `json:"visual_consistency,omitempty"`
	Shots             []ShotSpec `json:"shots" validate:"required,min=1,dive"`
}
