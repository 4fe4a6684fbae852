package types

// PositionedEntity places a person, vehicle, or object in the reconstructed scene
type PositionedEntity struct {
	Name        string `json:"name" validate:"required"`
	Kind        string `json:"kind"`
	Position    string `json:"position" validate:"required"`
	Orientation string `json:"orientation,omitempty"`
}

// TimelineEvent is one step of the reconstructed sequence of events
type TimelineEvent struct {
	Sequence              int      `json:"sequence" validate:"min=0"`
	Timestamp             string   `json:"timestamp,omitempty"`
	Description           string   `json:"description" validate:"required"`
	SupportingEvidenceIDs []string `json:"supporting_evidence_ids,omitempty"`
}

// SceneReconstruction is the scene reconstructor's output
type SceneReconstruction struct {
	SpatialLayout        []PositionedEntity `json:"spatial_layout" validate:"required,min=1,dive"`
	Timeline             []TimelineEvent    `json:"timeline" validate:"dive"`
	EnvironmentalFactors []string           `json:"environmental_factors,omitempty"`
	LightingConditions   string             `json:"lighting_conditions,omitempty"`
	Dimensions           map[string]string  `json:"dimensions,omitempty"`
}
