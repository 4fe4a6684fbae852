// Package types provides type definitions for structured data used throughout the courtroom-viz system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CaseType identifies the broad category of a legal case
type CaseType string

// Supported case types
const (
	CaseTypeTrafficAccident CaseType = "traffic_accident"
	CaseTypeCrimeScene      CaseType = "crime_scene"
	CaseTypePersonalInjury  CaseType = "personal_injury"
	CaseTypeOther           CaseType = "other"
)

var caseTypeLabels = map[CaseType]string{
	CaseTypeTrafficAccident: "Traffic Accident",
	CaseTypeCrimeScene:      "Crime Scene",
	CaseTypePersonalInjury:  "Personal Injury",
	CaseTypeOther:           "Other",
}

// Label returns the human-readable name of the case type
func (c CaseType) Label() string {
	if label, ok := caseTypeLabels[c]; ok {
		return label
	}
	return string(c)
}

// ParseCaseType accepts either the canonical value ("crime_scene") or a display
// label ("Crime Scene"). Property disputes and medical malpractice are mapped to Other.
func ParseCaseType(s string) (CaseType, error) {
	normalized := normalizeEnum(s)
	switch normalized {
	case "traffic_accident", "trafficaccident", "traffic":
		return CaseTypeTrafficAccident, nil
	case "crime_scene", "crimescene", "crime":
		return CaseTypeCrimeScene, nil
	case "personal_injury", "personalinjury":
		return CaseTypePersonalInjury, nil
	case "other", "property_dispute", "medical_malpractice":
		return CaseTypeOther, nil
	}
	return "", fmt.Errorf("unknown case type %q", s)
}

// Style is the visual rendering style requested for the generated images
type Style string

// Supported styles
const (
	StyleProfessional Style = "professional"
	StyleTechnical    Style = "technical"
	StyleDramatic     Style = "dramatic"
	StyleJuryFriendly Style = "jury_friendly"
)

const defaultQualityLevel = 8

// ParseStyle accepts the canonical style value or its display label ("Jury-Friendly")
func ParseStyle(s string) (Style, error) {
	switch normalizeEnum(s) {
	case "professional":
		return StyleProfessional, nil
	case "technical":
		return StyleTechnical, nil
	case "dramatic":
		return StyleDramatic, nil
	case "jury_friendly", "juryfriendly":
		return StyleJuryFriendly, nil
	}
	return "", fmt.Errorf("unknown style %q", s)
}

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return s
}

// Option names recognised by the stages
const (
	OptionIncludeMeasurements = "include_measurements"
	OptionExpertReview        = "expert_review"
)

// Focus narrows the analysis to particular evidence types or areas
type Focus struct {
	EvidenceTypes      []string `json:"evidence_types,omitempty"`
	FocusAreas         []string `json:"focus_areas,omitempty"`
	CustomInstructions string   `json:"custom_instructions,omitempty"`
}

// IsEmpty reports whether no focus was requested
func (f Focus) IsEmpty() bool {
	return len(f.EvidenceTypes) == 0 && len(f.FocusAreas) == 0 && strings.TrimSpace(f.CustomInstructions) == ""
}

// CaseInput is the validated case material that starts a pipeline run.
// Build it with NewCaseInput; stages treat it as read-only.
type CaseInput struct {
	CaseType     CaseType        `json:"case_type" validate:"required,oneof=traffic_accident crime_scene personal_injury other"`
	Documents    []Document      `json:"documents" validate:"dive"`
	FreeText     string          `json:"free_text,omitempty"`
	Style        Style           `json:"style" validate:"required,oneof=professional technical dramatic jury_friendly"`
	QualityLevel int             `json:"quality_level" validate:"min=1,max=10"`
	Options      map[string]bool `json:"options,omitempty"`
	Focus        Focus           `json:"focus"`
}

// CaseInputError reports why a CaseInput could not be constructed
type CaseInputError struct {
	Message string
	Cause   error
}

func (e *CaseInputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid case input: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid case input: %s", e.Message)
}

func (e *CaseInputError) Unwrap() error {
	return e.Cause
}

var validate = validator.New()

// NewCaseInput copies the given material into a new CaseInput and validates it.
// A zero QualityLevel is replaced by the default of 8.
func NewCaseInput(in CaseInput) (*CaseInput, error) {
	c := in.clone()
	if c.QualityLevel == 0 {
		c.QualityLevel = defaultQualityLevel
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks field constraints and that some case material is present
func (c *CaseInput) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &CaseInputError{Message: "field validation failed", Cause: err}
	}
	if len(c.Documents) == 0 && strings.TrimSpace(c.FreeText) == "" {
		return &CaseInputError{Message: "at least one document or non-empty free text is required"}
	}
	return nil
}

// Option returns the named boolean option, false when unset
func (c *CaseInput) Option(name string) bool {
	return c.Options[name]
}

func (c CaseInput) clone() *CaseInput {
	out := c
	out.Documents = make([]Document, len(c.Documents))
	for i, d := range c.Documents {
		d.Data = append([]byte(nil), d.Data...)
		out.Documents[i] = d
	}
	out.Options = make(map[string]bool, len(c.Options))
	for k, v := range c.Options {
		out.Options[k] = v
	}
	out.Focus.EvidenceTypes = append([]string(nil), c.Focus.EvidenceTypes...)
	out.Focus.FocusAreas = append([]string(nil), c.Focus.FocusAreas...)
	return &out
}
