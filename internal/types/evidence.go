package types

import (
	"fmt"
	"sort"
	"strings"
)

// EvidenceCategory classifies an evidence record
type EvidenceCategory string

// Evidence categories
const (
	EvidencePhysical       EvidenceCategory = "physical"
	EvidenceDigital        EvidenceCategory = "digital"
	EvidenceTestimonial    EvidenceCategory = "testimonial"
	EvidenceCircumstantial EvidenceCategory = "circumstantial"
)

// EvidenceRecord is a single item of evidence identified by the forensic analyst
type EvidenceRecord struct {
	ID              string           `json:"id" validate:"required"`
	Category        EvidenceCategory `json:"category" validate:"required,oneof=physical digital testimonial circumstantial"`
	Description     string           `json:"description" validate:"required"`
	TechnicalSpecs  map[string]any   `json:"technical_specs,omitempty"`
	SourceReference string           `json:"source_reference"`
	Location        string           `json:"location,omitempty"`
	Condition       string           `json:"condition,omitempty"`
	Relevance       string           `json:"relevance,omitempty"`
}

// SpecSummary renders the technical specs as "key=value" pairs sorted by key.
// Values may be strings, numbers or booleans.
func (r EvidenceRecord) SpecSummary() string {
	if len(r.TechnicalSpecs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(r.TechnicalSpecs))
	for k := range r.TechnicalSpecs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+fmt.Sprint(r.TechnicalSpecs[k]))
	}
	return strings.Join(parts, "; ")
}

// EvidenceAnalysis is the forensic analyst's output
type EvidenceAnalysis struct {
	CaseSummary string           `json:"case_summary"`
	Evidence    []EvidenceRecord `json:"evidence" validate:"required,min=1,dive"`
	LegalNotes  []string         `json:"legal_notes,omitempty"`
}

// IDs returns the set of evidence ids
func (e *EvidenceAnalysis) IDs() map[string]bool {
	ids := make(map[string]bool, len(e.Evidence))
	for _, rec := range e.Evidence {
		ids[rec.ID] = true
	}
	return ids
}

// CountByCategory returns how many records fall in the given category
func (e *EvidenceAnalysis) CountByCategory(category EvidenceCategory) int {
	n := 0
	for _, rec := range e.Evidence {
		if rec.Category == category {
			n++
		}
	}
	return n
}
