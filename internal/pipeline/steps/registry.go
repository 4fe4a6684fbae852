// Package steps provides step definitions and dependency validation for the
// analysis and generation pipeline.
package steps

import (
	"fmt"
)

// Step categories
const (
	CategoryAnalysis   = "analysis"
	CategoryGeneration = "generation"
)

// GenerateImages is the step that runs the image generation driver
const GenerateImages = "generate_images"

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// Registry is an ordered, validated list of steps
type Registry struct {
	order []StepDefinition
	index map[string]int
}

// NewRegistry validates that every step's dependencies are declared earlier in
// order and that names are unique.
func NewRegistry(order []StepDefinition) (*Registry, error) {
	r := &Registry{
		order: make([]StepDefinition, len(order)),
		index: make(map[string]int, len(order)),
	}
	copy(r.order, order)

	for i, def := range order {
		if def.Name == "" {
			return nil, fmt.Errorf("step %d has no name", i+1)
		}
		if _, dup := r.index[def.Name]; dup {
			return nil, fmt.Errorf("duplicate step: %s", def.Name)
		}

		var missing []string
		for _, dep := range def.Dependencies {
			if _, ok := r.index[dep]; !ok {
				missing = append(missing, dep)
			}
		}
		if len(missing) > 0 {
			return nil, &DependencyError{Step: def.Name, MissingDependencies: missing}
		}
		r.index[def.Name] = i
	}
	return r, nil
}

// Get returns a step definition by name
func (r *Registry) Get(name string) (StepDefinition, bool) {
	i, ok := r.index[name]
	if !ok {
		return StepDefinition{}, false
	}
	return r.order[i], true
}

// Position returns the 1-based position of a step
func (r *Registry) Position(name string) int {
	if i, ok := r.index[name]; ok {
		return i + 1
	}
	return 0
}

// Steps returns the step definitions in order
func (r *Registry) Steps() []StepDefinition {
	out := make([]StepDefinition, len(r.order))
	copy(out, r.order)
	return out
}

// ValidateDependencies checks that all dependencies of a step are in completed
func (r *Registry) ValidateDependencies(stepName string, completed map[string]bool) error {
	def, ok := r.Get(stepName)
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Step: stepName, MissingDependencies: missing}
	}
	return nil
}
