// Package agents loads the definitions that parameterize each analysis stage:
// persona, task, expected output, output schema, model tier, and timeout.
package agents

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/courtroom-viz/internal/llm"
)

// Stage names
const (
	ForensicAnalyst    = "forensic_analyst"
	SceneReconstructor = "scene_reconstructor"
	CharacterProfiler  = "character_profiler"
	VisualDirector     = "visual_director"
)

// DefaultTimeout applies to stages whose definition omits a timeout
const DefaultTimeout = 120 * time.Second

//go:embed agents.yaml
var embeddedDefinitions []byte

// Definition describes one analysis stage
type Definition struct {
	Name           string        `yaml:"name"`
	Role           string        `yaml:"role"`
	Goal           string        `yaml:"goal"`
	Backstory      string        `yaml:"backstory"`
	Task           string        `yaml:"task"`
	ExpectedOutput string        `yaml:"expected_output"`
	Schema         string        `yaml:"schema"`
	Tier           llm.ModelTier `yaml:"tier"`
	Timeout        time.Duration `yaml:"timeout"`
	DependsOn      []string      `yaml:"depends_on"`
}

// Registry holds stage definitions in execution order
type Registry struct {
	defs []Definition
}

type document struct {
	Stages []Definition `yaml:"stages"`
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the embedded definitions, parsed once
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = Parse(embeddedDefinitions)
	})
	return defaultRegistry, defaultErr
}

// LoadFile parses definitions from a YAML file on disk
func LoadFile(path string) (*Registry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("agents: read %s: %w", path, err)
	}
	reg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("agents: %s: %w", path, err)
	}
	return reg, nil
}

// Parse decodes and checks a definitions document
func Parse(data []byte) (*Registry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("agents: definition payload is empty")
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("agents: decode definitions: %w", err)
	}

	seen := make(map[string]bool, len(doc.Stages))
	for i := range doc.Stages {
		def := &doc.Stages[i]
		def.Name = strings.TrimSpace(def.Name)
		if def.Name == "" {
			return nil, fmt.Errorf("agents: stage %d has no name", i+1)
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("agents: duplicate stage %q", def.Name)
		}
		if def.Role == "" || def.Task == "" || def.Schema == "" {
			return nil, fmt.Errorf("agents: stage %q requires role, task and schema", def.Name)
		}
		for _, dep := range def.DependsOn {
			if !seen[dep] {
				return nil, fmt.Errorf("agents: stage %q depends on %q, which is not defined before it", def.Name, dep)
			}
		}
		if def.Tier == "" {
			def.Tier = llm.TierStandard
		}
		if def.Timeout <= 0 {
			def.Timeout = DefaultTimeout
		}
		seen[def.Name] = true
	}

	return &Registry{defs: doc.Stages}, nil
}

// Get returns the definition for a stage name
func (r *Registry) Get(name string) (Definition, error) {
	for _, def := range r.defs {
		if def.Name == name {
			return def, nil
		}
	}
	return Definition{}, fmt.Errorf("agents: stage %q not defined", name)
}

// Names returns stage names in execution order
func (r *Registry) Names() []string {
	names := make([]string, len(r.defs))
	for i, def := range r.defs {
		names[i] = def.Name
	}
	return names
}

// Definitions returns a copy of all definitions in execution order
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}
