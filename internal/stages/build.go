package stages

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/courtroom-viz/internal/agents"
	"github.com/jonathan/courtroom-viz/internal/llm"
)

// Options configures the stages built by Build
type Options struct {
	// Reader extracts text from binary documents. Nil skips them.
	Reader llm.DocumentReader
	Logger *slog.Logger
	// Timeout overrides every definition's timeout when positive
	Timeout time.Duration
}

// Build constructs the stages named in reg, in registry order
func Build(reg *agents.Registry, client llm.Client, opts Options) ([]Stage, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	defs := reg.Definitions()
	out := make([]Stage, 0, len(defs))
	for i, def := range defs {
		if opts.Timeout > 0 {
			def.Timeout = opts.Timeout
		}
		base := agent{
			def:    def,
			index:  i + 1,
			client: client,
			logger: logger.With("stage", def.Name),
		}

		switch def.Name {
		case agents.ForensicAnalyst:
			out = append(out, &ForensicAnalyst{agent: base, reader: opts.Reader})
		case agents.SceneReconstructor:
			out = append(out, &SceneReconstructor{agent: base})
		case agents.CharacterProfiler:
			out = append(out, &CharacterProfiler{agent: base})
		case agents.VisualDirector:
			out = append(out, &VisualDirector{agent: base})
		default:
			return nil, fmt.Errorf("no stage implementation for %q", def.Name)
		}
	}
	return out, nil
}
