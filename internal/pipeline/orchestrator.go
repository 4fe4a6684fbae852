// Package pipeline runs the analysis stages in order and hands the resulting
// plan to the image generation driver.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/courtroom-viz/internal/agents"
	"github.com/jonathan/courtroom-viz/internal/imagegen"
	"github.com/jonathan/courtroom-viz/internal/observability"
	"github.com/jonathan/courtroom-viz/internal/pipeline/steps"
	"github.com/jonathan/courtroom-viz/internal/stages"
	"github.com/jonathan/courtroom-viz/internal/storage"
	"github.com/jonathan/courtroom-viz/internal/types"
)

// Generator produces the artifacts for a plan, one per shot in plan order
type Generator interface {
	Generate(ctx context.Context, req imagegen.Request) []types.GeneratedArtifact
}

// Recorder persists run metadata, stage outputs, and shot results
type Recorder interface {
	CreateRun(ctx context.Context, runID uuid.UUID, caseType types.CaseType, style types.Style) error
	SaveArtifact(ctx context.Context, runID uuid.UUID, step, category string, content any) error
	SaveShot(ctx context.Context, runID uuid.UUID, index int, artifact types.GeneratedArtifact) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status string) error
}

// Options holds the optional collaborators of an Orchestrator
type Options struct {
	// Store receives successful images. Nil keeps them in memory only.
	Store storage.ImageStore
	// Recorder persists the run. Nil disables persistence.
	Recorder Recorder
	// Printer renders stage outputs when set
	Printer    *observability.Printer
	Logger     *slog.Logger
	OnProgress ProgressCallback
}

// Orchestrator executes the analysis stages strictly in sequence
type Orchestrator struct {
	stages     []stages.Stage
	registry   *steps.Registry
	generator  Generator
	store      storage.ImageStore
	recorder   Recorder
	printer    *observability.Printer
	logger     *slog.Logger
	onProgress ProgressCallback
}

// New creates an orchestrator. The stage order is validated: every stage's
// dependencies must come before it. generator may be nil for analysis-only use.
func New(stageList []stages.Stage, generator Generator, opts Options) (*Orchestrator, error) {
	if len(stageList) == 0 {
		return nil, fmt.Errorf("at least one stage is required")
	}

	defs := make([]steps.StepDefinition, 0, len(stageList)+1)
	names := make([]string, 0, len(stageList))
	for _, s := range stageList {
		defs = append(defs, steps.StepDefinition{
			Name:         s.Name(),
			Category:     steps.CategoryAnalysis,
			Dependencies: s.Dependencies(),
		})
		names = append(names, s.Name())
	}
	defs = append(defs, steps.StepDefinition{
		Name:         steps.GenerateImages,
		Category:     steps.CategoryGeneration,
		Dependencies: names,
	})

	registry, err := steps.NewRegistry(defs)
	if err != nil {
		return nil, fmt.Errorf("invalid stage order: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		stages:     stageList,
		registry:   registry,
		generator:  generator,
		store:      opts.Store,
		recorder:   opts.Recorder,
		printer:    opts.Printer,
		logger:     logger,
		onProgress: opts.OnProgress,
	}, nil
}

// WithProgress returns a copy of o that reports progress to cb
func (o *Orchestrator) WithProgress(cb ProgressCallback) *Orchestrator {
	cp := *o
	cp.onProgress = cb
	return &cp
}

// Steps returns the validated step order, generation included
func (o *Orchestrator) Steps() []steps.StepDefinition {
	return o.registry.Steps()
}

// Execute runs the analysis stages. On failure it returns a *PipelineFailure and
// no partial result.
func (o *Orchestrator) Execute(ctx context.Context, input *types.CaseInput) (*types.PipelineResult, error) {
	return o.execute(ctx, uuid.Nil, input)
}

// Run executes the analysis stages and then generates every planned shot. Image
// generation never starts when analysis fails.
func (o *Orchestrator) Run(ctx context.Context, input *types.CaseInput) (*types.ResultSet, error) {
	if o.generator == nil {
		return nil, fmt.Errorf("image generator is not configured")
	}

	if input == nil {
		return nil, fmt.Errorf("case input is required")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New()
	started := time.Now().UTC()
	logger := o.logger.With("run_id", runID)
	if o.recorder != nil {
		if err := o.recorder.CreateRun(ctx, runID, input.CaseType, input.Style); err != nil {
			logger.Warn("failed to create run record", "error", err)
		}
	}
	o.emitProgress(runID.String(), "run", "", "Run started", nil)

	analysis, err := o.execute(ctx, runID, input)
	if err != nil {
		o.complete(ctx, runID, StatusFailed)
		o.emitProgress(runID.String(), "run", "", "Run failed", err.Error())
		return nil, err
	}

	completed := make(map[string]bool, len(o.stages))
	for _, s := range o.stages {
		completed[s.Name()] = true
	}
	if err := o.registry.ValidateDependencies(steps.GenerateImages, completed); err != nil {
		o.complete(ctx, runID, StatusFailed)
		return nil, err
	}

	shots := len(analysis.Plan.Shots)
	logger.Info("generating images", "shots", shots)
	o.emitProgress(runID.String(), steps.GenerateImages, steps.CategoryGeneration,
		fmt.Sprintf("Generating %d image(s)", shots), nil)

	artifacts := o.generator.Generate(ctx, imagegen.Request{
		Plan:       *analysis.Plan,
		Characters: *analysis.Characters,
		Quality:    input.QualityLevel,
	})

	for i := range artifacts {
		o.persistShot(ctx, runID, i, &artifacts[i])
		o.emitProgress(runID.String(), steps.GenerateImages, steps.CategoryGeneration,
			fmt.Sprintf("Shot %s: %s after %d attempt(s)", artifacts[i].ShotID, artifacts[i].Status, artifacts[i].AttemptCount),
			artifacts[i])
	}

	rs := &types.ResultSet{
		RunID:      runID,
		Artifacts:  artifacts,
		Analysis:   *analysis,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}

	logger.Info("run complete", "succeeded", rs.Succeeded(), "failed", rs.Failed())
	if o.printer != nil {
		o.printer.PrintResultSet(rs)
	}
	o.complete(ctx, runID, StatusCompleted)
	o.emitProgress(runID.String(), "run", "", "Run complete", nil)
	return rs, nil
}

func (o *Orchestrator) execute(ctx context.Context, runID uuid.UUID, input *types.CaseInput) (*types.PipelineResult, error) {
	if input == nil {
		return nil, fmt.Errorf("case input is required")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var result types.PipelineResult
	completed := make(map[string]bool, len(o.stages))
	total := len(o.stages)

	for _, stage := range o.stages {
		name := stage.Name()
		pos := o.registry.Position(name)
		if err := o.registry.ValidateDependencies(name, completed); err != nil {
			return nil, newFailure(name, pos, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, newFailure(name, pos, err)
		}

		o.logger.Info("running stage", "stage", name, "step", fmt.Sprintf("%d/%d", pos, total))
		o.emitProgress(runID.String(), name, steps.CategoryAnalysis,
			fmt.Sprintf("Step %d/%d: %s", pos, total, name), nil)

		next, err := stage.Run(ctx, input, result)
		if err != nil {
			o.logger.Error("stage failed", "stage", name, "error", err)
			return nil, newFailure(name, pos, err)
		}
		result = next
		completed[name] = true

		output := stageOutput(result, name)
		if o.printer != nil {
			o.printer.PrintStageOutput(name, output)
		}
		o.emitProgress(runID.String(), name, steps.CategoryAnalysis,
			fmt.Sprintf("Completed %s", name), output)
		if o.recorder != nil && runID != uuid.Nil {
			if err := o.recorder.SaveArtifact(ctx, runID, name, steps.CategoryAnalysis, output); err != nil {
				o.logger.Warn("failed to save stage output", "stage", name, "error", err)
			}
		}
	}

	if !result.Complete() {
		return nil, newFailure(o.stages[total-1].Name(), total, fmt.Errorf("analysis finished without a complete result"))
	}
	return &result, nil
}

// stageOutput returns the output the named stage contributes to r
func stageOutput(r types.PipelineResult, name string) any {
	switch name {
	case agents.ForensicAnalyst:
		return r.Evidence
	case agents.SceneReconstructor:
		return r.Reconstruction
	case agents.CharacterProfiler:
		return r.Characters
	case agents.VisualDirector:
		return r.Plan
	default:
		return nil
	}
}

func (o *Orchestrator) persistShot(ctx context.Context, runID uuid.UUID, index int, artifact *types.GeneratedArtifact) {
	if o.store != nil && artifact.Status == types.ArtifactSuccess && len(artifact.ImageBytes) > 0 {
		name := storage.ObjectName(artifact.ShotID, artifact.MIMEType)
		uri, err := o.store.Put(ctx, runID, name, artifact.ImageBytes, artifact.MIMEType)
		if err != nil {
			o.logger.Warn("failed to store image", "shot_id", artifact.ShotID, "error", err)
		} else {
			artifact.StorageURI = uri
		}
	}
	if o.recorder != nil {
		if err := o.recorder.SaveShot(ctx, runID, index, *artifact); err != nil {
			o.logger.Warn("failed to save shot", "shot_id", artifact.ShotID, "error", err)
		}
	}
}

func (o *Orchestrator) complete(ctx context.Context, runID uuid.UUID, status string) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.CompleteRun(context.WithoutCancel(ctx), runID, status); err != nil {
		o.logger.Warn("failed to complete run record", "status", status, "error", err)
	}
}
