package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/courtroom-viz/internal/agents"
	"github.com/jonathan/courtroom-viz/internal/imagegen"
	"github.com/jonathan/courtroom-viz/internal/llm"
	"github.com/jonathan/courtroom-viz/internal/stages"
	"github.com/jonathan/courtroom-viz/internal/storage"
	"github.com/jonathan/courtroom-viz/internal/types"
)

// fakeStages returns four stages that append their name to calls and fill in
// their part of the result
func fakeStages(calls *[]string, failAt int) []stages.Stage {
	fill := []func(*types.PipelineResult){
		func(r *types.PipelineResult) {
			r.Evidence = &types.EvidenceAnalysis{Evidence: []types.EvidenceRecord{{ID: "E1"}}}
		},
		func(r *types.PipelineResult) { r.Reconstruction = &types.SceneReconstruction{} },
		func(r *types.PipelineResult) { r.Characters = &types.CharacterRoster{} },
		func(r *types.PipelineResult) {
			r.Plan = &types.ImageGenerationPlan{Shots: []types.ShotSpec{{ID: "shot_1"}}}
		},
	}
	names := []string{agents.ForensicAnalyst, agents.SceneReconstructor, agents.CharacterProfiler, agents.VisualDirector}

	out := make([]stages.Stage, len(names))
	for i, name := range names {
		var deps []string
		if i > 0 {
			deps = []string{names[i-1]}
		}
		out[i] = &MockStage{
			name: name,
			deps: deps,
			RunFunc: func(_ context.Context, _ *types.CaseInput, prior types.PipelineResult) (types.PipelineResult, error) {
				*calls = append(*calls, name)
				if i+1 == failAt {
					return prior, &stages.StageExecutionError{Stage: name, Index: i + 1, Kind: stages.KindValidation, Cause: errors.New("bad output")}
				}
				fill[i](&prior)
				return prior, nil
			},
		}
	}
	return out
}

func TestNew_RejectsDependencyAfterStage(t *testing.T) {
	stageList := []stages.Stage{
		&MockStage{name: "a", deps: []string{"b"}},
		&MockStage{name: "b"},
	}
	_, err := New(stageList, nil, Options{Logger: discardLogger()})
	assert.ErrorContains(t, err, "invalid stage order")

	_, err = New(nil, nil, Options{})
	assert.Error(t, err)
}

func TestNew_StepsEndWithGeneration(t *testing.T) {
	var calls []string
	o, err := New(fakeStages(&calls, 0), nil, Options{Logger: discardLogger()})
	require.NoError(t, err)

	steps := o.Steps()
	require.Len(t, steps, 5)
	assert.Equal(t, agents.ForensicAnalyst, steps[0].Name)
	assert.Equal(t, "generate_images", steps[4].Name)
}

func TestExecute_RunsStagesInOrder(t *testing.T) {
	var calls []string
	o, err := New(fakeStages(&calls, 0), nil, Options{Logger: discardLogger()})
	require.NoError(t, err)

	result, err := o.Execute(context.Background(), trafficCase(t))
	require.NoError(t, err)
	assert.True(t, result.Complete())
	assert.Equal(t, []string{
		agents.ForensicAnalyst, agents.SceneReconstructor, agents.CharacterProfiler, agents.VisualDirector,
	}, calls)
}

func TestExecute_StopsAtFailedStage(t *testing.T) {
	for failAt := 1; failAt <= 4; failAt++ {
		var calls []string
		o, err := New(fakeStages(&calls, failAt), nil, Options{Logger: discardLogger()})
		require.NoError(t, err)

		result, err := o.Execute(context.Background(), trafficCase(t))
		assert.Nil(t, result)

		var failure *PipelineFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, failAt, failure.Index)
		assert.Equal(t, calls[failAt-1], failure.FailedStage)
		assert.Len(t, calls, failAt, "no stage runs after a failure")

		var stageErr *stages.StageExecutionError
		assert.ErrorAs(t, err, &stageErr)
	}
}

func TestExecute_InvalidInput(t *testing.T) {
	var calls []string
	o, err := New(fakeStages(&calls, 0), nil, Options{Logger: discardLogger()})
	require.NoError(t, err)

	_, err = o.Execute(context.Background(), &types.CaseInput{CaseType: types.CaseTypeOther, Style: types.StyleProfessional, QualityLevel: 5})
	var inputErr *types.CaseInputError
	assert.ErrorAs(t, err, &inputErr)
	assert.Empty(t, calls)

	_, err = o.Execute(context.Background(), nil)
	assert.Error(t, err)
}

func TestExecute_CancelledContext(t *testing.T) {
	var calls []string
	o, err := New(fakeStages(&calls, 0), nil, Options{Logger: discardLogger()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = o.Execute(ctx, trafficCase(t))

	var failure *PipelineFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, 1, failure.Index)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, calls)
}

func TestPipelineFailure_Message(t *testing.T) {
	err := &PipelineFailure{FailedStage: "scene_reconstructor", Index: 2, Cause: errors.New("boom")}
	assert.Equal(t, "pipeline failed at stage 2 (scene_reconstructor): boom", err.Error())
}

// newRealPipeline wires the production stages and driver against mocks
func newRealPipeline(t *testing.T, client llm.Client, gen llm.ImageGenerator, opts Options) *Orchestrator {
	t.Helper()
	reg, err := agents.Default()
	require.NoError(t, err)
	stageList, err := stages.Build(reg, client, stages.Options{Logger: discardLogger()})
	require.NoError(t, err)

	driver, err := imagegen.NewDriver(gen, nil, imagegen.Options{
		InitialBackoff: 1,
		MaxBackoff:     2,
		Logger:         discardLogger(),
	})
	require.NoError(t, err)

	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	o, err := New(stageList, driver, opts)
	require.NoError(t, err)
	return o
}

func TestRun_TrafficAccidentWithRetries(t *testing.T) {
	client := &MockLLMClient{GenerateJSONFunc: respondByRole(stageFixtures(t))}

	png := pngBytes(t)
	var mu sync.Mutex
	impactAttempts := 0
	gen := &MockImageGenerator{GenerateImageFunc: func(_ context.Context, req llm.ImageRequest) (*llm.Image, error) {
		if strings.Contains(req.Prompt, "Sedan meets post") {
			mu.Lock()
			impactAttempts++
			n := impactAttempts
			mu.Unlock()
			if n < 3 {
				return nil, errors.New("model overloaded")
			}
		}
		return &llm.Image{Data: png, MIMEType: "image/png"}, nil
	}}

	recorder := &MockRecorder{}
	store := storage.NewLocalStore(t.TempDir())
	var events []ProgressEvent
	var eventsMu sync.Mutex

	o := newRealPipeline(t, client, gen, Options{
		Store:    store,
		Recorder: recorder,
		OnProgress: func(e ProgressEvent) {
			eventsMu.Lock()
			events = append(events, e)
			eventsMu.Unlock()
		},
	})

	rs, err := o.Run(context.Background(), trafficCase(t))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, rs.Analysis.Evidence.CountByCategory(types.EvidenceTestimonial), 1)
	require.Len(t, rs.Artifacts, len(rs.Analysis.Plan.Shots))
	for i, shot := range rs.Analysis.Plan.Shots {
		assert.Equal(t, shot.ID, rs.Artifacts[i].ShotID)
		assert.Equal(t, types.StyleProfessional, shot.Style)
	}

	impact, ok := rs.Artifact("shot_2")
	require.True(t, ok)
	assert.Equal(t, types.ArtifactSuccess, impact.Status)
	assert.Equal(t, 3, impact.AttemptCount)
	assert.Equal(t, 3, rs.Succeeded())
	assert.Equal(t, 0, rs.Failed())

	for _, a := range rs.Artifacts {
		assert.NotEmpty(t, a.StorageURI)
		data, err := store.Get(context.Background(), rs.RunID, storage.ObjectName(a.ShotID, a.MIMEType))
		require.NoError(t, err)
		assert.Equal(t, png, data)
	}

	assert.Equal(t, []uuid.UUID{rs.RunID}, recorder.created)
	assert.Equal(t, []string{
		agents.ForensicAnalyst, agents.SceneReconstructor, agents.CharacterProfiler, agents.VisualDirector,
	}, recorder.artifacts)
	assert.Len(t, recorder.shots, 3)
	assert.Equal(t, []string{StatusCompleted}, recorder.statuses)

	assert.NotEmpty(t, events)
	for _, e := range events {
		assert.Equal(t, rs.RunID.String(), e.RunID)
	}
	assert.False(t, rs.FinishedAt.Before(rs.StartedAt))
}

func TestRun_MalformedStageTwoGeneratesNothing(t *testing.T) {
	fixtures := stageFixtures(t)
	fixtures["Crime Scene Reconstruction Specialist"] = `{"timeline": "not an array"}`
	client := &MockLLMClient{GenerateJSONFunc: respondByRole(fixtures)}

	gen := &MockImageGenerator{GenerateImageFunc: func(context.Context, llm.ImageRequest) (*llm.Image, error) {
		t.Fatal("image generation must not start")
		return nil, nil
	}}
	recorder := &MockRecorder{}
	o := newRealPipeline(t, client, gen, Options{Recorder: recorder})

	rs, err := o.Run(context.Background(), trafficCase(t))
	assert.Nil(t, rs)

	var failure *PipelineFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, 2, failure.Index)
	assert.Equal(t, agents.SceneReconstructor, failure.FailedStage)
	assert.Equal(t, 0, gen.Calls())
	assert.Equal(t, []string{agents.ForensicAnalyst}, recorder.artifacts)
	assert.Equal(t, []string{StatusFailed}, recorder.statuses)
}

func TestRun_SharedCharacterDescriptorsAreIdentical(t *testing.T) {
	client := &MockLLMClient{GenerateJSONFunc: respondByRole(stageFixtures(t))}
	png := pngBytes(t)
	gen := &MockImageGenerator{GenerateImageFunc: func(context.Context, llm.ImageRequest) (*llm.Image, error) {
		return &llm.Image{Data: png, MIMEType: "image/png"}, nil
	}}
	o := newRealPipeline(t, client, gen, Options{})

	_, err := o.Run(context.Background(), trafficCase(t))
	require.NoError(t, err)

	var driverDescriptor []string
	for _, req := range gen.requests {
		for _, d := range req.ReferenceDescriptors {
			if strings.Contains(d, "Driver, driver of the sedan") {
				driverDescriptor = append(driverDescriptor, d)
			}
		}
	}
	require.Len(t, driverDescriptor, 2, "driver_1 appears in two shots")
	assert.Equal(t, driverDescriptor[0], driverDescriptor[1])
	assert.Regexp(t, `^\[CHR-01-[0-9a-f]{8}\] `, driverDescriptor[0])
}

func TestRun_RequiresGenerator(t *testing.T) {
	var calls []string
	o, err := New(fakeStages(&calls, 0), nil, Options{Logger: discardLogger()})
	require.NoError(t, err)

	_, err = o.Run(context.Background(), trafficCase(t))
	assert.Error(t, err)
	assert.Empty(t, calls)
}

func TestWithProgress_DoesNotChangeOriginal(t *testing.T) {
	var calls []string
	o, err := New(fakeStages(&calls, 0), nil, Options{Logger: discardLogger()})
	require.NoError(t, err)

	var got []ProgressEvent
	withCb := o.WithProgress(func(e ProgressEvent) { got = append(got, e) })

	_, err = o.Execute(context.Background(), trafficCase(t))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = withCb.Execute(context.Background(), trafficCase(t))
	require.NoError(t, err)
	assert.Len(t, got, 8, "a start and a completion event per stage")
}

func TestExecute_ProgressCarriesRegistryPosition(t *testing.T) {
	var calls []string
	var got []string
	o, err := New(fakeStages(&calls, 0), nil, Options{
		Logger: discardLogger(),
		OnProgress: func(e ProgressEvent) {
			if strings.HasPrefix(e.Message, "Step ") {
				got = append(got, e.Message)
			}
		},
	})
	require.NoError(t, err)

	_, err = o.Execute(context.Background(), trafficCase(t))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Step 1/4: " + agents.ForensicAnalyst,
		"Step 2/4: " + agents.SceneReconstructor,
		"Step 3/4: " + agents.CharacterProfiler,
		"Step 4/4: " + agents.VisualDirector,
	}, got)
	for i, name := range calls {
		assert.Equal(t, i+1, o.registry.Position(name))
	}
}
