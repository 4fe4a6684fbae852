// Package imagegen turns an image generation plan into generated artifacts. Each
// shot gets at most three attempts; shots run concurrently but results keep
// plan order.
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jonathan/courtroom-viz/internal/llm"
	"github.com/jonathan/courtroom-viz/internal/types"
)

// MaxAttempts is the number of generation attempts per shot
const MaxAttempts = 3

// Defaults for Options
const (
	DefaultConcurrency    = 2
	DefaultInitialBackoff = 2 * time.Second
	DefaultMaxBackoff     = 10 * time.Second
)

// Options configures a Driver
type Options struct {
	// Concurrency bounds the number of shots in flight
	Concurrency int
	// RequestsPerMinute throttles calls to the image model; zero is unlimited
	RequestsPerMinute float64
	Burst             int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	Logger            *slog.Logger
	// OnShot is called once per finished shot, never concurrently
	OnShot func(index int, artifact types.GeneratedArtifact)
}

// Driver executes shot plans against an image generator
type Driver struct {
	generator llm.ImageGenerator
	checker   ConsistencyChecker
	limiter   *rate.Limiter
	opts      Options
	logger    *slog.Logger
}

// Request is everything needed to generate the images for one run
type Request struct {
	Plan       types.ImageGenerationPlan
	Characters types.CharacterRoster
	Quality    int
}

// NewDriver creates a driver. checker may be nil, in which case only
// decodability is checked.
func NewDriver(generator llm.ImageGenerator, checker ConsistencyChecker, opts Options) (*Driver, error) {
	if generator == nil {
		return nil, fmt.Errorf("image generator is required")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = DefaultInitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = DefaultMaxBackoff
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = opts.InitialBackoff
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Limit(opts.RequestsPerMinute / 60)
	}

	return &Driver{
		generator: generator,
		checker:   checker,
		limiter:   rate.NewLimiter(limit, opts.Burst),
		opts:      opts,
		logger:    logger,
	}, nil
}

// Generate produces one artifact per planned shot, in plan order. A failed shot
// never stops the others.
func (d *Driver) Generate(ctx context.Context, req Request) []types.GeneratedArtifact {
	shots := req.Plan.Shots
	artifacts := make([]types.GeneratedArtifact, len(shots))
	descriptors := NewDescriptorIndex(req.Characters)
	objects := make(map[string]string, len(req.Characters.Objects))
	for _, o := range req.Characters.Objects {
		objects[o.ID] = o.Description
	}

	var notifyMu sync.Mutex
	var g errgroup.Group
	g.SetLimit(d.opts.Concurrency)

	for i, shot := range shots {
		g.Go(func() error {
			artifact := d.generateShot(ctx, shot, descriptors, objects, req.Quality)
			artifacts[i] = artifact
			if d.opts.OnShot != nil {
				notifyMu.Lock()
				d.opts.OnShot(i, artifact)
				notifyMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return artifacts
}

func (d *Driver) generateShot(ctx context.Context, shot types.ShotSpec, descriptors *DescriptorIndex, objects map[string]string, quality int) types.GeneratedArtifact {
	logger := d.logger.With("shot_id", shot.ID)

	refs, missing := descriptors.Lookup(shot.IncludedCharacterIDs)
	if len(missing) > 0 {
		logger.Warn("shot references unknown characters", "missing", missing)
	}

	wait := d.newBackoff()
	attempts := 0
	var lastErr error

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, wait.NextBackOff()); err != nil {
				lastErr = err
				break
			}
		}
		if err := d.limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}

		attempts = attempt
		img, err := d.attempt(ctx, shot, refs, objects, quality, attempt)
		if err == nil {
			logger.Info("shot generated", "attempt", attempt, "bytes", len(img.Data))
			return types.GeneratedArtifact{
				ShotID:       shot.ID,
				Status:       types.ArtifactSuccess,
				ImageBytes:   img.Data,
				MIMEType:     img.MIMEType,
				AttemptCount: attempt,
			}
		}
		lastErr = err
		logger.Warn("shot attempt failed", "attempt", attempt, "error", err)
		if ctx.Err() != nil {
			break
		}
	}

	failure := &ShotGenerationError{ShotID: shot.ID, Attempts: attempts, Cause: lastErr}
	logger.Error("shot exhausted", "attempts", attempts, "error", lastErr)
	return types.GeneratedArtifact{
		ShotID:       shot.ID,
		Status:       types.ArtifactFailedExhausted,
		AttemptCount: attempts,
		LastError:    failure.Error(),
	}
}

// attempt makes one generation call and checks the result
func (d *Driver) attempt(ctx context.Context, shot types.ShotSpec, refs []string, objects map[string]string, quality, attempt int) (*llm.Image, error) {
	prompt, err := BuildPrompt(shot, objects, quality, attempt)
	if err != nil {
		return nil, err
	}

	img, err := d.generator.GenerateImage(ctx, llm.ImageRequest{
		Prompt:               prompt,
		ReferenceDescriptors: refs,
	})
	if err != nil {
		if errors.Is(err, llm.ErrNoImage) {
			return nil, fmt.Errorf("%w: %v", ErrEmptyImage, err)
		}
		return nil, err
	}

	candidate, err := decode(img)
	if err != nil {
		return nil, err
	}
	if d.checker != nil {
		if err := d.checker.Check(ctx, shot, candidate); err != nil {
			return nil, err
		}
	}
	return candidate.Image, nil
}

func (d *Driver) newBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.opts.InitialBackoff
	b.MaxInterval = d.opts.MaxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
