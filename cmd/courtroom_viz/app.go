package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jonathan/courtroom-viz/internal/agents"
	"github.com/jonathan/courtroom-viz/internal/config"
	"github.com/jonathan/courtroom-viz/internal/db"
	"github.com/jonathan/courtroom-viz/internal/imagegen"
	"github.com/jonathan/courtroom-viz/internal/llm"
	"github.com/jonathan/courtroom-viz/internal/observability"
	"github.com/jonathan/courtroom-viz/internal/pipeline"
	"github.com/jonathan/courtroom-viz/internal/stages"
	"github.com/jonathan/courtroom-viz/internal/storage"
)

// app holds the wired pipeline and everything that must be closed after it
type app struct {
	orchestrator *pipeline.Orchestrator
	store        storage.ImageStore
	database     *db.DB
	closers      []io.Closer
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
	if a.database != nil {
		a.database.Close()
	}
}

// appOptions selects which parts of the pipeline are wired
type appOptions struct {
	withImages bool
	// printTo receives formatted stage output; nil disables it
	printTo io.Writer
}

// buildApp connects the reasoning client, stages, image driver, storage and
// optional database described by cfg.
func buildApp(ctx context.Context, cfg config.Config, logger *slog.Logger, opts appOptions) (*app, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	reg, err := loadAgents(cfg.AgentsFile)
	if err != nil {
		return nil, err
	}

	llmConfig := llm.DefaultConfig()
	client, err := llm.NewClient(ctx, llmConfig, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.closers = append(a.closers, client)

	stageList, err := stages.Build(reg, client, stages.Options{
		Reader:  client,
		Logger:  logger,
		Timeout: time.Duration(cfg.StageTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build stages: %w", err)
	}

	var generator pipeline.Generator
	if opts.withImages {
		imageClient, err := llm.NewGenAIImageClient(ctx, llmConfig, cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create image client: %w", err)
		}
		a.closers = append(a.closers, imageClient)

		checker := imagegen.Chain{}
		if cfg.MinWidth > 0 || cfg.MinHeight > 0 {
			checker = append(checker, imagegen.MinResolution{Width: cfg.MinWidth, Height: cfg.MinHeight})
		}
		if cfg.CheckFigures {
			checker = append(checker, imagegen.FigureCount{Inspector: imageClient})
		}

		driver, err := imagegen.NewDriver(imageClient, checker, imagegen.Options{
			Concurrency:       cfg.Concurrency,
			RequestsPerMinute: cfg.RequestsPerMinute,
			Logger:            logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create image driver: %w", err)
		}
		generator = driver

		a.store, err = newImageStore(cfg)
		if err != nil {
			return nil, err
		}
	}

	pipelineOpts := pipeline.Options{Store: a.store, Logger: logger}
	if opts.printTo != nil {
		pipelineOpts.Printer = observability.NewPrinter(opts.printTo)
	}

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.database = database
		if err := database.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		pipelineOpts.Recorder = database
	}

	a.orchestrator, err = pipeline.New(stageList, generator, pipelineOpts)
	if err != nil {
		return nil, err
	}

	ok = true
	return a, nil
}

func loadAgents(path string) (*agents.Registry, error) {
	if path == "" {
		return agents.Default()
	}
	reg, err := agents.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load stage definitions: %w", err)
	}
	return reg, nil
}

func newImageStore(cfg config.Config) (storage.ImageStore, error) {
	if !cfg.UseS3 {
		return storage.NewLocalStore(cfg.OutputDir), nil
	}
	store, err := storage.NewS3Store(config.S3FromEnv())
	if err != nil {
		return nil, fmt.Errorf("failed to configure S3 storage: %w", err)
	}
	return store, nil
}
