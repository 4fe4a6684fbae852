package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/courtroom-viz/internal/config"
	"github.com/jonathan/courtroom-viz/internal/fetch"
	"github.com/jonathan/courtroom-viz/internal/ingestion"
	"github.com/jonathan/courtroom-viz/internal/types"
)

// caseFlags are shared by the commands that run the pipeline
type caseFlags struct {
	configPath    string
	documents     []string
	documentURLs  []string
	text          string
	textFile      string
	caseType      string
	style         string
	quality       int
	options       []string
	evidenceTypes []string
	focusAreas    []string
	instructions  string
	apiKey        string
	databaseURL   string
	outputDir     string
	concurrency   int
	rpm           float64
	stageTimeout  int
	minWidth      int
	minHeight     int
	checkFigures  bool
	useS3         bool
	agentsFile    string
}

func (f *caseFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	fs.StringSliceVarP(&f.documents, "document", "d", nil, "Case document path (repeatable)")
	fs.StringSliceVar(&f.documentURLs, "document-url", nil, "URL of a remote case document (repeatable)")
	fs.StringVar(&f.text, "text", "", "Free-text case description (mutually exclusive with --text-file)")
	fs.StringVar(&f.textFile, "text-file", "", "File holding the free-text case description")
	fs.StringVar(&f.caseType, "case-type", "", "traffic_accident, crime_scene, personal_injury or other")
	fs.StringVar(&f.style, "style", "", "professional, technical, dramatic or jury_friendly")
	fs.IntVarP(&f.quality, "quality", "q", 0, "Image quality level 1-10")
	fs.StringSliceVar(&f.options, "option", nil, "Boolean option as name or name=bool (repeatable)")
	fs.StringSliceVar(&f.evidenceTypes, "evidence-types", nil, "Evidence types to focus on")
	fs.StringSliceVar(&f.focusAreas, "focus-areas", nil, "Areas of the case to focus on")
	fs.StringVar(&f.instructions, "instructions", "", "Custom instructions passed to every stage")
	fs.StringVar(&f.apiKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	fs.StringVar(&f.databaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	fs.StringVarP(&f.outputDir, "output", "o", "", "Directory for generated images")
	fs.IntVar(&f.concurrency, "concurrency", 0, "Shots generated in parallel")
	fs.Float64Var(&f.rpm, "rpm", 0, "Maximum image requests per minute (0 = unlimited)")
	fs.IntVar(&f.stageTimeout, "stage-timeout", 0, "Per-stage timeout in seconds, overriding the stage definitions")
	fs.IntVar(&f.minWidth, "min-width", 0, "Reject images narrower than this")
	fs.IntVar(&f.minHeight, "min-height", 0, "Reject images shorter than this")
	fs.BoolVar(&f.checkFigures, "check-figures", false, "Count visible people with the vision model")
	fs.BoolVar(&f.useS3, "s3", false, "Store images in S3/MinIO (ARTIFACT_S3_* env vars)")
	fs.StringVar(&f.agentsFile, "agents", "", "YAML file overriding the built-in stage definitions")
}

// resolve loads the config file, applies explicitly set flags on top, then
// fills defaults and environment fallbacks.
func (f *caseFlags) resolve(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	if flags.Changed("document") {
		cfg.Documents = f.documents
	}
	if flags.Changed("document-url") {
		cfg.DocumentURLs = f.documentURLs
	}
	if flags.Changed("text") {
		cfg.Text = f.text
	}
	if flags.Changed("text-file") {
		cfg.TextFile = f.textFile
	}
	if flags.Changed("case-type") {
		cfg.CaseType = f.caseType
	}
	if flags.Changed("style") {
		cfg.Style = f.style
	}
	if flags.Changed("quality") {
		cfg.Quality = f.quality
	}
	if flags.Changed("option") {
		opts, err := types.ParseOptions(f.options)
		if err != nil {
			return cfg, err
		}
		cfg.Options = opts
	}
	if flags.Changed("evidence-types") {
		cfg.EvidenceTypes = types.SplitList(f.evidenceTypes...)
	}
	if flags.Changed("focus-areas") {
		cfg.FocusAreas = types.SplitList(f.focusAreas...)
	}
	if flags.Changed("instructions") {
		cfg.CustomInstructions = f.instructions
	}
	if flags.Changed("api-key") {
		cfg.APIKey = f.apiKey
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = f.databaseURL
	}
	if flags.Changed("output") {
		cfg.OutputDir = f.outputDir
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if flags.Changed("rpm") {
		cfg.RequestsPerMinute = f.rpm
	}
	if flags.Changed("stage-timeout") {
		cfg.StageTimeoutSeconds = f.stageTimeout
	}
	if flags.Changed("min-width") {
		cfg.MinWidth = f.minWidth
	}
	if flags.Changed("min-height") {
		cfg.MinHeight = f.minHeight
	}
	if flags.Changed("check-figures") {
		cfg.CheckFigures = f.checkFigures
	}
	if flags.Changed("s3") {
		cfg.UseS3 = f.useS3
	}
	if flags.Changed("agents") {
		cfg.AgentsFile = f.agentsFile
	}
	cfg.Verbose = cfg.Verbose || verbose

	cfg = cfg.MergeWithDefaults(config.Config{
		APIKey:      config.APIKeyFromEnv(),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	})
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// buildCaseInput reads the configured documents and text into a validated CaseInput
func buildCaseInput(ctx context.Context, cfg config.Config) (*types.CaseInput, error) {
	caseType, err := types.ParseCaseType(cfg.CaseType)
	if err != nil {
		return nil, err
	}
	style, err := types.ParseStyle(cfg.Style)
	if err != nil {
		return nil, err
	}

	text := cfg.Text
	if cfg.TextFile != "" {
		data, err := os.ReadFile(cfg.TextFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read text file: %w", err)
		}
		text = string(data)
	}

	docs := make([]types.Document, 0, len(cfg.Documents))
	for _, path := range cfg.Documents {
		doc, err := ingestion.ReadDocumentFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load document %s: %w", path, err)
		}
		docs = append(docs, doc)
	}
	for _, u := range cfg.DocumentURLs {
		doc, err := fetch.Document(ctx, u, nil)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return types.NewCaseInput(types.CaseInput{
		CaseType:     caseType,
		Documents:    docs,
		FreeText:     strings.TrimSpace(text),
		Style:        style,
		QualityLevel: cfg.Quality,
		Options:      cfg.Options,
		Focus: types.Focus{
			EvidenceTypes:      cfg.EvidenceTypes,
			FocusAreas:         cfg.FocusAreas,
			CustomInstructions: strings.TrimSpace(cfg.CustomInstructions),
		},
	})
}
