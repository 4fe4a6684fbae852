// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/courtroom-viz/internal/types"
)

// Defaults applied by MergeWithDefaults when neither the file nor a flag sets a value
const (
	DefaultCaseType     = string(types.CaseTypeOther)
	DefaultStyle        = string(types.StyleProfessional)
	DefaultQuality      = 8
	DefaultOutputDir    = "output"
	DefaultConcurrency  = 2
	DefaultServerAddr   = ":8080"
	DefaultRunRateLimit = 6
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Case material
	Documents    []string `json:"documents,omitempty"`     // Paths to case documents
	DocumentURLs []string `json:"document_urls,omitempty"` // Remote case documents
	Text         string   `json:"text,omitempty"`          // Free-text case description
	TextFile     string   `json:"text_file,omitempty"`     // Path to a file holding the free-text description

	// Case parameters
	CaseType           string          `json:"case_type,omitempty"`
	Style              string          `json:"style,omitempty"`
	Quality            int             `json:"quality,omitempty"` // 1-10
	Options            map[string]bool `json:"options,omitempty"`
	EvidenceTypes      []string        `json:"evidence_types,omitempty"`
	FocusAreas         []string        `json:"focus_areas,omitempty"`
	CustomInstructions string          `json:"custom_instructions,omitempty"`

	// Generation
	OutputDir           string  `json:"output_dir,omitempty"`            // Local image directory
	Concurrency         int     `json:"concurrency,omitempty"`           // Shots generated in parallel
	RequestsPerMinute   float64 `json:"requests_per_minute,omitempty"`   // Image API throttle, 0 = unlimited
	StageTimeoutSeconds int     `json:"stage_timeout_seconds,omitempty"` // Overrides per-stage timeouts
	MinWidth            int     `json:"min_width,omitempty"`             // Reject smaller images
	MinHeight           int     `json:"min_height,omitempty"`
	CheckFigures        bool    `json:"check_figures,omitempty"` // Count visible people with the vision model

	// Behavior
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	Verbose     bool   `json:"verbose,omitempty"`      // Print detailed debug information
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	UseS3       bool   `json:"use_s3,omitempty"`       // Store images in S3/MinIO instead of OutputDir

	// Server
	Addr              string `json:"addr,omitempty"`
	RunRateLimit      int    `json:"run_rate_limit,omitempty"` // Runs per client per minute
	MaxUploadMB       int    `json:"max_upload_mb,omitempty"`
	RunCacheSize      int    `json:"run_cache_size,omitempty"`
	AgentsFile        string `json:"agents_file,omitempty"` // Override the embedded stage definitions
	ReadHeaderTimeout int    `json:"read_header_timeout_seconds,omitempty"`
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.Text != "" && c.TextFile != "" {
		return fmt.Errorf("config error: 'text' and 'text_file' are mutually exclusive")
	}

	if c.CaseType != "" {
		if _, err := types.ParseCaseType(c.CaseType); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	if c.Style != "" {
		if _, err := types.ParseStyle(c.Style); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}

	// Validate numeric ranges
	if c.Quality < 0 || c.Quality > 10 {
		return fmt.Errorf("config error: 'quality' must be between 1 and 10")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("config error: 'concurrency' must be non-negative")
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("config error: 'requests_per_minute' must be non-negative")
	}
	if c.StageTimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'stage_timeout_seconds' must be non-negative")
	}
	if c.MinWidth < 0 || c.MinHeight < 0 {
		return fmt.Errorf("config error: 'min_width' and 'min_height' must be non-negative")
	}

	// Validate file paths exist (if specified)
	for _, doc := range c.Documents {
		if _, err := os.Stat(doc); os.IsNotExist(err) {
			return fmt.Errorf("config error: document not found: %s", doc)
		}
	}
	if c.TextFile != "" {
		if _, err := os.Stat(c.TextFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: text file not found: %s", c.TextFile)
		}
	}
	if c.AgentsFile != "" {
		if _, err := os.Stat(c.AgentsFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: agents file not found: %s", c.AgentsFile)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults,
// then from the package defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	result.Text = firstNonEmpty(result.Text, defaults.Text)
	result.TextFile = firstNonEmpty(result.TextFile, defaults.TextFile)
	result.CaseType = firstNonEmpty(result.CaseType, defaults.CaseType, DefaultCaseType)
	result.Style = firstNonEmpty(result.Style, defaults.Style, DefaultStyle)
	result.CustomInstructions = firstNonEmpty(result.CustomInstructions, defaults.CustomInstructions)
	result.OutputDir = firstNonEmpty(result.OutputDir, defaults.OutputDir, DefaultOutputDir)
	result.APIKey = firstNonEmpty(result.APIKey, defaults.APIKey)
	result.DatabaseURL = firstNonEmpty(result.DatabaseURL, defaults.DatabaseURL)
	result.Addr = firstNonEmpty(result.Addr, defaults.Addr, DefaultServerAddr)
	result.AgentsFile = firstNonEmpty(result.AgentsFile, defaults.AgentsFile)

	// Slice fields
	if len(result.Documents) == 0 {
		result.Documents = defaults.Documents
	}
	if len(result.DocumentURLs) == 0 {
		result.DocumentURLs = defaults.DocumentURLs
	}
	if len(result.EvidenceTypes) == 0 {
		result.EvidenceTypes = defaults.EvidenceTypes
	}
	if len(result.FocusAreas) == 0 {
		result.FocusAreas = defaults.FocusAreas
	}
	if len(result.Options) == 0 {
		result.Options = defaults.Options
	}

	// Numeric fields: use default if zero
	result.Quality = firstPositive(result.Quality, defaults.Quality, DefaultQuality)
	result.Concurrency = firstPositive(result.Concurrency, defaults.Concurrency, DefaultConcurrency)
	result.StageTimeoutSeconds = firstPositive(result.StageTimeoutSeconds, defaults.StageTimeoutSeconds)
	result.MinWidth = firstPositive(result.MinWidth, defaults.MinWidth)
	result.MinHeight = firstPositive(result.MinHeight, defaults.MinHeight)
	result.RunRateLimit = firstPositive(result.RunRateLimit, defaults.RunRateLimit, DefaultRunRateLimit)
	result.MaxUploadMB = firstPositive(result.MaxUploadMB, defaults.MaxUploadMB)
	result.RunCacheSize = firstPositive(result.RunCacheSize, defaults.RunCacheSize)
	result.ReadHeaderTimeout = firstPositive(result.ReadHeaderTimeout, defaults.ReadHeaderTimeout)
	if result.RequestsPerMinute == 0 {
		result.RequestsPerMinute = defaults.RequestsPerMinute
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
