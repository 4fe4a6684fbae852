package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/courtroom-viz/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline end-to-end and generate images",
	Long: `Runs forensic analysis -> scene reconstruction -> character profiling -> visual direction,
then generates one image per planned shot.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var runFlags caseFlags

func init() {
	runFlags.register(runCommand)
	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := runFlags.resolve(cmd)
	if err != nil {
		return err
	}
	input, err := buildCaseInput(ctx, cfg)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Verbose)
	opts := appOptions{withImages: true}
	if cfg.Verbose {
		opts.printTo = cmd.OutOrStdout()
	}
	a, err := buildApp(ctx, cfg, logger, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	rs, err := a.orchestrator.Run(ctx, input)
	if err != nil {
		return err
	}

	summaryPath, err := writeSummary(cfg.OutputDir, rs)
	if err != nil {
		logger.Warn("failed to write run summary", "error", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Run %s: %d succeeded, %d failed\n", rs.RunID, rs.Succeeded(), rs.Failed())
	for _, art := range rs.Artifacts {
		if art.Status == types.ArtifactSuccess {
			_, _ = fmt.Fprintf(out, "  %s -> %s\n", art.ShotID, art.StorageURI)
			continue
		}
		_, _ = fmt.Fprintf(out, "  %s failed after %d attempts: %s\n", art.ShotID, art.AttemptCount, art.LastError)
	}
	if summaryPath != "" {
		_, _ = fmt.Fprintf(out, "Summary: %s\n", summaryPath)
	}
	return nil
}

// writeSummary stores the result set as JSON next to the run's images
func writeSummary(outputDir string, rs *types.ResultSet) (string, error) {
	dir := filepath.Join(outputDir, rs.RunID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result set: %w", err)
	}
	path := filepath.Join(dir, "result.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return path, nil
}
