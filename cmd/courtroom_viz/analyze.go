package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var analyzeCommand = &cobra.Command{
	Use:   "analyze",
	Short: "Run the four analysis stages without generating images",
	Long: `Runs the analysis stages and prints each stage's output. With --out the
combined analysis is written as JSON.`,
	RunE: runAnalyzeCmd,
}

var (
	analyzeFlags caseFlags
	analyzeOut   string
)

func init() {
	analyzeFlags.register(analyzeCommand)
	analyzeCommand.Flags().StringVar(&analyzeOut, "out", "", "Write the combined analysis JSON to this path")
	rootCmd.AddCommand(analyzeCommand)
}

func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := analyzeFlags.resolve(cmd)
	if err != nil {
		return err
	}
	input, err := buildCaseInput(ctx, cfg)
	if err != nil {
		return err
	}

	a, err := buildApp(ctx, cfg, newLogger(cfg.Verbose), appOptions{printTo: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.orchestrator.Execute(ctx, input)
	if err != nil {
		return err
	}

	if analyzeOut == "" {
		return nil
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}
	if err := os.WriteFile(analyzeOut, data, 0o644); err != nil {
		return fmt.Errorf("failed to write analysis: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Analysis written to %s\n", analyzeOut)
	return nil
}
