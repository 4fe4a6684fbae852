// Package main provides the command line entry point for the courtroom
// visualization pipeline and its HTTP API server.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "courtroom_viz",
	Short: "Turn legal case material into courtroom-ready images",
	Long: `courtroom_viz analyzes case documents with four sequential reasoning stages
(forensic analyst, scene reconstructor, character profiler, visual director) and
renders the resulting shot plan into a set of consistent images.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger returns a text logger on stderr, at debug level when verbose is set
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
