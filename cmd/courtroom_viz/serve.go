package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/courtroom-viz/internal/server"
	"github.com/jonathan/courtroom-viz/internal/server/ratelimit"
	"github.com/jonathan/courtroom-viz/internal/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for running the pipeline and downloading images.`,
	RunE:  runServe,
}

var (
	serveFlags caseFlags
	serveAddr  string
)

func init() {
	serveFlags.register(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (default :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := serveFlags.resolve(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Addr = serveAddr
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger, appOptions{withImages: true})
	if err != nil {
		return err
	}
	defer a.Close()

	style, err := types.ParseStyle(cfg.Style)
	if err != nil {
		return err
	}

	srvCfg := server.Config{
		Addr:              cfg.Addr,
		Runner:            server.NewPipelineRunner(a.orchestrator),
		Store:             a.store,
		RateLimit:         runRateLimit(cfg.RunRateLimit),
		RunCacheSize:      cfg.RunCacheSize,
		MaxUploadMB:       cfg.MaxUploadMB,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeout) * time.Second,
		Logger:            logger,
		DefaultStyle:      style,
		DefaultQuality:    cfg.Quality,
	}
	if a.database != nil {
		srvCfg.RunStore = a.database
	}

	srv, err := server.New(srvCfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start(ctx)
}

// runRateLimit loads the environment configuration and caps pipeline runs per
// client at perMinute.
func runRateLimit(perMinute int) *ratelimit.Config {
	return ratelimit.LoadConfig().WithRunLimit(perMinute)
}
