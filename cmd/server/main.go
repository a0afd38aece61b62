// Package main provides the entry point for the local tools server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/elvisgraho/local-tools/internal/bootstrap"
	"github.com/elvisgraho/local-tools/internal/config"
	"github.com/elvisgraho/local-tools/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	loadDotEnv()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Create structured logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting local tools",
		slog.Int("port", cfg.Port),
		slog.String("log_format", cfg.LogFormat),
		slog.String("log_level", cfg.LogLevel),
		slog.String("output_dir", cfg.OutputDir),
		slog.String("temp_dir", cfg.TempDir),
		slog.String("static_dir", cfg.StaticDir),
		slog.Int64("max_upload_mb", cfg.MaxUploadMB),
	)
	logger.Debug("configuration", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}
	if !deps.FFmpeg.Available(ctx) {
		logger.Warn("ffmpeg not found; downloads that need stream merging or mp3 extraction will fail",
			slog.String("ffmpeg_path", cfg.FFmpegPath),
		)
	}

	handlers := server.NewHandlers(deps.Tools, cfg.StaticDir, logger)
	router := server.NewRouter(handlers, deps.Tools, logger, server.Config{
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// WriteTimeout stays 0: get_file streams whole videos.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			slog.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := deps.Manager.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stop downloads: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}

// loadDotEnv loads the nearest .env file walking up from the working
// directory. Variables already set in the environment win.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
