// Package bootstrap provides dependency initialization for the tool host.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/elvisgraho/local-tools/internal/config"
	"github.com/elvisgraho/local-tools/internal/download"
	"github.com/elvisgraho/local-tools/internal/imageops"
	"github.com/elvisgraho/local-tools/internal/job"
	"github.com/elvisgraho/local-tools/internal/media"
	"github.com/elvisgraho/local-tools/internal/storage"
	"github.com/elvisgraho/local-tools/internal/tool"
	"github.com/elvisgraho/local-tools/internal/transcript"
	"github.com/elvisgraho/local-tools/internal/ytdlp"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Tools    *tool.Registry
	Jobs     job.Registry
	Manager  *download.Manager
	Storage  *storage.LocalStorage
	FFmpeg   *media.FFmpegProbe
	YtDlpBin string
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := storage.NewLocalStorage(cfg.TempDir, cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", store.TempDir()),
		slog.String("output_dir", store.OutputDir()),
	)

	ytdlpBin := cfg.YtDlpPath
	if ytdlpBin == "" && cfg.YtDlpAutoInstall {
		ytdlpBin, err = ytdlp.EnsureInstalled(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info("yt-dlp resolved", slog.String("path", ytdlpBin))
	}

	client := ytdlp.NewRunner(
		ytdlp.WithExecutable(ytdlpBin),
		ytdlp.WithLogger(logger),
	)
	jobs := job.NewMemoryRegistry()
	worker := download.NewWorker(jobs, client, store, logger)
	manager := download.NewManager(worker, logger)

	ffmpeg := media.NewFFmpegProbe(cfg.FFmpegPath)
	processor := imageops.NewProcessor(
		imageops.WithRasterizer(media.NewPDFRasterizer(cfg.PdfToPPMPath, store)),
		imageops.WithLogger(logger),
	)
	fetcher := transcript.NewFetcher(client,
		transcript.WithTimeout(cfg.SubtitleFetchTimeout),
		transcript.WithLanguage(cfg.SubtitleLang),
		transcript.WithLogger(logger),
	)

	tools := tool.NewRegistry(logger, Tools(ToolDeps{
		Processor:  processor,
		MaxUpload:  cfg.MaxUploadBytes(),
		Jobs:       jobs,
		Client:     client,
		Starter:    manager,
		Storage:    store,
		FFmpeg:     ffmpeg,
		Transcript: fetcher,
		CacheSize:  cfg.InfoCacheSize,
		CacheTTL:   cfg.InfoCacheTTL,
		Logger:     logger,
	})...)

	return &Dependencies{
		Tools:    tools,
		Jobs:     jobs,
		Manager:  manager,
		Storage:  store,
		FFmpeg:   ffmpeg,
		YtDlpBin: ytdlpBin,
	}, nil
}
