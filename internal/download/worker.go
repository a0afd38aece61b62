// Package download runs video downloads in the background and reports their
// progress into the job registry.
package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/elvisgraho/local-tools/internal/job"
	"github.com/elvisgraho/local-tools/internal/storage"
	"github.com/elvisgraho/local-tools/internal/ytdlp"
)

// ErrArtifactMissing is returned when the downloader exits cleanly but no file can be found.
var ErrArtifactMissing = errors.New("missing after processing")

// Task describes one download request.
type Task struct {
	JobID     string
	URL       string
	Kind      ytdlp.MediaKind
	MaxHeight int
	// Cookies is Netscape cookie-jar text; empty means none.
	Cookies string
}

// Worker drives one Task to a terminal job state.
type Worker struct {
	registry job.Registry
	client   ytdlp.Client
	store    storage.Storage
	logger   *slog.Logger
}

// NewWorker creates a Worker.
func NewWorker(registry job.Registry, client ytdlp.Client, store storage.Storage, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		registry: registry,
		client:   client,
		store:    store,
		logger:   logger,
	}
}

// Run executes the task. Failures are recorded in the registry, never returned.
func (w *Worker) Run(ctx context.Context, t Task, runID string) {
	logger := w.logger.With(
		slog.String("video_id", t.JobID),
		slog.String("run_id", runID),
	)

	if err := w.registry.Begin(t.JobID, runID); err != nil {
		logger.Warn("download not started",
			slog.String("error", err.Error()),
		)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("download worker panic",
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())),
			)
			_ = w.registry.MarkError(t.JobID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	logger.Info("download started",
		slog.String("format", string(t.Kind)),
		slog.Int("max_height", t.MaxHeight),
	)

	if err := w.run(ctx, t, logger); err != nil {
		logger.Error("download failed",
			slog.String("error", err.Error()),
		)
		if markErr := w.registry.MarkError(t.JobID, err.Error()); markErr != nil {
			logger.Warn("failed to record download error",
				slog.String("error", markErr.Error()),
			)
		}
	}
}

func (w *Worker) run(ctx context.Context, t Task, logger *slog.Logger) error {
	dir, release, err := w.store.MakeWorkDir(ctx, "dl")
	if err != nil {
		return fmt.Errorf("prepare work directory: %w", err)
	}
	defer release()

	var cookieFile string
	if t.Cookies != "" {
		cookieFile, err = w.store.SaveTemp(ctx, "cookies", strings.NewReader(t.Cookies))
		if err != nil {
			return fmt.Errorf("write cookies: %w", err)
		}
		defer func() {
			_ = w.store.CleanupTemp(context.WithoutCancel(ctx), []string{cookieFile})
		}()
	}

	info, err := w.client.ExtractInfo(ctx, t.URL, ytdlp.InfoOptions{CookieFile: cookieFile})
	if err != nil {
		return extractorFailure(err)
	}
	title := info.Title
	if title == "" {
		title = t.JobID
	}
	w.registry.SetTitle(t.JobID, title)

	opts := ytdlp.DownloadOptions{
		Kind:       t.Kind,
		MaxHeight:  t.MaxHeight,
		Dir:        dir,
		CookieFile: cookieFile,
	}
	dlErr := w.client.Download(ctx, t.URL, opts, func(p ytdlp.Progress) {
		w.registry.ApplyProgress(t.JobID, toEvent(p))
	})

	current, err := w.registry.Get(t.JobID)
	if err != nil {
		return fmt.Errorf("reload job: %w", err)
	}
	if current.Status == job.StatusError {
		logger.Warn("download reported error through progress callback",
			slog.String("error", current.Error),
		)
		return nil
	}
	if dlErr != nil {
		return extractorFailure(dlErr)
	}

	artifact, err := locateArtifact(dir, t.JobID, t.Kind, current.TempRef())
	if err != nil {
		return err
	}

	name := storage.SanitizeFilename(title, t.JobID) + filepath.Ext(artifact)
	final, err := w.store.Place(ctx, artifact, name)
	if err != nil {
		return fmt.Errorf("place artifact: %w", err)
	}

	if err := w.registry.MarkCompleted(t.JobID, final); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}

	attrs := []any{slog.String("file", final)}
	if st, statErr := os.Stat(final); statErr == nil {
		attrs = append(attrs, slog.String("size", humanize.Bytes(uint64(st.Size()))))
	}
	logger.Info("download completed", attrs...)
	return nil
}

// toEvent converts a downloader callback into a registry event.
func toEvent(p ytdlp.Progress) job.Event {
	switch p.Status {
	case ytdlp.ProgressFinished:
		return job.Event{Kind: job.EventFinished, Filename: p.Filename}
	case ytdlp.ProgressError:
		return job.Event{Kind: job.EventError, Message: p.Message}
	default:
		return job.Event{
			Kind:            job.EventDownloading,
			DownloadedBytes: p.DownloadedBytes,
			TotalBytes:      p.TotalBytes,
			Speed:           p.Speed,
			ETA:             p.ETA,
		}
	}
}

// extractorFailure prefixes extractor diagnostics so clients can tell them
// apart from local failures.
func extractorFailure(err error) error {
	var ytErr *ytdlp.Error
	if errors.As(err, &ytErr) {
		return fmt.Errorf("yt-dlp: %w", err)
	}
	return err
}

// locateArtifact finds the downloaded file. The path reported by the
// finished callback wins; for audio its .mp3 sibling is preferred because
// the callback fires before conversion. Otherwise dir is scanned for
// "<id>.*", preferring the extension matching kind.
func locateArtifact(dir, id string, kind ytdlp.MediaKind, hint string) (string, error) {
	if hint != "" {
		if kind == ytdlp.KindAudio && filepath.Ext(hint) != ".mp3" {
			mp3 := strings.TrimSuffix(hint, filepath.Ext(hint)) + ".mp3"
			if isFile(mp3) {
				return mp3, nil
			}
		}
		if isFile(hint) {
			return hint, nil
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("scan work directory: %w", err)
	}

	preferred := "." + string(kind)
	var candidates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, id+".") {
			continue
		}
		if ext := filepath.Ext(name); ext == ".part" || ext == ".ytdl" {
			continue
		}
		candidates = append(candidates, name)
	}
	sort.Strings(candidates)

	for _, name := range candidates {
		if filepath.Ext(name) == preferred {
			return filepath.Join(dir, name), nil
		}
	}
	if len(candidates) > 0 {
		return filepath.Join(dir, candidates[0]), nil
	}
	return "", fmt.Errorf("downloaded file for %s: %w", id, ErrArtifactMissing)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
