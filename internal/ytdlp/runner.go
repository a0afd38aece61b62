package ytdlp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	goytdlp "github.com/lrstanley/go-ytdlp"
)

// OutputTemplate names downloaded files after the video id.
const OutputTemplate = "%(id)s.%(ext)s"

// Error is returned when the yt-dlp process fails.
// Message holds the extractor's own diagnostic when one was printed.
type Error struct {
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying process error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Compile-time check that Runner implements Client.
var _ Client = (*Runner)(nil)

// Runner implements Client by driving the yt-dlp binary through go-ytdlp.
type Runner struct {
	executable       string
	progressInterval time.Duration
	logger           *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutable sets an explicit yt-dlp binary path. Empty means PATH lookup.
func WithExecutable(path string) Option {
	return func(r *Runner) {
		r.executable = path
	}
}

// WithProgressInterval sets how often progress callbacks fire.
func WithProgressInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.progressInterval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		progressInterval: 500 * time.Millisecond,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnsureInstalled resolves a yt-dlp binary, downloading a release into the
// user cache when none is available, and returns its path.
func EnsureInstalled(ctx context.Context) (string, error) {
	resolved, err := goytdlp.Install(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("install yt-dlp: %w", err)
	}
	return resolved.Executable, nil
}

func (r *Runner) command() *goytdlp.Command {
	cmd := goytdlp.New().
		NoWarnings().
		NoPlaylist()
	if r.executable != "" {
		cmd.SetExecutable(r.executable)
	}
	return cmd
}

// ExtractInfo implements Client.
func (r *Runner) ExtractInfo(ctx context.Context, url string, opts InfoOptions) (*Info, error) {
	cmd := r.command().
		SkipDownload().
		DumpSingleJSON()
	if opts.CookieFile != "" {
		cmd.Cookies(opts.CookieFile)
	}

	start := time.Now()
	res, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, &Error{Op: "extract", Message: failureMessage(res, err), Err: err}
	}
	if res == nil || strings.TrimSpace(res.Stdout) == "" {
		return nil, ErrEmptyOutput
	}

	var info Info
	if err := json.Unmarshal([]byte(res.Stdout), &info); err != nil {
		return nil, fmt.Errorf("parse yt-dlp metadata: %w", err)
	}

	r.logger.Debug("metadata extracted",
		slog.String("video_id", info.ID),
		slog.Int("formats", len(info.Formats)),
		slog.Duration("duration", time.Since(start)),
	)
	return &info, nil
}

// Download implements Client.
func (r *Runner) Download(ctx context.Context, url string, opts DownloadOptions, onProgress func(Progress)) error {
	cmd := r.command().
		Output(filepath.Join(opts.Dir, OutputTemplate)).
		Format(Selector(opts.Kind, opts.MaxHeight))

	if opts.Kind == KindAudio {
		cmd.ExtractAudio().
			AudioFormat("mp3").
			AudioQuality("192K")
	} else {
		cmd.MergeOutputFormat("mp4")
	}
	if opts.CookieFile != "" {
		cmd.Cookies(opts.CookieFile)
	}

	if onProgress != nil {
		cmd.ProgressFunc(r.progressInterval, func(update goytdlp.ProgressUpdate) {
			if p, ok := convertProgress(update, time.Now()); ok {
				onProgress(p)
			}
		})
	}

	res, err := cmd.Run(ctx, url)
	if err != nil {
		return &Error{Op: "download", Message: failureMessage(res, err), Err: err}
	}
	return nil
}

// convertProgress maps a go-ytdlp update onto Progress. Updates for states
// the job tracker does not model (starting, post-processing) are dropped.
func convertProgress(u goytdlp.ProgressUpdate, now time.Time) (Progress, bool) {
	switch u.Status {
	case goytdlp.ProgressStatusDownloading:
		p := Progress{
			Status:          ProgressDownloading,
			DownloadedBytes: int64(u.DownloadedBytes),
			TotalBytes:      int64(u.TotalBytes),
		}
		if !u.Started.IsZero() && u.DownloadedBytes > 0 {
			if elapsed := now.Sub(u.Started).Seconds(); elapsed > 0 {
				speed := float64(u.DownloadedBytes) / elapsed
				p.Speed = &speed
			}
		}
		if u.TotalBytes > 0 {
			if eta := u.ETA(); eta > 0 {
				p.ETA = &eta
			}
		}
		return p, true
	case goytdlp.ProgressStatusFinished:
		return Progress{Status: ProgressFinished, Filename: u.Filename}, true
	case goytdlp.ProgressStatusError:
		return Progress{Status: ProgressError}, true
	default:
		return Progress{}, false
	}
}

// failureMessage prefers the last "ERROR:" line printed by yt-dlp.
func failureMessage(res *goytdlp.Result, err error) string {
	if res != nil {
		if msg := lastErrorLine(res.Stderr); msg != "" {
			return msg
		}
	}
	return err.Error()
}

func lastErrorLine(output string) string {
	var last string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "ERROR:") {
			last = strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
	}
	return last
}
