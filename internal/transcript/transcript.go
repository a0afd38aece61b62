// Package transcript extracts plain-text transcripts from video subtitle tracks.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elvisgraho/local-tools/internal/ytdlp"
)

// maxSubtitleBytes caps the size of a downloaded subtitle file.
const maxSubtitleBytes = 16 << 20

// Failure kinds. Every error returned by Fetch is an *Error matching one of these.
var (
	ErrNoSubtitles      = errors.New("no subtitles")
	ErrSubtitleDownload = errors.New("subtitle download failed")
	ErrPrivate          = errors.New("video is private")
	ErrUnavailable      = errors.New("video is unavailable")
	ErrAgeRestricted    = errors.New("video is age restricted")
	ErrExtraction       = errors.New("metadata extraction failed")
	ErrUnexpected       = errors.New("unexpected failure")
)

// Error is a transcript failure with a message suitable for API clients.
type Error struct {
	Kind error
	// Lang is the requested subtitle language.
	Lang string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrNoSubtitles:
		return fmt.Sprintf("Error: No %s subtitles found.", languageName(e.Lang))
	case ErrSubtitleDownload:
		return fmt.Sprintf("Error: Failed to download subtitle file (%v)", e.Err)
	case ErrPrivate:
		return "Error: Video is private."
	case ErrUnavailable:
		return "Error: Video is unavailable."
	case ErrAgeRestricted:
		return "Error: Age-restricted video requires login (transcript fetch failed)."
	case ErrExtraction:
		return fmt.Sprintf("Error: Could not process video for transcript (%v)", e.Err)
	default:
		return fmt.Sprintf("Error: An unexpected error occurred (%v)", e.Err)
	}
}

// Is matches the failure kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func languageName(lang string) string {
	switch lang {
	case "en":
		return "English"
	case "":
		return "matching"
	default:
		return lang
	}
}

// Extractor returns video metadata including subtitle tracks.
type Extractor interface {
	ExtractInfo(ctx context.Context, url string, opts ytdlp.InfoOptions) (*ytdlp.Info, error)
}

// Fetcher resolves a video's subtitle track and turns it into text.
type Fetcher struct {
	extractor  Extractor
	httpClient *http.Client
	lang       string
	logger     *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the client used to download subtitle files.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithTimeout sets the subtitle download timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithLanguage sets the subtitle language code. Defaults to "en".
func WithLanguage(lang string) Option {
	return func(f *Fetcher) {
		if lang != "" {
			f.lang = lang
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a new Fetcher.
func NewFetcher(extractor Extractor, opts ...Option) *Fetcher {
	f := &Fetcher{
		extractor:  extractor,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		lang:       "en",
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Language returns the configured subtitle language.
func (f *Fetcher) Language() string {
	return f.lang
}

// Fetch returns the transcript of the video at url.
func (f *Fetcher) Fetch(ctx context.Context, url string, opts ytdlp.InfoOptions) (string, error) {
	info, err := f.extractor.ExtractInfo(ctx, url, opts)
	if err != nil {
		f.logger.Warn("transcript metadata extraction failed",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		return "", classify(err)
	}

	track, ok := SelectTrack(info, f.lang)
	if !ok {
		f.logger.Info("no subtitles available",
			slog.String("video_id", info.ID),
			slog.String("lang", f.lang),
		)
		return "", &Error{Kind: ErrNoSubtitles, Lang: f.lang}
	}

	raw, err := f.download(ctx, track.URL)
	if err != nil {
		f.logger.Warn("subtitle download failed",
			slog.String("video_id", info.ID),
			slog.String("error", err.Error()),
		)
		return "", &Error{Kind: ErrSubtitleDownload, Lang: f.lang, Err: err}
	}

	text := Normalize(raw)
	f.logger.Info("transcript extracted",
		slog.String("video_id", info.ID),
		slog.String("ext", track.Ext),
		slog.Int("chars", len(text)),
	)
	return text, nil
}

func (f *Fetcher) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSubtitleBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

// SelectTrack picks the subtitle file to fetch: manual subtitles before
// automatic captions, and within a track the first non-JSON format,
// falling back to the first format.
func SelectTrack(info *ytdlp.Info, lang string) (ytdlp.Subtitle, bool) {
	for _, tracks := range []map[string][]ytdlp.Subtitle{info.Subtitles, info.AutomaticCaptions} {
		formats := tracks[lang]
		if len(formats) == 0 {
			continue
		}
		for _, s := range formats {
			if s.Ext != "json" && s.URL != "" {
				return s, true
			}
		}
		return formats[0], formats[0].URL != ""
	}
	return ytdlp.Subtitle{}, false
}

// classify maps an extractor failure onto a failure kind.
func classify(err error) *Error {
	var ytErr *ytdlp.Error
	if !errors.As(err, &ytErr) {
		return &Error{Kind: ErrUnexpected, Err: err}
	}

	msg := ytErr.Message
	switch {
	case strings.Contains(msg, "Private video"):
		return &Error{Kind: ErrPrivate, Err: err}
	case strings.Contains(msg, "Video unavailable"):
		return &Error{Kind: ErrUnavailable, Err: err}
	case strings.Contains(msg, "confirm your age"):
		return &Error{Kind: ErrAgeRestricted, Err: err}
	default:
		return &Error{Kind: ErrExtraction, Err: err}
	}
}
