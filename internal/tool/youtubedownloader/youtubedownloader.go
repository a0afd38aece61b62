// Package youtubedownloader exposes metadata lookup, background downloads
// with progress polling, and retrieval of the finished file.
package youtubedownloader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/elvisgraho/local-tools/internal/download"
	"github.com/elvisgraho/local-tools/internal/job"
	"github.com/elvisgraho/local-tools/internal/media"
	"github.com/elvisgraho/local-tools/internal/storage"
	"github.com/elvisgraho/local-tools/internal/tool"
	"github.com/elvisgraho/local-tools/internal/ytdlp"
)

// ID is the tool identifier.
const ID = "youtube-downloader"

const (
	defaultTitle     = "Unknown Title"
	maxFormBytes     = 4 << 20
	defaultCacheSize = 128
	defaultCacheTTL  = 5 * time.Minute
)

// Compile-time check that Tool implements tool.Tool.
var _ tool.Tool = (*Tool)(nil)

// Starter launches a background download and returns its run id.
type Starter interface {
	Start(t download.Task) (string, error)
}

// Tool is the YouTube downloader.
type Tool struct {
	registry  job.Registry
	client    ytdlp.Client
	starter   Starter
	store     storage.Storage
	ffmpeg    media.Prober
	cache     *expirable.LRU[string, *ytdlp.Info]
	validator *validator.Validate
	logger    *slog.Logger
}

type options struct {
	cacheSize int
	cacheTTL  time.Duration
	logger    *slog.Logger
}

// Option configures the Tool.
type Option func(*options)

// WithInfoCache bounds the metadata cache shared by get_info and download.
// A size <= 0 disables caching.
func WithInfoCache(size int, ttl time.Duration) Option {
	return func(o *options) {
		o.cacheSize = size
		o.cacheTTL = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates the downloader tool.
func New(registry job.Registry, client ytdlp.Client, starter Starter, store storage.Storage, ffmpeg media.Prober, opts ...Option) *Tool {
	o := options{cacheSize: defaultCacheSize, cacheTTL: defaultCacheTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	t := &Tool{
		registry:  registry,
		client:    client,
		starter:   starter,
		store:     store,
		ffmpeg:    ffmpeg,
		validator: validator.New(),
		logger:    o.logger,
	}
	if o.cacheSize > 0 {
		t.cache = expirable.NewLRU[string, *ytdlp.Info](o.cacheSize, nil, o.cacheTTL)
	}
	return t
}

// Describe implements tool.Tool.
func (t *Tool) Describe() tool.Descriptor {
	return tool.Descriptor{
		ID:          ID,
		Name:        "YouTube Downloader",
		Description: "Download videos and transcripts from YouTube.",
		Icon:        "bi-youtube",
	}
}

// Mount implements tool.Tool.
func (t *Tool) Mount(r chi.Router) {
	r.Route("/tool/"+ID, func(r chi.Router) {
		r.Post("/get_info", t.GetInfo)
		r.Post("/download", t.Download)
		r.Get("/progress/{video_id}", t.Progress)
		r.Get("/get_file/{video_id}", t.GetFile)
		r.Get("/check_ffmpeg", t.CheckFFmpeg)
	})
}

// GetInfo handles POST get_info.
func (t *Tool) GetInfo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	url := tool.FormValue(r, "url")
	if url == "" {
		tool.WriteError(w, http.StatusBadRequest, "URL is required", tool.CodeBadRequest)
		return
	}
	cookies := r.FormValue("cookies")

	info, err := t.fetchInfo(r.Context(), url, cookies)
	if err != nil {
		t.logger.Error("failed to get video info",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		t.markInfoFailure(url, err)
		tool.WriteError(w, http.StatusInternalServerError, "Failed to get video info: "+err.Error(), tool.CodeExtraction)
		return
	}

	title := titleOrDefault(info.Title)
	if info.ID != "" {
		if _, created := t.registry.CreateOrReset(info.ID, url, title); !created {
			t.logger.Debug("kept live job on info lookup", slog.String("video_id", info.ID))
		}
	}

	var ffmpeg bool
	if t.ffmpeg != nil {
		ffmpeg = t.ffmpeg.Available(r.Context())
	}

	tool.WriteJSON(w, http.StatusOK, InfoResponse{
		ID:               info.ID,
		Title:            title,
		Thumbnail:        info.Thumbnail,
		Duration:         info.Duration,
		AvailableFormats: ytdlp.SelectableFormats(info.Formats),
		FFmpegInstalled:  ffmpeg,
	})
}

// Download handles POST download.
func (t *Tool) Download(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	form := downloadForm{
		URL:     tool.FormValue(r, "url"),
		Format:  strings.ToLower(tool.FormValue(r, "format")),
		Quality: tool.FormValue(r, "quality"),
		Cookies: r.FormValue("cookies"),
	}
	if form.URL == "" {
		tool.WriteError(w, http.StatusBadRequest, "URL is required", tool.CodeBadRequest)
		return
	}
	if form.Format == "" {
		form.Format = string(ytdlp.KindVideo)
	}
	if form.Quality == "" {
		form.Quality = ytdlp.QualityBest
	}
	if err := t.validator.Struct(form); err != nil {
		tool.WriteError(w, http.StatusBadRequest,
			"Invalid format: "+form.Format+". Supported: [mp4, mp3]", tool.CodeValidation)
		return
	}
	maxHeight, err := ytdlp.ParseQuality(form.Quality)
	if err != nil {
		tool.WriteError(w, http.StatusBadRequest, "Invalid quality: "+form.Quality, tool.CodeValidation)
		return
	}

	info, err := t.fetchInfo(r.Context(), form.URL, form.Cookies)
	if err != nil {
		t.logger.Error("failed to get video info for download",
			slog.String("url", form.URL),
			slog.String("error", err.Error()),
		)
		tool.WriteError(w, http.StatusInternalServerError, "Failed to get video info: "+err.Error(), tool.CodeExtraction)
		return
	}
	if info.ID == "" {
		tool.WriteError(w, http.StatusInternalServerError, "Could not extract video ID.", tool.CodeExtraction)
		return
	}

	logger := t.logger.With(slog.String("video_id", info.ID))
	if _, created := t.registry.ResetForDownload(info.ID, form.URL, titleOrDefault(info.Title)); created {
		runID, err := t.starter.Start(download.Task{
			JobID:     info.ID,
			URL:       form.URL,
			Kind:      ytdlp.MediaKind(form.Format),
			MaxHeight: maxHeight,
			Cookies:   form.Cookies,
		})
		if err != nil {
			logger.Error("failed to start download", slog.String("error", err.Error()))
			_ = t.registry.MarkError(info.ID, err.Error())
			tool.WriteError(w, http.StatusInternalServerError, "Failed to start download: "+err.Error(), tool.CodeInternal)
			return
		}
		logger.Info("download started",
			slog.String("run_id", runID),
			slog.String("format", form.Format),
			slog.Int("max_height", maxHeight),
		)
	} else {
		logger.Info("download already in progress")
	}

	tool.WriteJSON(w, http.StatusOK, StartResponse{Status: "download_started", VideoID: info.ID})
}

// Progress handles GET progress/{video_id}.
func (t *Tool) Progress(w http.ResponseWriter, r *http.Request) {
	j, err := t.registry.Get(chi.URLParam(r, "video_id"))
	if err != nil {
		tool.WriteJSON(w, http.StatusNotFound, NotFoundResponse{
			Status: string(job.StatusNotFound),
			Error:  "Video ID not found or download not initiated.",
		})
		return
	}
	tool.WriteJSON(w, http.StatusOK, newProgressResponse(j))
}

// GetFile handles GET get_file/{video_id}. A successful call removes the job.
func (t *Tool) GetFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "video_id")
	j, err := t.registry.TakeCompleted(id)
	if err != nil {
		tool.WriteError(w, http.StatusNotFound, "Download not complete or not found.", tool.CodeNotCompleted)
		return
	}

	f, err := t.store.OpenArtifact(r.Context(), j.Filename)
	if err != nil {
		t.logger.Warn("completed artifact unavailable",
			slog.String("video_id", id),
			slog.String("path", j.Filename),
			slog.String("error", err.Error()),
		)
		t.registry.Restore(j)
		tool.WriteError(w, http.StatusNotFound, "File not found.", tool.CodeNotFound)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		t.registry.Restore(j)
		tool.WriteError(w, http.StatusInternalServerError, "File not found.", tool.CodeInternal)
		return
	}

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectReader(f); err == nil {
		contentType = mt.String()
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.registry.Restore(j)
		tool.WriteError(w, http.StatusInternalServerError, "Failed to read file.", tool.CodeInternal)
		return
	}

	name := filepath.Base(j.Filename)
	t.logger.Info("serving download",
		slog.String("video_id", id),
		slog.String("file", name),
		slog.Int64("size", stat.Size()),
	)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", tool.ContentDisposition(name))
	http.ServeContent(w, r, name, stat.ModTime(), f)
}

// CheckFFmpeg handles GET check_ffmpeg.
func (t *Tool) CheckFFmpeg(w http.ResponseWriter, r *http.Request) {
	var installed bool
	if t.ffmpeg != nil {
		installed = t.ffmpeg.Available(r.Context())
	}
	tool.WriteJSON(w, http.StatusOK, FFmpegResponse{Installed: installed})
}

// fetchInfo extracts metadata for url. Lookups without cookies go through
// the cache; cookie-authenticated results are never cached.
func (t *Tool) fetchInfo(ctx context.Context, url, cookies string) (*ytdlp.Info, error) {
	anonymous := strings.TrimSpace(cookies) == ""
	if anonymous && t.cache != nil {
		if info, ok := t.cache.Get(url); ok {
			return info, nil
		}
	}

	cookiePath, cleanup, err := tool.CookieFile(ctx, t.store, cookies)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	info, err := t.client.ExtractInfo(ctx, url, ytdlp.InfoOptions{CookieFile: cookiePath})
	if err != nil {
		return nil, err
	}
	if anonymous && t.cache != nil && info.ID != "" {
		t.cache.Add(url, info)
	}
	return info, nil
}

// markInfoFailure records a metadata failure on a job that is waiting for
// a download request. Jobs owned by a worker are left alone.
func (t *Tool) markInfoFailure(url string, cause error) {
	id, ok := t.knownID(url)
	if !ok {
		return
	}
	j, err := t.registry.Get(id)
	if err != nil || j.Status != job.StatusInfoLoaded {
		return
	}
	msg := cause.Error()
	var ytErr *ytdlp.Error
	if errors.As(cause, &ytErr) {
		msg = ytErr.Message
	}
	if err := t.registry.MarkError(id, msg); err != nil && !errors.Is(err, job.ErrJobNotFound) {
		t.logger.Warn("failed to record info failure",
			slog.String("video_id", id),
			slog.String("error", err.Error()),
		)
	}
}

func (t *Tool) knownID(url string) (string, bool) {
	if t.cache != nil {
		if info, ok := t.cache.Peek(url); ok && info.ID != "" {
			return info.ID, true
		}
	}
	return ytdlp.VideoIDFromURL(url)
}

func titleOrDefault(title string) string {
	if strings.TrimSpace(title) == "" {
		return defaultTitle
	}
	return title
}
