// Package youtubetranscript exposes subtitle-based transcript retrieval.
package youtubetranscript

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/elvisgraho/local-tools/internal/storage"
	"github.com/elvisgraho/local-tools/internal/tool"
	"github.com/elvisgraho/local-tools/internal/ytdlp"
)

// ID is the tool identifier.
const ID = "youtube-transcript"

const maxFormBytes = 4 << 20

const emptyTranscriptMessage = "Could not retrieve transcript."

// Compile-time check that Tool implements tool.Tool.
var _ tool.Tool = (*Tool)(nil)

// Transcriber fetches the transcript of a video.
type Transcriber interface {
	Fetch(ctx context.Context, url string, opts ytdlp.InfoOptions) (string, error)
}

// Response is the body of every get_transcript answer except 400s.
type Response struct {
	Status     string `json:"status"`
	Transcript string `json:"transcript,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Tool is the transcript downloader.
type Tool struct {
	transcriber Transcriber
	store       storage.Storage
	logger      *slog.Logger
}

// New creates the transcript tool.
func New(transcriber Transcriber, store storage.Storage, logger *slog.Logger) *Tool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tool{
		transcriber: transcriber,
		store:       store,
		logger:      logger,
	}
}

// Describe implements tool.Tool.
func (t *Tool) Describe() tool.Descriptor {
	return tool.Descriptor{
		ID:          ID,
		Name:        "YouTube Transcript Downloader",
		Description: "Get the transcript for a YouTube video.",
		Icon:        "bi-file-text",
	}
}

// Mount implements tool.Tool.
func (t *Tool) Mount(r chi.Router) {
	r.Post("/tool/"+ID+"/get_transcript", t.GetTranscript)
}

// GetTranscript handles POST get_transcript.
func (t *Tool) GetTranscript(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	url := tool.FormValue(r, "url")
	if url == "" {
		tool.WriteError(w, http.StatusBadRequest, "URL is required", tool.CodeBadRequest)
		return
	}

	cookiePath, cleanup, err := tool.CookieFile(r.Context(), t.store, r.FormValue("cookies"))
	if err != nil {
		t.logger.Error("failed to stage cookies", slog.String("error", err.Error()))
		tool.WriteJSON(w, http.StatusInternalServerError, Response{Status: "error", Error: err.Error()})
		return
	}
	defer cleanup()

	text, err := t.transcriber.Fetch(r.Context(), url, ytdlp.InfoOptions{CookieFile: cookiePath})
	if err != nil {
		t.logger.Warn("transcript request failed",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		tool.WriteJSON(w, http.StatusInternalServerError, Response{Status: "error", Error: err.Error()})
		return
	}

	if strings.TrimSpace(text) == "" {
		t.logger.Warn("transcript is empty", slog.String("url", url))
		tool.WriteJSON(w, http.StatusInternalServerError, Response{Status: "error", Error: emptyTranscriptMessage})
		return
	}

	tool.WriteJSON(w, http.StatusOK, Response{Status: "success", Transcript: text})
}
