package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/elvisgraho/local-tools/internal/storage"
)

// Client-facing messages shared by the upload tools.
const (
	MsgNoFilePart     = "No file part"
	MsgNoSelectedFile = "No selected file"
	MsgFileTooLarge   = "File too large"
	MsgProcessing     = "File processing failed"
)

// Error codes for programmatic handling.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeTooLarge     = "FILE_TOO_LARGE"
	CodeProcessing   = "PROCESSING_FAILED"
	CodeInternal     = "INTERNAL_ERROR"
	CodeUnsupported  = "UNSUPPORTED_FORMAT"
	CodeExtraction   = "EXTRACTION_FAILED"
	CodeNotCompleted = "NOT_COMPLETED"
)

// Upload errors.
var (
	ErrNoFilePart     = errors.New("no file part")
	ErrNoSelectedFile = errors.New("no selected file")
	ErrFileTooLarge   = errors.New("file too large")
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code,omitempty"`
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// WriteError writes an error response in the standard format.
func WriteError(w http.ResponseWriter, status int, message, code string) {
	WriteJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// Upload is a file received in a multipart form.
type Upload struct {
	Filename string
	Data     []byte
	// DetectedType is the MIME type sniffed from the content.
	DetectedType string
}

// Size returns the upload length in bytes.
func (u *Upload) Size() int64 {
	return int64(len(u.Data))
}

// ReadUpload parses the multipart form of r, bounded by maxBytes, and
// reads the file in field. A part without a filename reports
// ErrNoSelectedFile; an absent part reports ErrNoFilePart.
func ReadUpload(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (*Upload, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrFileTooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, ErrNoFilePart
		}
		return nil, fmt.Errorf("parse form: %w", err)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			// Browsers submit an empty filename when nothing was chosen;
			// the part then lands among the plain values.
			if _, ok := r.MultipartForm.Value[field]; ok {
				return nil, ErrNoSelectedFile
			}
			return nil, ErrNoFilePart
		}
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = file.Close() }()

	if header.Filename == "" {
		return nil, ErrNoSelectedFile
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	return &Upload{
		Filename:     header.Filename,
		Data:         data,
		DetectedType: mimetype.Detect(data).String(),
	}, nil
}

// WriteUploadError maps a ReadUpload failure to a response.
func WriteUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoFilePart):
		WriteError(w, http.StatusBadRequest, MsgNoFilePart, CodeBadRequest)
	case errors.Is(err, ErrNoSelectedFile):
		WriteError(w, http.StatusBadRequest, MsgNoSelectedFile, CodeBadRequest)
	case errors.Is(err, ErrFileTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, MsgFileTooLarge, CodeTooLarge)
	default:
		WriteError(w, http.StatusBadRequest, err.Error(), CodeBadRequest)
	}
}

// WriteAttachment sends data as a downloadable file with the size headers
// the front-end reads.
func WriteAttachment(w http.ResponseWriter, filename, contentType string, data []byte, originalSize int64) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", ContentDisposition(filename))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set("X-Original-Size", strconv.FormatInt(originalSize, 10))
	h.Set("X-Processed-Size", strconv.Itoa(len(data)))
	h.Set("Access-Control-Expose-Headers", "X-Original-Size, X-Processed-Size, Content-Disposition")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ContentDisposition renders an attachment header for filename.
func ContentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return `attachment; filename="download"`
}

// FormValue returns the trimmed value of a form field.
func FormValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// CookieFile writes Netscape cookie-jar text to a single-use temp file.
// The returned cleanup removes it and must be called once the external
// call is done. Empty cookies yield an empty path and a no-op cleanup.
func CookieFile(ctx context.Context, store storage.Storage, cookies string) (string, func(), error) {
	if strings.TrimSpace(cookies) == "" {
		return "", func() {}, nil
	}
	path, err := store.SaveTemp(ctx, "cookies", strings.NewReader(cookies))
	if err != nil {
		return "", nil, fmt.Errorf("write cookies: %w", err)
	}
	return path, func() {
		if err := store.CleanupTemp(context.WithoutCancel(ctx), []string{path}); err != nil {
			slog.Warn("failed to remove cookie file",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
	}, nil
}
