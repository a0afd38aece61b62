// Package imagetool holds the HTTP plumbing shared by the image tools.
package imagetool

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elvisgraho/local-tools/internal/imageops"
	"github.com/elvisgraho/local-tools/internal/tool"
)

// DefaultMaxUpload bounds request bodies when no limit is configured.
const DefaultMaxUpload = 50 << 20

// Endpoint returns the execute URL listed for an image tool.
func Endpoint(id string) string {
	return "/api/tool/" + id + "/execute"
}

// ExecutePath is the route pattern mounted for an image tool.
func ExecutePath(id string) string {
	return "/tool/" + id + "/execute"
}

// UnsupportedMessage renders the rejection for an input extension.
func UnsupportedMessage(ext string, supported []string) string {
	return fmt.Sprintf("Unsupported format: %s. Supported: [%s]", ext, strings.Join(supported, ", "))
}

// Respond streams a produced image as an attachment.
func Respond(w http.ResponseWriter, res *imageops.Result) {
	tool.WriteAttachment(w, res.Filename, res.ContentType, res.Data, res.OriginalSize)
}

// Fail maps an imageops error to a response. Format and dimension errors
// are the client's; everything else is a processing failure.
func Fail(w http.ResponseWriter, logger *slog.Logger, toolID string, err error) {
	var perr *imageops.ProcessingError
	switch {
	case errors.Is(err, imageops.ErrUnsupportedFormat), errors.Is(err, imageops.ErrUnsupportedOutput):
		tool.WriteError(w, http.StatusBadRequest, err.Error(), tool.CodeUnsupported)
	case errors.Is(err, imageops.ErrInvalidDimensions):
		tool.WriteError(w, http.StatusBadRequest, err.Error(), tool.CodeValidation)
	case errors.As(err, &perr):
		logger.Error("image processing failed",
			slog.String("tool_id", toolID),
			slog.String("error", err.Error()),
		)
		tool.WriteError(w, http.StatusInternalServerError, perr.Message(), tool.CodeProcessing)
	default:
		logger.Error("image processing failed",
			slog.String("tool_id", toolID),
			slog.String("error", err.Error()),
		)
		tool.WriteError(w, http.StatusInternalServerError, tool.MsgProcessing, tool.CodeProcessing)
	}
}

// LogUpload records an accepted upload.
func LogUpload(logger *slog.Logger, toolID string, u *tool.Upload) {
	logger.Debug("upload received",
		slog.String("tool_id", toolID),
		slog.String("filename", u.Filename),
		slog.String("detected_type", u.DetectedType),
		slog.Int64("bytes", u.Size()),
	)
}
