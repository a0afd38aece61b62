// Package imagecompressor exposes JPEG/PNG re-compression.
package imagecompressor

import (
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/elvisgraho/local-tools/internal/imageops"
	"github.com/elvisgraho/local-tools/internal/tool"
	"github.com/elvisgraho/local-tools/internal/tool/imagetool"
)

// ID is the tool identifier.
const ID = "image-compressor"

// Compile-time check that Tool implements tool.Tool.
var _ tool.Tool = (*Tool)(nil)

// Tool is the image compressor.
type Tool struct {
	proc      *imageops.Processor
	maxUpload int64
	logger    *slog.Logger
}

// New creates the compressor. maxUpload <= 0 selects the default limit.
func New(proc *imageops.Processor, maxUpload int64, logger *slog.Logger) *Tool {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUpload <= 0 {
		maxUpload = imagetool.DefaultMaxUpload
	}
	return &Tool{proc: proc, maxUpload: maxUpload, logger: logger}
}

// Describe implements tool.Tool.
func (t *Tool) Describe() tool.Descriptor {
	return tool.Descriptor{
		ID:          ID,
		Name:        "Image Compressor",
		Description: "Compress PNG or JPG/JPEG images.",
		Endpoint:    imagetool.Endpoint(ID),
		Icon:        "bi-file-earmark-zip",
	}
}

// Mount implements tool.Tool.
func (t *Tool) Mount(r chi.Router) {
	r.Post(imagetool.ExecutePath(ID), t.Execute)
}

// Execute handles POST /tool/image-compressor/execute.
func (t *Tool) Execute(w http.ResponseWriter, r *http.Request) {
	upload, err := tool.ReadUpload(w, r, "file", t.maxUpload)
	if err != nil {
		tool.WriteUploadError(w, err)
		return
	}
	imagetool.LogUpload(t.logger, ID, upload)

	ext := imageops.Extension(upload.Filename)

	quality := imageops.DefaultQuality
	if ext == "jpg" || ext == "jpeg" {
		if raw, ok := r.MultipartForm.Value["quality"]; ok && len(raw) > 0 {
			q, err := strconv.Atoi(raw[0])
			if err != nil {
				tool.WriteError(w, http.StatusBadRequest, "Invalid quality value, must be an integer.", tool.CodeValidation)
				return
			}
			quality = q
		}
	}

	if !slices.Contains(imageops.CompressFormats, ext) {
		tool.WriteError(w, http.StatusBadRequest, imagetool.UnsupportedMessage(ext, imageops.CompressFormats), tool.CodeUnsupported)
		return
	}

	res, err := t.proc.Compress(upload.Data, upload.Filename, quality)
	if err != nil {
		imagetool.Fail(w, t.logger, ID, err)
		return
	}
	imagetool.Respond(w, res)
}
