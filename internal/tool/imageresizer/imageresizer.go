// Package imageresizer exposes JPEG/PNG resizing.
package imageresizer

import (
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/elvisgraho/local-tools/internal/imageops"
	"github.com/elvisgraho/local-tools/internal/tool"
	"github.com/elvisgraho/local-tools/internal/tool/imagetool"
)

// ID is the tool identifier.
const ID = "image-resizer"

// Compile-time check that Tool implements tool.Tool.
var _ tool.Tool = (*Tool)(nil)

// resizeForm holds the non-file form fields.
type resizeForm struct {
	Width      int `validate:"min=1,max=20000"`
	Height     int `validate:"min=1,max=20000"`
	KeepAspect bool
}

// Tool is the image resizer.
type Tool struct {
	proc      *imageops.Processor
	validator *validator.Validate
	maxUpload int64
	logger    *slog.Logger
}

// New creates the resizer. maxUpload <= 0 selects the default limit.
func New(proc *imageops.Processor, maxUpload int64, logger *slog.Logger) *Tool {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUpload <= 0 {
		maxUpload = imagetool.DefaultMaxUpload
	}
	return &Tool{
		proc:      proc,
		validator: validator.New(),
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// Describe implements tool.Tool.
func (t *Tool) Describe() tool.Descriptor {
	return tool.Descriptor{
		ID:          ID,
		Name:        "Image Resizer",
		Description: "Resize PNG or JPG/JPEG images to specific dimensions.",
		Endpoint:    imagetool.Endpoint(ID),
		Icon:        "bi-aspect-ratio",
	}
}

// Mount implements tool.Tool.
func (t *Tool) Mount(r chi.Router) {
	r.Post(imagetool.ExecutePath(ID), t.Execute)
}

// Execute handles POST /tool/image-resizer/execute.
func (t *Tool) Execute(w http.ResponseWriter, r *http.Request) {
	upload, err := tool.ReadUpload(w, r, "file", t.maxUpload)
	if err != nil {
		tool.WriteUploadError(w, err)
		return
	}
	imagetool.LogUpload(t.logger, ID, upload)

	width, werr := strconv.Atoi(tool.FormValue(r, "width"))
	height, herr := strconv.Atoi(tool.FormValue(r, "height"))
	if werr != nil || herr != nil {
		tool.WriteError(w, http.StatusBadRequest, "Invalid width or height provided. Must be integers.", tool.CodeValidation)
		return
	}

	aspect := tool.FormValue(r, "maintain_aspect_ratio")
	form := resizeForm{
		Width:      width,
		Height:     height,
		KeepAspect: aspect == "" || strings.EqualFold(aspect, "true"),
	}
	if err := t.validator.Struct(form); err != nil {
		tool.WriteError(w, http.StatusBadRequest, "Invalid width or height provided. Must be between 1 and 20000.", tool.CodeValidation)
		return
	}

	ext := imageops.Extension(upload.Filename)
	if !slices.Contains(imageops.ResizeFormats, ext) {
		tool.WriteError(w, http.StatusBadRequest, imagetool.UnsupportedMessage(ext, imageops.ResizeFormats), tool.CodeUnsupported)
		return
	}

	res, err := t.proc.Resize(upload.Data, upload.Filename, form.Width, form.Height, form.KeepAspect)
	if err != nil {
		imagetool.Fail(w, t.logger, ID, err)
		return
	}
	imagetool.Respond(w, res)
}
