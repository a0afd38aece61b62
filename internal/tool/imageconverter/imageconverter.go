// Package imageconverter exposes format conversion to PNG or JPG,
// including first-page rendering of PDF documents.
package imageconverter

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/elvisgraho/local-tools/internal/imageops"
	"github.com/elvisgraho/local-tools/internal/tool"
	"github.com/elvisgraho/local-tools/internal/tool/imagetool"
)

// ID is the tool identifier.
const ID = "image-converter"

// Compile-time check that Tool implements tool.Tool.
var _ tool.Tool = (*Tool)(nil)

// convertForm holds the non-file form fields.
type convertForm struct {
	OutputFormat string `validate:"oneof=png jpg"`
}

// Tool is the image converter.
type Tool struct {
	proc      *imageops.Processor
	validator *validator.Validate
	maxUpload int64
	logger    *slog.Logger
}

// New creates the converter. maxUpload <= 0 selects the default limit.
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
		Name:        "Image Converter",
		Description: "Convert image formats (PDF, PNG, JPG/JPEG to PNG or JPG).",
		Endpoint:    imagetool.Endpoint(ID),
		Icon:        "bi-arrow-left-right",
	}
}

// Mount implements tool.Tool.
func (t *Tool) Mount(r chi.Router) {
	r.Post(imagetool.ExecutePath(ID), t.Execute)
}

// Execute handles POST /tool/image-converter/execute.
func (t *Tool) Execute(w http.ResponseWriter, r *http.Request) {
	upload, err := tool.ReadUpload(w, r, "file", t.maxUpload)
	if err != nil {
		tool.WriteUploadError(w, err)
		return
	}
	imagetool.LogUpload(t.logger, ID, upload)

	form := convertForm{OutputFormat: strings.ToLower(tool.FormValue(r, "output_format"))}
	if form.OutputFormat == "" {
		form.OutputFormat = "png"
	}
	if err := t.validator.Struct(form); err != nil {
		tool.WriteError(w, http.StatusBadRequest,
			"Invalid output format: "+form.OutputFormat+". Supported: ["+strings.Join(imageops.ConvertOutputs, ", ")+"]",
			tool.CodeUnsupported)
		return
	}

	ext := imageops.Extension(upload.Filename)
	if !slices.Contains(imageops.ConvertInputs, ext) {
		tool.WriteError(w, http.StatusBadRequest, imagetool.UnsupportedMessage(ext, imageops.ConvertInputs), tool.CodeUnsupported)
		return
	}

	res, err := t.proc.Convert(r.Context(), upload.Data, upload.Filename, form.OutputFormat)
	if err != nil {
		imagetool.Fail(w, t.logger, ID, err)
		return
	}
	imagetool.Respond(w, res)
}
