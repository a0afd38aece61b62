// Package imageops implements the stateless image operations behind the
// compressor, converter and resizer tools.
package imageops

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	"image/png"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// DefaultQuality is used when the client sends no JPEG quality.
	DefaultQuality = 85
	// MinQuality and MaxQuality bound the JPEG quality accepted for compression.
	MinQuality = 1
	MaxQuality = 95
	// resizeQuality is the JPEG quality used when saving resized images.
	resizeQuality = 95
)

// Static errors for image operations.
var (
	// ErrUnsupportedFormat is returned when the input extension is not accepted by the operation.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrUnsupportedOutput is returned when the requested output format is not offered.
	ErrUnsupportedOutput = errors.New("unsupported output format")
	// ErrInvalidDimensions is returned when a resize target is not positive.
	ErrInvalidDimensions = errors.New("invalid dimensions: width and height must be positive")
	// ErrNoRasterizer is returned for PDF input when no rasterizer is configured.
	ErrNoRasterizer = errors.New("PDF support is not configured")
)

// Accepted formats per operation.
var (
	CompressFormats = []string{"png", "jpeg", "jpg"}
	ResizeFormats   = []string{"png", "jpeg", "jpg"}
	ConvertInputs   = []string{"pdf", "png", "jpeg", "jpg", "webp", "bmp", "tiff", "gif"}
	ConvertOutputs  = []string{"png", "jpg"}
)

// Rasterizer renders the first page of a PDF document as PNG.
type Rasterizer interface {
	RasterizeFirstPage(ctx context.Context, pdf []byte) ([]byte, error)
}

// Result is a fully produced output image.
type Result struct {
	Data          []byte
	Filename      string
	ContentType   string
	OriginalSize  int64
	ProcessedSize int64
}

// ProcessingError wraps a decode, render or encode failure.
type ProcessingError struct {
	// Op names the operation: compression, conversion or resizing.
	Op  string
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("image %s: %v", e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Message renders the failure for API clients.
func (e *ProcessingError) Message() string {
	return fmt.Sprintf("Error during image %s: %v", e.Op, e.Err)
}

// Processor runs image operations. It holds no per-call state and is safe
// for concurrent use.
type Processor struct {
	rasterizer Rasterizer
	logger     *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithRasterizer enables PDF input for Convert.
func WithRasterizer(r Rasterizer) Option {
	return func(p *Processor) {
		p.rasterizer = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProcessor creates a new Processor.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Compress re-encodes a PNG or JPEG image. JPEG output uses quality after
// clamping; PNG output uses the best compression level.
func (p *Processor) Compress(data []byte, filename string, quality int) (*Result, error) {
	ext := Extension(filename)
	if !slices.Contains(CompressFormats, ext) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &ProcessingError{Op: "compression", Err: err}
	}

	out, err := encode(img, ext, ClampQuality(quality))
	if err != nil {
		return nil, &ProcessingError{Op: "compression", Err: err}
	}

	res := newResult(data, out, Stem(filename)+"_compressed."+ext, ext)
	p.logResult("image compressed", res)
	return res, nil
}

// Convert decodes the input (rasterizing the first page of a PDF) and
// encodes it as output, which must be one of ConvertOutputs.
func (p *Processor) Convert(ctx context.Context, data []byte, filename, output string) (*Result, error) {
	ext := Extension(filename)
	output = strings.ToLower(output)
	if !slices.Contains(ConvertOutputs, output) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOutput, output)
	}
	if !slices.Contains(ConvertInputs, ext) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	source := data
	if ext == "pdf" {
		if p.rasterizer == nil {
			return nil, &ProcessingError{Op: "conversion", Err: ErrNoRasterizer}
		}
		page, err := p.rasterizer.RasterizeFirstPage(ctx, data)
		if err != nil {
			return nil, &ProcessingError{Op: "conversion", Err: err}
		}
		source = page
	}

	img, _, err := image.Decode(bytes.NewReader(source))
	if err != nil {
		return nil, &ProcessingError{Op: "conversion", Err: err}
	}

	out, err := encode(img, output, 0)
	if err != nil {
		return nil, &ProcessingError{Op: "conversion", Err: err}
	}

	res := newResult(data, out, Stem(filename)+"_converted."+output, output)
	p.logResult("image converted", res)
	return res, nil
}

// Resize scales a PNG or JPEG image. With keepAspect the image is fit
// inside width x height and never enlarged; otherwise it is stretched to
// exactly width x height.
func (p *Processor) Resize(data []byte, filename string, width, height int, keepAspect bool) (*Result, error) {
	ext := Extension(filename)
	if !slices.Contains(ResizeFormats, ext) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &ProcessingError{Op: "resizing", Err: err}
	}

	var resized image.Image
	if keepAspect {
		resized = resize.Thumbnail(uint(width), uint(height), img, resize.Lanczos3)
	} else {
		resized = resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
	}

	out, err := encode(resized, ext, resizeQuality)
	if err != nil {
		return nil, &ProcessingError{Op: "resizing", Err: err}
	}

	res := newResult(data, out, Stem(filename)+"_resized."+ext, ext)
	p.logger.Debug("image resized",
		slog.String("from", fmt.Sprintf("%dx%d", img.Bounds().Dx(), img.Bounds().Dy())),
		slog.String("to", fmt.Sprintf("%dx%d", resized.Bounds().Dx(), resized.Bounds().Dy())),
	)
	p.logResult("image resized", res)
	return res, nil
}

func (p *Processor) logResult(msg string, res *Result) {
	p.logger.Info(msg,
		slog.String("file", res.Filename),
		slog.String("original", humanize.Bytes(uint64(res.OriginalSize))),
		slog.String("processed", humanize.Bytes(uint64(res.ProcessedSize))),
	)
}

// ClampQuality bounds a JPEG quality to [MinQuality, MaxQuality].
func ClampQuality(q int) int {
	return max(MinQuality, min(q, MaxQuality))
}

// Extension returns the lower-cased text after the last dot of filename.
// A name without a dot is returned whole, lower-cased.
func Extension(filename string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		return strings.ToLower(filename[i+1:])
	}
	return strings.ToLower(filename)
}

// Stem returns filename without its extension.
func Stem(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// ContentType returns the MIME type for an image extension.
func ContentType(ext string) string {
	if ext == "jpg" {
		return "image/jpeg"
	}
	return "image/" + ext
}

func newResult(in, out []byte, filename, ext string) *Result {
	return &Result{
		Data:          out,
		Filename:      filename,
		ContentType:   ContentType(ext),
		OriginalSize:  int64(len(in)),
		ProcessedSize: int64(len(out)),
	}
}

// encode writes img as PNG or JPEG. quality <= 0 selects the encoder default.
func encode(img image.Image, ext string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch ext {
	case "jpg", "jpeg":
		opts := &jpeg.Options{Quality: jpeg.DefaultQuality}
		if quality > 0 {
			opts.Quality = quality
		}
		if err := jpeg.Encode(&buf, flatten(img), opts); err != nil {
			return nil, err
		}
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOutput, ext)
	}
	return buf.Bytes(), nil
}

// flatten composites images with transparency onto white; JPEG has no alpha.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}
