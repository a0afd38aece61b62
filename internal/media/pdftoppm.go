package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// rasterizeTimeout bounds a single pdftoppm run.
const rasterizeTimeout = 60 * time.Second

// ErrEmptyDocument is returned when there is no PDF data to render.
var ErrEmptyDocument = errors.New("empty PDF document")

// WorkDirMaker provides private scratch directories.
type WorkDirMaker interface {
	MakeWorkDir(ctx context.Context, prefix string) (dir string, release func(), err error)
}

// Compile-time check that PDFRasterizer implements Rasterizer.
var _ Rasterizer = (*PDFRasterizer)(nil)

// PDFRasterizer renders PDF pages with the poppler pdftoppm binary.
type PDFRasterizer struct {
	pdftoppmPath string
	dirs         WorkDirMaker
	dpi          int
}

// NewPDFRasterizer creates a new PDFRasterizer.
// If pdftoppmPath is empty, it defaults to "pdftoppm" (found via PATH).
func NewPDFRasterizer(pdftoppmPath string, dirs WorkDirMaker) *PDFRasterizer {
	if pdftoppmPath == "" {
		pdftoppmPath = "pdftoppm"
	}
	return &PDFRasterizer{
		pdftoppmPath: pdftoppmPath,
		dirs:         dirs,
		dpi:          200,
	}
}

// RasterizeFirstPage implements Rasterizer.
func (r *PDFRasterizer) RasterizeFirstPage(ctx context.Context, pdf []byte) ([]byte, error) {
	if len(pdf) == 0 {
		return nil, ErrEmptyDocument
	}

	dir, release, err := r.dirs.MakeWorkDir(ctx, "pdf")
	if err != nil {
		return nil, fmt.Errorf("prepare work directory: %w", err)
	}
	defer release()

	input := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(input, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("write PDF: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, rasterizeTimeout)
	defer cancel()

	prefix := filepath.Join(dir, "page")
	args := []string{
		"-f", "1", // First page
		"-l", "1", // Last page
		"-singlefile", // No page-number suffix
		"-r", fmt.Sprint(r.dpi),
		"-png",
		input,
		prefix,
	}
	if _, err := runCommand(ctx, r.pdftoppmPath, args...); err != nil {
		return nil, err
	}

	out, err := os.ReadFile(prefix + ".png") // #nosec G304 - path is inside our work directory
	if err != nil {
		return nil, fmt.Errorf("read rendered page: %w", err)
	}
	return out, nil
}
