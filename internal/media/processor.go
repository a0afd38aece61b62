// Package media wraps the external binaries the tools depend on.
package media

import "context"

// Prober reports whether an external binary can be executed.
type Prober interface {
	// Available runs the binary's version command and reports success.
	Available(ctx context.Context) bool
}

// Rasterizer renders documents to raster images.
type Rasterizer interface {
	// RasterizeFirstPage renders page one of a PDF document and returns
	// the PNG-encoded image.
	RasterizeFirstPage(ctx context.Context, pdf []byte) ([]byte, error)
}
