// Package storage manages the local directories used by the tools: a temp
// area for per-request scratch files and per-download work directories, and
// the shared output directory where finished downloads are placed.
package storage

import (
	"context"
	"io"
	"os"
)

// Storage defines the file operations needed by the tools and download workers.
type Storage interface {
	// SaveTemp saves data to a temporary file and returns the file path.
	// The name parameter is used as a hint for the filename.
	SaveTemp(ctx context.Context, name string, data io.Reader) (path string, err error)

	// CleanupTemp removes the specified temporary files.
	// It continues cleanup even if some files fail to delete.
	CleanupTemp(ctx context.Context, paths []string) error

	// MakeWorkDir creates a private scratch directory. The returned release
	// func removes it with everything inside and is safe to call more than once.
	MakeWorkDir(ctx context.Context, prefix string) (dir string, release func(), err error)

	// Place moves src into the output directory as name and returns the
	// absolute destination path. An existing file with the same name is replaced.
	Place(ctx context.Context, src, name string) (string, error)

	// OpenArtifact opens a finished artifact for streaming.
	// The caller is responsible for closing the returned file.
	OpenArtifact(ctx context.Context, path string) (*os.File, error)
}
