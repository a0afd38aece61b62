package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"unicode"
)

// ErrNotRegularFile is returned when an artifact path points to a directory or device.
var ErrNotRegularFile = errors.New("not a regular file")

// Compile-time check that LocalStorage implements Storage.
var _ Storage = (*LocalStorage)(nil)

// LocalStorage implements Storage on local disk.
type LocalStorage struct {
	tempDir   string
	outputDir string
}

// NewLocalStorage creates a new LocalStorage instance.
// If tempDir is empty, a "local-tools" directory under os.TempDir() is used.
// If outputDir is empty, "downloads" in the working directory is used.
// Both directories are created if they don't exist.
func NewLocalStorage(tempDir, outputDir string) (*LocalStorage, error) {
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "local-tools")
	}
	if outputDir == "" {
		outputDir = "downloads"
	}

	absOut, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}

	if err := os.MkdirAll(tempDir, 0750); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	if err := os.MkdirAll(absOut, 0750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	return &LocalStorage{tempDir: tempDir, outputDir: absOut}, nil
}

// TempDir returns the temporary directory path.
func (s *LocalStorage) TempDir() string {
	return s.tempDir
}

// OutputDir returns the absolute output directory path.
func (s *LocalStorage) OutputDir() string {
	return s.outputDir
}

// SaveTemp saves data to a temporary file and returns the file path.
// The name is used as a base for the filename with a unique suffix.
func (s *LocalStorage) SaveTemp(ctx context.Context, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	f, err := os.CreateTemp(s.tempDir, name+"_*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	fileName := f.Name()
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(fileName)
		return "", fmt.Errorf("write temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(fileName)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return fileName, nil
}

// CleanupTemp removes the specified temporary files.
// It continues cleanup even if some files fail to delete,
// returning the first error encountered.
func (s *LocalStorage) CleanupTemp(ctx context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove temp file %s: %w", p, err)
			}
		}
	}
	return firstErr
}

// MakeWorkDir creates a private scratch directory under the temp directory.
func (s *LocalStorage) MakeWorkDir(ctx context.Context, prefix string) (string, func(), error) {
	select {
	case <-ctx.Done():
		return "", nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	dir, err := os.MkdirTemp(s.tempDir, prefix+"_*")
	if err != nil {
		return "", nil, fmt.Errorf("create work directory: %w", err)
	}

	var once sync.Once
	release := func() {
		once.Do(func() { _ = os.RemoveAll(dir) })
	}
	return dir, release, nil
}

// Place moves src into the output directory as name.
// A rename is tried first; across filesystems the file is copied and the
// source removed.
func (s *LocalStorage) Place(ctx context.Context, src, name string) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	// The destination always stays inside the output directory.
	dst := filepath.Join(s.outputDir, filepath.Base(name))

	err := os.Rename(src, dst)
	if err == nil {
		return dst, nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return "", fmt.Errorf("move artifact: %w", err)
	}

	if err := copyFile(src, dst); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("copy artifact: %w", err)
	}
	_ = os.Remove(src)
	return dst, nil
}

// OpenArtifact opens a finished artifact for streaming.
func (s *LocalStorage) OpenArtifact(ctx context.Context, path string) (*os.File, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	f, err := os.Open(path) // #nosec G304 - path comes from the job registry
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat artifact: %w", err)
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}

	return f, nil
}

// copyFile copies src to dst, creating or truncating dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src) // #nosec G304 - path is inside our work directory
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst) // #nosec G304 - dst is inside the output directory
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// SanitizeFilename keeps letters, digits, spaces, hyphens and underscores,
// replaces every other rune with an underscore and trims surrounding
// whitespace. Returns fallback when nothing usable is left.
func SanitizeFilename(title, fallback string) string {
	var b strings.Builder
	for _, r := range title {
		if isAlnum(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	name := strings.TrimSpace(b.String())
	if name == "" {
		return fallback
	}
	return name
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
