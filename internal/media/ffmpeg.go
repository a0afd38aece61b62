package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// probeTimeout bounds a single version probe.
const probeTimeout = 5 * time.Second

// ErrEmptyVersion is returned when a binary prints nothing for -version.
var ErrEmptyVersion = errors.New("empty version output")

// Compile-time check that FFmpegProbe implements Prober.
var _ Prober = (*FFmpegProbe)(nil)

// FFmpegProbe checks for the ffmpeg binary used to merge separate video
// and audio streams.
type FFmpegProbe struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
}

// NewFFmpegProbe creates a new FFmpegProbe.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegProbe(ffmpegPath string) *FFmpegProbe {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegProbe{ffmpegPath: ffmpegPath}
}

// Available implements Prober.
func (p *FFmpegProbe) Available(ctx context.Context) bool {
	_, err := p.Version(ctx)
	return err == nil
}

// Version returns the first line printed by "ffmpeg -version".
func (p *FFmpegProbe) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := runCommand(ctx, p.ffmpegPath, "-version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	if line == "" {
		return "", ErrEmptyVersion
	}
	return line, nil
}

// runCommand executes name with args and returns stdout. Failures carry
// the stderr output in a *CommandError.
func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	// #nosec G204 - binary paths come from configuration, not user input
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s cancelled: %w", name, ctx.Err())
		}
		return nil, &CommandError{
			Name:   name,
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return stdout.Bytes(), nil
}

// CommandError represents a failed external command, including its stderr output.
type CommandError struct {
	Name   string
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s error: %v\nargs: %v\nstderr: %s", e.Name, e.Err, e.Args, e.Stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
