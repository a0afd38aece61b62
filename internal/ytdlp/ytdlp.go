// Package ytdlp wraps the yt-dlp extractor behind a narrow Client interface:
// metadata extraction and media download with progress callbacks.
package ytdlp

import (
	"context"
	"errors"
	"time"
)

// MediaKind selects the download pipeline.
type MediaKind string

const (
	// KindVideo downloads an mp4, merging separate streams when needed.
	KindVideo MediaKind = "mp4"
	// KindAudio extracts the audio track to mp3.
	KindAudio MediaKind = "mp3"
)

// IsValid returns true if the kind is a supported pipeline.
func (k MediaKind) IsValid() bool {
	return k == KindVideo || k == KindAudio
}

// ErrEmptyOutput is returned when the extractor exited cleanly without printing metadata.
var ErrEmptyOutput = errors.New("yt-dlp returned no metadata")

// Client is the contract the tools rely on.
type Client interface {
	// ExtractInfo fetches metadata for url without downloading media.
	ExtractInfo(ctx context.Context, url string, opts InfoOptions) (*Info, error)

	// Download fetches url into opts.Dir. onProgress is called from the
	// extractor's goroutine and must not block for long.
	Download(ctx context.Context, url string, opts DownloadOptions, onProgress func(Progress)) error
}

// InfoOptions configures a metadata extraction.
type InfoOptions struct {
	// CookieFile is a Netscape cookie jar path; empty means none.
	CookieFile string
}

// DownloadOptions configures a download.
type DownloadOptions struct {
	Kind MediaKind
	// MaxHeight bounds the video height; 0 means best available.
	MaxHeight int
	// Dir receives files named "<id>.<ext>".
	Dir string
	// CookieFile is a Netscape cookie jar path; empty means none.
	CookieFile string
}

// ProgressStatus mirrors the downloader's hook states.
type ProgressStatus string

const (
	ProgressDownloading ProgressStatus = "downloading"
	ProgressFinished    ProgressStatus = "finished"
	ProgressError       ProgressStatus = "error"
)

// Progress is one callback from a running download.
type Progress struct {
	Status          ProgressStatus
	DownloadedBytes int64
	TotalBytes      int64
	// Speed in bytes per second; nil when unknown.
	Speed *float64
	// ETA is nil when unknown.
	ETA *time.Duration
	// Filename is the file written so far, reported on ProgressFinished.
	Filename string
	// Message describes a ProgressError.
	Message string
}

// Info is the subset of yt-dlp's --dump-single-json output used by the tools.
type Info struct {
	ID                string                `json:"id"`
	Title             string                `json:"title"`
	Thumbnail         string                `json:"thumbnail"`
	Duration          float64               `json:"duration"`
	WebpageURL        string                `json:"webpage_url"`
	Formats           []Format              `json:"formats"`
	Subtitles         map[string][]Subtitle `json:"subtitles"`
	AutomaticCaptions map[string][]Subtitle `json:"automatic_captions"`
}

// Format is one entry of Info.Formats.
type Format struct {
	FormatID       string   `json:"format_id"`
	Ext            string   `json:"ext"`
	FormatNote     string   `json:"format_note"`
	Height         *int     `json:"height"`
	FPS            *float64 `json:"fps"`
	VCodec         string   `json:"vcodec"`
	ACodec         string   `json:"acodec"`
	Filesize       *int64   `json:"filesize"`
	FilesizeApprox *int64   `json:"filesize_approx"`
}

// HasAudio reports whether the format carries an audio stream.
func (f Format) HasAudio() bool { return f.ACodec != "" && f.ACodec != "none" }

// HasVideo reports whether the format carries a video stream.
func (f Format) HasVideo() bool { return f.VCodec != "" && f.VCodec != "none" }

// Size returns the exact size when known, otherwise the estimate.
func (f Format) Size() int64 {
	if f.Filesize != nil && *f.Filesize > 0 {
		return *f.Filesize
	}
	if f.FilesizeApprox != nil {
		return *f.FilesizeApprox
	}
	return 0
}

// Subtitle is one caption rendition.
type Subtitle struct {
	Ext  string `json:"ext"`
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}
