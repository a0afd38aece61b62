package youtubedownloader

import (
	"fmt"
	"time"

	"github.com/elvisgraho/local-tools/internal/job"
	"github.com/elvisgraho/local-tools/internal/ytdlp"
)

// InfoResponse is returned by get_info.
type InfoResponse struct {
	ID               string               `json:"id"`
	Title            string               `json:"title"`
	Thumbnail        string               `json:"thumbnail"`
	Duration         float64              `json:"duration"`
	AvailableFormats []ytdlp.FormatOption `json:"available_formats"`
	FFmpegInstalled  bool                 `json:"ffmpeg_installed"`
}

// StartResponse is returned by download.
type StartResponse struct {
	Status  string `json:"status"`
	VideoID string `json:"video_id"`
}

// ProgressResponse is the public rendering of a job.
type ProgressResponse struct {
	VideoID  string  `json:"video_id"`
	URL      string  `json:"url"`
	Title    string  `json:"title"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	// Speed is "<n.nn> MB/s" or "N/A".
	Speed string `json:"speed"`
	// ETA is "MM:SS" or "N/A".
	ETA string `json:"eta"`
	// Filename is the artifact's absolute path once completed.
	Filename *string `json:"filename"`
	Error    *string `json:"error"`
}

// NotFoundResponse is returned by progress for unknown ids.
type NotFoundResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// FFmpegResponse is returned by check_ffmpeg.
type FFmpegResponse struct {
	Installed bool `json:"installed"`
}

// downloadForm holds the validated download fields.
type downloadForm struct {
	URL     string `validate:"required"`
	Format  string `validate:"oneof=mp4 mp3"`
	Quality string
	Cookies string
}

// newProgressResponse renders j for clients.
func newProgressResponse(j *job.Job) ProgressResponse {
	resp := ProgressResponse{
		VideoID:  j.ID,
		URL:      j.URL,
		Title:    j.Title,
		Status:   string(j.Status),
		Progress: j.Progress,
		Speed:    formatSpeed(j.Speed),
		ETA:      formatETA(j.ETA),
	}
	if j.Filename != "" {
		name := j.Filename
		resp.Filename = &name
	}
	if j.Error != "" {
		msg := j.Error
		resp.Error = &msg
	}
	return resp
}

func formatSpeed(bps *float64) string {
	if bps == nil || *bps <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f MB/s", *bps/1024/1024)
}

func formatETA(eta *time.Duration) string {
	if eta == nil || *eta < 0 {
		return "N/A"
	}
	secs := int(eta.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
