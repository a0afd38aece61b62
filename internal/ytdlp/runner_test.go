package ytdlp

import (
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	goytdlp "github.com/lrstanley/go-ytdlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertProgress(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 10, 0, time.UTC)
	started := now.Add(-10 * time.Second)

	t.Run("downloading", func(t *testing.T) {
		p, ok := convertProgress(goytdlp.ProgressUpdate{
			Status:          goytdlp.ProgressStatusDownloading,
			DownloadedBytes: 50,
			TotalBytes:      200,
			Started:         started,
		}, now)

		require.True(t, ok)
		assert.Equal(t, ProgressDownloading, p.Status)
		assert.Equal(t, int64(50), p.DownloadedBytes)
		assert.Equal(t, int64(200), p.TotalBytes)
		require.NotNil(t, p.Speed)
		assert.InDelta(t, 5.0, *p.Speed, 0.001)
	})

	t.Run("downloading without counters", func(t *testing.T) {
		p, ok := convertProgress(goytdlp.ProgressUpdate{
			Status: goytdlp.ProgressStatusDownloading,
		}, now)

		require.True(t, ok)
		assert.Nil(t, p.Speed)
		assert.Nil(t, p.ETA)
	})

	t.Run("finished", func(t *testing.T) {
		p, ok := convertProgress(goytdlp.ProgressUpdate{
			Status:   goytdlp.ProgressStatusFinished,
			Filename: "/tmp/work/abc.webm",
		}, now)

		require.True(t, ok)
		assert.Equal(t, ProgressFinished, p.Status)
		assert.Equal(t, "/tmp/work/abc.webm", p.Filename)
	})

	t.Run("error", func(t *testing.T) {
		p, ok := convertProgress(goytdlp.ProgressUpdate{Status: goytdlp.ProgressStatusError}, now)

		require.True(t, ok)
		assert.Equal(t, ProgressError, p.Status)
	})

	t.Run("post processing is dropped", func(t *testing.T) {
		_, ok := convertProgress(goytdlp.ProgressUpdate{Status: goytdlp.ProgressStatus("post_processing")}, now)
		assert.False(t, ok)
	})
}

func TestLastErrorLine(t *testing.T) {
	stderr := "WARNING: something\nERROR: [youtube] abc: first\nnoise\nERROR: [youtube] abc: Private video. Sign in if you've been granted access\n"

	assert.Equal(t, "[youtube] abc: Private video. Sign in if you've been granted access", lastErrorLine(stderr))
	assert.Equal(t, "", lastErrorLine("all good\n"))
}

func TestFailureMessage(t *testing.T) {
	cause := errors.New("exit status 1")

	assert.Equal(t, "exit status 1", failureMessage(nil, cause))
	assert.Equal(t, "Video unavailable", failureMessage(&goytdlp.Result{Stderr: "ERROR: Video unavailable"}, cause))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("exit status 1")
	err := error(&Error{Op: "download", Message: "HTTP Error 403: Forbidden", Err: cause})

	assert.Equal(t, "HTTP Error 403: Forbidden", err.Error())
	assert.ErrorIs(t, err, cause)

	var ytErr *Error
	require.ErrorAs(t, err, &ytErr)
	assert.Equal(t, "download", ytErr.Op)
}

func TestInfo_Unmarshal(t *testing.T) {
	raw := `{
		"id": "dQw4w9WgXcQ",
		"title": "Never Gonna Give You Up",
		"thumbnail": "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
		"duration": 212,
		"formats": [
			{"format_id": "140", "ext": "m4a", "vcodec": "none", "acodec": "mp4a.40.2", "height": null, "fps": null, "filesize": 3433514},
			{"format_id": "22", "ext": "mp4", "vcodec": "avc1", "acodec": "mp4a", "height": 720, "fps": 25, "filesize_approx": 1000}
		],
		"subtitles": {"en": [{"ext": "vtt", "url": "https://example.test/en.vtt", "name": "English"}]},
		"automatic_captions": {"en": [{"ext": "json3", "url": "https://example.test/en.json3"}]}
	}`

	var info Info
	require.NoError(t, json.Unmarshal([]byte(raw), &info))

	assert.Equal(t, "dQw4w9WgXcQ", info.ID)
	assert.Equal(t, float64(212), info.Duration)
	require.Len(t, info.Formats, 2)
	assert.Nil(t, info.Formats[0].Height)
	assert.False(t, info.Formats[0].HasVideo())
	assert.True(t, info.Formats[0].HasAudio())
	assert.Equal(t, 720, *info.Formats[1].Height)
	assert.Equal(t, "vtt", info.Subtitles["en"][0].Ext)
	assert.Equal(t, "json3", info.AutomaticCaptions["en"][0].Ext)
}

func TestNewRunner_Options(t *testing.T) {
	r := NewRunner(WithExecutable("/opt/yt-dlp"), WithProgressInterval(time.Second), WithProgressInterval(0))

	assert.Equal(t, "/opt/yt-dlp", r.executable)
	assert.Equal(t, time.Second, r.progressInterval)
	assert.NotNil(t, r.logger)
}

// TestRunner_ExtractInfo_Live hits the network and needs yt-dlp on PATH.
func TestRunner_ExtractInfo_Live(t *testing.T) {
	if os.Getenv("YTDLP_LIVE_TEST") == "" {
		t.Skip("set YTDLP_LIVE_TEST=1 to run against YouTube")
	}

	info, err := NewRunner().ExtractInfo(t.Context(), "https://www.youtube.com/watch?v=jNQXAC9IVRw", InfoOptions{})
	require.NoError(t, err)
	assert.Equal(t, "jNQXAC9IVRw", info.ID)
	assert.NotEmpty(t, info.Formats)
}
