package config

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadMap(t *testing.T, env map[string]string) *Config {
	t.Helper()
	cfg, err := load(context.Background(), envconfig.MapLookuper(env))
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadMap(t, nil)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "./downloads", cfg.OutputDir)
	assert.Equal(t, "/tmp/local-tools", cfg.TempDir)
	assert.Equal(t, "./frontend", cfg.StaticDir)
	assert.Empty(t, cfg.YtDlpPath)
	assert.False(t, cfg.YtDlpAutoInstall)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, "pdftoppm", cfg.PdfToPPMPath)
	assert.Equal(t, int64(50), cfg.MaxUploadMB)
	assert.Equal(t, "en", cfg.SubtitleLang)
	assert.Equal(t, 30*time.Second, cfg.SubtitleFetchTimeout)
	assert.Equal(t, 128, cfg.InfoCacheSize)
	assert.Equal(t, 5*time.Minute, cfg.InfoCacheTTL)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_CustomValues(t *testing.T) {
	cfg := loadMap(t, map[string]string{
		"PORT":                   "3000",
		"ALLOWED_ORIGINS":        "http://localhost:3000,https://tools.example",
		"OUTPUT_DIR":             "/data/out",
		"TEMP_DIR":               "/data/tmp",
		"YTDLP_PATH":             "/usr/local/bin/yt-dlp",
		"YTDLP_AUTO_INSTALL":     "true",
		"MAX_UPLOAD_MB":          "10",
		"SUBTITLE_LANG":          "de",
		"SUBTITLE_FETCH_TIMEOUT": "5s",
		"INFO_CACHE_SIZE":        "0",
		"LOG_FORMAT":             "json",
		"LOG_LEVEL":              "debug",
	})

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, []string{"http://localhost:3000", "https://tools.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "/data/out", cfg.OutputDir)
	assert.Equal(t, "/usr/local/bin/yt-dlp", cfg.YtDlpPath)
	assert.True(t, cfg.YtDlpAutoInstall)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes())
	assert.Equal(t, "de", cfg.SubtitleLang)
	assert.Equal(t, 5*time.Second, cfg.SubtitleFetchTimeout)
	assert.Zero(t, cfg.InfoCacheSize)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STATIC_DIR", "/srv/frontend")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/srv/frontend", cfg.StaticDir)
}

func TestLoad_InvalidValue(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{"PORT": "eighty"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config:")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"port too low", func(c *Config) { c.Port = 0 }, ErrInvalidPort},
		{"port too high", func(c *Config) { c.Port = 70000 }, ErrInvalidPort},
		{"empty output dir", func(c *Config) { c.OutputDir = " " }, ErrDirRequired},
		{"empty static dir", func(c *Config) { c.StaticDir = "" }, ErrDirRequired},
		{"zero upload", func(c *Config) { c.MaxUploadMB = 0 }, ErrInvalidMaxUpload},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, ErrInvalidLogFormat},
		{"zero subtitle timeout", func(c *Config) { c.SubtitleFetchTimeout = 0 }, ErrInvalidTimeout},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }, ErrInvalidTimeout},
		{"negative cache", func(c *Config) { c.InfoCacheSize = -1 }, ErrInvalidCacheSize},
		{"cache without ttl", func(c *Config) { c.InfoCacheTTL = 0 }, ErrInvalidTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadMap(t, nil)
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestValidate_CacheDisabledIgnoresTTL(t *testing.T) {
	cfg := loadMap(t, map[string]string{"INFO_CACHE_SIZE": "0", "INFO_CACHE_TTL": "0s"})
	assert.NoError(t, cfg.Validate())
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "text"} {
		t.Run(format, func(t *testing.T) {
			cfg := &Config{LogFormat: format, LogLevel: "debug"}
			logger := cfg.NewLogger()
			require.NotNil(t, logger)
			assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
		})
	}
}

func TestNewLogger_JSONHandler(t *testing.T) {
	cfg := &Config{LogFormat: "JSON"}
	_, isJSON := cfg.NewLogger().Handler().(*slog.JSONHandler)
	assert.True(t, isJSON)

	cfg.LogFormat = "text"
	_, isText := cfg.NewLogger().Handler().(*slog.TextHandler)
	assert.True(t, isText)
}

func TestString(t *testing.T) {
	cfg := loadMap(t, map[string]string{"PORT": "8181"})

	s := cfg.String()

	assert.True(t, strings.HasPrefix(s, "Config{"))
	assert.Contains(t, s, "Port: 8181")
	assert.Contains(t, s, "OutputDir: ./downloads")
	assert.Contains(t, s, "InfoCacheTTL: 5m0s")
}
