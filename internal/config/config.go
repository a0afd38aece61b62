// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrInvalidPort is returned when PORT is outside 1-65535.
	ErrInvalidPort = errors.New("config: PORT must be between 1 and 65535")
	// ErrDirRequired is returned when one of the directory settings is empty.
	ErrDirRequired = errors.New("config: OUTPUT_DIR, TEMP_DIR and STATIC_DIR must be set")
	// ErrInvalidMaxUpload is returned when MAX_UPLOAD_MB is not positive.
	ErrInvalidMaxUpload = errors.New("config: MAX_UPLOAD_MB must be positive")
	// ErrInvalidLogFormat is returned for LOG_FORMAT values other than text or json.
	ErrInvalidLogFormat = errors.New("config: LOG_FORMAT must be text or json")
	// ErrInvalidTimeout is returned when a timeout setting is not positive.
	ErrInvalidTimeout = errors.New("config: timeouts must be positive")
	// ErrInvalidCacheSize is returned when INFO_CACHE_SIZE is negative.
	ErrInvalidCacheSize = errors.New("config: INFO_CACHE_SIZE must not be negative")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port            int           `env:"PORT, default=8080" json:"port"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS, default=*" json:"allowed_origins"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=30s" json:"shutdown_timeout"`

	// Storage settings
	OutputDir string `env:"OUTPUT_DIR, default=./downloads" json:"output_dir"`
	TempDir   string `env:"TEMP_DIR, default=/tmp/local-tools" json:"temp_dir"`
	StaticDir string `env:"STATIC_DIR, default=./frontend" json:"static_dir"`

	// External binaries
	YtDlpPath        string `env:"YTDLP_PATH" json:"ytdlp_path,omitempty"`
	YtDlpAutoInstall bool   `env:"YTDLP_AUTO_INSTALL, default=false" json:"ytdlp_auto_install"`
	FFmpegPath       string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	PdfToPPMPath     string `env:"PDFTOPPM_PATH, default=pdftoppm" json:"pdftoppm_path"`

	// Tool settings
	MaxUploadMB          int64         `env:"MAX_UPLOAD_MB, default=50" json:"max_upload_mb"`
	SubtitleLang         string        `env:"SUBTITLE_LANG, default=en" json:"subtitle_lang"`
	SubtitleFetchTimeout time.Duration `env:"SUBTITLE_FETCH_TIMEOUT, default=30s" json:"subtitle_fetch_timeout"`
	InfoCacheSize        int           `env:"INFO_CACHE_SIZE, default=128" json:"info_cache_size"`
	InfoCacheTTL         time.Duration `env:"INFO_CACHE_TTL, default=5m" json:"info_cache_ttl"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	return load(context.Background(), envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if strings.TrimSpace(c.OutputDir) == "" || strings.TrimSpace(c.TempDir) == "" || strings.TrimSpace(c.StaticDir) == "" {
		return ErrDirRequired
	}
	if c.MaxUploadMB <= 0 {
		return ErrInvalidMaxUpload
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return ErrInvalidLogFormat
	}
	if c.SubtitleFetchTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.InfoCacheSize < 0 {
		return ErrInvalidCacheSize
	}
	if c.InfoCacheSize > 0 && c.InfoCacheTTL <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, OutputDir: %s, TempDir: %s, StaticDir: %s, YtDlpPath: %s, FFmpegPath: %s, MaxUploadMB: %d, SubtitleLang: %s, InfoCacheSize: %d, InfoCacheTTL: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.OutputDir,
		c.TempDir,
		c.StaticDir,
		c.YtDlpPath,
		c.FFmpegPath,
		c.MaxUploadMB,
		c.SubtitleLang,
		c.InfoCacheSize,
		c.InfoCacheTTL,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
