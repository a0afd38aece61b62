package bootstrap

import (
	"log/slog"
	"time"

	"github.com/elvisgraho/local-tools/internal/imageops"
	"github.com/elvisgraho/local-tools/internal/job"
	"github.com/elvisgraho/local-tools/internal/media"
	"github.com/elvisgraho/local-tools/internal/storage"
	"github.com/elvisgraho/local-tools/internal/tool"
	"github.com/elvisgraho/local-tools/internal/tool/imagecompressor"
	"github.com/elvisgraho/local-tools/internal/tool/imageconverter"
	"github.com/elvisgraho/local-tools/internal/tool/imageresizer"
	"github.com/elvisgraho/local-tools/internal/tool/youtubedownloader"
	"github.com/elvisgraho/local-tools/internal/tool/youtubetranscript"
	"github.com/elvisgraho/local-tools/internal/ytdlp"
)

// ToolDeps carries what the hosted tools are built from.
type ToolDeps struct {
	Processor  *imageops.Processor
	MaxUpload  int64
	Jobs       job.Registry
	Client     ytdlp.Client
	Starter    youtubedownloader.Starter
	Storage    storage.Storage
	FFmpeg     media.Prober
	Transcript youtubetranscript.Transcriber
	CacheSize  int
	CacheTTL   time.Duration
	Logger     *slog.Logger
}

// Tools returns the hosted tools in listing order.
func Tools(d ToolDeps) []tool.Tool {
	return []tool.Tool{
		imagecompressor.New(d.Processor, d.MaxUpload, d.Logger),
		imageconverter.New(d.Processor, d.MaxUpload, d.Logger),
		imageresizer.New(d.Processor, d.MaxUpload, d.Logger),
		youtubedownloader.New(d.Jobs, d.Client, d.Starter, d.Storage, d.FFmpeg,
			youtubedownloader.WithInfoCache(d.CacheSize, d.CacheTTL),
			youtubedownloader.WithLogger(d.Logger),
		),
		youtubetranscript.New(d.Transcript, d.Storage, d.Logger),
	}
}
