package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/elvisgraho/local-tools/internal/tool"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates the HTTP router. Tool routes are mounted both at the
// root and under /api.
func NewRouter(h *Handlers, tools *tool.Registry, logger *slog.Logger, cfg Config) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		LoggingMiddleware(logger),
		RecoveryMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	r.Get("/health", h.Health)
	r.Get("/", h.Index)
	r.Get("/tools", h.ListTools)
	r.Get("/tools/{tool_id}", h.ToolPage)
	r.Get("/tools/{tool_id}/*", h.ToolAsset)
	tools.MountAll(r)

	r.Route("/api", func(api chi.Router) {
		api.Get("/tools", h.ListTools)
		tools.MountAll(api)
	})

	return r
}
