package server

import (
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/elvisgraho/local-tools/internal/tool"
)

// Handlers contains the host-level HTTP handlers.
type Handlers struct {
	tools     *tool.Registry
	staticDir string
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance. staticDir holds index.html
// and a tools/<id>/ directory per tool.
func NewHandlers(tools *tool.Registry, staticDir string, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		tools:     tools,
		staticDir: staticDir,
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	tool.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// ListTools handles GET /tools and returns descriptors in registration order.
func (h *Handlers) ListTools(w http.ResponseWriter, r *http.Request) {
	tool.WriteJSON(w, http.StatusOK, h.tools.Descriptors())
}

// Index handles GET / requests.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, filepath.Join(h.staticDir, "index.html"))
}

// ToolPage handles GET /tools/{tool_id}.
func (h *Handlers) ToolPage(w http.ResponseWriter, r *http.Request) {
	dir, ok := h.toolDir(w, r)
	if !ok {
		return
	}
	h.serveFile(w, r, filepath.Join(dir, "index.html"))
}

// ToolAsset handles GET /tools/{tool_id}/*. An empty remainder serves the
// tool's index page.
func (h *Handlers) ToolAsset(w http.ResponseWriter, r *http.Request) {
	dir, ok := h.toolDir(w, r)
	if !ok {
		return
	}
	rel := path.Clean("/" + chi.URLParam(r, "*"))
	if rel == "/" {
		rel = "/index.html"
	}
	h.serveFile(w, r, filepath.Join(dir, filepath.FromSlash(rel)))
}

// toolDir resolves the asset directory of a registered tool, writing the
// 404 itself when the id is unknown.
func (h *Handlers) toolDir(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "tool_id")
	if _, ok := h.tools.Lookup(id); !ok {
		http.Error(w, ToolNotFoundMessage, http.StatusNotFound)
		return "", false
	}
	return filepath.Join(h.staticDir, "tools", id), true
}

// serveFile serves a regular file; directories and missing files are 404s.
func (h *Handlers) serveFile(w http.ResponseWriter, r *http.Request, name string) {
	info, err := os.Stat(name)
	if err != nil || !info.Mode().IsRegular() {
		h.logger.Debug("static file not found", slog.String("path", name))
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, name)
}
