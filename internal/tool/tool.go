// Package tool defines the capability every hosted tool implements and
// the registry the host mounts them from.
package tool

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
)

// Descriptor is the public listing entry of a tool.
type Descriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Endpoint is the primary action URL; tools with several routes omit it.
	Endpoint string `json:"endpoint,omitempty"`
	Icon     string `json:"icon"`
}

// Tool is a self-contained feature exposed over HTTP.
type Tool interface {
	// Describe returns the listing entry.
	Describe() Descriptor
	// Mount registers the tool's routes under /tool/<id>/ on r.
	Mount(r chi.Router)
}

// Registry is the ordered set of tools known at startup.
type Registry struct {
	tools  []Tool
	byID   map[string]Tool
	logger *slog.Logger
}

// NewRegistry creates a Registry and registers tools in order.
func NewRegistry(logger *slog.Logger, tools ...Tool) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		byID:   make(map[string]Tool),
		logger: logger,
	}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds t. A tool whose id is already registered is skipped with
// a warning and false is returned.
func (r *Registry) Register(t Tool) bool {
	id := t.Describe().ID
	if _, exists := r.byID[id]; exists {
		r.logger.Warn("tool already registered, skipping",
			slog.String("tool_id", id),
		)
		return false
	}
	r.byID[id] = t
	r.tools = append(r.tools, t)
	r.logger.Debug("tool registered", slog.String("tool_id", id))
	return true
}

// Lookup returns the tool with the given id.
func (r *Registry) Lookup(id string) (Tool, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Descriptors returns the listing entries in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.Describe())
	}
	return out
}

// MountAll mounts every registered tool on router.
func (r *Registry) MountAll(router chi.Router) {
	for _, t := range r.tools {
		t.Mount(router)
	}
}
