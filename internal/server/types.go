// Package server provides the HTTP host for the local tools.
// It wires the router, middleware, the tool listing and the static frontend.
package server

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}

// ToolNotFoundMessage is the plain-text body for unknown tool pages.
const ToolNotFoundMessage = "Tool not found"
