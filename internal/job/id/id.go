// Package id provides identifiers for download worker runs.
package id

import "github.com/google/uuid"

// Generate creates a new run ID.
// Format: run-<uuidv7>
// Example: run-0192f0c4-7c1e-7d3a-9b8e-3f6c2a1d9e40
func Generate() string {
	u, err := uuid.NewV7()
	if err != nil {
		// Fallback to a random v4 if the clock source fails
		u = uuid.New()
	}
	return "run-" + u.String()
}
