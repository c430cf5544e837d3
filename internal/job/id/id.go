// Package id provides local identifier generation for trackers.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generate creates a new unique tracker ID.
// Format: trk-<uuid>
// Example: trk-2b1c9a4e-9f6d-4c3a-8b2e-1f0a9c8d7e6f
func Generate() string {
	return fmt.Sprintf("trk-%s", uuid.NewString())
}
