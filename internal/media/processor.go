// Package media provides image preprocessing for generation submissions.
package media

import "context"

// Processor defines the interface for image preprocessing operations.
type Processor interface {
	// CoverResize scales an image up or down so it completely covers the
	// target dimensions, center-crops the overflow, and writes the result
	// as PNG. It returns the absolute path of the written file.
	CoverResize(ctx context.Context, srcPath string, width, height int) (string, error)
}
