// Package stability provides an HTTP client for the Stability.ai generative-media REST API.
package stability

import (
	"fmt"
	"strings"
)

// ResultState classifies one check of a video generation's result endpoint.
type ResultState string

// Result states derived from the HTTP status of the result endpoint.
const (
	// ResultReady means the generation finished and the response body holds the video.
	ResultReady ResultState = "READY"
	// ResultInProgress means the service is still rendering the video.
	ResultInProgress ResultState = "IN_PROGRESS"
	// ResultFailed means the generation ended with a named error.
	ResultFailed ResultState = "FAILED"
	// ResultUnknown means the service answered with a status code the API
	// does not document for this endpoint.
	ResultUnknown ResultState = "UNKNOWN"
)

// IsTerminal returns true if the state ends the polling loop.
func (s ResultState) IsTerminal() bool {
	switch s {
	case ResultReady, ResultFailed:
		return true
	default:
		return false
	}
}

// APIError is the JSON error body the Stability API returns on rejected
// or failed requests.
type APIError struct {
	// ID is the opaque error identifier assigned by the service.
	ID string `json:"id"`
	// Name is the machine-readable error name, e.g. "bad_request".
	Name string `json:"name"`
	// Messages holds the human-readable error descriptions.
	Messages []string `json:"errors"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("stability: %s", e.Name)
	}
	return fmt.Sprintf("stability: %s: %s", e.Name, strings.Join(e.Messages, "; "))
}

// VideoOptions contains parameters for submitting an image-to-video job.
type VideoOptions struct {
	// MotionBucketID controls how much motion the model adds (1-255).
	MotionBucketID int `validate:"min=1,max=255"`
	// CFGScale controls how closely the video sticks to the source image.
	// Zero leaves the service default in place.
	CFGScale float64 `validate:"min=0,max=10"`
	// Seed pins the generation to a specific random seed. Zero picks one.
	Seed int64 `validate:"min=0"`
}

// DefaultVideoOptions returns the options used by the demo UI.
func DefaultVideoOptions() VideoOptions {
	return VideoOptions{
		MotionBucketID: 222,
	}
}

// ImageOptions contains parameters for the synchronous text-to-image path.
type ImageOptions struct {
	// AspectRatio selects the output shape.
	AspectRatio string `validate:"oneof=1:1 16:9 9:16 4:5 5:4 3:2 2:3 9:21 21:9"`
	// OutputFormat selects the encoded image format.
	OutputFormat string `validate:"oneof=png jpeg webp"`
}

// DefaultImageOptions returns the options used by the demo UI.
func DefaultImageOptions() ImageOptions {
	return ImageOptions{
		AspectRatio:  "1:1",
		OutputFormat: "png",
	}
}

// PollResult is the classified outcome of one result-endpoint check.
type PollResult struct {
	// State is the classification of the HTTP response.
	State ResultState
	// Video holds the raw video bytes. Set only when State is ResultReady.
	Video []byte
	// Err holds the decoded error body. Set only when State is ResultFailed.
	Err *APIError
	// HTTPStatus is the raw status code, kept for logging unclassified responses.
	HTTPStatus int
}

// submitResponse is the JSON body of an accepted image-to-video submission.
type submitResponse struct {
	ID string `json:"id"`
}
