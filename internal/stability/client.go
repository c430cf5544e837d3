package stability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Static errors for Stability client operations.
var (
	// ErrAPIKeyNotSet is returned when the STABILITY_API_KEY environment variable is not set.
	ErrAPIKeyNotSet = errors.New("stability: STABILITY_API_KEY environment variable is not set")
	// ErrGenerationIDRequired is returned when the generation ID is not provided.
	ErrGenerationIDRequired = errors.New("stability: generation ID is required")
	// ErrNoGenerationID is returned when an accepted submission contains no generation ID.
	ErrNoGenerationID = errors.New("stability: submit accepted but no generation ID returned")
	// ErrEmptyImage is returned when no image bytes are provided for submission.
	ErrEmptyImage = errors.New("stability: image payload is empty")
	// ErrEmptyPrompt is returned when no prompt is provided for image generation.
	ErrEmptyPrompt = errors.New("stability: prompt is empty")
	// ErrRequestFailed is returned when the service rejects a request without a named error.
	ErrRequestFailed = errors.New("stability: request failed")
)

// Client defines the interface for interacting with the Stability.ai API.
type Client interface {
	// SubmitVideo starts an image-to-video generation and returns the generation ID.
	SubmitVideo(ctx context.Context, image []byte, opts VideoOptions) (generationID string, err error)

	// FetchResult checks one generation's result endpoint and classifies the response.
	FetchResult(ctx context.Context, generationID string) (PollResult, error)

	// GenerateImage runs the synchronous text-to-image path and returns the encoded image.
	GenerateImage(ctx context.Context, prompt string, opts ImageOptions) ([]byte, error)
}

// HTTPClient is the HTTP implementation of the Stability Client interface.
type HTTPClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithAPIKey sets the API key for authentication.
func WithAPIKey(key string) ClientOption {
	return func(hc *HTTPClient) {
		hc.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithBaseURL sets a custom base URL for the Stability API.
func WithBaseURL(url string) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseURL = url
	}
}

// NewClient creates a new Stability HTTP client.
// The API key can be set via the WithAPIKey option. If not provided,
// it is read from the environment variable STABILITY_API_KEY.
func NewClient(opts ...ClientOption) (*HTTPClient, error) {
	c := &HTTPClient{
		baseURL:    "https://api.stability.ai/v2beta",
		httpClient: &http.Client{Timeout: 60 * time.Second},
		validate:   validator.New(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		c.apiKey = os.Getenv("STABILITY_API_KEY")
	}

	if c.apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	return c, nil
}

// SubmitVideo starts an image-to-video generation and returns the generation ID.
// The image is sent as raw bytes in a multipart form together with the
// motion parameter. A non-200 response with a named error body is returned
// as an *APIError so callers can classify the rejection.
func (c *HTTPClient) SubmitVideo(ctx context.Context, image []byte, opts VideoOptions) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}
	if err := c.validate.Struct(opts); err != nil {
		return "", fmt.Errorf("stability: invalid video options: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("image", "image.png")
	if err != nil {
		return "", fmt.Errorf("stability: build form: %w", err)
	}
	if _, err := fw.Write(image); err != nil {
		return "", fmt.Errorf("stability: build form: %w", err)
	}
	if err := mw.WriteField("motion_bucket_id", strconv.Itoa(opts.MotionBucketID)); err != nil {
		return "", fmt.Errorf("stability: build form: %w", err)
	}
	if opts.CFGScale > 0 {
		if err := mw.WriteField("cfg_scale", strconv.FormatFloat(opts.CFGScale, 'f', -1, 64)); err != nil {
			return "", fmt.Errorf("stability: build form: %w", err)
		}
	}
	if opts.Seed > 0 {
		if err := mw.WriteField("seed", strconv.FormatInt(opts.Seed, 10)); err != nil {
			return "", fmt.Errorf("stability: build form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("stability: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/image-to-video", &buf)
	if err != nil {
		return "", fmt.Errorf("stability: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("stability: submit request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("stability: read submit response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if apiErr := decodeAPIError(body); apiErr != nil {
			return "", apiErr
		}
		return "", fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(body))
	}

	var accepted submitResponse
	if err := json.Unmarshal(body, &accepted); err != nil {
		return "", fmt.Errorf("stability: unmarshal submit response: %w", err)
	}
	if accepted.ID == "" {
		return "", ErrNoGenerationID
	}

	return accepted.ID, nil
}

// FetchResult checks one generation's result endpoint and classifies the response.
// 200 carries the finished video, 202 means the service is still rendering,
// 400/404/500 carry a named error body, and anything else is ResultUnknown.
// The returned error is non-nil only for transport or decoding failures.
func (c *HTTPClient) FetchResult(ctx context.Context, generationID string) (PollResult, error) {
	if generationID == "" {
		return PollResult{}, ErrGenerationIDRequired
	}

	url := fmt.Sprintf("%s/image-to-video/result/%s", c.baseURL, generationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return PollResult{}, fmt.Errorf("stability: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "video/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return PollResult{}, fmt.Errorf("stability: result request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return PollResult{}, fmt.Errorf("stability: read result response: %w", err)
	}

	result := PollResult{HTTPStatus: resp.StatusCode}

	switch resp.StatusCode {
	case http.StatusOK:
		result.State = ResultReady
		result.Video = body
	case http.StatusAccepted:
		result.State = ResultInProgress
	case http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError:
		result.State = ResultFailed
		result.Err = decodeAPIError(body)
		if result.Err == nil {
			result.Err = &APIError{Name: "unknown_error", Messages: []string{string(body)}}
		}
	default:
		result.State = ResultUnknown
	}

	return result, nil
}

// GenerateImage runs the synchronous text-to-image path against the
// stable-image core model and returns the encoded image bytes.
func (c *HTTPClient) GenerateImage(ctx context.Context, prompt string, opts ImageOptions) ([]byte, error) {
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if err := c.validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("stability: invalid image options: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"prompt":        prompt,
		"aspect_ratio":  opts.AspectRatio,
		"output_format": opts.OutputFormat,
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("stability: build form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("stability: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/stable-image/generate/core", &buf)
	if err != nil {
		return nil, fmt.Errorf("stability: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "image/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stability: generate request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stability: read generate response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if apiErr := decodeAPIError(body); apiErr != nil {
			return nil, apiErr
		}
		return nil, fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(body))
	}

	return body, nil
}

// decodeAPIError decodes a named error body, returning nil when the body
// does not carry one.
func decodeAPIError(body []byte) *APIError {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return nil
	}
	if apiErr.Name == "" {
		return nil
	}
	return &apiErr
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
