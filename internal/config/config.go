// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// ErrAPIKeyRequired is returned when STABILITY_API_KEY is not set.
var ErrAPIKeyRequired = errors.New("config: STABILITY_API_KEY is required")

// Config holds all configuration for the application.
type Config struct {
	// Stability API settings
	APIKey  string `env:"STABILITY_API_KEY, required" json:"-"` // Masked in JSON
	BaseURL string `env:"STABILITY_BASE_URL, default=https://api.stability.ai/v2beta" json:"base_url"`

	// Output settings
	VideoDir   string `env:"VIDEO_OUTPUT_DIR, default=generated_videos" json:"video_dir"`
	ImageDir   string `env:"IMAGE_OUTPUT_DIR, default=generated_images" json:"image_dir"`
	CoveredDir string `env:"COVERED_IMAGE_DIR, default=covered_images" json:"covered_dir"`

	// Polling settings
	PollInterval time.Duration `env:"POLL_INTERVAL, default=11s" json:"poll_interval"`
	PollTimeout  time.Duration `env:"POLL_TIMEOUT, default=10m" json:"poll_timeout"`

	// Generation settings
	MotionBucketID int    `env:"MOTION_BUCKET_ID, default=222" json:"motion_bucket_id"`
	AspectRatio    string `env:"IMAGE_ASPECT_RATIO, default=1:1" json:"aspect_ratio"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from the environment using go-envconfig.
// A .env file in the working directory is loaded first when present,
// without overriding variables already set in the environment.
func Load() (*Config, error) {
	// Missing .env is the common case outside development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := &Config{}
	if err := envconfig.Process(context.Background(), cfg); err != nil {
		if strings.Contains(err.Error(), "STABILITY_API_KEY") {
			return nil, ErrAPIKeyRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrAPIKeyRequired
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{BaseURL: %s, VideoDir: %s, ImageDir: %s, CoveredDir: %s, PollInterval: %s, PollTimeout: %s, MotionBucketID: %d, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.BaseURL,
		c.VideoDir,
		c.ImageDir,
		c.CoveredDir,
		c.PollInterval,
		c.PollTimeout,
		c.MotionBucketID,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
