package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"image/png"

	// Register decoders for the other input formats the API accepts.
	_ "image/jpeg"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Static errors for media operations.
var (
	// ErrInvalidDimensions is returned when the target dimensions are not positive.
	ErrInvalidDimensions = errors.New("media: width and height must be positive")
	// ErrUnsupportedImageType is returned when the source file is not a supported image.
	ErrUnsupportedImageType = errors.New("media: unsupported image type")
)

// supported MIME types for source images.
var supportedTypes = []string{"image/png", "image/jpeg", "image/webp"}

// CoverResizer implements Processor with pure-Go image scaling.
// Resized copies are written to a dedicated output directory so the
// original file is never touched.
type CoverResizer struct {
	outputDir string
}

// NewCoverResizer creates a CoverResizer writing into outputDir.
// The directory is created if it doesn't exist.
func NewCoverResizer(outputDir string) (*CoverResizer, error) {
	if outputDir == "" {
		outputDir = "covered_images"
	}
	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return nil, fmt.Errorf("media: create output directory: %w", err)
	}
	return &CoverResizer{outputDir: outputDir}, nil
}

// OutputDir returns the directory resized copies are written to.
func (r *CoverResizer) OutputDir() string {
	return r.outputDir
}

// CoverResize scales the source image so it covers width x height,
// center-crops the overflow, and writes the result as PNG.
func (r *CoverResizer) CoverResize(ctx context.Context, srcPath string, width, height int) (string, error) {
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("media: context cancelled: %w", ctx.Err())
	default:
	}

	mtype, err := mimetype.DetectFile(srcPath)
	if err != nil {
		return "", fmt.Errorf("media: detect image type: %w", err)
	}
	if !typeSupported(mtype.String()) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImageType, mtype.String())
	}

	f, err := os.Open(srcPath) // #nosec G304 - path comes from the local user
	if err != nil {
		return "", fmt.Errorf("media: open source image: %w", err)
	}
	defer func() { _ = f.Close() }()

	src, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("media: decode source image: %w", err)
	}

	covered := coverCrop(src, width, height)

	base := filepath.Base(srcPath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".png"
	dstPath, err := filepath.Abs(filepath.Join(r.outputDir, name))
	if err != nil {
		return "", fmt.Errorf("media: resolve output path: %w", err)
	}

	out, err := os.Create(dstPath) // #nosec G304 - confined to the output directory
	if err != nil {
		return "", fmt.Errorf("media: create output image: %w", err)
	}
	if err := png.Encode(out, covered); err != nil {
		_ = out.Close()
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("media: encode output image: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("media: close output image: %w", err)
	}

	return dstPath, nil
}

// coverCrop scales src to fill the target area and center-crops the overflow.
// A wider-than-target source is fit to height and cropped horizontally,
// a taller one is fit to width and cropped vertically.
func coverCrop(src image.Image, width, height int) image.Image {
	srcBounds := src.Bounds()
	srcW, srcH := srcBounds.Dx(), srcBounds.Dy()

	srcRatio := float64(srcW) / float64(srcH)
	dstRatio := float64(width) / float64(height)

	var scaledW, scaledH int
	if srcRatio > dstRatio {
		scaledH = height
		scaledW = int(float64(scaledH) * srcRatio)
	} else {
		scaledW = width
		scaledH = int(float64(scaledW) / srcRatio)
	}

	scaled := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, srcBounds, draw.Over, nil)

	left := (scaledW - width) / 2
	top := (scaledH - height) / 2
	return scaled.SubImage(image.Rect(left, top, left+width, top+height))
}

func typeSupported(mime string) bool {
	for _, t := range supportedTypes {
		if mime == t {
			return true
		}
	}
	return false
}

// Compile-time check that CoverResizer implements Processor.
var _ Processor = (*CoverResizer)(nil)
