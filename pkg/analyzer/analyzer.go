// Package analyzer validates decoded images and describes their geometry.
package analyzer

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/menta2k/image-insight/pkg/metadata"
	"github.com/menta2k/image-insight/pkg/types"
)

var (
	// ErrUnsupportedFormat is returned for formats outside Config.SupportedFormats
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrTooSmall is returned for images below Config.MinImageSize
	ErrTooSmall = errors.New("image too small")
)

// ImageAnalyzer checks images before analysis and reports their ImageInfo
type ImageAnalyzer struct {
	config Config
}

// Config holds configuration for the image analyzer
type Config struct {
	SupportedFormats []string `toml:"supported_formats"`
	MinImageSize     int      `toml:"min_image_size"`
}

// DefaultConfig returns the default analyzer configuration
func DefaultConfig() Config {
	return Config{
		SupportedFormats: []string{"jpeg", "png", "gif", "webp"},
		MinImageSize:     16,
	}
}

// New creates a new ImageAnalyzer with default configuration
func New() *ImageAnalyzer {
	return &ImageAnalyzer{config: DefaultConfig()}
}

// NewWithConfig creates a new ImageAnalyzer with custom configuration
func NewWithConfig(config Config) *ImageAnalyzer {
	return &ImageAnalyzer{config: config}
}

// GetImageInfo returns geometry for a decoded image
func (a *ImageAnalyzer) GetImageInfo(img image.Image) types.ImageInfo {
	bounds := img.Bounds()
	return types.NewImageInfo(bounds.Dx(), bounds.Dy())
}

// Inspect validates an image and describes it. data is the encoded file and
// may be nil; when it carries EXIF the displayed orientation and camera are used.
func (a *ImageAnalyzer) Inspect(img image.Image, data []byte, format string) (types.ImageInfo, error) {
	if img == nil {
		return types.ImageInfo{}, fmt.Errorf("nil image")
	}
	if format != "" && !a.isFormatSupported(format) {
		return types.ImageInfo{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err := a.ValidateImage(img); err != nil {
		return types.ImageInfo{}, err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	meta := metadata.Extract(data)
	if meta.Rotated() {
		width, height = height, width
	}

	info := types.NewImageInfo(width, height)
	info.Format = strings.ToLower(format)
	info.Camera = meta.Camera()
	return info, nil
}

func (a *ImageAnalyzer) isFormatSupported(format string) bool {
	for _, supported := range a.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}

// ValidateImage checks if an image meets minimum requirements
func (a *ImageAnalyzer) ValidateImage(img image.Image) error {
	bounds := img.Bounds()
	if bounds.Dx() < a.config.MinImageSize || bounds.Dy() < a.config.MinImageSize {
		return fmt.Errorf("%w: %dx%d (minimum: %d)",
			ErrTooSmall, bounds.Dx(), bounds.Dy(), a.config.MinImageSize)
	}
	return nil
}
