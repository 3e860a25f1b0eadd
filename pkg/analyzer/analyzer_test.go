package analyzer

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/image-insight/pkg/types"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Fill with a gradient pattern
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			img.Set(x, y, color.RGBA{r, g, 128, 255})
		}
	}

	return img
}

func TestNew(t *testing.T) {
	analyzer := New()
	if analyzer == nil {
		t.Fatal("New() returned nil")
	}

	if analyzer.config.MinImageSize != 16 {
		t.Errorf("Expected min size 16, got %d", analyzer.config.MinImageSize)
	}
}

func TestNewWithConfig(t *testing.T) {
	analyzer := NewWithConfig(Config{SupportedFormats: []string{"png"}, MinImageSize: 200})

	if analyzer.config.MinImageSize != 200 {
		t.Errorf("Expected min size 200, got %d", analyzer.config.MinImageSize)
	}
	if _, err := analyzer.Inspect(createTestImage(300, 300), nil, "jpeg"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestGetImageInfo(t *testing.T) {
	info := New().GetImageInfo(createTestImage(400, 300))

	if info.Width != 400 || info.Height != 300 {
		t.Errorf("Expected 400x300, got %dx%d", info.Width, info.Height)
	}

	expectedRatio := float64(400) / float64(300)
	if info.AspectRatio != expectedRatio {
		t.Errorf("Expected aspect ratio %f, got %f", expectedRatio, info.AspectRatio)
	}

	if info.Orientation != types.OrientationLandscape {
		t.Errorf("Expected landscape orientation, got %s", info.Orientation)
	}
}

func TestInspect(t *testing.T) {
	info, err := New().Inspect(createTestImage(120, 240), nil, "PNG")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.Format != "png" {
		t.Errorf("Expected format png, got %s", info.Format)
	}
	if info.Orientation != types.OrientationPortrait {
		t.Errorf("Expected portrait orientation, got %s", info.Orientation)
	}
	if info.Camera != "" {
		t.Errorf("Expected no camera, got %q", info.Camera)
	}

	if _, err := New().Inspect(nil, nil, "png"); err == nil {
		t.Error("Expected error for nil image")
	}
}

func TestValidateImage(t *testing.T) {
	analyzer := New()

	if err := analyzer.ValidateImage(createTestImage(64, 64)); err != nil {
		t.Errorf("Expected valid image, got %v", err)
	}
	if err := analyzer.ValidateImage(createTestImage(8, 64)); !errors.Is(err, ErrTooSmall) {
		t.Errorf("Expected ErrTooSmall, got %v", err)
	}
}
