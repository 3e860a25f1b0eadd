package cropper

import (
	"fmt"
	"math"

	"github.com/menta2k/image-insight/pkg/types"
)

// SmartCropper plans subject-aware crops in normalized coordinates
type SmartCropper struct {
	config CropConfig
}

// CropConfig holds configuration for crop planning
type CropConfig struct {
	// PaddingRatio grows the subject box on every side before fitting.
	PaddingRatio     float64 `toml:"padding_ratio"`
	QualityThreshold float64 `toml:"quality_threshold"`
}

// AspectRatio represents common aspect ratios
type AspectRatio struct {
	Width  int
	Height int
	Name   string
}

// Ratio returns width over height
func (a AspectRatio) Ratio() float64 {
	return float64(a.Width) / float64(a.Height)
}

// Common aspect ratios
var (
	Square     = AspectRatio{1, 1, "square"}
	Portrait   = AspectRatio{3, 4, "portrait"}
	Landscape  = AspectRatio{4, 3, "landscape"}
	Widescreen = AspectRatio{16, 9, "widescreen"}
	Instagram  = AspectRatio{4, 5, "instagram"}
	Story      = AspectRatio{9, 16, "story"}
)

// CommonAspectRatios returns a list of commonly used aspect ratios
func CommonAspectRatios() []AspectRatio {
	return []AspectRatio{Square, Portrait, Landscape, Widescreen, Instagram, Story}
}

// DefaultConfig returns the default crop configuration
func DefaultConfig() CropConfig {
	return CropConfig{
		PaddingRatio:     0.1,
		QualityThreshold: 0.6,
	}
}

// New creates a new SmartCropper with default configuration
func New() *SmartCropper {
	return &SmartCropper{config: DefaultConfig()}
}

// NewWithConfig creates a new SmartCropper with custom configuration
func NewWithConfig(config CropConfig) *SmartCropper {
	return &SmartCropper{config: config}
}

// CropResult contains a planned crop
type CropResult struct {
	Box             types.Box
	AspectRatio     AspectRatio
	Quality         float64
	SubjectCoverage float64
}

// Suggest returns the largest crop of the given ratio that keeps the subject in frame.
// A nil subject centers the crop.
func (c *SmartCropper) Suggest(info types.ImageInfo, subject *types.Box, ratio AspectRatio) (CropResult, error) {
	if info.Width <= 0 || info.Height <= 0 {
		return CropResult{}, fmt.Errorf("invalid image dimensions %dx%d", info.Width, info.Height)
	}
	if ratio.Width <= 0 || ratio.Height <= 0 {
		return CropResult{}, fmt.Errorf("invalid aspect ratio %d:%d", ratio.Width, ratio.Height)
	}

	imgW, imgH := float64(info.Width), float64(info.Height)
	r := ratio.Ratio()

	widthPx := math.Min(imgW, imgH*r)
	heightPx := widthPx / r

	focus := types.Box{X: 0, Y: 0, W: 1, H: 1}
	if subject != nil && subject.Clamp().Valid() {
		focus = c.pad(subject.Clamp())
	}
	center := focus.Center()

	x0 := clamp(center.X*imgW-widthPx/2, 0, imgW-widthPx)
	y0 := clamp(center.Y*imgH-heightPx/2, 0, imgH-heightPx)

	crop := types.Box{X: x0 / imgW, Y: y0 / imgH, W: widthPx / imgW, H: heightPx / imgH}

	coverage := 1.0
	if subject != nil && focus.Area() > 0 {
		coverage = crop.Overlap(focus) / focus.Area()
	}

	return CropResult{
		Box:             crop,
		AspectRatio:     ratio,
		Quality:         c.quality(info, crop, focus, coverage),
		SubjectCoverage: coverage,
	}, nil
}

// SuggestAll plans one crop per ratio keyed by ratio name
func (c *SmartCropper) SuggestAll(info types.ImageInfo, subject *types.Box, ratios []AspectRatio) (map[string]CropResult, error) {
	results := make(map[string]CropResult, len(ratios))
	for _, ratio := range ratios {
		result, err := c.Suggest(info, subject, ratio)
		if err != nil {
			return nil, fmt.Errorf("failed to plan %s crop: %w", ratio.Name, err)
		}
		results[ratio.Name] = result
	}
	return results, nil
}

// Acceptable reports whether a crop clears the quality threshold
func (c *SmartCropper) Acceptable(result CropResult) bool {
	return result.Quality >= c.config.QualityThreshold
}

func (c *SmartCropper) pad(b types.Box) types.Box {
	p := c.config.PaddingRatio
	return types.Box{X: b.X - b.W*p, Y: b.Y - b.H*p, W: b.W * (1 + 2*p), H: b.H * (1 + 2*p)}.Clamp()
}

// quality weighs how much of the image survives, how much of the subject
// survives and how well the subject is centered in the crop
func (c *SmartCropper) quality(info types.ImageInfo, crop, focus types.Box, coverage float64) float64 {
	imgW, imgH := float64(info.Width), float64(info.Height)

	preservation := crop.Area()

	fc, cc := focus.Center(), crop.Center()
	distance := math.Hypot((fc.X-cc.X)*imgW, (fc.Y-cc.Y)*imgH)
	diagonal := math.Hypot(crop.W*imgW, crop.H*imgH)
	centering := 1.0
	if diagonal > 0 {
		centering = 1 - math.Min(1, distance/diagonal)
	}

	return clamp(0.3*preservation+0.5*coverage+0.2*centering, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
