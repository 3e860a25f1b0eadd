// Package vision extracts low-level signals directly from pixels: saliency,
// dominant colors, subject color and technical quality.
package vision

import (
	"image"

	"github.com/disintegration/imaging"
)

// Analyzer computes pixel-level signals on a downscaled working copy of an image
type Analyzer struct {
	config Config
}

// Config holds configuration for pixel analysis
type Config struct {
	// WorkSize is the longest side of the working copy.
	WorkSize           int     `toml:"work_size"`
	EdgeThreshold      float64 `toml:"edge_threshold"`
	ContrastWeight     float64 `toml:"contrast_weight"`
	ColorWeight        float64 `toml:"color_weight"`
	MinSubjectRatio    float64 `toml:"min_subject_ratio"`
	MaxAttentionPoints int     `toml:"max_attention_points"`
	ColorCount         int     `toml:"color_count"`
	LowQualityScore    float64 `toml:"low_quality_score"`
}

// DefaultConfig returns the default analysis configuration
func DefaultConfig() Config {
	return Config{
		WorkSize:           256,
		EdgeThreshold:      0.01,
		ContrastWeight:     0.3,
		ColorWeight:        0.2,
		MinSubjectRatio:    0.005,
		MaxAttentionPoints: 8,
		ColorCount:         5,
		LowQualityScore:    0.4,
	}
}

// New creates a new Analyzer with default configuration
func New() *Analyzer {
	return &Analyzer{config: DefaultConfig()}
}

// NewWithConfig creates a new Analyzer with custom configuration
func NewWithConfig(config Config) *Analyzer {
	def := DefaultConfig()
	if config.WorkSize <= 0 {
		config.WorkSize = def.WorkSize
	}
	if config.MaxAttentionPoints <= 0 {
		config.MaxAttentionPoints = def.MaxAttentionPoints
	}
	if config.ColorCount <= 0 {
		config.ColorCount = def.ColorCount
	}
	return &Analyzer{config: config}
}

// Region represents a rectangular region of interest in working-copy pixels
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
	Score  float64
}

// Center returns the center point of the region
func (r Region) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Area returns the area of the region
func (r Region) Area() int {
	return r.Width * r.Height
}

// Contains reports whether the pixel lies in the region
func (r Region) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// workingCopy returns an NRGBA copy no larger than WorkSize on either side
func (a *Analyzer) workingCopy(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() > a.config.WorkSize || b.Dy() > a.config.WorkSize {
		return imaging.Fit(img, a.config.WorkSize, a.config.WorkSize, imaging.Box)
	}
	return imaging.Clone(img)
}

// luma returns the relative luminance of the pixel at x, y in [0,1]
func luma(img *image.NRGBA, x, y int) float64 {
	i := img.PixOffset(x+img.Rect.Min.X, y+img.Rect.Min.Y)
	p := img.Pix[i : i+3 : i+3]
	return (0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2])) / 255
}
