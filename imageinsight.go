// Package imageinsight describes images in plain language.
//
// It runs a set of detectors over an image, fuses their signals and writes a
// short caption, a longer narrative and a list of categorized smart tags.
// Results are cached per image so repeated requests never reach the
// detectors again.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		imageinsight "github.com/menta2k/image-insight"
//	)
//
//	func main() {
//		insight := imageinsight.New()
//
//		result, err := insight.AnalyzeFile(context.Background(), "photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		fmt.Println(result.Caption)
//		fmt.Println(result.Narrative)
//		for _, tag := range result.SmartTags {
//			fmt.Printf("%s (%s)\n", tag.Label, tag.Category)
//		}
//	}
//
// The package consists of these main components:
//
//  1. Detectors (pkg/detectors): local pixel analysis and vision model backends
//  2. Fusion (pkg/fusion): merges classification sources and suppresses backgrounds
//  3. Subject (pkg/subject): picks up to three primary subjects
//  4. Generators (pkg/caption, pkg/narrative, pkg/tags): build the descriptions
//  5. Orchestrator (pkg/orchestrator): runs it all under a deadline and caches results
//
// Without a vision model only the local detectors run: colors, lighting,
// saliency and quality. Set Config.Client to an ollama or llama.cpp client to
// add classifications, objects, scenes, text and landmarks.
package imageinsight

import (
	"context"
	"fmt"
	"image"

	"github.com/cyclopcam/logs"

	"github.com/menta2k/image-insight/pkg/analyzer"
	"github.com/menta2k/image-insight/pkg/client"
	"github.com/menta2k/image-insight/pkg/cropper"
	"github.com/menta2k/image-insight/pkg/detectors"
	"github.com/menta2k/image-insight/pkg/identity"
	"github.com/menta2k/image-insight/pkg/orchestrator"
	"github.com/menta2k/image-insight/pkg/processing"
	"github.com/menta2k/image-insight/pkg/types"
	"github.com/menta2k/image-insight/pkg/vision"
)

// Version of the image insight library
const Version = "1.0.0"

// Config holds the settings of every component
type Config struct {
	Pipeline orchestrator.Config
	Analyzer analyzer.Config
	Vision   vision.Config
	Crop     cropper.CropConfig
	// Client is the optional vision model backend
	Client client.VisionClient
	Model  detectors.ModelConfig
	// Log may be nil
	Log logs.Log
}

// DefaultConfig returns a configuration with local detectors only
func DefaultConfig() Config {
	return Config{
		Pipeline: orchestrator.DefaultConfig(),
		Analyzer: analyzer.DefaultConfig(),
		Vision:   vision.DefaultConfig(),
		Crop:     cropper.DefaultConfig(),
		Model:    detectors.DefaultModelConfig(),
	}
}

// Insight provides a high-level interface for image description
type Insight struct {
	analyzer     *analyzer.ImageAnalyzer
	processor    *processing.Processor
	cropper      *cropper.SmartCropper
	model        *detectors.Model
	orchestrator *orchestrator.Orchestrator
}

// New creates an Insight with default configuration
func New() *Insight {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates an Insight with custom configuration
func NewWithConfig(config Config) *Insight {
	set := detectors.NewLocal(vision.NewWithConfig(config.Vision)).Set()

	var model *detectors.Model
	if config.Client != nil {
		model = detectors.NewModel(config.Client, config.Model, config.Log)
		set = model.Set().Merge(set)
	}

	return &Insight{
		analyzer:     analyzer.NewWithConfig(config.Analyzer),
		processor:    processing.NewProcessor(),
		cropper:      cropper.NewWithConfig(config.Crop),
		model:        model,
		orchestrator: orchestrator.New(set, config.Pipeline, config.Log),
	}
}

// Orchestrator exposes the underlying pipeline for state hooks and custom requests
func (in *Insight) Orchestrator() *orchestrator.Orchestrator {
	return in.orchestrator
}

// AnalyzeImage describes a decoded image
func (in *Insight) AnalyzeImage(ctx context.Context, img image.Image) (*types.AnalysisResult, error) {
	info, err := in.analyzer.Inspect(img, nil, "")
	if err != nil {
		return nil, fmt.Errorf("image validation failed: %w", err)
	}
	return in.orchestrator.Analyze(ctx, orchestrator.Request{Image: img, Info: info})
}

// AnalyzeBytes decodes and describes an encoded image
func (in *Insight) AnalyzeBytes(ctx context.Context, data []byte) (*types.AnalysisResult, error) {
	img, format, err := processing.Decode(data)
	if err != nil {
		return nil, err
	}
	return in.analyze(ctx, &processing.Loaded{Data: data, Image: img, Format: format})
}

// AnalyzeFile loads an image from a file path or an http(s) URL and describes it
func (in *Insight) AnalyzeFile(ctx context.Context, source string) (*types.AnalysisResult, error) {
	loaded, err := in.processor.Load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return in.analyze(ctx, loaded)
}

func (in *Insight) analyze(ctx context.Context, loaded *processing.Loaded) (*types.AnalysisResult, error) {
	info, err := in.analyzer.Inspect(loaded.Image, loaded.Data, loaded.Format)
	if err != nil {
		return nil, fmt.Errorf("image validation failed: %w", err)
	}
	return in.orchestrator.Analyze(ctx, orchestrator.Request{
		Image: loaded.Image,
		Data:  loaded.Data,
		Info:  info,
	})
}

// Describe asks the vision model for a free-text description, bypassing the pipeline
func (in *Insight) Describe(ctx context.Context, img image.Image) (string, error) {
	if in.model == nil {
		return "", fmt.Errorf("no vision model configured: %w", orchestrator.ErrDetectorUnavailable)
	}
	id, err := identity.FromImage(img)
	if err != nil {
		return "", err
	}
	b := img.Bounds()
	return in.model.Probe(ctx, &detectors.Frame{Identity: id, Image: img, Info: types.NewImageInfo(b.Dx(), b.Dy())})
}

// SuggestCrops fits every common aspect ratio around the primary subject of a result
func (in *Insight) SuggestCrops(result *types.AnalysisResult) (map[string]cropper.CropResult, error) {
	var focus *types.Box
	if len(result.Subjects) > 0 {
		focus = result.Subjects[0].Box
	}
	return in.cropper.SuggestAll(result.Info, focus, cropper.CommonAspectRatios())
}

// Overlay draws the subjects and tag crops of a result onto img
func (in *Insight) Overlay(img image.Image, result *types.AnalysisResult) image.Image {
	return in.processor.CreateDebugOverlay(img, result.Subjects, result.SmartTags)
}

// SaveImage writes an image to path in the given format
func (in *Insight) SaveImage(img image.Image, path, format string) error {
	return in.processor.SaveImage(img, path, format, 90, false)
}

// InvalidateCache drops every cached result for the identity in a cache key or identity
func (in *Insight) InvalidateCache(keyOrIdentity string) int {
	if id, _, err := identity.Parse(keyOrIdentity); err == nil {
		keyOrIdentity = id
	}
	return in.orchestrator.InvalidateCache(keyOrIdentity)
}

// ClearCache drops every cached result
func (in *Insight) ClearCache() {
	in.orchestrator.ClearCache()
}

// SetEnabled turns analysis on or off
func (in *Insight) SetEnabled(enabled bool) {
	in.orchestrator.SetEnabled(enabled)
}

// Stats returns the pipeline counters
func (in *Insight) Stats() orchestrator.Stats {
	return in.orchestrator.Stats()
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
