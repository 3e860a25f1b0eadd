package detectors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/golang/groupcache/lru"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/menta2k/image-insight/pkg/client"
	"github.com/menta2k/image-insight/pkg/processing"
	"github.com/menta2k/image-insight/pkg/types"
)

// ProbePrompt checks whether a model can see images at all
const ProbePrompt = `What do you see in this image? Describe it briefly.`

// DefaultPrompt asks a vision model for every signal the engine consumes
const DefaultPrompt = `You are an image analysis service.

Return JSON only:
{
  "caption": "short neutral sentence (<= 20 words)",
  "classifications": [{"label": "string", "confidence": 0.0}],
  "objects": [{"label": "string", "confidence": 0.0, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}, "description": "string"}],
  "scenes": [{"label": "string", "confidence": 0.0}],
  "text": ["string"],
  "landmarks": [{"label": "string", "confidence": 0.0}],
  "people": [{"label": "string", "confidence": 0.0}]
}

HARD RULES
- Coordinates are normalized to [0,1] (NOT pixels), origin at the top-left corner.
- Boxes tightly include each object. List people, vehicles and animals individually.
- Labels: lowercase common nouns, singular, no punctuation.
- Confidence is your probability that the label is correct, in [0,1].
- Scenes describe the setting (beach, kitchen, street, indoor, outdoor).
- Text lists legible text exactly as written; empty list if none.
- Landmarks only for famous, clearly recognizable places.
- People only for clearly recognizable public figures; never guess private identities.
- Empty lists when nothing applies.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// DefaultFetchTimeout bounds a model request shared by several callers
const DefaultFetchTimeout = 2 * time.Minute

// DefaultTextConfidence is assigned to model-read text, which carries no score
const DefaultTextConfidence = 0.7

// ModelConfig configures the model-backed detector
type ModelConfig struct {
	Model             string  `toml:"model"`
	MaxDimension      int     `toml:"max_dimension"`
	JPEGQuality       int     `toml:"jpeg_quality"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	RecognizePeople   bool    `toml:"recognize_people"`
	MemoSize          int     `toml:"memo_size"`
}

// DefaultModelConfig returns the default model detector configuration
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Model:             "llava",
		MaxDimension:      768,
		JPEGQuality:       85,
		RequestsPerSecond: 2,
		Burst:             2,
		MemoSize:          16,
	}
}

// Model answers several collaborator interfaces from one vision model call per image
type Model struct {
	client    client.VisionClient
	config    ModelConfig
	prompt    string
	processor *processing.Processor
	limiter   *rate.Limiter
	timeout   time.Duration
	log       logs.Log

	group singleflight.Group
	mu    sync.Mutex
	memo  *lru.Cache
}

// NewModel creates a model detector. log may be nil.
func NewModel(c client.VisionClient, config ModelConfig, log logs.Log) *Model {
	defaults := DefaultModelConfig()
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.MaxDimension <= 0 {
		config.MaxDimension = defaults.MaxDimension
	}
	if config.JPEGQuality <= 0 {
		config.JPEGQuality = defaults.JPEGQuality
	}
	if config.MemoSize <= 0 {
		config.MemoSize = defaults.MemoSize
	}
	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	return &Model{
		client:    c,
		config:    config,
		prompt:    DefaultPrompt,
		processor: processing.NewProcessor(),
		limiter:   rate.NewLimiter(limit, max(config.Burst, 1)),
		timeout:   DefaultFetchTimeout,
		log:       log,
		memo:      lru.New(config.MemoSize),
	}
}

// WithPrompt replaces the analysis prompt
func (m *Model) WithPrompt(prompt string) *Model {
	m.prompt = prompt
	return m
}

// WithTimeout replaces the bound on a shared model request
func (m *Model) WithTimeout(d time.Duration) *Model {
	if d > 0 {
		m.timeout = d
	}
	return m
}

// Set returns a detector set with every member the model can fill
func (m *Model) Set() Set {
	s := Set{Classifier: m, Objects: m, Scenes: m, Text: m, Landmarks: m}
	if m.config.RecognizePeople {
		s.People = m
	}
	return s
}

// Probe asks the model to describe the image in free text
func (m *Model) Probe(ctx context.Context, f *Frame) (string, error) {
	if err := ready(ctx, f); err != nil {
		return "", err
	}
	b64, err := m.encode(f)
	if err != nil {
		return "", err
	}
	return m.client.Query(ctx, m.config.Model, ProbePrompt, b64)
}

// Report returns the model's report for the frame. Concurrent callers for the
// same identity share one request, and recent reports are remembered.
// The shared request outlives a cancelled caller; each caller only stops
// waiting on its own context.
func (m *Model) Report(ctx context.Context, f *Frame) (*types.ModelReport, error) {
	if err := ready(ctx, f); err != nil {
		return nil, err
	}
	if f.Identity == "" {
		return m.fetch(ctx, f)
	}
	if report, ok := m.remembered(f.Identity); ok {
		return report, nil
	}

	ch := m.group.DoChan(f.Identity, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
		defer cancel()
		report, err := m.fetch(fctx, f)
		if err != nil {
			return nil, err
		}
		m.remember(f.Identity, report)
		return report, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*types.ModelReport), nil
	}
}

func (m *Model) remembered(identity string) (*types.ModelReport, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.memo.Get(identity)
	if !ok {
		return nil, false
	}
	return v.(*types.ModelReport), true
}

func (m *Model) remember(identity string, report *types.ModelReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memo.Add(identity, report)
}

// Forget drops a remembered report
func (m *Model) Forget(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memo.Remove(identity)
}

func (m *Model) fetch(ctx context.Context, f *Frame) (*types.ModelReport, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	b64, err := m.encode(f)
	if err != nil {
		return nil, err
	}
	report, err := m.client.AnalyzeImage(ctx, m.config.Model, m.prompt, b64)
	if err != nil {
		if m.log != nil && !errors.Is(err, context.Canceled) {
			m.log.Warnf("Vision model %v failed for %v: %v", m.config.Model, f.Identity, err)
		}
		return nil, err
	}
	if m.log != nil {
		m.log.Debugf("Vision model %v reported %v objects, %v labels for %v",
			m.config.Model, len(report.Objects), len(report.Classifications), f.Identity)
	}
	return report, nil
}

func (m *Model) encode(f *Frame) (string, error) {
	b64, err := m.processor.PrepareImageForModel(f.Image, "jpg", m.config.MaxDimension, m.config.JPEGQuality)
	if err != nil {
		return "", fmt.Errorf("failed to encode image for model: %w", err)
	}
	return b64, nil
}

// Classify implements Classifier
func (m *Model) Classify(ctx context.Context, f *Frame) ([]types.ClassificationResult, error) {
	report, err := m.Report(ctx, f)
	if err != nil {
		return nil, err
	}
	return labels(report.Classifications), nil
}

// ClassifyScene implements SceneClassifier
func (m *Model) ClassifyScene(ctx context.Context, f *Frame) ([]types.ClassificationResult, error) {
	report, err := m.Report(ctx, f)
	if err != nil {
		return nil, err
	}
	return labels(report.Scenes), nil
}

// DetectObjects implements ObjectDetector
func (m *Model) DetectObjects(ctx context.Context, f *Frame) ([]types.DetectedObject, error) {
	report, err := m.Report(ctx, f)
	if err != nil {
		return nil, err
	}
	width, height := f.Info.Width, f.Info.Height
	if width <= 0 || height <= 0 {
		b := f.Image.Bounds()
		width, height = b.Dx(), b.Dy()
	}

	out := make([]types.DetectedObject, 0, len(report.Objects))
	for _, o := range report.Objects {
		id := types.NormalizeIdentifier(o.Label)
		box := normalizeBox(o.Box, width, height)
		if id == "" || !box.Valid() {
			continue
		}
		out = append(out, types.DetectedObject{
			Identifier:  id,
			Confidence:  types.NewClassification(id, o.Confidence).Confidence,
			Box:         box,
			Description: strings.TrimSpace(o.Description),
		})
	}
	return out, nil
}

// RecognizeText implements TextRecognizer
func (m *Model) RecognizeText(ctx context.Context, f *Frame) ([]types.TextBlock, error) {
	report, err := m.Report(ctx, f)
	if err != nil {
		return nil, err
	}
	var out []types.TextBlock
	for _, t := range report.Text {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, types.TextBlock{Text: t, Confidence: DefaultTextConfidence})
		}
	}
	return out, nil
}

// RecognizeLandmarks implements LandmarkRecognizer
func (m *Model) RecognizeLandmarks(ctx context.Context, f *Frame) ([]types.Landmark, error) {
	report, err := m.Report(ctx, f)
	if err != nil {
		return nil, err
	}
	var out []types.Landmark
	for _, l := range report.Landmarks {
		if name := strings.TrimSpace(l.Label); name != "" {
			out = append(out, types.Landmark{Name: name, Confidence: clamp(l.Confidence, 0, 1)})
		}
	}
	return out, nil
}

// RecognizePeople implements IdentityRecognizer. Model names count as
// classification-sourced identities since they come without a face box.
func (m *Model) RecognizePeople(ctx context.Context, f *Frame) ([]types.RecognizedPerson, error) {
	report, err := m.Report(ctx, f)
	if err != nil {
		return nil, err
	}
	var out []types.RecognizedPerson
	for _, p := range report.People {
		if name := strings.TrimSpace(p.Label); name != "" {
			out = append(out, types.RecognizedPerson{
				Name:       name,
				Confidence: clamp(p.Confidence, 0, 1),
				Source:     types.IdentityFromClassification,
			})
		}
	}
	return out, nil
}

func labels(in []types.ModelLabel) []types.ClassificationResult {
	out := make([]types.ClassificationResult, 0, len(in))
	for _, l := range in {
		c := types.NewClassification(l.Label, l.Confidence)
		if c.Identifier != "" {
			out = append(out, c)
		}
	}
	return out
}

// normalizeBox converts pixel boxes to normalized ones and clamps to the unit square
func normalizeBox(b types.Box, imgW, imgH int) types.Box {
	if (b.X > 1 || b.Y > 1 || b.W > 1 || b.H > 1) && imgW > 0 && imgH > 0 {
		b = types.Box{
			X: b.X / float64(imgW),
			Y: b.Y / float64(imgH),
			W: b.W / float64(imgW),
			H: b.H / float64(imgH),
		}
	}
	return b.Clamp()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
