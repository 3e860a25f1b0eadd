// Package purpose labels the likely intent of an image.
package purpose

import (
	"math"
	"strings"

	"github.com/menta2k/image-insight/pkg/taxonomy"
	"github.com/menta2k/image-insight/pkg/types"
)

// Config holds the classifier thresholds
type Config struct {
	// LowSignalThreshold is the summed per-layer confidence below which
	// the image is treated as uncertain.
	LowSignalThreshold   float64 `toml:"low_signal_threshold"`
	MinLabelConfidence   float64 `toml:"min_label_confidence"`
	DocumentMinTextChars int     `toml:"document_min_text_chars"`
	PortraitMinArea      float64 `toml:"portrait_min_area"`
	CloseUpMinArea       float64 `toml:"close_up_min_area"`
}

// DefaultConfig returns the default thresholds
func DefaultConfig() Config {
	return Config{
		LowSignalThreshold:   0.20,
		MinLabelConfidence:   0.4,
		DocumentMinTextChars: 60,
		PortraitMinArea:      0.12,
		CloseUpMinArea:       0.35,
	}
}

// Classifier labels image purpose
type Classifier struct {
	config Config
}

// New creates a Classifier with default configuration
func New() *Classifier {
	return &Classifier{config: DefaultConfig()}
}

// NewWithConfig creates a Classifier with custom configuration
func NewWithConfig(config Config) *Classifier {
	return &Classifier{config: config}
}

// Classify runs the default Classifier
func Classify(in types.GenerationInput) types.Purpose {
	return New().Classify(in)
}

var screenshotTerms = map[string]bool{
	"screenshot":     true,
	"website":        true,
	"web site":       true,
	"user interface": true,
	"web page":       true,
	"text messages":  true,
}

// Classify applies the purpose rules in priority order
func (c *Classifier) Classify(in types.GenerationInput) types.Purpose {
	if c.IsLowSignal(in) {
		return types.PurposeUncertain
	}
	if c.isScreenshot(in) {
		return types.PurposeScreenshot
	}
	if c.isDocument(in) {
		return types.PurposeDocument
	}

	primary, hasPrimary := in.PrimarySubject()
	if peopleCount(in.Subjects) >= 2 {
		return types.PurposeGroupPhoto
	}
	if hasPrimary && isPerson(primary) {
		if primary.Source == types.SubjectFromFace || primary.Box == nil || primary.Box.Area() >= c.config.PortraitMinArea {
			return types.PurposePortrait
		}
	}
	if c.leads(in, primary, hasPrimary, taxonomy.Animal) {
		return types.PurposePet
	}
	if c.leads(in, primary, hasPrimary, taxonomy.Food) {
		return types.PurposeFood
	}
	if c.isLandscape(in) {
		return types.PurposeLandscape
	}
	if hasPrimary && primary.IsSpatial() && primary.Box != nil && primary.Box.Area() >= c.config.CloseUpMinArea {
		return types.PurposeCloseUp
	}
	return types.PurposeGeneral
}

// SignalStrength sums the strongest confidence of each content layer
func SignalStrength(in types.GenerationInput) float64 {
	var total float64
	total += maxClassification(in.Fused)
	total += maxClassification(in.Scenes)
	var objects, text, people, landmarks float64
	for _, o := range in.Objects {
		objects = math.Max(objects, o.Confidence)
	}
	for _, t := range in.Text {
		if strings.TrimSpace(t.Text) != "" {
			text = math.Max(text, t.Confidence)
		}
	}
	for _, p := range in.People {
		people = math.Max(people, p.Confidence)
	}
	for _, l := range in.Landmarks {
		landmarks = math.Max(landmarks, l.Confidence)
	}
	return total + objects + text + people + landmarks
}

// IsLowSignal reports whether no content layer said anything confident
func (c *Classifier) IsLowSignal(in types.GenerationInput) bool {
	return SignalStrength(in) < c.config.LowSignalThreshold
}

func maxClassification(list []types.ClassificationResult) float64 {
	var m float64
	for _, r := range list {
		m = math.Max(m, r.Confidence)
	}
	return m
}

func (c *Classifier) labels(in types.GenerationInput) []types.ClassificationResult {
	out := make([]types.ClassificationResult, 0, len(in.Fused)+len(in.Scenes))
	out = append(out, in.Fused...)
	return append(out, in.Scenes...)
}

func (c *Classifier) isScreenshot(in types.GenerationInput) bool {
	for _, l := range c.labels(in) {
		if screenshotTerms[l.Identifier] && l.Confidence >= c.config.MinLabelConfidence {
			return true
		}
	}
	// Lots of text, no camera and nothing photographed
	return len(in.Text) >= 4 && in.Info.Camera == "" && len(in.Objects) == 0 &&
		strings.EqualFold(in.Info.Format, "png")
}

func (c *Classifier) isDocument(in types.GenerationInput) bool {
	for _, l := range c.labels(in) {
		if screenshotTerms[l.Identifier] {
			continue
		}
		if taxonomy.Is(l.Identifier, taxonomy.Document) && l.Confidence >= c.config.MinLabelConfidence {
			return true
		}
	}
	chars := 0
	for _, t := range in.Text {
		chars += len(strings.TrimSpace(t.Text))
	}
	if chars < c.config.DocumentMinTextChars {
		return false
	}
	for _, s := range in.Subjects {
		if s.IsSpatial() && isPerson(s) {
			return false
		}
	}
	return true
}

func (c *Classifier) leads(in types.GenerationInput, primary types.Subject, hasPrimary bool, category taxonomy.Category) bool {
	if hasPrimary {
		return taxonomy.Is(primary.Identifier, category)
	}
	for _, l := range in.Fused {
		if l.Confidence < c.config.MinLabelConfidence {
			continue
		}
		return taxonomy.Is(l.Identifier, category)
	}
	return false
}

func (c *Classifier) isLandscape(in types.GenerationInput) bool {
	for _, s := range in.Subjects {
		if s.IsSpatial() && s.Box != nil && s.Box.Area() >= 0.1 {
			return false
		}
	}
	for _, l := range c.labels(in) {
		if l.Confidence < c.config.MinLabelConfidence {
			continue
		}
		switch taxonomy.Lookup(l.Identifier) {
		case taxonomy.Scene, taxonomy.Background:
			return true
		}
	}
	return len(in.Landmarks) > 0 && in.Landmarks[0].Confidence >= c.config.MinLabelConfidence
}

func isPerson(s types.Subject) bool {
	return s.Source == types.SubjectFromFace || taxonomy.IsPerson(s.Identifier)
}

func peopleCount(subjects []types.Subject) int {
	n := 0
	for _, s := range subjects {
		if !s.IsSpatial() || !isPerson(s) {
			continue
		}
		if s.Count > 1 {
			n += s.Count
		} else {
			n++
		}
	}
	return n
}
