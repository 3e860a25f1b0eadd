// Package caption writes a short one-line description of an image from its fused signals.
package caption

import (
	"fmt"
	"strings"

	"github.com/menta2k/image-insight/pkg/taxonomy"
	"github.com/menta2k/image-insight/pkg/types"
)

// Config holds caption thresholds
type Config struct {
	MaxLength                   int     `toml:"max_length"`
	MinNameConfidence           float64 `toml:"min_name_confidence"`
	MinClassificationConfidence float64 `toml:"min_classification_confidence"`
	MinSceneConfidence          float64 `toml:"min_scene_confidence"`
	MinLandmarkConfidence       float64 `toml:"min_landmark_confidence"`
}

// DefaultConfig returns the default caption configuration
func DefaultConfig() Config {
	return Config{
		MaxLength:                   120,
		MinNameConfidence:           0.5,
		MinClassificationConfidence: 0.35,
		MinSceneConfidence:          0.3,
		MinLandmarkConfidence:       0.4,
	}
}

// Generator builds captions
type Generator struct {
	config Config
}

// New creates a Generator with default configuration
func New() *Generator {
	return &Generator{config: DefaultConfig()}
}

// NewWithConfig creates a Generator with custom configuration
func NewWithConfig(config Config) *Generator {
	if config.MaxLength <= 0 {
		config.MaxLength = DefaultConfig().MaxLength
	}
	return &Generator{config: config}
}

// Generate runs the default Generator
func Generate(in types.GenerationInput) string {
	return New().Generate(in)
}

// Generate returns a caption. The most specific layer with enough confidence
// wins: recognized names, then the primary subject, the top classification,
// the scene, and finally plain visual attributes.
func (g *Generator) Generate(in types.GenerationInput) string {
	caption, located := g.named(in)
	if caption == "" {
		caption, located = g.subject(in)
	}
	if caption == "" {
		caption = g.classification(in)
	}
	if caption == "" {
		caption, located = g.scene(in)
	}
	if caption == "" {
		caption, located = g.attributes(in), true
	}
	if !located {
		if setting := g.setting(in); setting != "" {
			caption += " " + setting
		}
	}
	return g.truncate(Capitalize(caption))
}

func (g *Generator) named(in types.GenerationInput) (string, bool) {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			return
		}
		seen[key] = true
		names = append(names, name)
	}
	for _, s := range in.Subjects {
		if s.Source == types.SubjectFromFace {
			add(s.Label)
		}
	}
	if len(names) == 0 && len(in.Subjects) == 0 {
		for _, p := range in.People {
			if p.Source == types.IdentityFromFace && p.Confidence >= g.config.MinNameConfidence {
				add(strings.TrimSpace(p.Name))
			}
		}
	}
	if len(names) == 0 {
		return "", false
	}

	caption := joinNames(names)
	for _, s := range in.Subjects {
		if s.Source != types.SubjectFromObject || !taxonomy.IsPerson(s.Identifier) {
			continue
		}
		if n := max(s.Count, 1); n == 1 {
			caption += " with another person"
		} else {
			caption += fmt.Sprintf(" with %s other people", NumberWord(n))
		}
		break
	}
	return caption, false
}

func joinNames(names []string) string {
	switch len(names) {
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}

func (g *Generator) subject(in types.GenerationInput) (string, bool) {
	primary, ok := in.PrimarySubject()
	if !ok {
		return "", false
	}
	if !primary.IsSpatial() && primary.Confidence < g.config.MinClassificationConfidence {
		return "", false
	}
	phrase := SubjectPhrase(primary, in.SubjectColor)
	if len(in.Subjects) > 1 {
		second := in.Subjects[1]
		if second.IsSpatial() && second.Identifier != primary.Identifier {
			phrase += " and " + SubjectPhrase(second, "")
		}
	}
	return phrase, false
}

func (g *Generator) classification(in types.GenerationInput) string {
	for _, c := range in.Fused {
		if c.Confidence < g.config.MinClassificationConfidence {
			break
		}
		switch taxonomy.Lookup(c.Identifier) {
		case taxonomy.Scene, taxonomy.Background:
			continue
		}
		return WithArticle(c.Identifier)
	}
	return ""
}

func (g *Generator) scene(in types.GenerationInput) (string, bool) {
	best, ok := g.bestScene(in)
	if !ok {
		return "", false
	}
	return WithArticle(best.Identifier + " scene"), true
}

// bestScene picks the strongest scene label from the scene classifier or the fused list
func (g *Generator) bestScene(in types.GenerationInput) (types.ClassificationResult, bool) {
	var best types.ClassificationResult
	found := false
	consider := func(c types.ClassificationResult) {
		if c.Confidence < g.config.MinSceneConfidence || c.Identifier == "" {
			return
		}
		if !found || c.Confidence > best.Confidence {
			best, found = c, true
		}
	}
	for _, s := range in.Scenes {
		consider(s)
	}
	for _, c := range in.Fused {
		if taxonomy.Is(c.Identifier, taxonomy.Scene) {
			consider(c)
		}
	}
	return best, found
}

func (g *Generator) setting(in types.GenerationInput) string {
	for _, l := range in.Landmarks {
		if l.Confidence >= g.config.MinLandmarkConfidence && strings.TrimSpace(l.Name) != "" {
			return "at " + strings.TrimSpace(l.Name)
		}
	}
	best, ok := g.bestScene(in)
	if !ok {
		return ""
	}
	return SettingPhrase(best.Identifier)
}

// attributes describes what is visible without any recognized content
func (g *Generator) attributes(in types.GenerationInput) string {
	shape := "image"
	if in.Info.Orientation != "" {
		shape = string(in.Info.Orientation) + " image"
	}
	if dominant, ok := in.Colors.Dominant(); ok && dominant.Name != "" {
		return WithArticle("mostly " + dominant.Name + " " + shape)
	}
	if in.Info.Width > 0 && in.Info.Height > 0 {
		return fmt.Sprintf("%s %dx%d", WithArticle(shape), in.Info.Width, in.Info.Height)
	}
	return "an image with no recognizable content"
}

// truncate cuts at a word boundary so the caption fits MaxLength
func (g *Generator) truncate(s string) string {
	cut, clipped := Clip(s, g.config.MaxLength)
	if !clipped {
		return s
	}
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:-")
}
