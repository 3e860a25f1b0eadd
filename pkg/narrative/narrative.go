// Package narrative writes a longer, purpose-aware description of an image.
package narrative

import (
	"fmt"
	"strings"

	"github.com/menta2k/image-insight/pkg/caption"
	"github.com/menta2k/image-insight/pkg/purpose"
	"github.com/menta2k/image-insight/pkg/taxonomy"
	"github.com/menta2k/image-insight/pkg/types"
)

// Config holds narrative settings
type Config struct {
	MaxQuoteLength     int            `toml:"max_quote_length"`
	MinSceneConfidence float64        `toml:"min_scene_confidence"`
	MinColorWeight     float64        `toml:"min_color_weight"`
	Purpose            purpose.Config `toml:"purpose"`
}

// DefaultConfig returns the default narrative configuration
func DefaultConfig() Config {
	return Config{
		MaxQuoteLength:     60,
		MinSceneConfidence: 0.3,
		MinColorWeight:     0.1,
		Purpose:            purpose.DefaultConfig(),
	}
}

// Generator builds narratives
type Generator struct {
	config   Config
	purposes *purpose.Classifier
}

// New creates a Generator with default configuration
func New() *Generator {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a Generator with custom configuration
func NewWithConfig(config Config) *Generator {
	return &Generator{config: config, purposes: purpose.NewWithConfig(config.Purpose)}
}

// Generate runs the default Generator
func Generate(in types.GenerationInput) string {
	return New().Generate(in)
}

// Generate classifies the purpose and returns a one to three sentence narrative
func (g *Generator) Generate(in types.GenerationInput) string {
	return g.GenerateFor(in, g.purposes.Classify(in))
}

// GenerateFor writes the narrative for an already classified purpose
func (g *Generator) GenerateFor(in types.GenerationInput, p types.Purpose) string {
	if p == types.PurposeUncertain {
		return g.uncertain(in)
	}

	v := g.vars(in)
	sentences := []string{fill(pick(templates[p], in.Seed), v)}
	if text := g.textCue(in, p); text != "" {
		sentences = append(sentences, text)
	}
	if look := g.lookCue(in); look != "" {
		sentences = append(sentences, look)
	}
	if len(sentences) > 3 {
		sentences = sentences[:3]
	}
	return strings.Join(sentences, " ")
}

// vars fills the template placeholders from the strongest signals
func (g *Generator) vars(in types.GenerationInput) map[string]string {
	v := map[string]string{
		"{subject}": "the main subject",
		"{setting}": "",
		"{place}":   "",
		"{count}":   "several",
		"{label}":   "the scene",
	}
	if primary, ok := in.PrimarySubject(); ok {
		v["{subject}"] = caption.SubjectPhrase(primary, in.SubjectColor)
	}
	if n := peopleCount(in.Subjects); n >= 2 {
		v["{count}"] = caption.NumberWord(n)
	}

	scene := g.scene(in)
	switch {
	case scene != "":
		v["{label}"] = caption.WithArticle(scene)
		v["{setting}"] = " " + caption.SettingPhrase(scene)
	default:
		if label, ok := g.label(in); ok {
			v["{label}"] = label
		}
	}
	for _, l := range in.Landmarks {
		if l.Confidence >= g.config.Purpose.MinLabelConfidence && l.Name != "" {
			v["{setting}"] = " at " + l.Name
			v["{place}"] = " at " + l.Name
			break
		}
	}
	return v
}

// label names what a landscape shows when no scene label is available
func (g *Generator) label(in types.GenerationInput) (string, bool) {
	for _, c := range in.Fused {
		if taxonomy.Lookup(c.Identifier).Group() != taxonomy.GroupBackground {
			return caption.WithArticle(c.Identifier), true
		}
	}
	if len(in.Fused) > 0 {
		return "the " + in.Fused[0].Identifier, true
	}
	return "", false
}

func peopleCount(subjects []types.Subject) int {
	n := 0
	for _, s := range subjects {
		switch {
		case s.Source == types.SubjectFromFace:
			n++
		case s.Source == types.SubjectFromObject && taxonomy.IsPerson(s.Identifier):
			n += max(s.Count, 1)
		}
	}
	return n
}

func (g *Generator) scene(in types.GenerationInput) string {
	best, conf := "", 0.0
	for _, s := range in.Scenes {
		if s.Confidence >= g.config.MinSceneConfidence && s.Confidence > conf {
			best, conf = s.Identifier, s.Confidence
		}
	}
	for _, c := range in.Fused {
		if taxonomy.Is(c.Identifier, taxonomy.Scene) && c.Confidence >= g.config.MinSceneConfidence && c.Confidence > conf {
			best, conf = c.Identifier, c.Confidence
		}
	}
	return best
}

func (g *Generator) textCue(in types.GenerationInput, p types.Purpose) string {
	var parts []string
	for _, t := range in.Text {
		if s := strings.Join(strings.Fields(t.Text), " "); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	quote := quoteText(strings.Join(parts, " "), g.config.MaxQuoteLength)
	switch p {
	case types.PurposeDocument, types.PurposeScreenshot:
		return fmt.Sprintf("The text begins %q.", quote)
	}
	return fmt.Sprintf("Visible text reads %q.", quote)
}

func quoteText(s string, limit int) string {
	cut, clipped := caption.Clip(s, limit)
	if !clipped {
		return s
	}
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:") + "..."
}

// lookCue describes palette and lighting
func (g *Generator) lookCue(in types.GenerationInput) string {
	if in.Colors == nil {
		return ""
	}
	names := g.colorNames(in.Colors)
	lighting := lighting(in.Colors)
	switch {
	case len(names) > 0 && lighting != "":
		return fmt.Sprintf("The palette leans toward %s, with %s.", joinList(names), lighting)
	case len(names) > 0:
		return fmt.Sprintf("The palette leans toward %s.", joinList(names))
	case lighting != "":
		return fmt.Sprintf("The picture has %s.", lighting)
	}
	return ""
}

func (g *Generator) colorNames(c *types.ColorAnalysis) []string {
	var names []string
	for _, s := range c.Colors {
		if s.Weight < g.config.MinColorWeight || s.Name == "" {
			continue
		}
		names = append(names, s.Name)
		if len(names) == 2 {
			break
		}
	}
	return names
}

func lighting(c *types.ColorAnalysis) string {
	var tone, contrast string
	switch {
	case c.Brightness < 0.3:
		tone = "dim"
	case c.Brightness > 0.7:
		tone = "bright"
	}
	switch {
	case c.Contrast > 0.25:
		contrast = "high-contrast"
	case c.Contrast < 0.08:
		contrast = "soft"
	}
	switch {
	case tone != "" && contrast != "":
		return tone + ", " + contrast + " lighting"
	case tone != "":
		return tone + " lighting"
	case contrast != "":
		return contrast + " lighting"
	}
	return ""
}

func joinList(items []string) string {
	if len(items) == 2 {
		return items[0] + " and " + items[1]
	}
	return strings.Join(items, ", ")
}

// uncertain reports only what can be measured
func (g *Generator) uncertain(in types.GenerationInput) string {
	v := map[string]string{
		"{shape}":   "image",
		"{size}":    "",
		"{palette}": "",
	}
	if in.Info.Orientation != "" {
		v["{shape}"] = string(in.Info.Orientation) + "-format image"
	}
	if in.Info.Width > 0 && in.Info.Height > 0 {
		v["{size}"] = fmt.Sprintf(" of %dx%d pixels", in.Info.Width, in.Info.Height)
	}
	if in.Colors != nil {
		if names := g.colorNames(in.Colors); len(names) > 0 {
			v["{palette}"] = " with a mostly " + joinList(names) + " palette"
		}
	}
	sentences := []string{fill(pick(uncertainTemplates, in.Seed), v)}
	if in.Colors != nil {
		if l := lighting(in.Colors); l != "" {
			sentences = append(sentences, fmt.Sprintf("It has %s.", l))
		}
	}
	return strings.Join(sentences, " ")
}
