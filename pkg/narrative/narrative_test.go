package narrative

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-insight/pkg/types"
)

func portraitInput(seed uint64) types.GenerationInput {
	return types.GenerationInput{
		Signals: types.Signals{
			People: []types.RecognizedPerson{{Name: "Alice", Confidence: 0.9, Source: types.IdentityFromFace}},
		},
		Subjects: []types.Subject{{Label: "Alice", Identifier: "alice", Confidence: 0.9, Source: types.SubjectFromFace}},
		Seed:     seed,
	}
}

func TestPortrait(t *testing.T) {
	assert.Equal(t, "A portrait of Alice.", Generate(portraitInput(0)))
	assert.Equal(t, "This portrait centers on Alice.", Generate(portraitInput(1)))
}

func TestGroupPhoto(t *testing.T) {
	in := types.GenerationInput{
		Fused: []types.ClassificationResult{{Identifier: "person", Confidence: 0.8}},
		Subjects: []types.Subject{{
			Label: "Group of 3 people", Identifier: "people", Confidence: 0.8,
			Source: types.SubjectFromObject, Count: 3, Box: &types.Box{X: 0.1, Y: 0.1, W: 0.8, H: 0.7},
		}},
	}
	assert.Equal(t, "A group photo of three people.", Generate(in))
}

func TestLandscape(t *testing.T) {
	in := types.GenerationInput{
		Signals: types.Signals{Scenes: []types.ClassificationResult{{Identifier: "mountain", Confidence: 0.7}}},
		Fused:   []types.ClassificationResult{{Identifier: "sky", Confidence: 0.9}},
	}
	assert.Equal(t, "A landscape view of a mountain.", Generate(in))
}

func TestTemplatesVaryWithSeed(t *testing.T) {
	in := types.GenerationInput{
		Fused: []types.ClassificationResult{{Identifier: "chair", Confidence: 0.7}},
		Subjects: []types.Subject{{
			Label: "Chair", Identifier: "chair", Confidence: 0.7,
			Source: types.SubjectFromObject, Box: &types.Box{X: 0.4, Y: 0.4, W: 0.2, H: 0.2},
		}},
	}
	seen := make(map[string]bool)
	for seed := uint64(0); seed < 3; seed++ {
		in.Seed = seed
		out := Generate(in)
		assert.Equal(t, out, Generate(in), "same seed gives the same narrative")
		seen[out] = true
	}
	assert.Len(t, seen, 3)
	for _, variants := range templates {
		assert.GreaterOrEqual(t, len(variants), 3)
	}
}

func TestTextAndLookCues(t *testing.T) {
	in := portraitInput(0)
	in.Text = []types.TextBlock{{Text: "  HAPPY   BIRTHDAY ", Confidence: 0.9}}
	in.Colors = &types.ColorAnalysis{
		Colors:     []types.ColorSample{{Name: "blue", Weight: 0.6}, {Name: "white", Weight: 0.3}, {Name: "red", Weight: 0.05}},
		Brightness: 0.8,
		Contrast:   0.3,
	}
	got := Generate(in)
	assert.Equal(t, `A portrait of Alice. Visible text reads "HAPPY BIRTHDAY". The palette leans toward blue and white, with bright, high-contrast lighting.`, got)
}

func TestDocumentQuotesText(t *testing.T) {
	in := types.GenerationInput{
		Signals: types.Signals{Text: []types.TextBlock{{
			Text:       strings.Repeat("Invoice number 42 due on receipt ", 4),
			Confidence: 0.9,
		}}},
	}
	got := New().GenerateFor(in, types.PurposeDocument)
	assert.Contains(t, got, `The text begins "Invoice number 42`)
	assert.Contains(t, got, `..."`)
}

func TestUncertain(t *testing.T) {
	in := types.GenerationInput{Signals: types.Signals{
		Info:   types.NewImageInfo(1024, 768),
		Colors: &types.ColorAnalysis{Colors: []types.ColorSample{{Name: "gray", Weight: 0.9}}, Brightness: 0.2, Contrast: 0.1},
	}}
	seen := make(map[string]bool)
	for seed := uint64(0); seed < 3; seed++ {
		in.Seed = seed
		got := Generate(in)
		require.Contains(t, got, "1024x768")
		assert.Contains(t, got, "landscape-format image")
		assert.Contains(t, got, "mostly gray palette")
		assert.Contains(t, got, "dim lighting")
		seen[got] = true
	}
	assert.Len(t, seen, 3)
}

func TestUncertainWithoutAnything(t *testing.T) {
	got := Generate(types.GenerationInput{})
	assert.Equal(t, "The content of this image could not be identified with confidence.", got)
}

func TestUnicodeNamesAndText(t *testing.T) {
	in := types.GenerationInput{
		Signals: types.Signals{
			People: []types.RecognizedPerson{{Name: "Émile Zola", Confidence: 0.9, Source: types.IdentityFromFace}},
		},
		Subjects: []types.Subject{{Label: "Émile Zola", Identifier: "émile zola", Confidence: 0.9, Source: types.SubjectFromFace}},
	}
	for seed := uint64(0); seed < 3; seed++ {
		in.Seed = seed
		got := Generate(in)
		assert.True(t, utf8.ValidString(got), "narrative %q", got)
		assert.Contains(t, got, "Émile")
	}

	doc := types.GenerationInput{Signals: types.Signals{Text: []types.TextBlock{{
		Text:       strings.Repeat("Größenänderung über Straße ", 10),
		Confidence: 0.9,
	}}}}
	got := New().GenerateFor(doc, types.PurposeDocument)
	assert.True(t, utf8.ValidString(got), "narrative %q", got)
	assert.Contains(t, got, `..."`)
}
