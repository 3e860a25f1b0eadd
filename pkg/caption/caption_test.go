package caption

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/menta2k/image-insight/pkg/types"
)

func box(x, y, w, h float64) *types.Box {
	return &types.Box{X: x, Y: y, W: w, H: h}
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name string
		in   types.GenerationInput
		want string
	}{
		{
			name: "single person",
			in: types.GenerationInput{Subjects: []types.Subject{
				{Label: "Person", Identifier: "person", Confidence: 0.85, Source: types.SubjectFromObject, Box: box(0.3, 0.2, 0.4, 0.6)},
			}},
			want: "A person",
		},
		{
			name: "subject color on a vehicle",
			in: types.GenerationInput{
				Subjects:     []types.Subject{{Label: "Car", Identifier: "car", Confidence: 0.9, Source: types.SubjectFromObject, Box: box(0.2, 0.4, 0.5, 0.3)}},
				SubjectColor: "red",
			},
			want: "A red car",
		},
		{
			name: "subject color is not applied to people",
			in: types.GenerationInput{
				Subjects:     []types.Subject{{Label: "Person", Identifier: "person", Confidence: 0.9, Source: types.SubjectFromObject, Box: box(0.2, 0.2, 0.5, 0.7)}},
				SubjectColor: "red",
			},
			want: "A person",
		},
		{
			name: "group with setting",
			in: types.GenerationInput{
				Signals: types.Signals{Scenes: []types.ClassificationResult{{Identifier: "beach", Confidence: 0.7}}},
				Subjects: []types.Subject{
					{Label: "Group of 3 people", Identifier: "people", Confidence: 0.8, Source: types.SubjectFromObject, Count: 3, Box: box(0.1, 0.2, 0.8, 0.6)},
				},
			},
			want: "A group of three people on the beach",
		},
		{
			name: "recognized names",
			in: types.GenerationInput{Subjects: []types.Subject{
				{Label: "Alice", Identifier: "alice", Confidence: 0.9, Source: types.SubjectFromFace},
				{Label: "Bob", Identifier: "bob", Confidence: 0.8, Source: types.SubjectFromFace},
			}},
			want: "Alice and Bob",
		},
		{
			name: "name with an anonymous person",
			in: types.GenerationInput{Subjects: []types.Subject{
				{Label: "Alice", Identifier: "alice", Confidence: 0.9, Source: types.SubjectFromFace},
				{Label: "Person", Identifier: "person", Confidence: 0.8, Source: types.SubjectFromObject, Box: box(0.6, 0.2, 0.3, 0.6)},
			}},
			want: "Alice with another person",
		},
		{
			name: "folded objects",
			in: types.GenerationInput{Subjects: []types.Subject{
				{Label: "Dog", Identifier: "dog", Confidence: 0.8, Source: types.SubjectFromObject, Count: 2, Box: box(0.1, 0.1, 0.8, 0.8)},
			}},
			want: "Two dogs",
		},
		{
			name: "weak classification subject falls through to scene",
			in: types.GenerationInput{
				Signals:  types.Signals{Scenes: []types.ClassificationResult{{Identifier: "forest", Confidence: 0.5}}},
				Subjects: []types.Subject{{Label: "Tree", Identifier: "tree", Confidence: 0.2, Source: types.SubjectFromClassification}},
				Fused:    []types.ClassificationResult{{Identifier: "tree", Confidence: 0.2}},
			},
			want: "A forest scene",
		},
		{
			name: "top classification",
			in: types.GenerationInput{Fused: []types.ClassificationResult{
				{Identifier: "sky", Confidence: 0.9},
				{Identifier: "umbrella", Confidence: 0.6},
			}},
			want: "An umbrella",
		},
		{
			name: "landmark setting",
			in: types.GenerationInput{
				Signals:  types.Signals{Landmarks: []types.Landmark{{Name: "the Eiffel Tower", Confidence: 0.8}}},
				Subjects: []types.Subject{{Label: "Person", Identifier: "person", Confidence: 0.85, Source: types.SubjectFromObject, Box: box(0.3, 0.3, 0.3, 0.6)}},
			},
			want: "A person at the Eiffel Tower",
		},
		{
			name: "colors only",
			in: types.GenerationInput{Signals: types.Signals{
				Info:   types.NewImageInfo(1600, 900),
				Colors: &types.ColorAnalysis{Colors: []types.ColorSample{{Name: "gray", Weight: 0.2}, {Name: "blue", Weight: 0.7}}},
			}},
			want: "A mostly blue landscape image",
		},
		{
			name: "dimensions only",
			in:   types.GenerationInput{Signals: types.Signals{Info: types.NewImageInfo(800, 800)}},
			want: "A square image 800x800",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.in))
		})
	}
}

func TestGenerateNeverBare(t *testing.T) {
	got := Generate(types.GenerationInput{})
	assert.NotEmpty(t, got)
	assert.NotEqual(t, "Image", strings.TrimSuffix(got, "."))
	assert.Greater(t, len(strings.Fields(got)), 2)
}

func TestGenerateTruncates(t *testing.T) {
	in := types.GenerationInput{
		Signals: types.Signals{Landmarks: []types.Landmark{{
			Name:       strings.Repeat("very long landmark name ", 10),
			Confidence: 0.9,
		}}},
		Subjects: []types.Subject{{Label: "Person", Identifier: "person", Confidence: 0.9, Source: types.SubjectFromObject, Box: box(0.2, 0.2, 0.5, 0.7)}},
	}
	got := Generate(in)
	assert.LessOrEqual(t, len(got), 120)
	assert.True(t, strings.HasPrefix(got, "A person at very long"))
	assert.False(t, strings.HasSuffix(got, " "))
}

func TestPhraseHelpers(t *testing.T) {
	assert.Equal(t, "an", Article("owl"))
	assert.Equal(t, "a", Article("unicorn"))
	assert.Equal(t, "an", Article("hour"))
	assert.Equal(t, "a", Article("car"))
	assert.Equal(t, "buses", Plural("bus"))
	assert.Equal(t, "puppies", Plural("puppy"))
	assert.Equal(t, "women", Plural("woman"))
	assert.Equal(t, "humans", Plural("human"))
	assert.Equal(t, "people", Plural("person"))
	assert.Equal(t, "12", NumberWord(12))
	assert.Equal(t, "in an office", SettingPhrase("office"))
	assert.Equal(t, "indoors", SettingPhrase("Indoor"))
}

func TestUnicodeNames(t *testing.T) {
	got := Generate(types.GenerationInput{Subjects: []types.Subject{
		{Label: "Émile Zola", Identifier: "émile zola", Confidence: 0.9, Source: types.SubjectFromFace},
	}})
	assert.True(t, utf8.ValidString(got), "caption %q", got)
	assert.True(t, strings.HasPrefix(got, "Émile Zola"), "caption %q", got)

	assert.Equal(t, "Élan", Capitalize("élan"))
	assert.Equal(t, "Ünter", Capitalize("ünter"))
	assert.Equal(t, "", Capitalize(""))
}

func TestClipKeepsRunes(t *testing.T) {
	got, clipped := Clip("ééééé", 3)
	assert.True(t, clipped)
	assert.Equal(t, "ééé", got)

	got, clipped = Clip("abc", 3)
	assert.False(t, clipped)
	assert.Equal(t, "abc", got)
}

func TestGenerateTruncatesUnicode(t *testing.T) {
	config := DefaultConfig()
	config.MaxLength = 20
	g := NewWithConfig(config)
	got := g.Generate(types.GenerationInput{Subjects: []types.Subject{
		{Label: strings.Repeat("Ñandú", 10), Identifier: "ñandú", Confidence: 0.9, Source: types.SubjectFromFace},
	}})
	assert.True(t, utf8.ValidString(got), "caption %q", got)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), 20)
}
