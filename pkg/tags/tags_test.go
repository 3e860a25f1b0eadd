package tags

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-insight/pkg/types"
)

func labels(tags []types.Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.Label
	}
	return out
}

func find(tags []types.Tag, label string) (types.Tag, bool) {
	for _, t := range tags {
		if t.Label == label {
			return t, true
		}
	}
	return types.Tag{}, false
}

func portrait() types.GenerationInput {
	return types.GenerationInput{
		Signals: types.Signals{
			Info:    types.NewImageInfo(1200, 1600),
			Quality: &types.QualityAssessment{Score: 0.9},
		},
		Fused: []types.ClassificationResult{{Identifier: "person", Confidence: 0.9}, {Identifier: "smile", Confidence: 0.6}},
		Subjects: []types.Subject{{
			Label: "Person", Identifier: "person", Confidence: 0.9,
			Source: types.SubjectFromObject, Box: &types.Box{X: 0.3, Y: 0.1, W: 0.4, H: 0.8},
		}},
	}
}

func TestPortraitSuppressesPerson(t *testing.T) {
	tags := Generate(portrait(), types.PurposePortrait)
	got := labels(tags)
	assert.Contains(t, got, "Portrait")
	assert.NotContains(t, got, "People")
	assert.NotContains(t, got, "Person")
	assert.NotContains(t, got, "Smile")

	profile, ok := find(tags, "Profile Picture")
	require.True(t, ok, "expected a profile picture tag in %v", got)
	require.NotNil(t, profile.Crop)
	assert.True(t, profile.Crop.Valid())
	assert.InDelta(t, 0.75, profile.Crop.H, 1e-9)
	assert.Equal(t, types.TagUseCase, profile.Category)

	_, ok = find(tags, "Social Media")
	assert.True(t, ok)
	_, ok = find(tags, "High Quality")
	assert.True(t, ok)
}

func TestPersonTermsShareOneTag(t *testing.T) {
	in := portrait()
	tags := Generate(in, types.PurposeGeneral)
	n := 0
	for _, tag := range tags {
		if tag.Label == "People" {
			n++
			assert.InDelta(t, 0.9, tag.Confidence, 1e-9)
		}
	}
	assert.Equal(t, 1, n)
	assert.NotContains(t, labels(tags), "Smile")
}

func TestGroupPhoto(t *testing.T) {
	in := types.GenerationInput{
		Subjects: []types.Subject{{
			Label: "Group of 3 people", Identifier: "people", Confidence: 0.8,
			Source: types.SubjectFromObject, Count: 3, Box: &types.Box{X: 0.1, Y: 0.2, W: 0.8, H: 0.6},
		}},
	}
	got := labels(Generate(in, types.PurposeGroupPhoto))
	assert.Contains(t, got, "Group Photo")
	assert.NotContains(t, got, "People")
}

func TestSettings(t *testing.T) {
	tests := []struct {
		name    string
		scenes  []types.ClassificationResult
		want    []string
		without []string
	}{
		{
			name:    "indoor and outdoor are exclusive",
			scenes:  []types.ClassificationResult{{Identifier: "indoor", Confidence: 0.6}, {Identifier: "outdoor", Confidence: 0.5}},
			want:    []string{"Indoor"},
			without: []string{"Outdoor"},
		},
		{
			name:    "outdoor wins when stronger",
			scenes:  []types.ClassificationResult{{Identifier: "indoor", Confidence: 0.4}, {Identifier: "outdoors", Confidence: 0.7}},
			want:    []string{"Outdoor"},
			without: []string{"Indoor"},
		},
		{
			name:    "specific indoor setting replaces the generic one",
			scenes:  []types.ClassificationResult{{Identifier: "kitchen", Confidence: 0.7}, {Identifier: "indoor", Confidence: 0.6}},
			want:    []string{"Kitchen"},
			without: []string{"Indoor"},
		},
		{
			name:    "specific outdoor setting replaces the generic one",
			scenes:  []types.ClassificationResult{{Identifier: "beach", Confidence: 0.7}, {Identifier: "outdoor", Confidence: 0.9}},
			want:    []string{"Beach"},
			without: []string{"Outdoor"},
		},
		{
			name:    "weak scenes are ignored",
			scenes:  []types.ClassificationResult{{Identifier: "forest", Confidence: 0.1}},
			without: []string{"Forest"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := types.GenerationInput{Signals: types.Signals{Scenes: tt.scenes}}
			tags := Generate(in, types.PurposeGeneral)
			got := labels(tags)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			for _, w := range tt.without {
				assert.NotContains(t, got, w)
			}
			for _, tag := range tags {
				assert.Equal(t, types.TagSetting, tag.Category)
			}
		})
	}
}

func TestActivities(t *testing.T) {
	in := types.GenerationInput{Signals: types.Signals{Objects: []types.DetectedObject{
		{Identifier: "laptop", Confidence: 0.8, Box: types.Box{X: 0.2, Y: 0.5, W: 0.3, H: 0.2}},
		{Identifier: "bicycle", Confidence: 0.7, Box: types.Box{X: 0.6, Y: 0.5, W: 0.3, H: 0.3}},
	}}}
	got := labels(Generate(in, types.PurposeGeneral))
	assert.Contains(t, got, "Working")
	assert.NotContains(t, got, "Cycling")

	in.Objects = append(in.Objects, types.DetectedObject{Identifier: "person", Confidence: 0.9, Box: types.Box{X: 0.5, Y: 0.2, W: 0.3, H: 0.6}})
	got = labels(Generate(in, types.PurposeGeneral))
	assert.Contains(t, got, "Cycling")
}

func TestUseCasesNeedQuality(t *testing.T) {
	in := portrait()
	in.Quality = nil
	for _, tag := range Generate(in, types.PurposePortrait) {
		assert.NotEqual(t, types.TagUseCase, tag.Category)
	}

	in.Quality = &types.QualityAssessment{Score: 0.3, IsLowQuality: true, Issues: []string{"blurry"}}
	tags := Generate(in, types.PurposePortrait)
	for _, tag := range tags {
		assert.NotEqual(t, types.TagUseCase, tag.Category)
	}
	assert.Contains(t, labels(tags), "Low Quality")
	assert.Contains(t, labels(tags), "Blurry")
}

func TestLandscapeUseCases(t *testing.T) {
	in := types.GenerationInput{
		Signals: types.Signals{
			Info:    types.NewImageInfo(1920, 1080),
			Quality: &types.QualityAssessment{Score: 0.85},
			Scenes:  []types.ClassificationResult{{Identifier: "mountain", Confidence: 0.8}},
		},
	}
	tags := Generate(in, types.PurposeLandscape)
	wall, ok := find(tags, "Wallpaper")
	require.True(t, ok, "tags: %v", labels(tags))
	require.NotNil(t, wall.Crop)
	assert.InDelta(t, 1.0, wall.Crop.W, 1e-9)
	_, ok = find(tags, "Phone Wallpaper")
	assert.True(t, ok)
	assert.NotContains(t, labels(tags), "Profile Picture")

	in.Info = types.NewImageInfo(640, 360)
	assert.NotContains(t, labels(Generate(in, types.PurposeLandscape)), "Wallpaper")
}

func TestDocumentScan(t *testing.T) {
	in := types.GenerationInput{Signals: types.Signals{
		Info:    types.NewImageInfo(1000, 1400),
		Quality: &types.QualityAssessment{Score: 0.7},
		Text: []types.TextBlock{
			{Text: "Invoice", Confidence: 0.9, Box: &types.Box{X: 0.1, Y: 0.1, W: 0.3, H: 0.05}},
			{Text: "Total", Confidence: 0.9, Box: &types.Box{X: 0.5, Y: 0.8, W: 0.2, H: 0.05}},
		},
	}}
	scan, ok := find(Generate(in, types.PurposeDocument), "Document Scan")
	require.True(t, ok)
	require.NotNil(t, scan.Crop)
	assert.InDelta(t, 0.1, scan.Crop.X, 1e-9)
	assert.InDelta(t, 0.6, scan.Crop.W, 1e-9)
	assert.InDelta(t, 0.75, scan.Crop.H, 1e-9)
}

func TestOrderingAndCap(t *testing.T) {
	in := portrait()
	in.Scenes = []types.ClassificationResult{{Identifier: "park", Confidence: 0.7}}
	in.Objects = []types.DetectedObject{{Identifier: "book", Confidence: 0.6, Box: types.Box{X: 0.1, Y: 0.6, W: 0.2, H: 0.2}}}
	for _, id := range []string{"chair", "lamp", "table", "vase", "clock", "bottle", "cup", "bowl", "sofa", "bench"} {
		in.Fused = append(in.Fused, types.ClassificationResult{Identifier: id, Confidence: 0.5})
	}

	tags := Generate(in, types.PurposePortrait)
	assert.LessOrEqual(t, len(tags), DefaultConfig().MaxTags)

	last := -1
	seen := make(map[string]bool)
	for _, tag := range tags {
		order := categoryOrder[tag.Category]
		assert.GreaterOrEqual(t, order, last, "tags must be grouped by category")
		last = order
		key := strings.ToLower(tag.Label)
		assert.False(t, seen[key], "duplicate tag %s", tag.Label)
		seen[key] = true
	}

	small := NewWithConfig(Config{MaxTags: 2, MinConfidence: 0.3, Crop: DefaultConfig().Crop})
	assert.Len(t, small.Generate(in, types.PurposePortrait), 2)
}
