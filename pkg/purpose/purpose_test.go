package purpose

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/menta2k/image-insight/pkg/types"
)

func box(x, y, w, h float64) *types.Box {
	return &types.Box{X: x, Y: y, W: w, H: h}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   types.GenerationInput
		want types.Purpose
	}{
		{
			name: "empty is uncertain",
			in:   types.GenerationInput{},
			want: types.PurposeUncertain,
		},
		{
			name: "weak labels are uncertain",
			in: types.GenerationInput{
				Fused: []types.ClassificationResult{{Identifier: "dog", Confidence: 0.08}},
				Signals: types.Signals{
					Scenes: []types.ClassificationResult{{Identifier: "park", Confidence: 0.05}},
				},
			},
			want: types.PurposeUncertain,
		},
		{
			name: "screenshot label",
			in: types.GenerationInput{
				Fused: []types.ClassificationResult{{Identifier: "screenshot", Confidence: 0.8}},
			},
			want: types.PurposeScreenshot,
		},
		{
			name: "text heavy png without camera",
			in: types.GenerationInput{Signals: types.Signals{
				Text: []types.TextBlock{{Text: "File", Confidence: 0.9}, {Text: "Edit", Confidence: 0.9}, {Text: "View", Confidence: 0.9}, {Text: "Help", Confidence: 0.9}},
				Info: types.ImageInfo{Format: "png"},
			}},
			want: types.PurposeScreenshot,
		},
		{
			name: "receipt is a document",
			in: types.GenerationInput{
				Fused: []types.ClassificationResult{{Identifier: "receipt", Confidence: 0.7}},
			},
			want: types.PurposeDocument,
		},
		{
			name: "long text is a document",
			in: types.GenerationInput{Signals: types.Signals{
				Text: []types.TextBlock{{Text: "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor", Confidence: 0.8}},
			}},
			want: types.PurposeDocument,
		},
		{
			name: "group of people",
			in: types.GenerationInput{
				Subjects: []types.Subject{{Label: "Group of 3 people", Identifier: "people", Confidence: 0.8, Source: types.SubjectFromObject, Count: 3, Box: box(0, 0, 1, 1)}},
				Fused:    []types.ClassificationResult{{Identifier: "person", Confidence: 0.9}},
			},
			want: types.PurposeGroupPhoto,
		},
		{
			name: "large person is a portrait",
			in: types.GenerationInput{
				Subjects: []types.Subject{{Label: "Person", Identifier: "person", Confidence: 0.85, Source: types.SubjectFromObject, Box: box(0.3, 0.2, 0.4, 0.6)}},
				Fused:    []types.ClassificationResult{{Identifier: "person", Confidence: 0.65}},
			},
			want: types.PurposePortrait,
		},
		{
			name: "dog is a pet photo",
			in: types.GenerationInput{
				Subjects: []types.Subject{{Label: "Dog", Identifier: "dog", Confidence: 0.8, Source: types.SubjectFromObject, Box: box(0.2, 0.2, 0.3, 0.3)}},
				Fused:    []types.ClassificationResult{{Identifier: "dog", Confidence: 0.8}},
			},
			want: types.PurposePet,
		},
		{
			name: "pizza is food",
			in: types.GenerationInput{
				Fused: []types.ClassificationResult{{Identifier: "pizza", Confidence: 0.9}},
			},
			want: types.PurposeFood,
		},
		{
			name: "beach without subjects is a landscape",
			in: types.GenerationInput{
				Fused: []types.ClassificationResult{{Identifier: "beach", Confidence: 0.8}, {Identifier: "sky", Confidence: 0.9}},
			},
			want: types.PurposeLandscape,
		},
		{
			name: "large object is a close-up",
			in: types.GenerationInput{
				Subjects: []types.Subject{{Label: "Cup", Identifier: "cup", Confidence: 0.9, Source: types.SubjectFromObject, Box: box(0.1, 0.1, 0.8, 0.8)}},
				Fused:    []types.ClassificationResult{{Identifier: "cup", Confidence: 0.9}},
			},
			want: types.PurposeCloseUp,
		},
		{
			name: "small object is general",
			in: types.GenerationInput{
				Subjects: []types.Subject{{Label: "Cup", Identifier: "cup", Confidence: 0.9, Source: types.SubjectFromObject, Box: box(0.1, 0.1, 0.2, 0.2)}},
				Fused:    []types.ClassificationResult{{Identifier: "cup", Confidence: 0.9}},
			},
			want: types.PurposeGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.in))
		})
	}
}

func TestSignalStrength(t *testing.T) {
	in := types.GenerationInput{
		Fused: []types.ClassificationResult{{Identifier: "a", Confidence: 0.1}, {Identifier: "b", Confidence: 0.3}},
		Signals: types.Signals{
			Objects: []types.DetectedObject{{Identifier: "c", Confidence: 0.2}},
			Text:    []types.TextBlock{{Text: "  ", Confidence: 0.9}},
		},
	}
	assert.InDelta(t, 0.5, SignalStrength(in), 1e-9)
}
