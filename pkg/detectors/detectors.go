// Package detectors defines the signal collaborators the engine consumes.
//
// Every spatial result uses normalized coordinates with a top-left origin:
// X grows right, Y grows down, and X+W, Y+H stay within [0,1]. Adapters for
// backends with other conventions convert before returning.
package detectors

import (
	"context"
	"errors"
	"image"

	"github.com/menta2k/image-insight/pkg/types"
)

// ErrNoImage is returned by detectors that need decoded pixels
var ErrNoImage = errors.New("frame has no decoded image")

// Frame is one image handed to every detector
type Frame struct {
	// Identity is the image identity the result will be cached under
	Identity string
	Image    image.Image
	// Data is the encoded file, when available
	Data []byte
	Info types.ImageInfo
}

// Classifier labels the whole image
type Classifier interface {
	Classify(ctx context.Context, f *Frame) ([]types.ClassificationResult, error)
}

// ObjectDetector finds localized objects
type ObjectDetector interface {
	DetectObjects(ctx context.Context, f *Frame) ([]types.DetectedObject, error)
}

// SceneClassifier labels the setting
type SceneClassifier interface {
	ClassifyScene(ctx context.Context, f *Frame) ([]types.ClassificationResult, error)
}

// TextRecognizer reads text
type TextRecognizer interface {
	RecognizeText(ctx context.Context, f *Frame) ([]types.TextBlock, error)
}

// ColorAnalyzer extracts dominant colors and lighting
type ColorAnalyzer interface {
	AnalyzeColors(ctx context.Context, f *Frame) (*types.ColorAnalysis, error)
}

// SaliencyAnalyzer finds attention points
type SaliencyAnalyzer interface {
	AnalyzeSaliency(ctx context.Context, f *Frame) (*types.SaliencyAnalysis, error)
}

// IdentityRecognizer names people
type IdentityRecognizer interface {
	RecognizePeople(ctx context.Context, f *Frame) ([]types.RecognizedPerson, error)
}

// LandmarkRecognizer names places
type LandmarkRecognizer interface {
	RecognizeLandmarks(ctx context.Context, f *Frame) ([]types.Landmark, error)
}

// QualityAssessor scores technical quality
type QualityAssessor interface {
	AssessQuality(ctx context.Context, f *Frame) (*types.QualityAssessment, error)
}

// SubjectColorSampler names the color of a region, typically the primary subject
type SubjectColorSampler interface {
	SubjectColor(ctx context.Context, f *Frame, box types.Box) (types.ColorSample, bool)
}

// Set is the detectors configured for one analysis. Nil members are skipped.
type Set struct {
	Classifier          Classifier
	SecondaryClassifier Classifier
	Objects             ObjectDetector
	Scenes              SceneClassifier
	Text                TextRecognizer
	Colors              ColorAnalyzer
	Saliency            SaliencyAnalyzer
	People              IdentityRecognizer
	Landmarks           LandmarkRecognizer
	Quality             QualityAssessor
	SubjectColor        SubjectColorSampler
}

// Count returns the number of signal detectors in the set
func (s Set) Count() int {
	n := 0
	for _, present := range []bool{
		s.Classifier != nil, s.SecondaryClassifier != nil, s.Objects != nil,
		s.Scenes != nil, s.Text != nil, s.Colors != nil, s.Saliency != nil,
		s.People != nil, s.Landmarks != nil, s.Quality != nil,
	} {
		if present {
			n++
		}
	}
	return n
}

// Empty reports whether the set has no signal detectors
func (s Set) Empty() bool {
	return s.Count() == 0
}

// Merge returns s with its nil members filled from o
func (s Set) Merge(o Set) Set {
	if s.Classifier == nil {
		s.Classifier = o.Classifier
	}
	if s.SecondaryClassifier == nil {
		s.SecondaryClassifier = o.SecondaryClassifier
	}
	if s.Objects == nil {
		s.Objects = o.Objects
	}
	if s.Scenes == nil {
		s.Scenes = o.Scenes
	}
	if s.Text == nil {
		s.Text = o.Text
	}
	if s.Colors == nil {
		s.Colors = o.Colors
	}
	if s.Saliency == nil {
		s.Saliency = o.Saliency
	}
	if s.People == nil {
		s.People = o.People
	}
	if s.Landmarks == nil {
		s.Landmarks = o.Landmarks
	}
	if s.Quality == nil {
		s.Quality = o.Quality
	}
	if s.SubjectColor == nil {
		s.SubjectColor = o.SubjectColor
	}
	return s
}
