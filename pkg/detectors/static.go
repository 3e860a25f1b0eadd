package detectors

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/menta2k/image-insight/pkg/types"
)

// Static returns fixed signals. Hosts that already hold detector output use
// it to feed the engine, and tests use Delay and Err to simulate slow or
// failing detectors.
type Static struct {
	Classifications []types.ClassificationResult
	Objects         []types.DetectedObject
	Scenes          []types.ClassificationResult
	Text            []types.TextBlock
	Colors          *types.ColorAnalysis
	Saliency        *types.SaliencyAnalysis
	People          []types.RecognizedPerson
	Landmarks       []types.Landmark
	Quality         *types.QualityAssessment

	Delay time.Duration
	Err   error

	calls atomic.Int64
}

// Set returns a detector set with only the members that hold data
func (s *Static) Set() Set {
	var set Set
	if s.Classifications != nil {
		set.Classifier = s
	}
	if s.Objects != nil {
		set.Objects = s
	}
	if s.Scenes != nil {
		set.Scenes = s
	}
	if s.Text != nil {
		set.Text = s
	}
	if s.Colors != nil {
		set.Colors = s
	}
	if s.Saliency != nil {
		set.Saliency = s
	}
	if s.People != nil {
		set.People = s
	}
	if s.Landmarks != nil {
		set.Landmarks = s
	}
	if s.Quality != nil {
		set.Quality = s
	}
	return set
}

// Calls returns how many detector methods have been invoked
func (s *Static) Calls() int64 {
	return s.calls.Load()
}

func (s *Static) wait(ctx context.Context) error {
	s.calls.Add(1)
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Err
}

// Classify implements Classifier
func (s *Static) Classify(ctx context.Context, _ *Frame) ([]types.ClassificationResult, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return append([]types.ClassificationResult(nil), s.Classifications...), nil
}

// DetectObjects implements ObjectDetector
func (s *Static) DetectObjects(ctx context.Context, _ *Frame) ([]types.DetectedObject, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return append([]types.DetectedObject(nil), s.Objects...), nil
}

// ClassifyScene implements SceneClassifier
func (s *Static) ClassifyScene(ctx context.Context, _ *Frame) ([]types.ClassificationResult, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return append([]types.ClassificationResult(nil), s.Scenes...), nil
}

// RecognizeText implements TextRecognizer
func (s *Static) RecognizeText(ctx context.Context, _ *Frame) ([]types.TextBlock, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return append([]types.TextBlock(nil), s.Text...), nil
}

// AnalyzeColors implements ColorAnalyzer
func (s *Static) AnalyzeColors(ctx context.Context, _ *Frame) (*types.ColorAnalysis, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.Colors, nil
}

// AnalyzeSaliency implements SaliencyAnalyzer
func (s *Static) AnalyzeSaliency(ctx context.Context, _ *Frame) (*types.SaliencyAnalysis, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.Saliency, nil
}

// RecognizePeople implements IdentityRecognizer
func (s *Static) RecognizePeople(ctx context.Context, _ *Frame) ([]types.RecognizedPerson, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return append([]types.RecognizedPerson(nil), s.People...), nil
}

// RecognizeLandmarks implements LandmarkRecognizer
func (s *Static) RecognizeLandmarks(ctx context.Context, _ *Frame) ([]types.Landmark, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return append([]types.Landmark(nil), s.Landmarks...), nil
}

// AssessQuality implements QualityAssessor
func (s *Static) AssessQuality(ctx context.Context, _ *Frame) (*types.QualityAssessment, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.Quality, nil
}
