package detectors

import (
	"context"

	"github.com/menta2k/image-insight/pkg/types"
	"github.com/menta2k/image-insight/pkg/vision"
)

// Local computes pixel-level signals in process
type Local struct {
	analyzer *vision.Analyzer
}

// NewLocal wraps a vision analyzer; nil uses the default one
func NewLocal(analyzer *vision.Analyzer) *Local {
	if analyzer == nil {
		analyzer = vision.New()
	}
	return &Local{analyzer: analyzer}
}

// Set returns a detector set with every member Local can fill
func (l *Local) Set() Set {
	return Set{Colors: l, Saliency: l, Quality: l, SubjectColor: l}
}

func ready(ctx context.Context, f *Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f == nil || f.Image == nil {
		return ErrNoImage
	}
	return nil
}

// AnalyzeColors implements ColorAnalyzer
func (l *Local) AnalyzeColors(ctx context.Context, f *Frame) (*types.ColorAnalysis, error) {
	if err := ready(ctx, f); err != nil {
		return nil, err
	}
	return l.analyzer.Colors(f.Image), nil
}

// AnalyzeSaliency implements SaliencyAnalyzer
func (l *Local) AnalyzeSaliency(ctx context.Context, f *Frame) (*types.SaliencyAnalysis, error) {
	if err := ready(ctx, f); err != nil {
		return nil, err
	}
	return l.analyzer.Saliency(f.Image), nil
}

// AssessQuality implements QualityAssessor
func (l *Local) AssessQuality(ctx context.Context, f *Frame) (*types.QualityAssessment, error) {
	if err := ready(ctx, f); err != nil {
		return nil, err
	}
	return l.analyzer.Quality(f.Image), nil
}

// SubjectColor implements SubjectColorSampler
func (l *Local) SubjectColor(ctx context.Context, f *Frame, box types.Box) (types.ColorSample, bool) {
	if ready(ctx, f) != nil {
		return types.ColorSample{}, false
	}
	return l.analyzer.SubjectColor(f.Image, box)
}
