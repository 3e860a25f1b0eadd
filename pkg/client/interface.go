// Package client defines the vision model backends and parses their answers.
package client

import (
	"context"

	"github.com/menta2k/image-insight/pkg/types"
)

// VisionClient is a remote vision model that answers prompts about one image
type VisionClient interface {
	// Query returns the model's raw answer
	Query(ctx context.Context, model, prompt, imgB64 string) (string, error)
	// AnalyzeImage asks for a structured report
	AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (*types.ModelReport, error)
}
