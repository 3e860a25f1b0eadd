package vision

import (
	"image"
	"math"

	"github.com/menta2k/image-insight/pkg/types"
)

// Quality estimates sharpness, exposure and resolution adequacy
func (a *Analyzer) Quality(img image.Image) *types.QualityAssessment {
	bounds := img.Bounds()
	work := a.workingCopy(img)
	width, height := work.Rect.Dx(), work.Rect.Dy()
	if width < 3 || height < 3 {
		return &types.QualityAssessment{IsLowQuality: true, Issues: []string{"too small"}}
	}

	sharpness := laplacianSharpness(work)
	exposure, exposureIssue := exposureScore(work)
	resolution := resolutionScore(bounds.Dx() * bounds.Dy())

	score := 0.45*sharpness + 0.35*exposure + 0.2*resolution
	q := &types.QualityAssessment{
		Score:     score,
		Sharpness: sharpness,
		Exposure:  exposure,
	}
	if sharpness < 0.15 {
		q.Issues = append(q.Issues, "blurry")
	}
	if exposureIssue != "" {
		q.Issues = append(q.Issues, exposureIssue)
	}
	if resolution < 0.6 {
		q.Issues = append(q.Issues, "low resolution")
	}
	q.IsLowQuality = score < a.config.LowQualityScore
	return q
}

// laplacianSharpness maps the variance of the 4-neighbor Laplacian onto [0,1]
func laplacianSharpness(img *image.NRGBA) float64 {
	width, height := img.Rect.Dx(), img.Rect.Dy()
	var sum, sumSq, n float64
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			lap := 4*luma(img, x, y) - luma(img, x-1, y) - luma(img, x+1, y) - luma(img, x, y-1) - luma(img, x, y+1)
			lap *= 255
			sum += lap
			sumSq += lap * lap
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	return math.Min(1, math.Max(0, variance)/500)
}

// exposureScore penalizes clipped pixels and a mean far from mid-gray
func exposureScore(img *image.NRGBA) (float64, string) {
	width, height := img.Rect.Dx(), img.Rect.Dy()
	var dark, bright, sum float64
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			l := luma(img, x, y)
			sum += l
			switch {
			case l < 0.04:
				dark++
			case l > 0.96:
				bright++
			}
		}
	}
	n := float64(width * height)
	mean := sum / n
	clipped := (dark + bright) / n

	score := 1 - math.Min(1, clipped*1.5) - math.Max(0, math.Abs(mean-0.5)-0.3)*2
	score = math.Max(0, math.Min(1, score))

	issue := ""
	if score < 0.5 {
		if mean < 0.5 {
			issue = "underexposed"
		} else {
			issue = "overexposed"
		}
	}
	return score, issue
}

func resolutionScore(pixels int) float64 {
	switch {
	case pixels >= 2_000_000:
		return 1
	case pixels >= 300_000:
		return 0.8
	case pixels >= 60_000:
		return 0.6
	default:
		return 0.3
	}
}
