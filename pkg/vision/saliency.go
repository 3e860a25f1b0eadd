package vision

import (
	"image"
	"math"
	"sort"

	"github.com/menta2k/image-insight/pkg/types"
)

// Saliency builds an attention summary from edge strength and brightness
func (a *Analyzer) Saliency(img image.Image) *types.SaliencyAnalysis {
	work := a.workingCopy(img)
	width, height := work.Rect.Dx(), work.Rect.Dy()
	if width < 3 || height < 3 {
		return &types.SaliencyAnalysis{VisualBalance: types.VisualBalance{Score: 1, Feedback: "too small to judge"}}
	}

	saliencyMap := a.calculateSaliencyMap(work)
	regions := a.filterAndScoreRegions(a.findImportantRegions(saliencyMap, width, height), width, height)
	regions = a.suppressOverlapping(regions)

	analysis := &types.SaliencyAnalysis{
		VisualBalance: balance(saliencyMap, width, height),
	}
	if len(regions) == 0 {
		return analysis
	}

	top := regions[0].Score
	for _, r := range regions {
		cx, cy := r.Center()
		intensity := 0.0
		if top > 0 {
			intensity = r.Score / top
		}
		analysis.AttentionPoints = append(analysis.AttentionPoints, types.AttentionPoint{
			Location:  types.Point{X: (float64(cx) + 0.5) / float64(width), Y: (float64(cy) + 0.5) / float64(height)},
			Intensity: intensity,
		})
	}
	return analysis
}

// DetectRegions returns the salient regions of an image in working-copy pixels
func (a *Analyzer) DetectRegions(img image.Image) []Region {
	work := a.workingCopy(img)
	width, height := work.Rect.Dx(), work.Rect.Dy()
	if width < 3 || height < 3 {
		return nil
	}
	saliencyMap := a.calculateSaliencyMap(work)
	return a.suppressOverlapping(a.filterAndScoreRegions(a.findImportantRegions(saliencyMap, width, height), width, height))
}

var neighbors = [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}

func (a *Analyzer) calculateSaliencyMap(img *image.NRGBA) [][]float64 {
	width, height := img.Rect.Dx(), img.Rect.Dy()

	saliencyMap := make([][]float64, height)
	for i := range saliencyMap {
		saliencyMap[i] = make([]float64, width)
	}

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := img.PixOffset(x, y)
			r1, g1, b1 := float64(img.Pix[i]), float64(img.Pix[i+1]), float64(img.Pix[i+2])

			// Sobel-like edge strength over the 8-neighborhood
			var edgeStrength float64
			for _, offset := range neighbors {
				j := img.PixOffset(x+offset[0], y+offset[1])
				dr := r1 - float64(img.Pix[j])
				dg := g1 - float64(img.Pix[j+1])
				db := b1 - float64(img.Pix[j+2])
				edgeStrength += math.Sqrt(dr*dr + dg*dg + db*db)
			}
			edgeStrength /= 8.0 * 255.0

			brightness := (r1 + g1 + b1) / (3.0 * 255.0)
			saliencyMap[y][x] = a.config.ContrastWeight*edgeStrength + a.config.ColorWeight*brightness
		}
	}

	return saliencyMap
}

func (a *Analyzer) findImportantRegions(saliencyMap [][]float64, width, height int) []Region {
	var regions []Region

	short := width
	if height < short {
		short = height
	}
	windowSizes := []int{short / 12, short / 8, short / 6, short / 4}

	for _, windowSize := range windowSizes {
		if windowSize < 4 {
			continue
		}
		step := windowSize / 4
		if step < 1 {
			step = 1
		}

		for y := 0; y <= height-windowSize; y += step {
			for x := 0; x <= width-windowSize; x += step {
				score := calculateRegionScore(saliencyMap, x, y, windowSize, windowSize)
				if score > a.config.EdgeThreshold {
					regions = append(regions, Region{X: x, Y: y, Width: windowSize, Height: windowSize, Score: score})
				}
			}
		}
	}

	return regions
}

func calculateRegionScore(saliencyMap [][]float64, x, y, width, height int) float64 {
	var totalScore float64
	count := 0

	for ry := y; ry < y+height && ry < len(saliencyMap); ry++ {
		for rx := x; rx < x+width && rx < len(saliencyMap[ry]); rx++ {
			totalScore += saliencyMap[ry][rx]
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return totalScore / float64(count)
}

func (a *Analyzer) filterAndScoreRegions(regions []Region, imageWidth, imageHeight int) []Region {
	minArea := int(float64(imageWidth*imageHeight) * a.config.MinSubjectRatio)

	var filtered []Region
	for _, region := range regions {
		if region.Area() >= minArea {
			filtered = append(filtered, region)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})
	return filtered
}

// suppressOverlapping keeps the best region around each peak
func (a *Analyzer) suppressOverlapping(regions []Region) []Region {
	var kept []Region
	for _, r := range regions {
		cx, cy := r.Center()
		covered := false
		for _, k := range kept {
			if k.Contains(cx, cy) {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		kept = append(kept, r)
		if len(kept) >= a.config.MaxAttentionPoints {
			break
		}
	}
	return kept
}

// balance measures how far the saliency mass sits from the image center
func balance(saliencyMap [][]float64, width, height int) types.VisualBalance {
	var total float64
	for _, row := range saliencyMap {
		for _, v := range row {
			total += v
		}
	}
	mean := total / float64(width*height)

	var mass, sx, sy float64
	for y, row := range saliencyMap {
		for x, v := range row {
			w := v - mean
			if w <= 0 {
				continue
			}
			mass += w
			sx += w * (float64(x) + 0.5)
			sy += w * (float64(y) + 0.5)
		}
	}
	if mass == 0 {
		return types.VisualBalance{Score: 1, Feedback: "evenly balanced"}
	}

	dx := sx/mass/float64(width) - 0.5
	dy := sy/mass/float64(height) - 0.5
	score := 1 - math.Min(1, math.Hypot(dx, dy)*2)

	feedback := "balanced composition"
	if score < 0.8 {
		switch {
		case math.Abs(dx) >= math.Abs(dy) && dx < 0:
			feedback = "visual weight sits to the left"
		case math.Abs(dx) >= math.Abs(dy):
			feedback = "visual weight sits to the right"
		case dy < 0:
			feedback = "visual weight sits near the top"
		default:
			feedback = "visual weight sits near the bottom"
		}
	}
	return types.VisualBalance{Score: score, Feedback: feedback}
}
