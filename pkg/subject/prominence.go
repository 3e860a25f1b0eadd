package subject

import (
	"math"

	"github.com/bmharper/flatbush-go"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/menta2k/image-insight/pkg/taxonomy"
	"github.com/menta2k/image-insight/pkg/types"
)

// gridScale maps normalized coordinates onto the integer index grid
const gridScale = 10000

// prominenceScorer computes confidence x size x centrality x saliency overlap.
// Attention points are held in a static spatial index so each box query only
// visits the points it can contain.
type prominenceScorer struct {
	points       []types.AttentionPoint
	index        *flatbush.Flatbush[int32]
	total        float64
	vehicleBoost float64
	hits         []int
}

func newProminenceScorer(saliency *types.SaliencyAnalysis, vehicleBoost float64) *prominenceScorer {
	p := &prominenceScorer{vehicleBoost: vehicleBoost}
	if saliency == nil || len(saliency.AttentionPoints) == 0 {
		return p
	}

	for _, pt := range saliency.AttentionPoints {
		if pt.Intensity <= 0 {
			continue
		}
		p.points = append(p.points, pt)
		p.total += pt.Intensity
	}
	if p.total <= 0 {
		p.points = nil
		return p
	}

	fb := flatbush.NewFlatbush[int32]()
	fb.Reserve(len(p.points))
	for _, pt := range p.points {
		x, y := toGrid(pt.Location.X), toGrid(pt.Location.Y)
		fb.Add(x, y, x, y)
	}
	fb.Finish()
	p.index = fb
	return p
}

func toGrid(v float64) int32 {
	return int32(math.Round(math.Max(0, math.Min(1, v)) * gridScale))
}

func (p *prominenceScorer) score(confidence float64, box types.Box, category taxonomy.Category) float64 {
	size := 0.5 + math.Sqrt(box.Area())

	center, overlap := 1.0, 1.0
	if p.index == nil {
		center = centerWeight(box)
	} else {
		overlap = 0.5 + p.intensityInside(box)/p.total
	}

	boost := 1.0
	if category == taxonomy.Vehicle {
		boost = p.vehicleBoost
	}
	return confidence * size * center * overlap * boost
}

// intensityInside sums the attention that falls inside the box
func (p *prominenceScorer) intensityInside(box types.Box) float64 {
	p.hits = p.index.SearchFast(toGrid(box.X), toGrid(box.Y), toGrid(box.X+box.W), toGrid(box.Y+box.H), p.hits[:0])
	var sum float64
	for _, i := range p.hits {
		sum += p.points[i].Intensity
	}
	return sum
}

// centerWeight falls from 1.5 at the image center to 0.5 at a corner
func centerWeight(box types.Box) float64 {
	c := box.Center()
	dist := math.Hypot(c.X-0.5, c.Y-0.5)
	return 1.5 - dist/math.Sqrt2*2
}

// Label turns an identifier into a display label
func Label(identifier string) string {
	return cases.Title(language.English).String(types.NormalizeIdentifier(identifier))
}
