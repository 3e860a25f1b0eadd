package vision

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/menta2k/image-insight/pkg/palette"
	"github.com/menta2k/image-insight/pkg/types"
)

// histogram counts pixels per quantized color (4 bits per channel)
type histogram map[uint32]int

type bin struct {
	key   uint32
	count int
}

func quantize(r, g, b uint8) uint32 {
	return uint32(r&0xf0)<<16 | uint32(g&0xf0)<<8 | uint32(b&0xf0)
}

// rgb returns the center of the bin's color cell
func (b bin) rgb() (uint8, uint8, uint8) {
	return uint8(b.key>>16) | 0x08, uint8(b.key>>8) | 0x08, uint8(b.key) | 0x08
}

// sorted returns the bins by count, largest first; equal counts order by key
func (h histogram) sorted() []bin {
	bins := make([]bin, 0, len(h))
	for k, c := range h {
		bins = append(bins, bin{key: k, count: c})
	}
	sort.Slice(bins, func(i, j int) bool {
		if bins[i].count != bins[j].count {
			return bins[i].count > bins[j].count
		}
		return bins[i].key < bins[j].key
	})
	return bins
}

// collect builds the histogram of an NRGBA rectangle, skipping mostly transparent pixels
func collect(img *image.NRGBA, rect image.Rectangle) (histogram, int) {
	h := histogram{}
	total := 0
	rect = rect.Intersect(img.Rect)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			i := img.PixOffset(x, y)
			if img.Pix[i+3] < 128 {
				continue
			}
			h[quantize(img.Pix[i], img.Pix[i+1], img.Pix[i+2])]++
			total++
		}
	}
	return h, total
}

// Colors returns the dominant named colors with brightness and contrast
func (a *Analyzer) Colors(img image.Image) *types.ColorAnalysis {
	work := a.workingCopy(img)
	h, total := collect(work, work.Rect)
	analysis := &types.ColorAnalysis{}
	if total == 0 {
		return analysis
	}

	// merge bins that share a name; the heaviest bin provides the swatch
	type group struct {
		sample types.ColorSample
		count  int
	}
	groups := map[string]*group{}
	var order []string
	for _, b := range h.sorted() {
		r, g, bl := b.rgb()
		name := palette.NameRGB(r, g, bl)
		grp, ok := groups[name]
		if !ok {
			grp = &group{sample: types.ColorSample{Name: name, Hex: fmt.Sprintf("#%02x%02x%02x", r, g, bl)}}
			groups[name] = grp
			order = append(order, name)
		}
		grp.count += b.count
	}

	for _, name := range order {
		grp := groups[name]
		grp.sample.Weight = float64(grp.count) / float64(total)
		analysis.Colors = append(analysis.Colors, grp.sample)
	}
	sort.SliceStable(analysis.Colors, func(i, j int) bool {
		return analysis.Colors[i].Weight > analysis.Colors[j].Weight
	})
	if len(analysis.Colors) > a.config.ColorCount {
		analysis.Colors = analysis.Colors[:a.config.ColorCount]
	}

	analysis.Brightness, analysis.Contrast = lumaStats(work)
	return analysis
}

// lumaStats returns mean luminance and a normalized standard deviation
func lumaStats(img *image.NRGBA) (float64, float64) {
	width, height := img.Rect.Dx(), img.Rect.Dy()
	n := float64(width * height)
	if n == 0 {
		return 0, 0
	}
	var sum, sumSq float64
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			l := luma(img, x, y)
			sum += l
			sumSq += l * l
		}
	}
	mean := sum / n
	variance := math.Max(0, sumSq/n-mean*mean)
	// the largest possible standard deviation of values in [0,1] is 0.5
	return mean, math.Min(1, math.Sqrt(variance)/0.5)
}

// SubjectColor names the most common color in the central half of a box.
// The edges of a detection box usually contain background, so they are skipped.
func (a *Analyzer) SubjectColor(img image.Image, box types.Box) (types.ColorSample, bool) {
	box = box.Clamp()
	if !box.Valid() {
		return types.ColorSample{}, false
	}
	work := a.workingCopy(img)
	w, h := float64(work.Rect.Dx()), float64(work.Rect.Dy())

	inner := image.Rect(
		int(math.Floor((box.X+box.W/4)*w)),
		int(math.Floor((box.Y+box.H/4)*h)),
		int(math.Ceil((box.X+box.W*3/4)*w)),
		int(math.Ceil((box.Y+box.H*3/4)*h)),
	)
	hist, total := collect(work, inner)
	if total == 0 {
		return types.ColorSample{}, false
	}

	mode := hist.sorted()[0]
	r, g, b := mode.rgb()
	return types.ColorSample{
		Name:   palette.NameRGB(r, g, b),
		Hex:    fmt.Sprintf("#%02x%02x%02x", r, g, b),
		Weight: float64(mode.count) / float64(total),
	}, true
}
