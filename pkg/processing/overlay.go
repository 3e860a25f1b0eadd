package processing

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/menta2k/image-insight/pkg/types"
)

// CreateDebugOverlay draws subject boxes and use-case crops over a copy of img
func (p *Processor) CreateDebugOverlay(img image.Image, subjects []types.Subject, tags []types.Tag) image.Image {
	dc := gg.NewContextForImage(imaging.Clone(img))
	w, h := float64(dc.Width()), float64(dc.Height())
	stroke := math.Max(2, 0.004*math.Min(w, h))

	// crops first so subject boxes stay on top
	for _, t := range tags {
		if t.Crop == nil {
			continue
		}
		dc.SetRGBA(1, 0.8, 0, 0.9)
		dc.SetDash(8, 6)
		drawBox(dc, *t.Crop, w, h, stroke)
		label(dc, t.Label, t.Crop.X*w, (t.Crop.Y+t.Crop.H)*h-16)
	}
	dc.SetDash()

	for i, s := range subjects {
		if s.Box == nil {
			continue
		}
		if i == 0 {
			dc.SetRGB(0, 1, 0)
		} else {
			dc.SetRGB(0, 0.67, 1)
		}
		drawBox(dc, *s.Box, w, h, stroke)
		label(dc, s.Label, s.Box.X*w, s.Box.Y*h)
	}

	// image center marker
	dc.SetRGB(1, 0, 0)
	dc.SetLineWidth(2)
	dc.DrawLine(w/2-6, h/2, w/2+6, h/2)
	dc.DrawLine(w/2, h/2-6, w/2, h/2+6)
	dc.Stroke()

	return dc.Image()
}

func drawBox(dc *gg.Context, b types.Box, w, h, stroke float64) {
	b = b.Clamp()
	dc.SetLineWidth(stroke)
	dc.DrawRectangle(b.X*w, b.Y*h, b.W*w, b.H*h)
	dc.Stroke()
}

// label writes text on a dark backing box
func label(dc *gg.Context, text string, x, y float64) {
	if text == "" {
		return
	}
	tw, th := dc.MeasureString(text)
	x = math.Max(0, math.Min(x, float64(dc.Width())-tw-6))
	y = math.Max(0, math.Min(y, float64(dc.Height())-th-6))

	dc.Push()
	dc.SetRGBA(0, 0, 0, 0.6)
	dc.DrawRectangle(x, y, tw+6, th+6)
	dc.Fill()
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(text, x+3, y+3, 0, 1)
	dc.Pop()
}
