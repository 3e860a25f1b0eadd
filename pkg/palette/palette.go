// Package palette names colors by their nearest reference color in CIE Lab space.
package palette

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

type reference struct {
	name  string
	color colorful.Color
}

var references = []reference{
	{"black", colorful.Color{R: 0.05, G: 0.05, B: 0.05}},
	{"charcoal", colorful.Color{R: 0.21, G: 0.27, B: 0.31}},
	{"gray", colorful.Color{R: 0.5, G: 0.5, B: 0.5}},
	{"silver", colorful.Color{R: 0.75, G: 0.75, B: 0.75}},
	{"white", colorful.Color{R: 0.97, G: 0.97, B: 0.97}},
	{"red", colorful.Color{R: 0.8, G: 0.1, B: 0.1}},
	{"maroon", colorful.Color{R: 0.5, G: 0.0, B: 0.1}},
	{"orange", colorful.Color{R: 0.95, G: 0.55, B: 0.1}},
	{"yellow", colorful.Color{R: 0.95, G: 0.85, B: 0.15}},
	{"gold", colorful.Color{R: 0.83, G: 0.69, B: 0.22}},
	{"beige", colorful.Color{R: 0.9, G: 0.85, B: 0.7}},
	{"brown", colorful.Color{R: 0.45, G: 0.29, B: 0.15}},
	{"olive", colorful.Color{R: 0.45, G: 0.45, B: 0.1}},
	{"green", colorful.Color{R: 0.2, G: 0.6, B: 0.2}},
	{"dark green", colorful.Color{R: 0.05, G: 0.3, B: 0.1}},
	{"teal", colorful.Color{R: 0.0, G: 0.5, B: 0.5}},
	{"turquoise", colorful.Color{R: 0.25, G: 0.85, B: 0.8}},
	{"sky blue", colorful.Color{R: 0.53, G: 0.8, B: 0.92}},
	{"blue", colorful.Color{R: 0.15, G: 0.35, B: 0.85}},
	{"navy", colorful.Color{R: 0.05, G: 0.1, B: 0.35}},
	{"purple", colorful.Color{R: 0.5, G: 0.2, B: 0.6}},
	{"lavender", colorful.Color{R: 0.75, G: 0.7, B: 0.9}},
	{"pink", colorful.Color{R: 0.95, G: 0.6, B: 0.7}},
	{"magenta", colorful.Color{R: 0.85, G: 0.15, B: 0.6}},
}

// Name returns the nearest reference color name
func Name(c color.Color) string {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		// fully transparent
		return "transparent"
	}
	return nearest(cf)
}

// NameRGB names an 8-bit RGB triple
func NameRGB(r, g, b uint8) string {
	return nearest(colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255})
}

// Hex formats a color as #rrggbb
func Hex(c color.Color) string {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return "#000000"
	}
	return cf.Clamped().Hex()
}

// Names returns every reference name
func Names() []string {
	out := make([]string, len(references))
	for i, r := range references {
		out[i] = r.name
	}
	return out
}

// IsNeutral reports whether the name is an achromatic color
func IsNeutral(name string) bool {
	switch name {
	case "black", "charcoal", "gray", "silver", "white":
		return true
	}
	return false
}

func nearest(c colorful.Color) string {
	best := references[0].name
	bestDist := c.DistanceLab(references[0].color)
	for _, r := range references[1:] {
		if d := c.DistanceLab(r.color); d < bestDist {
			best, bestDist = r.name, d
		}
	}
	return best
}
