// Package metadata reads the EXIF fields the pipeline cares about from encoded image bytes.
package metadata

import (
	"bytes"
	"strings"

	"github.com/bep/imagemeta"
)

// Metadata holds camera and orientation details extracted from EXIF
type Metadata struct {
	Make        string
	Model       string
	Software    string
	Orientation int
	Width       int
	Height      int
}

// Camera returns "Make Model" without repeating the make
func (m *Metadata) Camera() string {
	if m == nil {
		return ""
	}
	mk, model := strings.TrimSpace(m.Make), strings.TrimSpace(m.Model)
	switch {
	case model == "":
		return mk
	case mk == "" || strings.HasPrefix(strings.ToLower(model), strings.ToLower(mk)):
		return model
	default:
		return mk + " " + model
	}
}

// Rotated reports whether the orientation swaps width and height (EXIF 5-8)
func (m *Metadata) Rotated() bool {
	return m != nil && m.Orientation >= 5 && m.Orientation <= 8
}

var wantedTags = map[string]bool{
	"Make":            true,
	"Model":           true,
	"Software":        true,
	"Orientation":     true,
	"PixelXDimension": true,
	"PixelYDimension": true,
	"ImageWidth":      true,
	"ImageLength":     true,
	"ExifImageWidth":  true,
	"ExifImageHeight": true,
}

// Extract parses EXIF from raw image bytes.
// Returns nil if the data is empty, has no EXIF or cannot be parsed.
func Extract(data []byte) *Metadata {
	if len(data) == 0 {
		return nil
	}

	meta := &Metadata{}
	found := false

	_, err := imagemeta.Decode(imagemeta.Options{
		R:       bytes.NewReader(data),
		Sources: imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return wantedTags[ti.Tag]
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			if handleTag(meta, ti) {
				found = true
			}
			return nil
		},
	})

	if err != nil || !found {
		return nil
	}
	return meta
}

func handleTag(meta *Metadata, ti imagemeta.TagInfo) bool {
	switch ti.Tag {
	case "Make":
		meta.Make = tagString(ti.Value)
		return meta.Make != ""
	case "Model":
		meta.Model = tagString(ti.Value)
		return meta.Model != ""
	case "Software":
		meta.Software = tagString(ti.Value)
		return meta.Software != ""
	case "Orientation":
		if v, ok := tagInt(ti.Value); ok && v >= 1 && v <= 8 {
			meta.Orientation = v
			return true
		}
	case "PixelXDimension", "ImageWidth", "ExifImageWidth":
		if v, ok := tagInt(ti.Value); ok && v > 0 {
			meta.Width = v
			return true
		}
	case "PixelYDimension", "ImageLength", "ExifImageHeight":
		if v, ok := tagInt(ti.Value); ok && v > 0 {
			meta.Height = v
			return true
		}
	}
	return false
}

func tagString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimRight(strings.TrimSpace(val), "\x00")
	case []string:
		if len(val) > 0 {
			return strings.TrimSpace(val[0])
		}
	}
	return ""
}

func tagInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case uint16:
		return int(val), true
	case uint32:
		return int(val), true
	case uint8:
		return int(val), true
	case int32:
		return int(val), true
	case float64:
		return int(val), true
	}
	return 0, false
}
