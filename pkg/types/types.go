package types

import (
	"math"
	"strings"
	"time"
)

// Box represents a normalized bounding box with coordinates in [0,1] range.
// The origin is the top-left corner of the image; X grows right and Y grows down.
// Every detector adapter converts to this convention before handing results on.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Point is a normalized location in the same space as Box
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Area returns the normalized area of the box
func (b Box) Area() float64 {
	if b.W <= 0 || b.H <= 0 {
		return 0
	}
	return b.W * b.H
}

// Center returns the center point of the box
func (b Box) Center() Point {
	return Point{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// Contains reports whether p lies inside the box (edges included)
func (b Box) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.X+b.W && p.Y >= b.Y && p.Y <= b.Y+b.H
}

// Union returns the smallest box containing both boxes
func (b Box) Union(o Box) Box {
	x1 := math.Min(b.X, o.X)
	y1 := math.Min(b.Y, o.Y)
	x2 := math.Max(b.X+b.W, o.X+o.W)
	y2 := math.Max(b.Y+b.H, o.Y+o.H)
	return Box{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Overlap returns the area shared by both boxes
func (b Box) Overlap(o Box) float64 {
	x1 := math.Max(b.X, o.X)
	y1 := math.Max(b.Y, o.Y)
	x2 := math.Min(b.X+b.W, o.X+o.W)
	y2 := math.Min(b.Y+b.H, o.Y+o.H)
	if x2 <= x1 || y2 <= y1 {
		return 0
	}
	return (x2 - x1) * (y2 - y1)
}

// Clamp limits the box to the unit square
func (b Box) Clamp() Box {
	x := clamp01(b.X)
	y := clamp01(b.Y)
	w := math.Min(math.Max(b.W, 0), 1-x)
	h := math.Min(math.Max(b.H, 0), 1-y)
	return Box{X: x, Y: y, W: w, H: h}
}

// Valid reports whether the box has positive size and lies in the unit square
func (b Box) Valid() bool {
	return b.W > 0 && b.H > 0 &&
		b.X >= 0 && b.Y >= 0 &&
		b.X+b.W <= 1.0001 && b.Y+b.H <= 1.0001
}

// ClassificationResult is one label with a raw model score
type ClassificationResult struct {
	Identifier string  `json:"identifier"`
	Confidence float64 `json:"confidence"`
}

// NewClassification normalizes the identifier and clamps the confidence
func NewClassification(identifier string, confidence float64) ClassificationResult {
	return ClassificationResult{
		Identifier: NormalizeIdentifier(identifier),
		Confidence: clamp01(confidence),
	}
}

// NormalizeIdentifier lower-cases and trims a label, collapsing inner whitespace and underscores
func NormalizeIdentifier(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// DetectedObject is a spatially localized detection
type DetectedObject struct {
	Identifier  string  `json:"identifier"`
	Confidence  float64 `json:"confidence"`
	Box         Box     `json:"box"`
	Description string  `json:"description,omitempty"`
}

// IdentitySource tells where a recognized person came from
type IdentitySource string

const (
	IdentityFromClassification IdentitySource = "classification"
	IdentityFromFace           IdentitySource = "face"
)

// RecognizedPerson is a named identity reported by an identity recognizer
type RecognizedPerson struct {
	Name       string         `json:"name"`
	Confidence float64        `json:"confidence"`
	Source     IdentitySource `json:"source"`
	Box        *Box           `json:"box,omitempty"`
}

// AttentionPoint is a single saliency peak
type AttentionPoint struct {
	Location  Point   `json:"location"`
	Intensity float64 `json:"intensity"`
}

// VisualBalance describes how evenly attention is spread over the frame
type VisualBalance struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// SaliencyAnalysis holds the attention map summary for an image
type SaliencyAnalysis struct {
	AttentionPoints []AttentionPoint `json:"attention_points"`
	VisualBalance   VisualBalance    `json:"visual_balance"`
}

// TotalIntensity sums the intensity of all attention points
func (s *SaliencyAnalysis) TotalIntensity() float64 {
	if s == nil {
		return 0
	}
	var total float64
	for _, p := range s.AttentionPoints {
		total += p.Intensity
	}
	return total
}

// TextBlock is a piece of recognized text
type TextBlock struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Box        *Box    `json:"box,omitempty"`
}

// ColorSample is a named dominant color with its share of the image
type ColorSample struct {
	Name   string  `json:"name"`
	Hex    string  `json:"hex"`
	Weight float64 `json:"weight"`
}

// ColorAnalysis is the color analyzer output
type ColorAnalysis struct {
	Colors     []ColorSample `json:"colors"`
	Brightness float64       `json:"brightness"`
	Contrast   float64       `json:"contrast"`
}

// Dominant returns the heaviest color sample
func (c *ColorAnalysis) Dominant() (ColorSample, bool) {
	if c == nil || len(c.Colors) == 0 {
		return ColorSample{}, false
	}
	best := c.Colors[0]
	for _, s := range c.Colors[1:] {
		if s.Weight > best.Weight {
			best = s
		}
	}
	return best, true
}

// Landmark is a recognized place or structure
type Landmark struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// QualityAssessment summarizes technical image quality
type QualityAssessment struct {
	Score        float64  `json:"score"`
	Sharpness    float64  `json:"sharpness"`
	Exposure     float64  `json:"exposure"`
	IsLowQuality bool     `json:"is_low_quality"`
	Issues       []string `json:"issues,omitempty"`
}

// Orientation of the image frame
type Orientation string

const (
	OrientationLandscape Orientation = "landscape"
	OrientationPortrait  Orientation = "portrait"
	OrientationSquare    Orientation = "square"
)

// ImageInfo contains basic information about an image
type ImageInfo struct {
	Width           int         `json:"width"`
	Height          int         `json:"height"`
	AspectRatio     float64     `json:"aspect_ratio"`
	Orientation     Orientation `json:"orientation"`
	ResolutionClass string      `json:"resolution_class"`
	Format          string      `json:"format,omitempty"`
	Camera          string      `json:"camera,omitempty"`
}

// NewImageInfo derives aspect ratio, orientation and resolution class from dimensions
func NewImageInfo(width, height int) ImageInfo {
	info := ImageInfo{Width: width, Height: height}
	if width <= 0 || height <= 0 {
		return info
	}
	info.AspectRatio = float64(width) / float64(height)
	switch {
	case info.AspectRatio > 1.05:
		info.Orientation = OrientationLandscape
	case info.AspectRatio < 0.95:
		info.Orientation = OrientationPortrait
	default:
		info.Orientation = OrientationSquare
	}
	pixels := width * height
	switch {
	case pixels >= 8_000_000:
		info.ResolutionClass = "high-resolution"
	case pixels >= 2_000_000:
		info.ResolutionClass = "full-resolution"
	case pixels >= 300_000:
		info.ResolutionClass = "medium-resolution"
	default:
		info.ResolutionClass = "low-resolution"
	}
	return info
}

// Signals bundles every detector output collected for one image
type Signals struct {
	Classifications          []ClassificationResult `json:"classifications,omitempty"`
	SecondaryClassifications []ClassificationResult `json:"secondary_classifications,omitempty"`
	Objects                  []DetectedObject       `json:"objects,omitempty"`
	Scenes                   []ClassificationResult `json:"scenes,omitempty"`
	Text                     []TextBlock            `json:"text,omitempty"`
	Colors                   *ColorAnalysis         `json:"colors,omitempty"`
	Saliency                 *SaliencyAnalysis      `json:"saliency,omitempty"`
	People                   []RecognizedPerson     `json:"people,omitempty"`
	Landmarks                []Landmark             `json:"landmarks,omitempty"`
	Quality                  *QualityAssessment     `json:"quality,omitempty"`
	Info                     ImageInfo              `json:"info"`
}

// SubjectSource tells which signal produced a subject
type SubjectSource string

const (
	SubjectFromObject         SubjectSource = "object"
	SubjectFromFace           SubjectSource = "face"
	SubjectFromClassification SubjectSource = "classification"
)

// Subject is one of the primary subjects of an image
type Subject struct {
	Label      string        `json:"label"`
	Identifier string        `json:"identifier"`
	Confidence float64       `json:"confidence"`
	Source     SubjectSource `json:"source"`
	Box        *Box          `json:"box,omitempty"`
	Count      int           `json:"count,omitempty"`
	Prominence float64       `json:"prominence,omitempty"`
}

// IsSpatial reports whether the subject came from a localized detection
func (s Subject) IsSpatial() bool {
	return s.Source == SubjectFromObject || s.Source == SubjectFromFace
}

// Purpose is the likely intent of an image
type Purpose string

const (
	PurposeUncertain  Purpose = "uncertain"
	PurposePortrait   Purpose = "portrait"
	PurposeGroupPhoto Purpose = "group-photo"
	PurposeLandscape  Purpose = "landscape"
	PurposeDocument   Purpose = "document"
	PurposeScreenshot Purpose = "screenshot"
	PurposeCloseUp    Purpose = "object-close-up"
	PurposePet        Purpose = "pet"
	PurposeFood       Purpose = "food"
	PurposeGeneral    Purpose = "general"
)

// TagCategory groups smart tags
type TagCategory string

const (
	TagSubject  TagCategory = "subject"
	TagActivity TagCategory = "activity"
	TagSetting  TagCategory = "setting"
	TagUseCase  TagCategory = "use-case"
	TagQuality  TagCategory = "quality"
)

// Tag is a categorized smart tag
type Tag struct {
	Label      string      `json:"label"`
	Category   TagCategory `json:"category"`
	Confidence float64     `json:"confidence"`
	Crop       *Box        `json:"crop,omitempty"`
}

// GenerationInput is the shared input of the description generators.
// Fused and Subjects are final by the time a generator sees them.
type GenerationInput struct {
	Signals
	Fused        []ClassificationResult `json:"fused"`
	Subjects     []Subject              `json:"subjects"`
	SubjectColor string                 `json:"subject_color,omitempty"`
	Seed         uint64                 `json:"seed"`
}

// PrimarySubject returns the first subject, if any
func (in GenerationInput) PrimarySubject() (Subject, bool) {
	if len(in.Subjects) == 0 {
		return Subject{}, false
	}
	return in.Subjects[0], true
}

// AnalysisResult is the cached outcome of one analysis
type AnalysisResult struct {
	Caption              string                 `json:"caption"`
	Narrative            string                 `json:"narrative"`
	SmartTags            []Tag                  `json:"smart_tags"`
	Subjects             []Subject              `json:"subjects"`
	FusedClassifications []ClassificationResult `json:"fused_classifications"`
	Purpose              Purpose                `json:"purpose"`
	Info                 ImageInfo              `json:"info"`
	GeneratedAt          time.Time              `json:"generated_at"`
	CacheKey             string                 `json:"cache_key"`
	RequestID            string                 `json:"request_id"`
	Degraded             bool                   `json:"degraded,omitempty"`
	Warnings             []string               `json:"warnings,omitempty"`
}

// ModelReport is the structured answer a vision model gives for one image
type ModelReport struct {
	Caption         string        `json:"caption"`
	Classifications []ModelLabel  `json:"classifications"`
	Objects         []ModelObject `json:"objects"`
	Scenes          []ModelLabel  `json:"scenes"`
	Text            []string      `json:"text"`
	Landmarks       []ModelLabel  `json:"landmarks"`
	People          []ModelLabel  `json:"people"`
}

// ModelLabel is a label with confidence as returned by a vision model
type ModelLabel struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ModelObject is an object with a box as returned by a vision model
type ModelObject struct {
	Label       string  `json:"label"`
	Confidence  float64 `json:"confidence"`
	Box         Box     `json:"box"`
	Description string  `json:"description,omitempty"`
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
