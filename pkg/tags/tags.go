// Package tags derives categorized smart tags from fused signals and image purpose.
package tags

import (
	"sort"
	"strings"

	"github.com/menta2k/image-insight/pkg/cropper"
	"github.com/menta2k/image-insight/pkg/subject"
	"github.com/menta2k/image-insight/pkg/taxonomy"
	"github.com/menta2k/image-insight/pkg/types"
)

// Config holds tag thresholds
type Config struct {
	MaxTags            int                `toml:"max_tags"`
	MinConfidence      float64            `toml:"min_confidence"`
	HighQualityScore   float64            `toml:"high_quality_score"`
	WallpaperMinPixels int                `toml:"wallpaper_min_pixels"`
	Crop               cropper.CropConfig `toml:"crop"`
}

// DefaultConfig returns the default tag configuration
func DefaultConfig() Config {
	return Config{
		MaxTags:            12,
		MinConfidence:      0.3,
		HighQualityScore:   0.8,
		WallpaperMinPixels: 1280,
		Crop:               cropper.DefaultConfig(),
	}
}

// Generator builds smart tags
type Generator struct {
	config  Config
	cropper *cropper.SmartCropper
}

// New creates a Generator with default configuration
func New() *Generator {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a Generator with custom configuration
func NewWithConfig(config Config) *Generator {
	return &Generator{config: config, cropper: cropper.NewWithConfig(config.Crop)}
}

// Generate runs the default Generator
func Generate(in types.GenerationInput, p types.Purpose) []types.Tag {
	return New().Generate(in, p)
}

var categoryOrder = map[types.TagCategory]int{
	types.TagSubject:  0,
	types.TagActivity: 1,
	types.TagSetting:  2,
	types.TagUseCase:  3,
	types.TagQuality:  4,
}

// Generate returns deduplicated tags ordered by category, then confidence
func (g *Generator) Generate(in types.GenerationInput, p types.Purpose) []types.Tag {
	set := newTagSet()

	g.subjectTags(set, in, p)
	g.activityTags(set, in)
	g.settingTags(set, in)
	g.useCaseTags(set, in, p)
	g.qualityTags(set, in)

	out := set.list()
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := categoryOrder[out[i].Category], categoryOrder[out[j].Category]
		if ci != cj {
			return ci < cj
		}
		return out[i].Confidence > out[j].Confidence
	})
	if g.config.MaxTags > 0 && len(out) > g.config.MaxTags {
		out = out[:g.config.MaxTags]
	}
	return out
}

var purposeTags = map[types.Purpose]string{
	types.PurposePortrait:   "Portrait",
	types.PurposeGroupPhoto: "Group Photo",
	types.PurposeLandscape:  "Landscape",
	types.PurposeDocument:   "Document",
	types.PurposeScreenshot: "Screenshot",
	types.PurposeCloseUp:    "Close-up",
	types.PurposePet:        "Pet",
	types.PurposeFood:       "Food",
}

// suppressedBy lists the categories a purpose tag makes redundant
var suppressedBy = map[types.Purpose][]taxonomy.Category{
	types.PurposePortrait:   {taxonomy.Person},
	types.PurposeGroupPhoto: {taxonomy.Person},
	types.PurposeDocument:   {taxonomy.Document},
	types.PurposeScreenshot: {taxonomy.Document},
}

func (g *Generator) subjectTags(set *tagSet, in types.GenerationInput, p types.Purpose) {
	if label, ok := purposeTags[p]; ok {
		set.add(types.Tag{Label: label, Category: types.TagSubject, Confidence: purposeConfidence(in)}, "purpose")
	}
	suppressed := make(map[taxonomy.Category]bool)
	for _, c := range suppressedBy[p] {
		suppressed[c] = true
	}

	for _, s := range in.Subjects {
		if s.Source == types.SubjectFromFace {
			set.add(types.Tag{Label: s.Label, Category: types.TagSubject, Confidence: s.Confidence}, "name:"+strings.ToLower(s.Label))
			continue
		}
		g.addLabel(set, s.Identifier, s.Confidence, suppressed)
	}
	for _, c := range in.Fused {
		if c.Confidence < g.config.MinConfidence {
			continue
		}
		if taxonomy.Lookup(c.Identifier).Group() == taxonomy.GroupBackground {
			continue
		}
		g.addLabel(set, c.Identifier, c.Confidence, suppressed)
	}
}

// addLabel adds a subject tag. All person terms share one redundancy group.
func (g *Generator) addLabel(set *tagSet, identifier string, confidence float64, suppressed map[taxonomy.Category]bool) {
	category := taxonomy.Lookup(identifier)
	if suppressed[category] {
		return
	}
	group := "label:" + identifier
	label := subject.Label(identifier)
	if category == taxonomy.Person {
		group, label = "person", "People"
	}
	set.add(types.Tag{Label: label, Category: types.TagSubject, Confidence: confidence}, group)
}

func purposeConfidence(in types.GenerationInput) float64 {
	if primary, ok := in.PrimarySubject(); ok {
		return primary.Confidence
	}
	if len(in.Fused) > 0 {
		return in.Fused[0].Confidence
	}
	if len(in.Scenes) > 0 {
		return in.Scenes[0].Confidence
	}
	return 0.5
}

var activities = map[string]string{
	"laptop":        "Working",
	"computer":      "Working",
	"keyboard":      "Working",
	"desk":          "Working",
	"book":          "Reading",
	"newspaper":     "Reading",
	"ball":          "Sports",
	"sports ball":   "Sports",
	"racket":        "Sports",
	"tennis racket": "Sports",
	"skateboard":    "Sports",
	"surfboard":     "Sports",
	"skis":          "Sports",
	"frisbee":       "Sports",
	"fork":          "Dining",
	"knife":         "Dining",
	"spoon":         "Dining",
	"wine glass":    "Dining",
	"dining table":  "Dining",
	"meal":          "Dining",
	"guitar":        "Music",
	"piano":         "Music",
	"concert":       "Music",
	"kite":          "Leisure",
}

// personActivities only apply when someone is in the picture
var personActivities = map[string]string{
	"bicycle": "Cycling",
	"bike":    "Cycling",
	"horse":   "Riding",
}

func (g *Generator) activityTags(set *tagSet, in types.GenerationInput) {
	withPerson := hasPerson(in)
	consider := func(identifier string, confidence float64) {
		if confidence < g.config.MinConfidence {
			return
		}
		activity, ok := activities[identifier]
		if !ok && withPerson {
			activity, ok = personActivities[identifier]
		}
		if ok {
			set.add(types.Tag{Label: activity, Category: types.TagActivity, Confidence: confidence}, "activity:"+activity)
		}
	}
	for _, o := range in.Objects {
		consider(types.NormalizeIdentifier(o.Identifier), o.Confidence)
	}
	for _, c := range in.Fused {
		consider(c.Identifier, c.Confidence)
	}
	for _, s := range in.Scenes {
		consider(s.Identifier, s.Confidence)
	}
}

func hasPerson(in types.GenerationInput) bool {
	for _, s := range in.Subjects {
		if s.Source == types.SubjectFromFace || taxonomy.IsPerson(s.Identifier) {
			return true
		}
	}
	for _, o := range in.Objects {
		if taxonomy.IsPerson(o.Identifier) {
			return true
		}
	}
	return false
}

var (
	genericIndoor  = map[string]bool{"indoor": true, "indoors": true, "interior": true}
	genericOutdoor = map[string]bool{"outdoor": true, "outdoors": true, "outside": true, "nature": true, "scenery": true}
	indoorScenes   = map[string]bool{
		"room": true, "kitchen": true, "living room": true, "bedroom": true,
		"office": true, "restaurant": true, "classroom": true, "stage": true,
	}
)

func (g *Generator) settingTags(set *tagSet, in types.GenerationInput) {
	var indoor, outdoor float64
	specificIndoor, specificOutdoor := false, false

	consider := func(identifier string, confidence float64) {
		if confidence < g.config.MinConfidence {
			return
		}
		switch {
		case genericIndoor[identifier]:
			indoor = max(indoor, confidence)
		case genericOutdoor[identifier]:
			outdoor = max(outdoor, confidence)
		case taxonomy.Is(identifier, taxonomy.Scene):
			if indoorScenes[identifier] {
				specificIndoor = true
			} else {
				specificOutdoor = true
			}
			set.add(types.Tag{Label: subject.Label(identifier), Category: types.TagSetting, Confidence: confidence}, "setting:"+identifier)
		}
	}
	for _, s := range in.Scenes {
		consider(types.NormalizeIdentifier(s.Identifier), s.Confidence)
	}
	for _, c := range in.Fused {
		consider(c.Identifier, c.Confidence)
	}
	for _, l := range in.Landmarks {
		if l.Confidence >= g.config.MinConfidence && strings.TrimSpace(l.Name) != "" {
			specificOutdoor = true
			set.add(types.Tag{Label: strings.TrimSpace(l.Name), Category: types.TagSetting, Confidence: l.Confidence}, "landmark:"+strings.ToLower(l.Name))
		}
	}

	// indoor and outdoor are exclusive; a specific setting replaces the generic one
	switch {
	case indoor > 0 && indoor >= outdoor && !specificIndoor:
		set.add(types.Tag{Label: "Indoor", Category: types.TagSetting, Confidence: indoor}, "setting:generic")
	case outdoor > 0 && outdoor > indoor && !specificOutdoor:
		set.add(types.Tag{Label: "Outdoor", Category: types.TagSetting, Confidence: outdoor}, "setting:generic")
	}
}

type useCase struct {
	label    string
	ratio    cropper.AspectRatio
	purposes []types.Purpose
	// orientation, when set, also qualifies an image regardless of purpose
	orientation types.Orientation
	minPixels   bool
}

var useCases = []useCase{
	{label: "Profile Picture", ratio: cropper.Square, purposes: []types.Purpose{types.PurposePortrait}},
	{label: "Wallpaper", ratio: cropper.Widescreen, purposes: []types.Purpose{types.PurposeLandscape}, orientation: types.OrientationLandscape, minPixels: true},
	{label: "Phone Wallpaper", ratio: cropper.Story, purposes: []types.Purpose{types.PurposeLandscape}, orientation: types.OrientationPortrait, minPixels: true},
	{label: "Social Media", ratio: cropper.Instagram, purposes: []types.Purpose{
		types.PurposePortrait, types.PurposeGroupPhoto, types.PurposePet, types.PurposeFood, types.PurposeLandscape, types.PurposeCloseUp,
	}},
}

// useCaseTags suggest what the image is good for; they need a quality
// assessment that did not flag the image as low quality
func (g *Generator) useCaseTags(set *tagSet, in types.GenerationInput, p types.Purpose) {
	if in.Quality == nil || in.Quality.IsLowQuality {
		return
	}
	if in.Info.Width <= 0 || in.Info.Height <= 0 {
		return
	}

	if p == types.PurposeDocument {
		crop := textBounds(in.Text)
		set.add(types.Tag{Label: "Document Scan", Category: types.TagUseCase, Confidence: in.Quality.Score, Crop: crop}, "usecase:document")
		return
	}

	focus := focusBox(in)
	for _, uc := range useCases {
		if !uc.applies(in, p, g.config.WallpaperMinPixels) {
			continue
		}
		result, err := g.cropper.Suggest(in.Info, focus, uc.ratio)
		if err != nil || !g.cropper.Acceptable(result) {
			continue
		}
		crop := result.Box
		set.add(types.Tag{
			Label:      uc.label,
			Category:   types.TagUseCase,
			Confidence: result.Quality * in.Quality.Score,
			Crop:       &crop,
		}, "usecase:"+uc.label)
	}
}

func (uc useCase) applies(in types.GenerationInput, p types.Purpose, minPixels int) bool {
	if uc.minPixels && max(in.Info.Width, in.Info.Height) < minPixels {
		return false
	}
	for _, want := range uc.purposes {
		if p == want {
			return true
		}
	}
	return uc.orientation != "" && in.Info.Orientation == uc.orientation && p == types.PurposeGeneral
}

// focusBox is the box a crop should keep: the primary subject, or the union of recognized faces
func focusBox(in types.GenerationInput) *types.Box {
	if primary, ok := in.PrimarySubject(); ok && primary.Box != nil {
		b := *primary.Box
		return &b
	}
	var focus *types.Box
	for _, p := range in.People {
		if p.Box == nil {
			continue
		}
		if focus == nil {
			b := *p.Box
			focus = &b
			continue
		}
		u := focus.Union(*p.Box)
		focus = &u
	}
	return focus
}

func textBounds(blocks []types.TextBlock) *types.Box {
	var bounds *types.Box
	for _, t := range blocks {
		if t.Box == nil || !t.Box.Valid() {
			continue
		}
		if bounds == nil {
			b := *t.Box
			bounds = &b
			continue
		}
		u := bounds.Union(*t.Box)
		bounds = &u
	}
	return bounds
}

func (g *Generator) qualityTags(set *tagSet, in types.GenerationInput) {
	q := in.Quality
	if q == nil {
		return
	}
	if q.IsLowQuality {
		set.add(types.Tag{Label: "Low Quality", Category: types.TagQuality, Confidence: 1 - q.Score}, "quality")
		for _, issue := range q.Issues {
			set.add(types.Tag{Label: subject.Label(issue), Category: types.TagQuality, Confidence: 1 - q.Score}, "issue:"+issue)
		}
		return
	}
	if q.Score >= g.config.HighQualityScore {
		set.add(types.Tag{Label: "High Quality", Category: types.TagQuality, Confidence: q.Score}, "quality")
	}
	if in.Info.ResolutionClass == "high-resolution" {
		set.add(types.Tag{Label: "High Resolution", Category: types.TagQuality, Confidence: q.Score}, "resolution")
	}
}

// tagSet keeps one tag per redundancy group and per label
type tagSet struct {
	tags   []types.Tag
	groups map[string]int
	labels map[string]bool
}

func newTagSet() *tagSet {
	return &tagSet{groups: make(map[string]int), labels: make(map[string]bool)}
}

func (s *tagSet) add(tag types.Tag, group string) {
	if tag.Label == "" {
		return
	}
	if i, ok := s.groups[group]; ok {
		if tag.Confidence > s.tags[i].Confidence {
			s.tags[i].Confidence = tag.Confidence
		}
		return
	}
	key := strings.ToLower(tag.Label)
	if s.labels[key] {
		return
	}
	s.labels[key] = true
	s.groups[group] = len(s.tags)
	s.tags = append(s.tags, tag)
}

func (s *tagSet) list() []types.Tag {
	out := make([]types.Tag, len(s.tags))
	copy(out, s.tags)
	return out
}
