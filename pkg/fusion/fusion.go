// Package fusion merges independent classification sources into one ranked list.
package fusion

import (
	"math"
	"sort"

	"github.com/menta2k/image-insight/pkg/taxonomy"
	"github.com/menta2k/image-insight/pkg/types"
)

// Config holds the fusion thresholds
type Config struct {
	// BackgroundOverride is the confidence a background term must exceed
	// to survive when foreground subjects are present.
	BackgroundOverride float64 `toml:"background_override"`
	PersonBoost        float64 `toml:"person_boost"`
	VehicleBoost       float64 `toml:"vehicle_boost"`
	// MinFlagConfidence is the object confidence needed to raise a detection flag.
	MinFlagConfidence float64 `toml:"min_flag_confidence"`
}

// DefaultConfig returns the default fusion thresholds
func DefaultConfig() Config {
	return Config{
		BackgroundOverride: 0.8,
		PersonBoost:        1.3,
		VehicleBoost:       1.3,
		MinFlagConfidence:  0.3,
	}
}

// Flags describe corroborating spatial detections
type Flags struct {
	HasPersonDetection    bool
	HasVehicleDetection   bool
	HasForegroundSubjects bool
}

// Fuser merges classification sources
type Fuser struct {
	config Config
}

// New creates a Fuser with default configuration
func New() *Fuser {
	return &Fuser{config: DefaultConfig()}
}

// NewWithConfig creates a Fuser with custom configuration
func NewWithConfig(config Config) *Fuser {
	return &Fuser{config: config}
}

// Merge fuses two classification sources. Source a wins ties.
func Merge(a, b []types.ClassificationResult, flags Flags) []types.ClassificationResult {
	return New().Merge(a, b, flags)
}

// Merge fuses two classification sources. Source a wins ties.
func (f *Fuser) Merge(a, b []types.ClassificationResult, flags Flags) []types.ClassificationResult {
	return f.MergeAll(flags, a, b)
}

type entry struct {
	result types.ClassificationResult
	group  int
}

// MergeAll fuses any number of sources; earlier sources win ties
func (f *Fuser) MergeAll(flags Flags, sources ...[]types.ClassificationResult) []types.ClassificationResult {
	entries := f.union(sources)

	fused := make([]entry, 0, len(entries))
	for _, e := range entries {
		category := taxonomy.Lookup(e.result.Identifier)

		if flags.HasForegroundSubjects && category == taxonomy.Background &&
			e.result.Confidence <= f.config.BackgroundOverride {
			continue
		}

		if flags.HasPersonDetection && category == taxonomy.Person {
			e.result.Confidence = boost(e.result.Confidence, f.config.PersonBoost)
		}
		if flags.HasVehicleDetection && category == taxonomy.Vehicle {
			e.result.Confidence = boost(e.result.Confidence, f.config.VehicleBoost)
		}

		e.group = category.Group()
		fused = append(fused, e)
	}

	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].group != fused[j].group {
			return fused[i].group < fused[j].group
		}
		return fused[i].result.Confidence > fused[j].result.Confidence
	})

	out := make([]types.ClassificationResult, len(fused))
	for i, e := range fused {
		out[i] = e.result
	}
	return out
}

// union keeps one entry per identifier in first-encountered order with the max confidence
func (f *Fuser) union(sources [][]types.ClassificationResult) []entry {
	index := make(map[string]int)
	var entries []entry
	for _, source := range sources {
		for _, c := range source {
			c = types.NewClassification(c.Identifier, c.Confidence)
			if c.Identifier == "" {
				continue
			}
			if i, ok := index[c.Identifier]; ok {
				if c.Confidence > entries[i].result.Confidence {
					entries[i].result.Confidence = c.Confidence
				}
				continue
			}
			index[c.Identifier] = len(entries)
			entries = append(entries, entry{result: c})
		}
	}
	return entries
}

func boost(confidence, factor float64) float64 {
	return math.Min(confidence*factor, 1.0)
}

// FlagsFromSignals derives the fusion flags from the spatial detections
func FlagsFromSignals(objects []types.DetectedObject, people []types.RecognizedPerson, minConfidence float64) Flags {
	var flags Flags
	for _, o := range objects {
		if o.Confidence < minConfidence {
			continue
		}
		switch taxonomy.Lookup(o.Identifier) {
		case taxonomy.Person:
			flags.HasPersonDetection = true
			flags.HasForegroundSubjects = true
		case taxonomy.Vehicle:
			flags.HasVehicleDetection = true
			flags.HasForegroundSubjects = true
		case taxonomy.Background, taxonomy.Scene:
		default:
			flags.HasForegroundSubjects = true
		}
	}
	for _, p := range people {
		if p.Source == types.IdentityFromFace && p.Confidence >= minConfidence {
			flags.HasPersonDetection = true
			flags.HasForegroundSubjects = true
		}
	}
	return flags
}
