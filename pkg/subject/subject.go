// Package subject picks the primary subjects of an image from spatial detections,
// recognized identities and, as a last resort, fused classifications.
package subject

import (
	"fmt"
	"math"
	"sort"

	"github.com/menta2k/image-insight/pkg/taxonomy"
	"github.com/menta2k/image-insight/pkg/types"
)

// Config holds subject determination weights
type Config struct {
	MaxSubjects         int     `toml:"max_subjects"`
	MinObjectConfidence float64 `toml:"min_object_confidence"`
	MinFaceConfidence   float64 `toml:"min_face_confidence"`
	VehicleBoost        float64 `toml:"vehicle_boost"`
}

// DefaultConfig returns the default weights
func DefaultConfig() Config {
	return Config{
		MaxSubjects:         3,
		MinObjectConfidence: 0.2,
		MinFaceConfidence:   0.5,
		VehicleBoost:        3.5,
	}
}

// Input is everything subject determination looks at
type Input struct {
	Fused    []types.ClassificationResult
	Objects  []types.DetectedObject
	Saliency *types.SaliencyAnalysis
	People   []types.RecognizedPerson
}

// Determiner selects primary subjects
type Determiner struct {
	config Config
}

// New creates a Determiner with default configuration
func New() *Determiner {
	return &Determiner{config: DefaultConfig()}
}

// NewWithConfig creates a Determiner with custom configuration
func NewWithConfig(config Config) *Determiner {
	if config.MaxSubjects <= 0 {
		config.MaxSubjects = DefaultConfig().MaxSubjects
	}
	return &Determiner{config: config}
}

// DeterminePrimarySubjects runs the default Determiner
func DeterminePrimarySubjects(in Input) []types.Subject {
	return New().DeterminePrimarySubjects(in)
}

// DeterminePrimarySubject returns the top subject of the default Determiner
func DeterminePrimarySubject(in Input) (types.Subject, bool) {
	return New().DeterminePrimarySubject(in)
}

// DeterminePrimarySubject returns the first of the primary subjects
func (d *Determiner) DeterminePrimarySubject(in Input) (types.Subject, bool) {
	subjects := d.DeterminePrimarySubjects(in)
	if len(subjects) == 0 {
		return types.Subject{}, false
	}
	return subjects[0], true
}

// rank orders candidates: named faces, then people, then everything else
const (
	rankFace = iota
	rankPeople
	rankOther
)

type candidate struct {
	subject types.Subject
	rank    int
}

// DeterminePrimarySubjects returns up to MaxSubjects subjects ordered by importance
func (d *Determiner) DeterminePrimarySubjects(in Input) []types.Subject {
	objects := d.filterObjects(in.Objects, in.People)
	faces := d.faceIdentities(in.People)
	scorer := newProminenceScorer(in.Saliency, d.config.VehicleBoost)

	var candidates []candidate
	for _, face := range faces {
		s := types.Subject{
			Label:      face.Name,
			Identifier: "person",
			Confidence: face.Confidence,
			Source:     types.SubjectFromFace,
			Box:        face.Box,
			Count:      1,
		}
		if face.Box != nil {
			s.Prominence = scorer.score(face.Confidence, *face.Box, taxonomy.Person)
		}
		candidates = append(candidates, candidate{subject: s, rank: rankFace})
	}

	persons, others := splitPersons(objects)
	persons = dropIdentified(persons, faces)
	if people, ok := d.peopleSubject(persons, scorer); ok {
		candidates = append(candidates, candidate{subject: people, rank: rankPeople})
	}
	for _, s := range d.objectSubjects(others, scorer) {
		candidates = append(candidates, candidate{subject: s, rank: rankOther})
	}

	if len(candidates) == 0 {
		return d.fallback(in)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].rank != candidates[j].rank {
			return candidates[i].rank < candidates[j].rank
		}
		if candidates[i].rank == rankFace {
			return candidates[i].subject.Confidence > candidates[j].subject.Confidence
		}
		return candidates[i].subject.Prominence > candidates[j].subject.Prominence
	})

	if len(candidates) > d.config.MaxSubjects {
		candidates = candidates[:d.config.MaxSubjects]
	}
	subjects := make([]types.Subject, len(candidates))
	for i, c := range candidates {
		subjects[i] = c.subject
	}
	return subjects
}

// filterObjects drops weak and background detections, and clothing when a person is present
func (d *Determiner) filterObjects(objects []types.DetectedObject, people []types.RecognizedPerson) []types.DetectedObject {
	var kept []types.DetectedObject
	hasPerson := false
	for _, o := range objects {
		if o.Confidence < d.config.MinObjectConfidence || !o.Box.Clamp().Valid() {
			continue
		}
		switch taxonomy.Lookup(o.Identifier) {
		case taxonomy.Background:
			continue
		case taxonomy.Person:
			hasPerson = true
		}
		o.Identifier = types.NormalizeIdentifier(o.Identifier)
		o.Box = o.Box.Clamp()
		kept = append(kept, o)
	}
	for _, p := range people {
		if p.Source == types.IdentityFromFace && p.Confidence >= d.config.MinFaceConfidence {
			hasPerson = true
		}
	}
	if !hasPerson {
		return kept
	}

	filtered := kept[:0]
	for _, o := range kept {
		if taxonomy.IsClothing(o.Identifier) {
			continue
		}
		filtered = append(filtered, o)
	}
	return filtered
}

func (d *Determiner) faceIdentities(people []types.RecognizedPerson) []types.RecognizedPerson {
	var faces []types.RecognizedPerson
	seen := map[string]bool{}
	for _, p := range people {
		if p.Source != types.IdentityFromFace || p.Name == "" || p.Confidence < d.config.MinFaceConfidence {
			continue
		}
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		if p.Box != nil {
			b := p.Box.Clamp()
			p.Box = &b
		}
		faces = append(faces, p)
	}
	return faces
}

func splitPersons(objects []types.DetectedObject) (persons, others []types.DetectedObject) {
	for _, o := range objects {
		if taxonomy.IsPerson(o.Identifier) {
			persons = append(persons, o)
		} else {
			others = append(others, o)
		}
	}
	return persons, others
}

// dropIdentified removes the person detection that best covers each identified face
func dropIdentified(persons []types.DetectedObject, faces []types.RecognizedPerson) []types.DetectedObject {
	used := make([]bool, len(persons))
	for _, face := range faces {
		if face.Box == nil {
			continue
		}
		best, bestOverlap := -1, 0.0
		for i, p := range persons {
			if used[i] {
				continue
			}
			if overlap := p.Box.Overlap(*face.Box); overlap > bestOverlap {
				best, bestOverlap = i, overlap
			}
		}
		if best >= 0 {
			used[best] = true
		}
	}
	var remaining []types.DetectedObject
	for i, p := range persons {
		if !used[i] {
			remaining = append(remaining, p)
		}
	}
	return remaining
}

// peopleSubject collapses anonymous person detections into one subject
func (d *Determiner) peopleSubject(persons []types.DetectedObject, scorer *prominenceScorer) (types.Subject, bool) {
	switch len(persons) {
	case 0:
		return types.Subject{}, false
	case 1:
		p := persons[0]
		box := p.Box
		return types.Subject{
			Label:      Label(p.Identifier),
			Identifier: p.Identifier,
			Confidence: p.Confidence,
			Source:     types.SubjectFromObject,
			Box:        &box,
			Count:      1,
			Prominence: scorer.score(p.Confidence, p.Box, taxonomy.Person),
		}, true
	}

	var sum float64
	box := persons[0].Box
	for _, p := range persons {
		sum += p.Confidence
		box = box.Union(p.Box)
	}
	mean := sum / float64(len(persons))
	return types.Subject{
		Label:      fmt.Sprintf("Group of %d people", len(persons)),
		Identifier: "people",
		Confidence: mean,
		Source:     types.SubjectFromObject,
		Box:        &box,
		Count:      len(persons),
		Prominence: scorer.score(mean, box, taxonomy.Person),
	}, true
}

// objectSubjects scores non-person detections, folding repeated labels into one subject
func (d *Determiner) objectSubjects(objects []types.DetectedObject, scorer *prominenceScorer) []types.Subject {
	index := map[string]int{}
	var subjects []types.Subject
	for _, o := range objects {
		category := taxonomy.Lookup(o.Identifier)
		prominence := scorer.score(o.Confidence, o.Box, category)
		if i, ok := index[o.Identifier]; ok {
			s := &subjects[i]
			s.Count++
			if prominence > s.Prominence {
				box := o.Box
				s.Box = &box
				s.Prominence = prominence
			}
			s.Confidence = math.Max(s.Confidence, o.Confidence)
			continue
		}
		box := o.Box
		index[o.Identifier] = len(subjects)
		subjects = append(subjects, types.Subject{
			Label:      Label(o.Identifier),
			Identifier: o.Identifier,
			Confidence: o.Confidence,
			Source:     types.SubjectFromObject,
			Box:        &box,
			Count:      1,
			Prominence: prominence,
		})
	}
	return subjects
}

// fallback is used only when no spatial subject exists
func (d *Determiner) fallback(in Input) []types.Subject {
	var best *types.RecognizedPerson
	for i, p := range in.People {
		if p.Name == "" || p.Source != types.IdentityFromClassification {
			continue
		}
		if best == nil || p.Confidence > best.Confidence {
			best = &in.People[i]
		}
	}
	if best != nil {
		return []types.Subject{{
			Label:      best.Name,
			Identifier: "person",
			Confidence: best.Confidence,
			Source:     types.SubjectFromClassification,
			Count:      1,
		}}
	}

	var top *types.ClassificationResult
	for i, c := range in.Fused {
		if c.Identifier == "" {
			continue
		}
		if top == nil || c.Confidence > top.Confidence {
			top = &in.Fused[i]
		}
	}
	if top == nil {
		return nil
	}
	return []types.Subject{{
		Label:      Label(top.Identifier),
		Identifier: top.Identifier,
		Confidence: top.Confidence,
		Source:     types.SubjectFromClassification,
		Count:      1,
	}}
}
