// Package orchestrator runs detectors for an image, fuses their signals and
// generates the cached description.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/image-insight/pkg/cache"
	"github.com/menta2k/image-insight/pkg/caption"
	"github.com/menta2k/image-insight/pkg/detectors"
	"github.com/menta2k/image-insight/pkg/fusion"
	"github.com/menta2k/image-insight/pkg/identity"
	"github.com/menta2k/image-insight/pkg/narrative"
	"github.com/menta2k/image-insight/pkg/purpose"
	"github.com/menta2k/image-insight/pkg/subject"
	"github.com/menta2k/image-insight/pkg/tags"
	"github.com/menta2k/image-insight/pkg/types"
)

var (
	ErrDetectorUnavailable = errors.New("detector unavailable")
	ErrDeadlineExceeded    = errors.New("detector deadline exceeded")
	ErrInsufficientSignal  = errors.New("insufficient signal")
	ErrCacheCorruption     = cache.ErrCorrupt
	ErrCancelled           = errors.New("analysis cancelled")
	ErrDisabled            = errors.New("image analysis disabled")
	ErrInvalidKey          = identity.ErrInvalidKey
)

// Config holds orchestrator settings and the settings of every pipeline stage
type Config struct {
	// PipelineVersion is part of every cache key; bump it when output changes
	PipelineVersion string
	Deadline        time.Duration
	Workers         int
	CacheCapacity   int

	Fusion    fusion.Config
	Subject   subject.Config
	Caption   caption.Config
	Narrative narrative.Config
	Tags      tags.Config
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		PipelineVersion: "v1",
		Deadline:        4 * time.Second,
		Workers:         4,
		CacheCapacity:   cache.DefaultCapacity,
		Fusion:          fusion.DefaultConfig(),
		Subject:         subject.DefaultConfig(),
		Caption:         caption.DefaultConfig(),
		Narrative:       narrative.DefaultConfig(),
		Tags:            tags.DefaultConfig(),
	}
}

// Request is one image to analyze
type Request struct {
	// Identity overrides the identity derived from Image or Data
	Identity string
	Image    image.Image
	Data     []byte
	// Info is derived from Image when zero
	Info types.ImageInfo
	// Detectors replaces the configured set for this call
	Detectors *detectors.Set
}

// Stats are cumulative orchestrator counters
type Stats struct {
	Requests         int64       `json:"requests"`
	Completed        int64       `json:"completed"`
	Failed           int64       `json:"failed"`
	Cancelled        int64       `json:"cancelled"`
	DetectorErrors   int64       `json:"detector_errors"`
	DetectorTimeouts int64       `json:"detector_timeouts"`
	Cache            cache.Stats `json:"cache"`
}

type counters struct {
	requests, completed, failed, cancelled, detectorErrors, detectorTimeouts atomic.Int64
}

// Forgetter is implemented by detectors that keep per-image state
type Forgetter interface {
	Forget(identity string)
}

// Orchestrator owns the detectors, the pipeline stages and the result cache
type Orchestrator struct {
	config    Config
	detectors detectors.Set
	cache     *cache.Cache
	log       logs.Log

	fuser      *fusion.Fuser
	determiner *subject.Determiner
	purposes   *purpose.Classifier
	captions   *caption.Generator
	narratives *narrative.Generator
	tags       *tags.Generator

	mu       sync.RWMutex
	enabled  bool
	onChange func(requestID string, from, to State)

	stats counters
}

// New creates an orchestrator. log may be nil.
func New(set detectors.Set, config Config, log logs.Log) *Orchestrator {
	defaults := DefaultConfig()
	if config.PipelineVersion == "" {
		config.PipelineVersion = defaults.PipelineVersion
	}
	if config.Deadline <= 0 {
		config.Deadline = defaults.Deadline
	}
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if log == nil {
		log = nopLog{}
	}

	c := cache.New(config.CacheCapacity)
	c.OnEvict(func(key string) { log.Debugf("Evicted %v from result cache", key) })

	return &Orchestrator{
		config:     config,
		detectors:  set,
		cache:      c,
		log:        log,
		fuser:      fusion.NewWithConfig(config.Fusion),
		determiner: subject.NewWithConfig(config.Subject),
		purposes:   purpose.NewWithConfig(config.Narrative.Purpose),
		captions:   caption.NewWithConfig(config.Caption),
		narratives: narrative.NewWithConfig(config.Narrative),
		tags:       tags.NewWithConfig(config.Tags),
		enabled:    true,
	}
}

// OnStateChange registers a hook called on every state transition
func (o *Orchestrator) OnStateChange(fn func(requestID string, from, to State)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onChange = fn
}

// SetEnabled turns analysis on or off. Disabling drops every cached result.
func (o *Orchestrator) SetEnabled(enabled bool) {
	o.mu.Lock()
	o.enabled = enabled
	if !enabled {
		o.cache.Clear()
	}
	o.mu.Unlock()
	if !enabled {
		o.log.Infof("Image analysis disabled, result cache cleared")
	}
}

// Enabled reports whether analysis is enabled
func (o *Orchestrator) Enabled() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.enabled
}

// CacheKey returns the key results for identity are cached under
func (o *Orchestrator) CacheKey(id string) (string, error) {
	return identity.Key(id, o.config.PipelineVersion)
}

// InvalidateCache drops every cached result for an identity
func (o *Orchestrator) InvalidateCache(id string) int {
	for _, d := range o.members(o.detectors) {
		if f, ok := d.(Forgetter); ok {
			f.Forget(id)
		}
	}
	n := o.cache.RemoveIdentity(id)
	o.log.Debugf("Invalidated %v cached results for %v", n, id)
	return n
}

// ClearCache drops every cached result
func (o *Orchestrator) ClearCache() {
	o.cache.Clear()
}

// Stats returns a snapshot of the counters
func (o *Orchestrator) Stats() Stats {
	return Stats{
		Requests:         o.stats.requests.Load(),
		Completed:        o.stats.completed.Load(),
		Failed:           o.stats.failed.Load(),
		Cancelled:        o.stats.cancelled.Load(),
		DetectorErrors:   o.stats.detectorErrors.Load(),
		DetectorTimeouts: o.stats.detectorTimeouts.Load(),
		Cache:            o.cache.Stats(),
	}
}

func (o *Orchestrator) members(s detectors.Set) []any {
	return []any{s.Classifier, s.SecondaryClassifier, s.Objects, s.Scenes, s.Text,
		s.Colors, s.Saliency, s.People, s.Landmarks, s.Quality, s.SubjectColor}
}

// resolveIdentity picks the request identity: explicit, content digest, then pixel hash
func resolveIdentity(req Request) (string, error) {
	switch {
	case req.Identity != "":
		return req.Identity, nil
	case len(req.Data) > 0:
		return identity.FromBytes(req.Data)
	case req.Image != nil:
		return identity.FromImage(req.Image)
	}
	return "", fmt.Errorf("request has no identity, image or data: %w", ErrInvalidKey)
}

// Analyze returns the description of one image, from cache when possible.
// Only ErrCancelled, ErrDisabled and ErrInvalidKey are returned; detector
// problems are reported in the result's Warnings. A request still running
// when analysis is disabled returns ErrDisabled and caches nothing.
func (o *Orchestrator) Analyze(ctx context.Context, req Request) (*types.AnalysisResult, error) {
	if !o.Enabled() {
		return nil, ErrDisabled
	}
	o.stats.requests.Add(1)

	id, err := resolveIdentity(req)
	if err != nil {
		return nil, err
	}
	key, err := o.CacheKey(id)
	if err != nil {
		return nil, err
	}

	r := &run{o: o, id: uuid.NewString(), key: key, state: StateIdle}

	cached, err := o.cache.Get(key)
	switch {
	case errors.Is(err, ErrCacheCorruption):
		o.log.Warnf("Dropped corrupt cache entry %v, recomputing", key)
	case err != nil:
		o.log.Errorf("Cache lookup for %v failed: %v", key, err)
	case cached != nil:
		r.to(StateCompleted)
		o.stats.completed.Add(1)
		return cached, nil
	}

	if ctx.Err() != nil {
		return nil, r.cancel()
	}

	set := o.detectors
	if req.Detectors != nil {
		set = *req.Detectors
	}
	frame := &detectors.Frame{Identity: id, Image: req.Image, Data: req.Data, Info: req.Info}
	if frame.Info.Width == 0 && req.Image != nil {
		b := req.Image.Bounds()
		frame.Info = types.NewImageInfo(b.Dx(), b.Dy())
	}

	r.to(StateCollecting)
	signals, warnings, returned := o.collect(ctx, frame, set)
	if ctx.Err() != nil {
		return nil, r.cancel()
	}
	signals.Info = frame.Info

	if returned == 0 {
		r.to(StateFailed)
		o.stats.failed.Add(1)
		warnings = append(warnings, fmt.Sprintf("no detector returned: %v", ErrInsufficientSignal))
		o.log.Warnf("Analysis %v of %v: no detector returned, using fallback", r.id, key)
		return o.fallback(r, signals, warnings), nil
	}

	r.to(StateFusing)
	in := o.fuse(ctx, frame, set, signals, key)
	if ctx.Err() != nil {
		return nil, r.cancel()
	}

	r.to(StateGenerating)
	result := o.generate(in)
	result.Info = frame.Info
	result.CacheKey = key
	result.RequestID = r.id
	result.GeneratedAt = time.Now().UTC()
	result.Warnings = warnings

	switch err := o.store(ctx, key, result); {
	case errors.Is(err, ErrCancelled):
		return nil, r.cancel()
	case errors.Is(err, ErrDisabled):
		r.cancel()
		o.log.Infof("Analysis %v of %v: disabled while running, result dropped", r.id, key)
		return nil, ErrDisabled
	case err != nil:
		o.log.Errorf("Failed to cache %v: %v", key, err)
	default:
		r.to(StateCached)
	}
	r.to(StateCompleted)
	o.stats.completed.Add(1)
	return result, nil
}

// store caches a result unless the request was cancelled or analysis was
// disabled meanwhile. It holds the lock SetEnabled clears the cache under.
func (o *Orchestrator) store(ctx context.Context, key string, result *types.AnalysisResult) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ctx.Err() != nil {
		return ErrCancelled
	}
	if !o.enabled {
		return ErrDisabled
	}
	return o.cache.Put(key, result)
}

// AnalyzeWith analyzes req with set in place of the configured detectors
func (o *Orchestrator) AnalyzeWith(ctx context.Context, set detectors.Set, req Request) (*types.AnalysisResult, error) {
	req.Detectors = &set
	return o.Analyze(ctx, req)
}

// fuse merges classifications and picks the primary subjects
func (o *Orchestrator) fuse(ctx context.Context, frame *detectors.Frame, set detectors.Set, signals types.Signals, key string) types.GenerationInput {
	flags := fusion.FlagsFromSignals(signals.Objects, signals.People, o.config.Fusion.MinFlagConfidence)
	fused := o.fuser.Merge(signals.Classifications, signals.SecondaryClassifications, flags)

	subjects := o.determiner.DeterminePrimarySubjects(subject.Input{
		Fused:    fused,
		Objects:  signals.Objects,
		Saliency: signals.Saliency,
		People:   signals.People,
	})

	in := types.GenerationInput{
		Signals:  signals,
		Fused:    fused,
		Subjects: subjects,
		Seed:     identity.Seed(key),
	}
	if len(subjects) > 0 && subjects[0].Box != nil && set.SubjectColor != nil && frame.Image != nil {
		if sample, ok := set.SubjectColor.SubjectColor(ctx, frame, *subjects[0].Box); ok {
			in.SubjectColor = sample.Name
		}
	}
	return in
}

// generate runs the description generators concurrently on the final input
func (o *Orchestrator) generate(in types.GenerationInput) *types.AnalysisResult {
	p := o.purposes.Classify(in)
	result := &types.AnalysisResult{
		Subjects:             in.Subjects,
		FusedClassifications: in.Fused,
		Purpose:              p,
	}

	var g errgroup.Group
	g.Go(func() error {
		result.Caption = o.captions.Generate(in)
		return nil
	})
	g.Go(func() error {
		result.Narrative = o.narratives.GenerateFor(in, p)
		return nil
	})
	g.Go(func() error {
		result.SmartTags = o.tags.Generate(in, p)
		return nil
	})
	_ = g.Wait()

	if result.Subjects == nil {
		result.Subjects = []types.Subject{}
	}
	if result.SmartTags == nil {
		result.SmartTags = []types.Tag{}
	}
	return result
}

// fallback describes an image from metadata alone. It is never cached.
func (o *Orchestrator) fallback(r *run, signals types.Signals, warnings []string) *types.AnalysisResult {
	in := types.GenerationInput{Signals: signals, Seed: identity.Seed(r.key)}
	return &types.AnalysisResult{
		Caption:              o.captions.Generate(in),
		Narrative:            o.narratives.GenerateFor(in, types.PurposeUncertain),
		SmartTags:            []types.Tag{},
		Subjects:             []types.Subject{},
		FusedClassifications: []types.ClassificationResult{},
		Purpose:              types.PurposeUncertain,
		Info:                 signals.Info,
		GeneratedAt:          time.Now().UTC(),
		CacheKey:             r.key,
		RequestID:            r.id,
		Degraded:             true,
		Warnings:             warnings,
	}
}

// run tracks the state of one Analyze call
type run struct {
	o     *Orchestrator
	id    string
	key   string
	state State
}

func (r *run) to(next State) {
	if !CanTransition(r.state, next) {
		r.o.log.Errorf("Analysis %v: illegal transition %v -> %v", r.id, r.state, next)
		return
	}
	prev := r.state
	r.state = next
	r.o.log.Debugf("Analysis %v of %v: %v -> %v", r.id, r.key, prev, next)

	r.o.mu.RLock()
	hook := r.o.onChange
	r.o.mu.RUnlock()
	if hook != nil {
		hook(r.id, prev, next)
	}
}

func (r *run) cancel() error {
	r.to(StateCancelled)
	r.o.stats.cancelled.Add(1)
	return ErrCancelled
}
