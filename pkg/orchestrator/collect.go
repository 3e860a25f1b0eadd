package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/menta2k/image-insight/pkg/detectors"
	"github.com/menta2k/image-insight/pkg/types"
)

// task runs one detector and returns a function that stores its output
type task struct {
	name string
	run  func(ctx context.Context) (func(*types.Signals), error)
}

func tasks(f *detectors.Frame, s detectors.Set) []task {
	var list []task
	add := func(name string, present bool, run func(ctx context.Context) (func(*types.Signals), error)) {
		if present {
			list = append(list, task{name: name, run: run})
		}
	}

	add("classifier", s.Classifier != nil, func(ctx context.Context) (func(*types.Signals), error) {
		v, err := s.Classifier.Classify(ctx, f)
		return func(sig *types.Signals) { sig.Classifications = v }, err
	})
	add("secondary classifier", s.SecondaryClassifier != nil, func(ctx context.Context) (func(*types.Signals), error) {
		v, err := s.SecondaryClassifier.Classify(ctx, f)
		return func(sig *types.Signals) { sig.SecondaryClassifications = v }, err
	})
	add("objects", s.Objects != nil, func(ctx context.Context) (func(*types.Signals), error) {
		v, err := s.Objects.DetectObjects(ctx, f)
		return func(sig *types.Signals) { sig.Objects = v }, err
	})
	add("scenes", s.Scenes != nil, func(ctx context.Context) (func(*types.Signals), error) {
		v, err := s.Scenes.ClassifyScene(ctx, f)
		return func(sig *types.Signals) { sig.Scenes = v }, err
	})
	add("text", s.Text != nil, func(ctx context.Context) (func(*types.Signals), error) {
		v, err := s.Text.RecognizeText(ctx, f)
		return func(sig *types.Signals) { sig.Text = v }, err
	})
	add("colors", s.Colors != nil, func(ctx context.Context) (func(*types.Signals), error) {
		v, err := s.Colors.AnalyzeColors(ctx, f)
		return func(sig *types.Signals) { sig.Colors = v }, err
	})
	add("saliency", s.Saliency != nil, func(ctx context.Context) (func(*types.Signals), error) {
		v, err := s.Saliency.AnalyzeSaliency(ctx, f)
		return func(sig *types.Signals) { sig.Saliency = v }, err
	})
	add("people", s.People != nil, func(ctx context.Context) (func(*types.Signals), error) {
		v, err := s.People.RecognizePeople(ctx, f)
		return func(sig *types.Signals) { sig.People = v }, err
	})
	add("landmarks", s.Landmarks != nil, func(ctx context.Context) (func(*types.Signals), error) {
		v, err := s.Landmarks.RecognizeLandmarks(ctx, f)
		return func(sig *types.Signals) { sig.Landmarks = v }, err
	})
	add("quality", s.Quality != nil, func(ctx context.Context) (func(*types.Signals), error) {
		v, err := s.Quality.AssessQuality(ctx, f)
		return func(sig *types.Signals) { sig.Quality = v }, err
	})
	return list
}

// collect runs every detector of the set on a bounded pool and returns what
// finished before the deadline. Results arriving later are discarded.
func (o *Orchestrator) collect(ctx context.Context, f *detectors.Frame, set detectors.Set) (types.Signals, []string, int) {
	list := tasks(f, set)
	if len(list) == 0 {
		return types.Signals{}, nil, 0
	}

	dctx, cancel := context.WithTimeout(ctx, o.config.Deadline)
	defer cancel()

	var (
		mu       sync.Mutex
		closed   bool
		signals  types.Signals
		warnings []string
		returned int
		finished = make(map[string]bool, len(list))
	)

	g := new(errgroup.Group)
	g.SetLimit(o.config.Workers)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, t := range list {
			t := t
			g.Go(func() error {
				if dctx.Err() != nil {
					return nil
				}
				store, err := t.run(dctx)

				mu.Lock()
				defer mu.Unlock()
				if closed || (err != nil && dctx.Err() != nil) {
					return nil
				}
				finished[t.name] = true
				if err != nil {
					o.stats.detectorErrors.Add(1)
					err = fmt.Errorf("%s: %w: %w", t.name, ErrDetectorUnavailable, err)
					warnings = append(warnings, err.Error())
					o.log.Warnf("Detector failed for %v: %v", f.Identity, err)
					return nil
				}
				store(&signals)
				returned++
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-dctx.Done():
	}

	mu.Lock()
	defer mu.Unlock()
	closed = true
	if ctx.Err() == nil && errors.Is(dctx.Err(), context.DeadlineExceeded) {
		var late []string
		for _, t := range list {
			if !finished[t.name] {
				late = append(late, t.name)
			}
		}
		sort.Strings(late)
		for _, name := range late {
			o.stats.detectorTimeouts.Add(1)
			warnings = append(warnings, fmt.Sprintf("%s: %v", name, ErrDeadlineExceeded))
		}
		if len(late) > 0 {
			o.log.Warnf("Deadline of %v passed for %v with %v detectors outstanding", o.config.Deadline, f.Identity, len(late))
		}
	}
	return signals, warnings, returned
}
