package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	imageinsight "github.com/menta2k/image-insight"
	"github.com/menta2k/image-insight/internal/utils"
)

var (
	watchInitial  bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Describe images as they change in a directory",
	Long: `Watches a directory tree and re-analyzes images when they are created or
written. Cached results of changed or removed files are invalidated.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchInitial, "initial", true, "analyze existing images on start")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "wait for writes to settle")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if !utils.DirExists(dir) {
		return fmt.Errorf("%s is not a directory", dir)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLog()
	if err != nil {
		return err
	}
	defer log.Close()

	insight, err := newInsight(cfg, log)
	if err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := addTree(fsw, dir); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	w := newDirWatcher(insight, log, cmd.OutOrStdout(), watchDebounce)
	if watchInitial {
		files, err := utils.ListImageFiles(dir)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", dir, err)
		}
		for _, f := range files {
			w.analyze(ctx, f)
		}
	}
	log.Infof("Watching %v", dir)
	return w.run(ctx, fsw)
}

// addTree watches dir and every non-hidden directory below it
func addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && utils.IsHidden(path) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

type watchAction int

const (
	actionIgnore watchAction = iota
	actionAnalyze
	actionForget
	actionAddDir
)

// classifyEvent decides what a filesystem event means for the cache
func classifyEvent(ev fsnotify.Event) watchAction {
	if utils.IsHidden(ev.Name) {
		return actionIgnore
	}
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		if utils.IsImageFile(ev.Name) {
			return actionForget
		}
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		if ev.Has(fsnotify.Create) && utils.DirExists(ev.Name) {
			return actionAddDir
		}
		if utils.IsImageFile(ev.Name) && utils.FileExists(ev.Name) {
			return actionAnalyze
		}
	}
	return actionIgnore
}

// dirWatcher remembers the cache key of every analyzed file so a change can
// invalidate the result of the previous content
type dirWatcher struct {
	insight  *imageinsight.Insight
	log      logs.Log
	out      io.Writer
	debounce time.Duration

	mu      sync.Mutex
	keys    map[string]string
	pending map[string]*time.Timer
	ready   chan string
}

func newDirWatcher(insight *imageinsight.Insight, log logs.Log, out io.Writer, debounce time.Duration) *dirWatcher {
	return &dirWatcher{
		insight:  insight,
		log:      log,
		out:      out,
		debounce: debounce,
		keys:     make(map[string]string),
		pending:  make(map[string]*time.Timer),
		ready:    make(chan string, 64),
	}
}

func (w *dirWatcher) run(ctx context.Context, fsw *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return nil
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warnf("Watcher error: %v", err)
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(fsw, ev)
		case path := <-w.ready:
			w.analyze(ctx, path)
		}
	}
}

func (w *dirWatcher) handle(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	switch classifyEvent(ev) {
	case actionAnalyze:
		w.schedule(ev.Name)
	case actionForget:
		w.forget(ev.Name)
	case actionAddDir:
		if err := addTree(fsw, ev.Name); err != nil {
			w.log.Warnf("%v", err)
		}
	}
}

// schedule analyzes path once no event has touched it for the debounce period
func (w *dirWatcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.ready <- path
	})
}

func (w *dirWatcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// forget invalidates the cached result of path
func (w *dirWatcher) forget(path string) int {
	w.mu.Lock()
	key, ok := w.keys[path]
	delete(w.keys, path)
	if t, pending := w.pending[path]; pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	if !ok {
		return 0
	}
	n := w.insight.InvalidateCache(key)
	w.log.Debugf("Forgot %v (%v cached results)", path, n)
	return n
}

// analyze describes path, dropping the result of its previous content first
func (w *dirWatcher) analyze(ctx context.Context, path string) {
	w.forget(path)
	result, err := w.insight.AnalyzeFile(ctx, path)
	if err != nil {
		w.log.Errorf("%v: %v", path, err)
		return
	}
	w.mu.Lock()
	w.keys[path] = result.CacheKey
	w.mu.Unlock()
	printReport(w.out, report{Source: path, Result: result})
}
