package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/platinummonkey/symbolgraph/pkg/observability"
)

// DefaultDebounce is how long the watcher waits for writes to settle
const DefaultDebounce = 200 * time.Millisecond

// Watcher regenerates a catalog whenever its input document changes.
// Regenerations always overwrite the previous catalog.
type Watcher struct {
	converter *Converter
	opts      Options
	debounce  time.Duration
	logger    *observability.Logger

	// OnRegenerate, when set, is called after every conversion attempt
	OnRegenerate func(*Result, error)

	// SkipInitial starts watching without converting first
	SkipInitial bool
}

// NewWatcher creates a watcher for opts.InputPath
func NewWatcher(converter *Converter, opts Options, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	opts.Overwrite = true
	return &Watcher{
		converter: converter,
		opts:      opts,
		debounce:  debounce,
		logger:    converter.logger,
	}
}

// Run converts once, then again after each change to the input file, until
// ctx is canceled. Conversion failures are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	input, err := filepath.Abs(w.opts.InputPath)
	if err != nil {
		return fmt.Errorf("failed to resolve input path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory: editors often save by renaming a temp file over
	// the original, which drops a watch on the file itself.
	if err := fw.Add(filepath.Dir(input)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(input), err)
	}
	w.logger.WithField("input", input).Info("watching for changes")

	if !w.SkipInitial {
		w.regenerate(ctx)
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !affects(event, input) {
				continue
			}
			w.logger.WithField("op", event.Op.String()).Debug("input changed")
			timer.Reset(w.debounce)

		case <-timer.C:
			w.regenerate(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("watcher error")
		}
	}
}

func affects(event fsnotify.Event, input string) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == input
}

func (w *Watcher) regenerate(ctx context.Context) {
	result, err := w.convertOnce(ctx)
	if err != nil {
		w.logger.WithError(err).Error("regeneration failed")
	}
	if w.OnRegenerate != nil {
		w.OnRegenerate(result, err)
	}
}

// convertOnce reports a panic inside the pipeline as an error
func (w *Watcher) convertOnce(ctx context.Context) (result *Result, err error) {
	defer func() {
		if perr := observability.MustRecover(recover()); perr != nil {
			result, err = nil, perr
		}
	}()
	return w.converter.Run(ctx, w.opts)
}
