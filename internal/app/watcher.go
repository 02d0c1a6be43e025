package app

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zmills04/ConvergeCHTMapper/internal/cliconfig"
	"github.com/zmills04/ConvergeCHTMapper/internal/ports"
)

// LimitsWatcher monitors the config file while a run is in flight and
// applies changes to the iteration budget and convergence threshold. All
// other settings are fixed at launch: retuning solver commands under a
// running solver would be worse than restarting.
type LimitsWatcher struct {
	mu sync.Mutex

	path          string
	limits        *LiveLimits
	logger        ports.Logger
	debounceDelay time.Duration

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
	stopped  bool
}

// NewLimitsWatcher creates a watcher for the config file at path.
func NewLimitsWatcher(path string, limits *LiveLimits, logger ports.Logger) *LimitsWatcher {
	return &LimitsWatcher{
		path:          path,
		limits:        limits,
		logger:        logger,
		debounceDelay: 100 * time.Millisecond,
	}
}

// Start begins watching. Editors replace files rather than write in place,
// so the watch is on the directory and events are filtered by name.
func (w *LimitsWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.loop(watchCtx, watcher)
	return nil
}

// Stop ends the watch and waits for the loop to exit. After Stop returns
// no reload will run: a pending debounce timer is stopped, and a timer
// that already fired blocks on the mutex and then sees the stopped flag.
func (w *LimitsWatcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()

	w.mu.Lock()
	w.stopped = true
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.mu.Unlock()
}

func (w *LimitsWatcher) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer w.wg.Done()
	defer watcher.Close()

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounceReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watch error", ports.Err(err))
		}
	}
}

// debounceReload coalesces the burst of events an editor save produces
// into a single reload.
func (w *LimitsWatcher) debounceReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.debounceDelay, w.reload)
}

// reload runs on the debounce timer's goroutine; the mutex serializes it
// against Stop so limits never change after Stop returns.
func (w *LimitsWatcher) reload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	fc, err := cliconfig.LoadFileConfig(w.path)
	if err != nil {
		// A half-written or deleted file keeps the previous limits.
		w.logger.Warn("config reload failed; keeping current limits",
			ports.String("path", w.path), ports.Err(err))
		return
	}

	w.limits.Update(fc.IterationBudget, fc.ConvergenceThreshold)
	w.logger.Info("limits reloaded",
		ports.Int("budget", w.limits.Budget()),
		ports.Float64("threshold", w.limits.Threshold()))
}
