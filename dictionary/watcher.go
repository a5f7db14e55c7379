package dictionary

import (
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/mava/digestif/internal/logging"
)

// debounceWindow bounds how often a single module name may be
// invalidated; editors and sync tools commonly emit several Write
// events for one logical save.
const debounceWindow = 200 * time.Millisecond

// Watcher watches a Loader's external module directory for changes
// and invalidates the affected module's cache entry so the next
// LoadModule re-reads it from disk. Grounded in the teacher's
// am.ConfigWatcher (_examples/teranos-QNTX/am/watcher.go); per-module
// debouncing uses golang.org/x/time/rate the way the teacher's own
// ats/watcher/engine.go rate-limits its own filesystem events.
type Watcher struct {
	loader  *Loader
	watcher *fsnotify.Watcher
	done    chan struct{}

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewWatcher starts watching loader's external directory. Returns
// (nil, nil) if the loader has no external directory configured.
func NewWatcher(loader *Loader) (*Watcher, error) {
	dir := loader.resolvedExtDir()
	if dir == "" {
		return nil, nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{loader: loader, watcher: fw, done: make(chan struct{}), limiters: make(map[string]*rate.Limiter)}
	go w.run()
	return w, nil
}

// allow reports whether name may be invalidated now, debouncing a
// burst of events for the same module down to one per debounceWindow.
func (w *Watcher) allow(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	lim, ok := w.limiters[name]
	if !ok {
		lim = rate.NewLimiter(rate.Every(debounceWindow), 1)
		w.limiters[name] = lim
	}
	return lim.Allow()
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}
			name := strings.TrimSuffix(baseName(event.Name), ".toml")
			if name == "" || !w.allow(name) {
				continue
			}
			logging.Infow("dictionary module changed on disk, invalidating cache", "module", name)
			w.loader.Invalidate(name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Warnw("dictionary watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func baseName(path string) string {
	idx := strings.LastIndexAny(path, "/\\")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}
