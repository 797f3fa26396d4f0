package config

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"arbiter/internal/logging"
)

// Watcher reloads the configuration file when it changes on disk and hands
// the fresh Config to a callback. Rapid successive saves are debounced.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	path        string
	onReload    func(*Config)
	debounceDur time.Duration
	pendingAt   time.Time
	pending     bool
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewWatcher creates a watcher for the given config path. onReload is called
// with each successfully reloaded Config.
func NewWatcher(path string, onReload func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     fw,
		path:        path,
		onReload:    onReload,
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.path); err != nil {
		// The file may not exist yet; watch attempts continue on events.
		logging.Get(logging.CategoryBoot).Warn("ConfigWatcher: initial watch failed: %v", err)
	} else {
		logging.Boot("ConfigWatcher: watching %s", w.path)
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryBoot).Error("ConfigWatcher: close: %v", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = true
			w.pendingAt = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryBoot).Error("ConfigWatcher: %v", err)

		case <-ticker.C:
			w.mu.Lock()
			due := w.pending && time.Since(w.pendingAt) >= w.debounceDur
			if due {
				w.pending = false
			}
			w.mu.Unlock()
			if due {
				w.reload()
			}
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		logging.Get(logging.CategoryBoot).Warn("ConfigWatcher: reload failed, keeping previous config: %v", err)
		return
	}
	logging.Boot("ConfigWatcher: reloaded %s", w.path)
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
