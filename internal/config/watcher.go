package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the config file and reloads it when it changes on disk.
type Watcher struct {
	manager      *Manager
	watcher      *fsnotify.Watcher
	onReload     func(*Config)
	debounceTime time.Duration
	mu           sync.Mutex
	dirty        bool
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewWatcher creates a watcher for the manager's config file.
func NewWatcher(manager *Manager) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		manager:      manager,
		watcher:      fsw,
		debounceTime: 500 * time.Millisecond,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// OnReload sets the callback invoked with the freshly loaded configuration.
func (w *Watcher) OnReload(callback func(*Config)) {
	w.onReload = callback
}

// Start begins watching the config directory. The directory must exist,
// so callers typically Save a config before starting the watcher.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.manager.configDir); err != nil {
		return fmt.Errorf("failed to watch config dir: %w", err)
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()

	return nil
}

// Stop stops the watcher and waits for its goroutines to exit.
func (w *Watcher) Stop() error {
	w.cancel()
	w.wg.Wait()
	return w.watcher.Close()
}

// eventLoop marks the config dirty on writes to config.json.
func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != "config.json" {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.mu.Lock()
				w.dirty = true
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("config watcher error: %v", err)
		}
	}
}

// debounceLoop reloads at most once per debounce interval.
func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounceTime)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			w.reloadIfDirty()
		}
	}
}

func (w *Watcher) reloadIfDirty() {
	w.mu.Lock()
	wasDirty := w.dirty
	w.dirty = false
	w.mu.Unlock()

	if !wasDirty {
		return
	}

	cfg, err := w.manager.Load()
	if err != nil {
		log.Printf("config reload failed: %v", err)
		return
	}
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
