package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fsnotify/fsnotify"

	"github.com/mattsolo1/grove-gallery/pkg/characters"
	"github.com/mattsolo1/grove-gallery/pkg/logging"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a settings file when it changes on disk.
type Watcher struct {
	store    *Store
	logger   logging.Logger
	clock    clock.Clock
	debounce time.Duration

	mu      sync.Mutex
	pending *clock.Timer
}

// NewWatcher creates a watcher over store.
func NewWatcher(store *Store, logger logging.Logger) *Watcher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Watcher{
		store:    store,
		logger:   logger,
		clock:    clock.New(),
		debounce: DefaultDebounce,
	}
}

// Run watches until ctx is cancelled, calling onChange with every roster that
// loads and validates. Broken edits are logged and ignored.
func (w *Watcher) Run(ctx context.Context, onChange func([]characters.Character)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	defer fw.Close()

	// Editors often replace the file, so the directory is watched.
	dir := filepath.Dir(w.store.Path())
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	defer w.stop()

	target := filepath.Clean(w.store.Path())
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule(ctx, onChange)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Settings watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule(ctx context.Context, onChange func([]characters.Character)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = w.clock.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		settings, err := w.store.Load()
		if err != nil {
			w.logger.Warn("Ignoring unreadable settings change", "path", w.store.Path(), "error", err)
			return
		}
		w.logger.Info("Settings reloaded", "characters", len(settings.ActiveCharacters),
			"enabled", len(characters.Enabled(settings.ActiveCharacters)))
		onChange(settings.ActiveCharacters)
	})
}

func (w *Watcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
}
