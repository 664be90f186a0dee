package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Watcher reloads the store when the CSV's modification time moves.
type Watcher struct {
	store  *Store
	logger *slog.Logger

	mu       sync.Mutex
	lastSeen time.Time
}

func NewWatcher(store *Store, logger *slog.Logger) *Watcher {
	return &Watcher{
		store:  store,
		logger: logger.With("component", "dataset-watcher"),
	}
}

// Schedule registers the check on c. An empty schedule registers nothing.
func (w *Watcher) Schedule(c *cron.Cron, spec string) error {
	if spec == "" {
		w.logger.Info("dataset watcher disabled")
		return nil
	}
	if _, err := c.AddFunc(spec, func() {
		if _, err := w.Check(context.Background()); err != nil {
			w.logger.Warn("dataset check failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule dataset watcher %q: %w", spec, err)
	}
	w.logger.Info("dataset watcher scheduled", "schedule", spec, "path", w.store.Path())
	return nil
}

// Check compares the file's modification time with the cached dataset and
// reloads when they differ. A file that already failed to load is not
// retried until it changes again. It reports whether a reload happened.
func (w *Watcher) Check(ctx context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := os.Stat(w.store.Path())
	if err != nil {
		return false, fmt.Errorf("stat dataset: %w", err)
	}

	if cached := w.store.Peek(); cached != nil {
		w.lastSeen = cached.ModTime
	}
	if w.lastSeen.Equal(info.ModTime()) {
		return false, nil
	}
	w.lastSeen = info.ModTime()

	w.logger.Info("dataset changed on disk", "path", w.store.Path(), "mod_time", info.ModTime())
	if _, err := w.store.Reload(ctx); err != nil {
		return true, err
	}
	return true, nil
}
