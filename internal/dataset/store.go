package dataset

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"superstore-dashboard/internal/config"
)

// LoadObserver is notified after every load attempt.
type LoadObserver interface {
	ObserveLoad(rows, dropped int, duration time.Duration, err error)
}

// Store holds the dataset loaded from one CSV path. The cached entry lives
// until Invalidate is called; failed loads are never cached.
type Store struct {
	path        string
	encoding    string
	loadTimeout time.Duration
	logger      *slog.Logger
	observer    LoadObserver

	mu         sync.RWMutex
	current    *Dataset
	generation uint64
	group      singleflight.Group
}

func NewStore(cfg config.DatasetConfig, logger *slog.Logger, observer LoadObserver) *Store {
	timeout := cfg.LoadTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Store{
		path:        cfg.CSVFile,
		encoding:    cfg.Encoding,
		loadTimeout: timeout,
		logger:      logger.With("component", "dataset"),
		observer:    observer,
	}
}

func (s *Store) Path() string { return s.path }

// Get returns the cached dataset, loading it first if needed. Concurrent
// callers share a single load.
func (s *Store) Get(ctx context.Context) (*Dataset, error) {
	s.mu.RLock()
	d, gen := s.current, s.generation
	s.mu.RUnlock()
	if d != nil {
		return d, nil
	}

	v, err, _ := s.group.Do(s.path+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		// a waiter's cancellation must not abort the load shared by others
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()
		return s.load(loadCtx, gen)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dataset), nil
}

func (s *Store) load(ctx context.Context, gen uint64) (*Dataset, error) {
	start := time.Now()
	s.logger.Info("loading dataset", "path", s.path, "encoding", s.encoding)

	d, err := LoadFile(ctx, s.path, s.encoding)
	duration := time.Since(start)
	if err != nil {
		s.logger.Error("dataset load failed", "path", s.path, "error", err, "duration", duration)
		if s.observer != nil {
			s.observer.ObserveLoad(0, 0, duration, err)
		}
		return nil, err
	}

	s.mu.Lock()
	// an Invalidate during the load makes this result stale; hand it to the
	// caller but leave the cache empty so the next Get reloads
	if s.generation == gen {
		s.current = d
	}
	s.mu.Unlock()

	s.logger.Info("dataset loaded",
		"path", s.path,
		"rows", d.Len(),
		"dropped", d.Dropped,
		"columns", len(d.Columns()),
		"duration", duration,
	)
	if s.observer != nil {
		s.observer.ObserveLoad(d.Len(), d.Dropped, duration, nil)
	}
	return d, nil
}

// Peek returns the cached dataset without loading. It is nil when the
// cache is empty.
func (s *Store) Peek() *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Invalidate drops the cached dataset; the next Get reloads from disk.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.current = nil
	s.generation++
	s.mu.Unlock()
	s.logger.Info("dataset cache invalidated", "path", s.path)
}

// Reload invalidates the cache and loads the file again.
func (s *Store) Reload(ctx context.Context) (*Dataset, error) {
	s.Invalidate()
	return s.Get(ctx)
}
