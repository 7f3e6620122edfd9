// Package localfs watches the local database directory so edits to a
// database file are picked up without a restart.
package localfs

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/turtacn/phreeqprep/internal/domain/phreeqc"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

// InvalidateFunc is called once per changed database after the debounce
// window closes.
type InvalidateFunc func(ctx context.Context, name string)

// WatcherStats counts handled events.
type WatcherStats struct {
	Events        int
	Invalidations int
	Errors        int
	LastDatabase  string
	LastEventTime time.Time
}

// Watcher invalidates cached databases when their files change.
type Watcher struct {
	dir      string
	debounce time.Duration
	handlers []InvalidateFunc
	logger   logging.Logger

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	pending map[string]time.Time
	stats   WatcherStats
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher returns a watcher over dir.  A zero debounce means 250ms.
func NewWatcher(dir string, debounce time.Duration, logger logging.Logger, handlers ...InvalidateFunc) (*Watcher, error) {
	if dir == "" {
		return nil, errors.InvalidParam("watch directory is required")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to create file watcher")
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		handlers: handlers,
		logger:   logging.OrDefault(logger).Named("watcher"),
		watcher:  fw,
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// RegistryInvalidator adapts Registry.Invalidate to an InvalidateFunc.
func RegistryInvalidator(r *phreeqc.Registry) InvalidateFunc {
	return func(_ context.Context, name string) { r.Invalidate(name) }
}

// Start begins watching.  It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if err := w.watcher.Add(w.dir); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to watch directory").WithDetail(w.dir)
	}
	w.running = true
	w.logger.Info("watching database directory", logging.String("dir", w.dir))
	go w.run(ctx)
	return nil
}

// Stop ends the watch loop and releases the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	return w.watcher.Close()
}

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := time.NewTicker(w.debounce / 2)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
			w.logger.Warn("file watcher error", logging.Err(err))
		case now := <-tick.C:
			w.flush(ctx, now)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !strings.EqualFold(filepath.Ext(ev.Name), phreeqc.DatabaseExt) {
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	name := phreeqc.DatabaseName(ev.Name)

	w.mu.Lock()
	w.pending[name] = time.Now()
	w.stats.Events++
	w.stats.LastDatabase = name
	w.stats.LastEventTime = time.Now()
	w.mu.Unlock()
	w.logger.Debug("database file changed", logging.Database(name), logging.String("op", ev.Op.String()))
}

func (w *Watcher) flush(ctx context.Context, now time.Time) {
	w.mu.Lock()
	var ready []string
	for name, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, name)
			delete(w.pending, name)
		}
	}
	w.stats.Invalidations += len(ready)
	w.mu.Unlock()

	for _, name := range ready {
		w.logger.Info("invalidating database", logging.Database(name))
		for _, h := range w.handlers {
			h(ctx, name)
		}
	}
}

//Personal.AI order the ending
