package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/capgate/pkg/observability"
)

// Watcher reloads a configuration file whenever it changes on disk
type Watcher struct {
	path     string
	debounce time.Duration
	log      *logrus.Logger
	metrics  *observability.Metrics
}

// WatcherOption configures a Watcher
type WatcherOption func(*Watcher)

// WithWatchDebounce coalesces bursts of events (editors often write twice)
func WithWatchDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithWatchLogger sets the watcher logger
func WithWatchLogger(log *logrus.Logger) WatcherOption {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// WithWatchMetrics records reload outcomes
func WithWatchMetrics(metrics *observability.Metrics) WatcherOption {
	return func(w *Watcher) {
		w.metrics = metrics
	}
}

// NewWatcher creates a watcher for one configuration file
func NewWatcher(path string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		debounce: 200 * time.Millisecond,
		log:      logrus.New(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run calls fn with the reloaded document, or the load error, after each
// change. It watches the parent directory so atomic replaces are seen, and
// returns when ctx is done.
func (w *Watcher) Run(ctx context.Context, fn func(*Document, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.log.WithField("path", w.path).Info("Watching configuration file")

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			w.log.WithFields(logrus.Fields{"path": event.Name, "op": event.Op.String()}).Debug("Configuration file changed")

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload(fn)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("Configuration watcher error")
		}
	}
}

func (w *Watcher) reload(fn func(*Document, error)) {
	doc, err := Load(w.path)

	status := "success"
	if err != nil {
		status = "error"
		w.log.WithError(err).Warn("Failed to reload configuration")
	} else {
		w.log.WithField("path", w.path).Info("Reloaded configuration")
	}
	if w.metrics != nil {
		w.metrics.ConfigReloadsTotal.WithLabelValues(status).Inc()
	}

	fn(doc, err)
}
