package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/capgate/pkg/observability"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0644))

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	w := NewWatcher(path,
		WithWatchDebounce(20*time.Millisecond),
		WithWatchLogger(observability.DiscardLogger()),
		WithWatchMetrics(metrics),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Document, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(doc *Document, err error) {
			if err == nil {
				reloaded <- doc
			}
		})
	}()

	// other files in the directory are ignored
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0644)
		_ = os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0644)
		select {
		case doc := <-reloaded:
			return doc.Logging.Level == "debug"
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.ConfigReloadsTotal.WithLabelValues("success")), 1.0)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_ReportsLoadErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capgate.yaml")

	w := NewWatcher(path,
		WithWatchDebounce(10*time.Millisecond),
		WithWatchLogger(observability.DiscardLogger()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	failures := make(chan error, 4)
	go func() {
		_ = w.Run(ctx, func(doc *Document, err error) {
			if err != nil {
				failures <- err
			}
		})
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("plugin_selection: [broken"), 0644)
		select {
		case err := <-failures:
			var cfgErr *ConfigurationError
			return errors.As(err, &cfgErr)
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "absent", "capgate.yaml"),
		WithWatchLogger(observability.DiscardLogger()))

	err := w.Run(context.Background(), func(*Document, error) {})

	assert.Error(t, err)
}
