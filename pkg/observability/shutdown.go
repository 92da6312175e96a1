package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultShutdownTimeout bounds a graceful shutdown
const DefaultShutdownTimeout = 10 * time.Second

// ShutdownFunc is a function to call during shutdown
type ShutdownFunc func(context.Context) error

// ShutdownManager stops an HTTP server and runs cleanup hooks once the
// serving context ends
type ShutdownManager struct {
	log           *logrus.Logger
	server        *http.Server
	timeout       time.Duration
	mu            sync.Mutex
	shutdownFuncs []ShutdownFunc
}

// NewShutdownManager creates a new shutdown manager
func NewShutdownManager(log *logrus.Logger, server *http.Server, timeout time.Duration) *ShutdownManager {
	if log == nil {
		log = logrus.New()
	}
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	return &ShutdownManager{
		log:     log,
		server:  server,
		timeout: timeout,
	}
}

// RegisterShutdownFunc registers a function to call after the server stops
func (sm *ShutdownManager) RegisterShutdownFunc(fn ShutdownFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.shutdownFuncs = append(sm.shutdownFuncs, fn)
}

// Serve runs the server until ctx is done, then shuts it down. It returns
// the listener error if the server fails to start.
func (sm *ShutdownManager) Serve(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		defer RecoverPanic(sm.log, "http server")
		sm.log.WithField("addr", sm.server.Addr).Info("Starting diagnostics server")
		if err := sm.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok && err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return sm.Shutdown()
}

// Shutdown stops the server and runs every registered function in order
func (sm *ShutdownManager) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
	defer cancel()

	sm.log.Info("Starting graceful shutdown")

	var errs []error
	if sm.server != nil {
		if err := sm.server.Shutdown(ctx); err != nil {
			sm.log.WithError(err).Error("HTTP server shutdown error")
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	sm.mu.Lock()
	funcs := append([]ShutdownFunc(nil), sm.shutdownFuncs...)
	sm.mu.Unlock()

	for i, fn := range funcs {
		if err := fn(ctx); err != nil {
			sm.log.WithError(err).Errorf("Shutdown function %d failed", i)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	sm.log.Info("Graceful shutdown complete")
	return nil
}
