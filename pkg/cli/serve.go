package cli

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/platinummonkey/capgate/pkg/config"
	"github.com/platinummonkey/capgate/pkg/dependencies"
	"github.com/platinummonkey/capgate/pkg/engine"
	"github.com/platinummonkey/capgate/pkg/httputil"
	"github.com/platinummonkey/capgate/pkg/observability"
	"github.com/platinummonkey/capgate/pkg/plugins"
)

// ServeFlags holds flags for the serve command
type ServeFlags struct {
	Addr            string
	Watch           bool
	ShutdownTimeout time.Duration
}

func newServeCommand(a *app) *cobra.Command {
	flags := &ServeFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve plugin diagnostics over HTTP",
		Long: `Serve plugin availability, profiles, resolution and dependency graphs
over HTTP, together with health checks and Prometheus metrics.

Routes:
  GET /plugins, /plugins/{name}, /plugins/{name}/require
  GET /profiles, /profiles/{name}
  GET /resolve, /validate, /graph
  GET /plugins/{name}/dependencies, /plugins/{name}/dependents, /plugins/{name}/impact
  GET /config
  GET /health, /health/live, /health/ready, /metrics`,
		Example: `  capgate serve --addr :9090
  capgate serve --watch --config /etc/capgate/capgate.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a, flags, cmd.Root().Version)
		},
	}

	cmd.Flags().StringVar(&flags.Addr, "addr", ":9090", "Listen address")
	cmd.Flags().BoolVar(&flags.Watch, "watch", true, "Re-resolve when the configuration file changes")
	cmd.Flags().DurationVar(&flags.ShutdownTimeout, "shutdown-timeout", observability.DefaultShutdownTimeout, "Graceful shutdown timeout")

	return cmd
}

// configState holds the latest resolved configuration served at /config
type configState struct {
	mu       sync.RWMutex
	path     string
	resolved *config.ResolvedConfiguration
	err      error
}

func (s *configState) set(resolved *config.ResolvedConfiguration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// keep serving the last good configuration
		s.err = err
		return
	}
	s.resolved = resolved
	s.err = nil
}

func (s *configState) get() (*config.ResolvedConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolved, s.err
}

func (s *configState) serveHTTP(w http.ResponseWriter, r *http.Request) {
	resolved, err := s.get()
	body := map[string]interface{}{"path": s.path}
	if resolved != nil {
		body["configuration"] = resolved
	}
	if err != nil {
		body["error"] = err.Error()
	}

	status := http.StatusOK
	if resolved == nil {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, body)
}

// newRouter wires every diagnostics route for an engine
func newRouter(a *app, e *engine.Engine, state *configState, version string) *mux.Router {
	router := mux.NewRouter()
	router.Use(mux.MiddlewareFunc(httputil.Chain(
		observability.RecoverMiddleware(a.log),
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(a.log),
	)))

	plugins.NewHandlers(e.Registry()).RegisterRoutes(router)
	dependencies.NewDependencyHandlers(e.Resolver()).RegisterRoutes(router)
	observability.RegisterHealthRoutes(router, e.Health(version))
	router.HandleFunc("/config", state.serveHTTP).Methods("GET")
	if a.registry != nil {
		router.Handle("/metrics", observability.MetricsHandler(a.registry)).Methods("GET")
	}

	return router
}

// loadState resolves the configuration file into state
func loadState(ctx context.Context, a *app, e *engine.Engine, state *configState) {
	resolved, err := e.Config().LoadAndResolve(ctx, state.path)
	if err != nil {
		a.log.WithError(err).Warn("Configuration not resolved")
	}
	state.set(resolved, err)
}

func runServe(ctx context.Context, a *app, flags *ServeFlags, version string) error {
	e, err := a.Engine()
	if err != nil {
		return err
	}

	state := &configState{path: a.flags.ConfigPath}
	loadState(ctx, a, e, state)

	server := &http.Server{
		Addr:              flags.Addr,
		Handler:           newRouter(a, e, state, version),
		ReadHeaderTimeout: 10 * time.Second,
	}
	sm := observability.NewShutdownManager(a.log, server, flags.ShutdownTimeout)

	if flags.Watch {
		watchCtx, cancel := context.WithCancel(ctx)
		sm.RegisterShutdownFunc(func(context.Context) error {
			cancel()
			return nil
		})
		go watchConfig(watchCtx, a, e, state)
	}

	a.log.WithFields(logrus.Fields{
		"addr":     flags.Addr,
		"platform": e.Platform(),
		"config":   state.path,
	}).Info("Serving plugin diagnostics")

	return sm.Serve(ctx)
}

func watchConfig(ctx context.Context, a *app, e *engine.Engine, state *configState) {
	defer observability.RecoverPanic(a.log, "config watcher")

	w := config.NewWatcher(state.path,
		config.WithWatchDebounce(a.settings.WatchDebounce),
		config.WithWatchLogger(a.log),
		config.WithWatchMetrics(a.metrics),
	)
	err := w.Run(ctx, func(_ *config.Document, err error) {
		if err != nil {
			state.set(nil, err)
			return
		}
		loadState(ctx, a, e, state)
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		a.log.WithError(err).Warn("Configuration watcher stopped")
	}
}
