// Package observability provides logging, Prometheus metrics and health reporting for capgate.
//
// # Overview
//
// Every component takes a *logrus.Logger and an optional *Metrics. Nothing here
// is global: callers create one registry and pass it down.
//
// # Logging
//
//	logger := observability.NewLogger("debug", os.Stderr)
//	logger.WithField("platform", "linux").Info("native library loaded")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.PluginAvailable.WithLabelValues("radiation").Set(1)
//	http.Handle("/metrics", observability.MetricsHandler(registry))
//
// # Health Checks
//
// The health checker reports "degraded" when the native library is a stand-in
// and "unhealthy" only when acquiring a handle failed outright (strict mode).
//
//	checker := observability.NewHealthChecker(libraryFn, registry, version)
//	status := checker.Check()
//
// # Serving
//
// ShutdownManager runs the diagnostics server until its context ends and then
// stops it gracefully. RecoverMiddleware keeps a panicking handler from taking
// the process down.
//
//	sm := observability.NewShutdownManager(logger, server, 0)
//	err := sm.Serve(ctx)
//
// # Related Packages
//
//   - pkg/native: reports load attempts and stand-in state
//   - pkg/plugins: reports plugin availability
//   - pkg/dependencies: reports resolution outcomes
package observability
