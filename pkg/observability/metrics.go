package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Native library metrics
	LoadAttemptsTotal *prometheus.CounterVec
	StandInActive     prometheus.Gauge
	SymbolLookups     *prometheus.CounterVec

	// Capability metrics
	PluginAvailable        *prometheus.GaugeVec
	RequireFailuresTotal   *prometheus.CounterVec
	ProbeDuration          prometheus.Histogram
	GuardRedirectionsTotal prometheus.Counter

	// Resolution metrics
	ResolutionsTotal   *prometheus.CounterVec
	DroppedPluginTotal *prometheus.CounterVec
	ConfigReloadsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		LoadAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capgate_native_load_attempts_total",
				Help: "Total number of native library candidate load attempts",
			},
			[]string{"platform", "result"},
		),
		StandInActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "capgate_native_stand_in",
				Help: "1 when the active library handle is a stand-in, 0 otherwise",
			},
		),
		SymbolLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capgate_native_symbol_lookups_total",
				Help: "Total number of native symbol lookups",
			},
			[]string{"result"},
		),

		PluginAvailable: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "capgate_plugin_available",
				Help: "1 when the plugin was compiled into the loaded native library",
			},
			[]string{"plugin"},
		),
		RequireFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capgate_plugin_require_failures_total",
				Help: "Total number of refused capability calls",
			},
			[]string{"plugin"},
		),
		ProbeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "capgate_plugin_probe_duration_seconds",
				Help:    "Time spent probing plugin test symbols",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
			},
		),
		GuardRedirectionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "capgate_guard_directory_redirections_total",
				Help: "Total number of scoped working-directory redirections",
			},
		),

		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capgate_resolutions_total",
				Help: "Total number of plugin set resolutions",
			},
			[]string{"status"},
		),
		DroppedPluginTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capgate_resolution_dropped_plugins_total",
				Help: "Total number of plugins dropped during resolution",
			},
			[]string{"reason"},
		),
		ConfigReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capgate_config_reloads_total",
				Help: "Total number of configuration reloads triggered by file changes",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		m.LoadAttemptsTotal,
		m.StandInActive,
		m.SymbolLookups,
		m.PluginAvailable,
		m.RequireFailuresTotal,
		m.ProbeDuration,
		m.GuardRedirectionsTotal,
		m.ResolutionsTotal,
		m.DroppedPluginTotal,
		m.ConfigReloadsTotal,
	)

	return m
}

// MetricsHandler returns the /metrics handler for a registry
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
