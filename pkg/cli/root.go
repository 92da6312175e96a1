package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/platinummonkey/capgate/pkg/config"
	"github.com/platinummonkey/capgate/pkg/engine"
	"github.com/platinummonkey/capgate/pkg/native"
	"github.com/platinummonkey/capgate/pkg/observability"
)

// GlobalFlags holds flags shared by every command
type GlobalFlags struct {
	ConfigPath string
	LibraryDir string
	Platform   string
	LogLevel   string
	JSON       bool
}

// app carries what the commands share: flags, output and the lazily built engine
type app struct {
	flags    GlobalFlags
	settings config.EnvSettings
	out      io.Writer
	log      *logrus.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics
	engine   *engine.Engine

	// newEngine builds the engine; tests replace it
	newEngine func(a *app) (*engine.Engine, error)
}

// NewRootCommand creates the capgate command tree
func NewRootCommand(version, commit, date string) *cobra.Command {
	return newRootCommand(&app{newEngine: buildEngine}, version, commit, date)
}

func newRootCommand(a *app, version, commit, date string) *cobra.Command {
	a.settings = config.LoadEnvSettings()

	rootCmd := &cobra.Command{
		Use:   "capgate",
		Short: "Inspect and gate the plugins of the native engine",
		Long: `capgate loads the native engine for this platform, reports which plugins
were compiled into it and resolves plugin selections against platform,
GPU and dependency constraints.

Without a native library every command still works: capgate falls back
to a stand-in and reports every plugin as unavailable.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()

			level := a.flags.LogLevel
			if level == "" {
				level = a.settings.LogLevel
			}
			if level == "" {
				level = "warn"
			}
			if !observability.ValidLogLevel(level) {
				return fmt.Errorf("invalid log level %q", level)
			}
			if a.log == nil {
				a.log = observability.NewLogger(level, cmd.ErrOrStderr())
			}

			if a.flags.Platform != "" {
				if _, ok := native.ParsePlatform(a.flags.Platform); !ok {
					return fmt.Errorf("unknown platform %q (must be one of %v)", a.flags.Platform, native.SupportedPlatforms())
				}
			}
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.flags.ConfigPath, "config", "c", a.settings.ConfigPath, "Configuration file")
	pf.StringVar(&a.flags.LibraryDir, "library-dir", a.settings.LibraryDir, "Directory holding the native library")
	pf.StringVar(&a.flags.Platform, "platform", "", "Target platform (linux, macos, windows); defaults to the host")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.BoolVar(&a.flags.JSON, "json", false, "Write JSON instead of text")

	rootCmd.AddCommand(newStatusCommand(a))
	rootCmd.AddCommand(newProfilesCommand(a))
	rootCmd.AddCommand(newResolveCommand(a))
	rootCmd.AddCommand(newValidateCommand(a))
	rootCmd.AddCommand(newGraphCommand(a))
	rootCmd.AddCommand(newConfigCommand(a))
	rootCmd.AddCommand(newServeCommand(a))

	return rootCmd
}

// Engine returns the engine, building it on first use
func (a *app) Engine() (*engine.Engine, error) {
	if a.engine != nil {
		return a.engine, nil
	}
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
		a.metrics = observability.NewMetrics(a.registry)
	}

	e, err := a.newEngine(a)
	if err != nil {
		return nil, err
	}
	a.engine = e
	return e, nil
}

// buildEngine creates an engine from the environment and the global flags
func buildEngine(a *app) (*engine.Engine, error) {
	settings := a.settings
	settings.LibraryDir = a.flags.LibraryDir

	opts := engine.Options{Logger: a.log, Metrics: a.metrics}
	if p, ok := native.ParsePlatform(a.flags.Platform); ok {
		opts.Loader.Platform = p
	}

	e, err := engine.FromEnv(settings, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}
	return e, nil
}

// writeJSON writes v as indented JSON
func (a *app) writeJSON(v interface{}) error {
	return jsonEncoder(a.out).Encode(v)
}

func jsonEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}
