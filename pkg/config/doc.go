// Package config loads, validates and resolves the capgate configuration.
//
// # Document
//
// The configuration is a YAML document, by default capgate.yaml. Every
// field is optional and a missing file is the same as an empty one:
//
//	plugin_selection:
//	  mode: profile            # profile or explicit
//	  profile: standard-cpu
//	  explicit_plugins: []     # used in explicit mode
//	  excluded_plugins: []     # removed after everything else
//	  platform_overrides:
//	    linux:
//	      include: [radiation]
//	      exclude: []
//	build:
//	  build_type: Release      # Debug, Release, RelWithDebInfo, MinSizeRel
//	  verbose: false
//	logging:
//	  level: info
//
// # Environment
//
// Selection overrides, applied on top of the document by ApplyEnv:
//
//	CAPGATE_PLUGIN_PROFILE="gpu-accelerated"
//	CAPGATE_PLUGINS="radiation,visualizer"   # switches to explicit mode
//	CAPGATE_EXCLUDE_PLUGINS="lidar"
//	CAPGATE_BUILD_TYPE="Debug"
//	CAPGATE_LOG_LEVEL="debug"
//
// Process settings, read by LoadEnvSettings:
//
//	CAPGATE_CONFIG="capgate.yaml"
//	CAPGATE_LIBRARY_DIR="/opt/helios/lib"
//	CAPGATE_LIBRARY_NAME="helios"
//	CAPGATE_STRICT_PLATFORM="false"
//	CAPGATE_WATCH_DEBOUNCE="200ms"
//
// # Resolution
//
// A Manager turns a document into a plugin request (the profile list, filtered
// to the current platform, or the explicit list), applies the platform override
// for the current platform, and hands the request to the dependency resolver
// with the exclusions. Validate reports every problem in a document at once
// instead of stopping at the first.
//
// # Reloading
//
// Watcher re-reads the file whenever it changes on disk:
//
//	w := config.NewWatcher(path, config.WithWatchDebounce(settings.WatchDebounce))
//	err := w.Run(ctx, func(doc *config.Document, err error) {
//		// apply doc
//	})
package config
