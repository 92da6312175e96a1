// Package cli provides the capgate command-line interface.
//
// # Commands
//
// status: Show the loaded native library and which plugins it provides
//
//	capgate status --library-dir /opt/helios/lib
//
// profiles: List plugin profiles and their fit for the platform
//
//	capgate profiles --platform macos
//
// resolve: Resolve explicit plugins, a profile or the configuration file
//
//	capgate resolve radiation visualizer
//	capgate resolve --profile research --exclude lidar
//
// validate: Audit a plugin list, or validate the configuration file
//
//	capgate validate aeriallidar lidar
//	capgate validate --config capgate.yaml
//
// graph: Show plugin dependencies
//
//	capgate graph syntheticannotation --direction both
//
// config: Write or show the configuration file
//
//	capgate config init --profile gpu-accelerated
//	capgate config show
//
// serve: Serve diagnostics, health checks and metrics over HTTP
//
//	capgate serve --addr :9090
//
// # Global Flags
//
//	--config       Configuration file (CAPGATE_CONFIG, default capgate.yaml)
//	--library-dir  Directory holding the native library (CAPGATE_LIBRARY_DIR)
//	--platform     Target platform; defaults to the host
//	--log-level    Log level (CAPGATE_LOG_LEVEL)
//	--json         Write JSON instead of text
package cli
