package config

import (
	"os"
	"strings"
	"time"
)

// Environment variables read by capgate
const (
	EnvPluginProfile  = "CAPGATE_PLUGIN_PROFILE"
	EnvPlugins        = "CAPGATE_PLUGINS"
	EnvExcludePlugins = "CAPGATE_EXCLUDE_PLUGINS"
	EnvBuildType      = "CAPGATE_BUILD_TYPE"
	EnvLogLevel       = "CAPGATE_LOG_LEVEL"
	EnvLibraryDir     = "CAPGATE_LIBRARY_DIR"
	EnvLibraryName    = "CAPGATE_LIBRARY_NAME"
	EnvStrictPlatform = "CAPGATE_STRICT_PLATFORM"
	EnvConfig         = "CAPGATE_CONFIG"
	EnvWatchDebounce  = "CAPGATE_WATCH_DEBOUNCE"
)

// DefaultConfigFile is used when CAPGATE_CONFIG is unset
const DefaultConfigFile = "capgate.yaml"

// EnvSettings holds loader and process settings that only come from the environment
type EnvSettings struct {
	LibraryDir     string
	LibraryName    string
	StrictPlatform bool
	ConfigPath     string
	LogLevel       string
	WatchDebounce  time.Duration
}

// LoadEnvSettings loads process settings from environment variables
func LoadEnvSettings() EnvSettings {
	return EnvSettings{
		LibraryDir:     getEnv(EnvLibraryDir, ""),
		LibraryName:    getEnv(EnvLibraryName, ""),
		StrictPlatform: getEnvBool(EnvStrictPlatform, false),
		ConfigPath:     getEnv(EnvConfig, DefaultConfigFile),
		LogLevel:       getEnv(EnvLogLevel, ""),
		WatchDebounce:  getEnvDuration(EnvWatchDebounce, 200*time.Millisecond),
	}
}

// ApplyEnv returns a copy of doc with environment overrides applied.
// CAPGATE_PLUGINS switches the selection to explicit mode.
func ApplyEnv(doc *Document) *Document {
	out := doc.Clone()
	sel := &out.PluginSelection

	if profile := getEnv(EnvPluginProfile, ""); profile != "" {
		sel.Mode = ModeProfile
		sel.Profile = profile
	}
	if list := getEnvList(EnvPlugins); len(list) > 0 {
		sel.Mode = ModeExplicit
		sel.ExplicitPlugins = list
	}
	if list := getEnvList(EnvExcludePlugins); len(list) > 0 {
		sel.ExcludedPlugins = list
	}
	if buildType := getEnv(EnvBuildType, ""); buildType != "" {
		out.Build.BuildType = buildType
	}
	if level := getEnv(EnvLogLevel, ""); level != "" {
		out.Logging.Level = strings.ToLower(level)
	}

	out.applyDefaults()
	return out
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma separated environment variable as a list
func getEnvList(key string) []string {
	return normalizeList(strings.Split(os.Getenv(key), ","))
}
