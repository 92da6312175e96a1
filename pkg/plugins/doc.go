// Package plugins knows which optional plugins the native engine can be built
// with and which of them were actually compiled into the loaded artifact.
//
// A Catalog holds static plugin metadata and curated profiles. A Registry
// probes each plugin's test symbols against the current native.Handle and
// refuses capability calls for plugins that are missing, explaining how to
// rebuild and which available plugins could be used instead.
//
//	registry := plugins.NewRegistry(plugins.DefaultCatalog(), loader)
//	if err := registry.Require("radiation", "run a radiation simulation"); err != nil {
//		return err
//	}
package plugins
