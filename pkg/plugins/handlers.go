package plugins

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/capgate/pkg/httputil"
	"github.com/platinummonkey/capgate/pkg/native"
)

// Handlers exposes registry diagnostics over HTTP
type Handlers struct {
	registry *Registry
}

// NewHandlers creates new plugin handlers
func NewHandlers(registry *Registry) *Handlers {
	return &Handlers{registry: registry}
}

// RegisterRoutes registers plugin routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/plugins", h.listPlugins).Methods("GET")
	router.HandleFunc("/plugins/{name}", h.getPlugin).Methods("GET")
	router.HandleFunc("/plugins/{name}/require", h.requirePlugin).Methods("GET")
	router.HandleFunc("/profiles", h.listProfiles).Methods("GET")
	router.HandleFunc("/profiles/{name}", h.getProfile).Methods("GET")
}

// listPlugins handles GET /plugins
func (h *Handlers) listPlugins(w http.ResponseWriter, r *http.Request) {
	snap := h.registry.Snapshot()
	capabilities := h.registry.Capabilities()

	available := 0
	for _, c := range capabilities {
		if c.Available {
			available++
		}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"handle_id": snap.HandleID,
		"stand_in":  snap.StandIn,
		"platform":  snap.Platform,
		"plugins":   capabilities,
		"available": available,
		"count":     len(capabilities),
	})
}

// getPlugin handles GET /plugins/{name}
func (h *Handlers) getPlugin(w http.ResponseWriter, r *http.Request) {
	name := httputil.PathString(r, "name")

	for _, c := range h.registry.Capabilities() {
		if c.Name == name {
			httputil.WriteJSON(w, http.StatusOK, c)
			return
		}
	}

	httputil.WriteNotFoundError(w, r, "unknown plugin: "+name)
}

// requirePlugin handles GET /plugins/{name}/require?action=...
func (h *Handlers) requirePlugin(w http.ResponseWriter, r *http.Request) {
	name := httputil.PathString(r, "name")
	action := httputil.ParseQueryString(r, "action", "use "+name)

	err := h.registry.Require(name, action)
	switch {
	case err == nil:
		httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"plugin":    name,
			"available": true,
		})
	case errors.Is(err, ErrUnknownPlugin):
		httputil.WriteError(w, r, http.StatusNotFound, err)
	default:
		var notAvailable *PluginNotAvailableError
		body := map[string]interface{}{
			"plugin":    name,
			"available": false,
			"error":     err.Error(),
		}
		if errors.As(err, &notAvailable) {
			body["remediation"] = notAvailable.Remediation
			body["alternatives"] = notAvailable.Alternatives
		}
		httputil.WriteJSON(w, http.StatusConflict, body)
	}
}

// listProfiles handles GET /profiles?platform=...
func (h *Handlers) listProfiles(w http.ResponseWriter, r *http.Request) {
	catalog := h.registry.Catalog()
	profiles := catalog.Profiles()

	if raw := r.URL.Query().Get("platform"); raw != "" {
		p, ok := native.ParsePlatform(raw)
		if !ok {
			httputil.WriteBadRequest(w, r, "unknown platform: "+raw)
			return
		}
		profiles = catalog.ProfilesForPlatform(p)
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"profiles": profiles,
		"count":    len(profiles),
	})
}

// getProfile handles GET /profiles/{name}?platform=...
func (h *Handlers) getProfile(w http.ResponseWriter, r *http.Request) {
	catalog := h.registry.Catalog()

	profile, err := catalog.Profile(httputil.PathString(r, "name"))
	if err != nil {
		httputil.WriteError(w, r, http.StatusNotFound, err)
		return
	}

	if raw := r.URL.Query().Get("platform"); raw != "" {
		p, ok := native.ParsePlatform(raw)
		if !ok {
			httputil.WriteBadRequest(w, r, "unknown platform: "+raw)
			return
		}
		profile.Plugins = catalog.FilterProfileByPlatform(profile, p)
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}
