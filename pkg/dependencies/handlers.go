package dependencies

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/capgate/pkg/httputil"
	"github.com/platinummonkey/capgate/pkg/native"
)

// DependencyHandlers provides HTTP handlers for plugin resolution
type DependencyHandlers struct {
	resolver *Resolver
}

// NewDependencyHandlers creates new dependency handlers
func NewDependencyHandlers(resolver *Resolver) *DependencyHandlers {
	return &DependencyHandlers{
		resolver: resolver,
	}
}

// RegisterRoutes registers dependency routes
func (h *DependencyHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/resolve", h.resolve).Methods("GET")
	router.HandleFunc("/validate", h.validate).Methods("GET")
	router.HandleFunc("/plugins/{name}/dependencies", h.getDependencies).Methods("GET")
	router.HandleFunc("/plugins/{name}/dependencies/transitive", h.getTransitiveDependencies).Methods("GET")
	router.HandleFunc("/plugins/{name}/dependents", h.getDependents).Methods("GET")
	router.HandleFunc("/plugins/{name}/impact", h.getImpact).Methods("GET")

	// Cytoscape.js graph endpoints
	vizHandlers := NewGraphVisualizationHandlers(h.resolver)
	vizHandlers.RegisterRoutes(router)
}

// resolve handles GET /resolve?plugins=a,b&exclude=c&platform=linux
func (h *DependencyHandlers) resolve(w http.ResponseWriter, r *http.Request) {
	var opts []ResolveOption
	if exclude := httputil.ParseQueryList(r, "exclude"); len(exclude) > 0 {
		opts = append(opts, WithExclusions(exclude...))
	}
	if raw := r.URL.Query().Get("platform"); raw != "" {
		p, ok := native.ParsePlatform(raw)
		if !ok {
			httputil.WriteBadRequest(w, r, "unknown platform: "+raw)
			return
		}
		opts = append(opts, WithPlatform(p))
	}

	result := h.resolver.Resolve(r.Context(), httputil.ParseQueryList(r, "plugins"), opts...)

	status := http.StatusOK
	if !result.OK() {
		status = http.StatusUnprocessableEntity
	}

	httputil.WriteJSON(w, status, result)
}

// validate handles GET /validate?plugins=a,b
func (h *DependencyHandlers) validate(w http.ResponseWriter, r *http.Request) {
	report := h.resolver.ValidateConfiguration(httputil.ParseQueryList(r, "plugins"))

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":     report.OK(),
		"report": report,
	})
}

// getDependencies handles GET /plugins/{name}/dependencies
func (h *DependencyHandlers) getDependencies(w http.ResponseWriter, r *http.Request) {
	name, ok := h.pluginVar(w, r)
	if !ok {
		return
	}

	deps := h.resolver.Graph().GetDependencies(name)

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"plugin":       name,
		"dependencies": deps,
		"count":        len(deps),
	})
}

// getTransitiveDependencies handles GET /plugins/{name}/dependencies/transitive
func (h *DependencyHandlers) getTransitiveDependencies(w http.ResponseWriter, r *http.Request) {
	name, ok := h.pluginVar(w, r)
	if !ok {
		return
	}

	deps := h.resolver.Graph().GetTransitiveDependencies(name)

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"plugin":       name,
		"dependencies": deps,
		"count":        len(deps),
	})
}

// getDependents handles GET /plugins/{name}/dependents
func (h *DependencyHandlers) getDependents(w http.ResponseWriter, r *http.Request) {
	name, ok := h.pluginVar(w, r)
	if !ok {
		return
	}

	dependents := h.resolver.Graph().GetDependents(name)

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"plugin":     name,
		"dependents": dependents,
		"count":      len(dependents),
	})
}

// getImpact handles GET /plugins/{name}/impact
func (h *DependencyHandlers) getImpact(w http.ResponseWriter, r *http.Request) {
	name, ok := h.pluginVar(w, r)
	if !ok {
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.resolver.Graph().GetImpactAnalysis(name))
}

func (h *DependencyHandlers) pluginVar(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := httputil.PathString(r, "name")
	if !h.resolver.Catalog().Has(name) {
		httputil.WriteNotFoundError(w, r, "unknown plugin: "+name)
		return "", false
	}
	return name, true
}
