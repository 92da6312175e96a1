package observability

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// LibraryInfo is the view of a native library handle the health checker needs
type LibraryInfo interface {
	IsStandIn() bool
	Path() string
	LoadErr() error
}

// CapabilitySource reports which plugins the loaded library provides
type CapabilitySource interface {
	Available() []string
	Unavailable() []string
}

// HealthChecker provides health check functionality
type HealthChecker struct {
	library      func() (LibraryInfo, error)
	capabilities CapabilitySource
	version      string
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(library func() (LibraryInfo, error), capabilities CapabilitySource, version string) *HealthChecker {
	return &HealthChecker{
		library:      library,
		capabilities: capabilities,
		version:      version,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Version      string                      `json:"version,omitempty"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus represents the health of a single dependency
type DependencyStatus struct {
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Latency   time.Duration `json:"latency_ms,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Liveness returns a simple liveness probe (always returns 200 if server is running)
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    StatusHealthy,
		"timestamp": time.Now(),
	})
}

// Readiness returns a readiness probe (checks the native library and plugins)
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	status := h.Check()

	w.Header().Set("Content-Type", "application/json")

	// A stand-in is degraded, not down: the process stays usable for diagnostics
	if status.Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(status)
}

// Check performs a comprehensive health check
func (h *HealthChecker) Check() HealthStatus {
	status := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    time.Now(),
		Version:      h.version,
		Dependencies: make(map[string]DependencyStatus),
	}

	if h.library != nil {
		libStatus := h.checkLibrary()
		status.Dependencies["native_library"] = libStatus
		status.Status = worse(status.Status, libStatus.Status)
	}

	if h.capabilities != nil {
		capStatus := h.checkCapabilities()
		status.Dependencies["plugins"] = capStatus
		status.Status = worse(status.Status, capStatus.Status)
	}

	return status
}

// checkLibrary checks whether a real native library is loaded
func (h *HealthChecker) checkLibrary() DependencyStatus {
	start := time.Now()
	status := DependencyStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
	}

	info, err := h.library()
	status.Latency = time.Since(start)

	if err != nil {
		status.Status = StatusUnhealthy
		status.Message = err.Error()
		return status
	}

	if info.IsStandIn() {
		status.Status = StatusDegraded
		status.Message = "native library not loaded, using stand-in"
		if loadErr := info.LoadErr(); loadErr != nil {
			status.Message += ": " + loadErr.Error()
		}
		return status
	}

	status.Message = info.Path()
	return status
}

// checkCapabilities reports plugin availability
func (h *HealthChecker) checkCapabilities() DependencyStatus {
	status := DependencyStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
	}

	available := h.capabilities.Available()
	unavailable := h.capabilities.Unavailable()

	if len(available) == 0 {
		status.Status = StatusDegraded
		status.Message = "no plugins available"
		return status
	}

	if len(unavailable) > 0 {
		status.Message = formatCounts(len(available), len(unavailable))
	}

	return status
}

func formatCounts(available, unavailable int) string {
	return fmt.Sprintf("%d available, %d unavailable", available, unavailable)
}

// worse returns the more severe of two statuses
func worse(a, b string) string {
	rank := map[string]int{StatusHealthy: 0, StatusDegraded: 1, StatusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// RegisterHealthRoutes registers health check endpoints
func RegisterHealthRoutes(router *mux.Router, checker *HealthChecker) {
	router.HandleFunc("/health", checker.Readiness).Methods("GET")
	router.HandleFunc("/health/live", checker.Liveness).Methods("GET")
	router.HandleFunc("/health/ready", checker.Readiness).Methods("GET")
}
