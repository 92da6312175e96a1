package observability

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLibrary struct {
	standIn bool
	path    string
	loadErr error
}

func (f fakeLibrary) IsStandIn() bool { return f.standIn }
func (f fakeLibrary) Path() string    { return f.path }
func (f fakeLibrary) LoadErr() error  { return f.loadErr }

type fakeCapabilities struct {
	available   []string
	unavailable []string
}

func (f fakeCapabilities) Available() []string   { return f.available }
func (f fakeCapabilities) Unavailable() []string { return f.unavailable }

func libraryOf(info LibraryInfo, err error) func() (LibraryInfo, error) {
	return func() (LibraryInfo, error) { return info, err }
}

func TestHealthChecker_Check(t *testing.T) {
	tests := []struct {
		name         string
		library      func() (LibraryInfo, error)
		capabilities CapabilitySource
		want         string
		wantLibMsg   string
	}{
		{
			name:         "loaded with plugins",
			library:      libraryOf(fakeLibrary{path: "/opt/helios/libhelios.so"}, nil),
			capabilities: fakeCapabilities{available: []string{"visualizer"}, unavailable: []string{"radiation"}},
			want:         StatusHealthy,
			wantLibMsg:   "/opt/helios/libhelios.so",
		},
		{
			name:         "stand-in is degraded",
			library:      libraryOf(fakeLibrary{standIn: true, loadErr: errors.New("no native library found")}, nil),
			capabilities: fakeCapabilities{unavailable: []string{"radiation"}},
			want:         StatusDegraded,
			wantLibMsg:   "native library not loaded, using stand-in: no native library found",
		},
		{
			name:       "load error is unhealthy",
			library:    libraryOf(nil, errors.New("unsupported platform")),
			want:       StatusUnhealthy,
			wantLibMsg: "unsupported platform",
		},
		{
			name: "nothing configured",
			want: StatusHealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewHealthChecker(tt.library, tt.capabilities, "1.0.0")

			status := checker.Check()

			assert.Equal(t, tt.want, status.Status)
			assert.Equal(t, "1.0.0", status.Version)
			if tt.library != nil {
				assert.Equal(t, tt.wantLibMsg, status.Dependencies["native_library"].Message)
			}
		})
	}
}

func TestHealthChecker_CapabilityCounts(t *testing.T) {
	checker := NewHealthChecker(nil, fakeCapabilities{
		available:   []string{"visualizer", "lidar"},
		unavailable: []string{"radiation"},
	}, "")

	status := checker.Check()

	assert.Equal(t, "2 available, 1 unavailable", status.Dependencies["plugins"].Message)
}

func TestRegisterHealthRoutes(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		library  func() (LibraryInfo, error)
		wantCode int
	}{
		{name: "liveness", path: "/health/live", library: libraryOf(nil, errors.New("boom")), wantCode: http.StatusOK},
		{name: "readiness unhealthy", path: "/health/ready", library: libraryOf(nil, errors.New("boom")), wantCode: http.StatusServiceUnavailable},
		{name: "stand-in stays ready", path: "/health", library: libraryOf(fakeLibrary{standIn: true}, nil), wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := mux.NewRouter()
			RegisterHealthRoutes(router, NewHealthChecker(tt.library, nil, "test"))

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["status"])
		})
	}
}
