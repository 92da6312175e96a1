package plugins

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *mux.Router {
	registry, _ := newTestRegistry(tableHandle("createWeberPennTree", "createSolarPosition"))
	router := mux.NewRouter()
	NewHandlers(registry).RegisterRoutes(router)
	return router
}

func doGet(t *testing.T, router *mux.Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlers_ListPlugins(t *testing.T) {
	w := doGet(t, newTestRouter(), "/plugins")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		StandIn   bool         `json:"stand_in"`
		Available int          `json:"available"`
		Count     int          `json:"count"`
		Plugins   []Capability `json:"plugins"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.False(t, body.StandIn)
	assert.Equal(t, 2, body.Available)
	assert.Equal(t, 17, body.Count)
	assert.Len(t, body.Plugins, 17)
}

func TestHandlers_GetPlugin(t *testing.T) {
	router := newTestRouter()

	w := doGet(t, router, "/plugins/solarposition")
	require.Equal(t, http.StatusOK, w.Code)
	var capability Capability
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &capability))
	assert.True(t, capability.Available)

	w = doGet(t, router, "/plugins/ghost")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlers_RequirePlugin(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		path   string
		status int
	}{
		{"/plugins/solarposition/require", http.StatusOK},
		{"/plugins/radiation/require?action=trace+rays", http.StatusConflict},
		{"/plugins/ghost/require", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := doGet(t, router, tt.path)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w := doGet(t, router, "/plugins/radiation/require?action=trace+rays")
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "cannot trace rays")
	assert.Contains(t, body["remediation"], "build-engine --plugins radiation")
}

func TestHandlers_Profiles(t *testing.T) {
	router := newTestRouter()

	w := doGet(t, router, "/profiles?platform=macos")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 4, list.Count)

	w = doGet(t, router, "/profiles/minimal?platform=linux")
	require.Equal(t, http.StatusOK, w.Code)
	var profile Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, []string{"weberpenntree", "solarposition"}, profile.Plugins)

	assert.Equal(t, http.StatusNotFound, doGet(t, router, "/profiles/nope").Code)
	assert.Equal(t, http.StatusBadRequest, doGet(t, router, "/profiles?platform=beos").Code)
}
