package plugins

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", CatalogFileName)

	require.NoError(t, SaveCatalog(DefaultCatalog(), path))

	loaded, err := LoadCatalogFromDir(filepath.Dir(path))
	require.NoError(t, err)

	assert.Equal(t, DefaultCatalog().Plugins(), loaded.Plugins())
	assert.Equal(t, DefaultCatalog().Profiles(), loaded.Profiles())
}

func TestLoadCatalog_Minimal(t *testing.T) {
	path := filepath.Join(t.TempDir(), CatalogFileName)
	content := `
plugins:
  - name: solarposition
    description: Solar position
    platforms: [linux, macos]
    test_symbols: [createSolarPosition]
profiles:
  - name: tiny
    plugins: [solarposition]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"solarposition"}, catalog.Names())
	profile, err := catalog.Profile("tiny")
	require.NoError(t, err)
	assert.Equal(t, []string{"solarposition"}, profile.Plugins)
}

func TestLoadCatalog_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read catalog")

	malformed := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(malformed, []byte("plugins: [unclosed"), 0644))
	_, err = LoadCatalog(malformed)
	assert.ErrorContains(t, err, "failed to parse catalog")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("plugins:\n  - name: a\n"), 0644))
	_, err = LoadCatalog(invalid)
	assert.ErrorContains(t, err, "invalid catalog")
}
