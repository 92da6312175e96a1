package plugins

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CatalogFileName is looked up by LoadCatalogFromDir
const CatalogFileName = "catalog.yaml"

// catalogFile is the persisted shape of a catalog
type catalogFile struct {
	Plugins  []Metadata `yaml:"plugins"`
	Profiles []Profile  `yaml:"profiles,omitempty"`
}

// LoadCatalog loads and validates a catalog from a YAML file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	catalog, err := NewCatalog(file.Plugins, file.Profiles)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return catalog, nil
}

// LoadCatalogFromDir loads a catalog from a directory (looks for catalog.yaml)
func LoadCatalogFromDir(dir string) (*Catalog, error) {
	return LoadCatalog(filepath.Join(dir, CatalogFileName))
}

// SaveCatalog writes a catalog to a YAML file
func SaveCatalog(catalog *Catalog, path string) error {
	data, err := yaml.Marshal(catalogFile{
		Plugins:  catalog.Plugins(),
		Profiles: catalog.Profiles(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}

	return nil
}
