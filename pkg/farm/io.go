package farm

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.yaml
var defaultCatalogYAML []byte

// DefaultCatalog decodes the bundled catalog. Each call returns a fresh
// value, so callers may hold it without sharing state.
func DefaultCatalog() (*Catalog, error) {
	cat, err := DecodeCatalog(defaultCatalogYAML)
	if err != nil {
		return nil, eris.Wrap(err, "decoding bundled catalog")
	}
	return cat, nil
}

// DecodeCatalog parses a catalog from JSON or YAML.
func DecodeCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := decode(data, &cat); err != nil {
		return nil, eris.Wrap(err, "unmarshaling catalog")
	}
	return &cat, nil
}

// LoadCatalog reads a catalog file from disk.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "reading catalog")
	}
	return DecodeCatalog(data)
}

// SaveCatalog writes a catalog to disk as indented JSON.
func SaveCatalog(path string, cat *Catalog) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "creating directory for catalog")
	}

	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshaling catalog")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "writing catalog")
	}

	return nil
}

// DecodeContext parses a farm context from JSON or YAML.
func DecodeContext(data []byte) (*FarmContext, error) {
	var fc FarmContext
	if err := decode(data, &fc); err != nil {
		return nil, eris.Wrap(err, "unmarshaling farm context")
	}
	return &fc, nil
}

// LoadContext reads a farm context file from disk.
func LoadContext(path string) (*FarmContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "reading farm context")
	}
	return DecodeContext(data)
}

// decode treats input starting with '{' as JSON and everything else as YAML.
func decode(data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return json.Unmarshal(trimmed, v)
	}
	return yaml.Unmarshal(data, v)
}
