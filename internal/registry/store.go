// Package registry publishes, versions and serves crop catalogs. Catalog
// documents live in blob storage; a SQL index tracks versions and which one
// is active.
package registry

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/cropscope/cropscope/pkg/config"
)

// ErrNotFound is returned when a catalog version does not exist.
var ErrNotFound = eris.New("catalog not found")

// CatalogStore abstracts blob storage for catalog documents.
type CatalogStore interface {
	PutCatalog(ctx context.Context, version string, data []byte) error
	GetCatalog(ctx context.Context, version string) ([]byte, error)
	// Ref returns the location a version is stored at, for the index.
	Ref(version string) string
}

// NewStore builds the catalog store selected by cfg.Driver.
func NewStore(ctx context.Context, cfg config.StorageConfig) (CatalogStore, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.Dir), nil
	case "s3":
		return NewS3Store(ctx, S3Config{
			Bucket:   cfg.Bucket,
			Prefix:   cfg.Prefix,
			Region:   cfg.Region,
			Endpoint: cfg.Endpoint,
		})
	case "gcs":
		return NewGCSStore(ctx, cfg.Bucket, cfg.Prefix)
	default:
		return nil, eris.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func objectKey(prefix, version string) string {
	if prefix == "" {
		return version + ".json"
	}
	return prefix + "/" + version + ".json"
}

// LocalStore implements CatalogStore using the local filesystem.
// Useful for development and testing.
type LocalStore struct {
	BaseDir string
}

// NewLocalStore creates a LocalStore rooted at the given directory.
func NewLocalStore(baseDir string) *LocalStore {
	return &LocalStore{BaseDir: baseDir}
}

func (s *LocalStore) path(version string) string {
	return filepath.Join(s.BaseDir, "catalogs", version+".json")
}

// Ref returns the file path of a version.
func (s *LocalStore) Ref(version string) string {
	return "file://" + s.path(version)
}

// PutCatalog stores a catalog document.
func (s *LocalStore) PutCatalog(ctx context.Context, version string, data []byte) error {
	path := s.path(version)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "create directory")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "write catalog %s", version)
	}
	return nil
}

// GetCatalog retrieves a catalog document.
func (s *LocalStore) GetCatalog(ctx context.Context, version string) ([]byte, error) {
	data, err := os.ReadFile(s.path(version))
	if os.IsNotExist(err) {
		return nil, eris.Wrapf(ErrNotFound, "version %s", version)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read catalog %s", version)
	}
	return data, nil
}
