package registry

import (
	"context"
	"errors"
	"io"

	gcs "cloud.google.com/go/storage"
	"github.com/rotisserie/eris"
)

// GCSStore implements CatalogStore using Google Cloud Storage.
type GCSStore struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCSStore creates a GCS-backed CatalogStore.
// It uses Application Default Credentials (works with Workload Identity, SA keys, gcloud auth).
func NewGCSStore(ctx context.Context, bucket, prefix string) (*GCSStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "create gcs client")
	}
	return &GCSStore{client: client, bucket: bucket, prefix: prefix}, nil
}

// Ref returns the gs:// URL of a version.
func (s *GCSStore) Ref(version string) string {
	return "gs://" + s.bucket + "/" + objectKey(s.prefix, version)
}

func (s *GCSStore) PutCatalog(ctx context.Context, version string, data []byte) error {
	key := objectKey(s.prefix, version)
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return eris.Wrapf(err, "gcs write %s", key)
	}
	if err := w.Close(); err != nil {
		return eris.Wrapf(err, "gcs close %s", key)
	}
	return nil
}

func (s *GCSStore) GetCatalog(ctx context.Context, version string) ([]byte, error) {
	key := objectKey(s.prefix, version)
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, eris.Wrapf(ErrNotFound, "version %s", version)
		}
		return nil, eris.Wrapf(err, "gcs read %s", key)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrapf(err, "gcs read %s", key)
	}
	return data, nil
}
