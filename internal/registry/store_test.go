package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"

	"github.com/cropscope/cropscope/pkg/config"
)

func TestLocalStorePutGet(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir)
	ctx := context.Background()

	data := []byte(`{"version":"2024.1"}`)
	if err := s.PutCatalog(ctx, "2024.1", data); err != nil {
		t.Fatalf("PutCatalog: %v", err)
	}

	got, err := s.GetCatalog(ctx, "2024.1")
	if err != nil {
		t.Fatalf("GetCatalog: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("GetCatalog = %q, want %q", got, data)
	}

	// Verify file path layout
	expectedPath := filepath.Join(dir, "catalogs", "2024.1.json")
	if _, err := os.Stat(expectedPath); err != nil {
		t.Errorf("expected file at %s: %v", expectedPath, err)
	}
}

func TestLocalStoreGetNotFound(t *testing.T) {
	s := NewLocalStore(t.TempDir())

	_, err := s.GetCatalog(context.Background(), "nonexistent")
	if !eris.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestObjectKey(t *testing.T) {
	if got := objectKey("", "2024.1"); got != "2024.1.json" {
		t.Errorf("objectKey without prefix = %q", got)
	}
	if got := objectKey("catalogs", "2024.1"); got != "catalogs/2024.1.json" {
		t.Errorf("objectKey with prefix = %q", got)
	}
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(context.Background(), config.StorageConfig{Driver: "local", Dir: "/tmp/crops"})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, ok := s.(*LocalStore); !ok {
		t.Errorf("expected *LocalStore, got %T", s)
	}

	if _, err := NewStore(context.Background(), config.StorageConfig{Driver: "ftp"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}
