package platform

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	q := "UPDATE catalog_versions SET active = ? WHERE version = ?"
	assert.Equal(t, "UPDATE catalog_versions SET active = $1 WHERE version = $2", Postgres.Rebind(q))
	assert.Equal(t, q, SQLite.Rebind(q))
}

func TestOpen_Unsupported(t *testing.T) {
	_, _, err := Open(context.Background(), "mysql://localhost/crops")
	assert.ErrorContains(t, err, "unsupported database url")
}

func TestAutoMigrate_SQLite(t *testing.T) {
	ctx := context.Background()
	db, dialect, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	defer db.Close()
	require.Equal(t, SQLite, dialect)

	require.NoError(t, AutoMigrate(db, dialect))
	// A second run is a no-op.
	require.NoError(t, AutoMigrate(db, dialect))

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM catalog_versions").Scan(&n))
	assert.Zero(t, n)
}
