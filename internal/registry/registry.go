package registry

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"regexp"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cropscope/cropscope/internal/platform"
	"github.com/cropscope/cropscope/pkg/farm"
)

// ErrVersionExists is returned when publishing a version that is already
// in the index. Published catalogs are immutable.
var ErrVersionExists = eris.New("catalog version already published")

var versionPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// ValidVersion reports whether v can name a published catalog. Versions
// appear in storage keys, so they are limited to a safe alphabet.
func ValidVersion(v string) bool {
	return versionPattern.MatchString(v)
}

// Version is one published catalog as recorded in the index.
type Version struct {
	Version     string    `json:"version"`
	StorageRef  string    `json:"storage_ref"`
	Checksum    string    `json:"checksum"`
	CropCount   int       `json:"crop_count"`
	RegionCount int       `json:"region_count"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Registry provides catalog publication backed by a SQL index and a blob
// store.
type Registry struct {
	db      *sql.DB
	dialect platform.Dialect
	store   CatalogStore
	now     func() time.Time
}

// New creates a Registry. The database must already be migrated.
func New(db *sql.DB, dialect platform.Dialect, store CatalogStore) *Registry {
	return &Registry{
		db:      db,
		dialect: dialect,
		store:   store,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

const versionColumns = `version, storage_ref, checksum, crop_count, region_count, active, created_at`

func scanVersion(row interface{ Scan(...any) error }, v *Version) error {
	return row.Scan(&v.Version, &v.StorageRef, &v.Checksum, &v.CropCount, &v.RegionCount, &v.Active, &v.CreatedAt)
}

// Publish validates a catalog, records it in the index and writes it to the
// store. The index row is inserted first so the primary key decides between
// concurrent publishes of one version; only the winner writes the document.
// The new version is not activated.
func (r *Registry) Publish(ctx context.Context, cat *farm.Catalog) (*Version, error) {
	if !ValidVersion(cat.Version) {
		return nil, eris.Errorf("invalid catalog version %q", cat.Version)
	}
	if err := cat.Validate(); err != nil {
		return nil, eris.Wrapf(err, "catalog %s", cat.Version)
	}

	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "marshal catalog")
	}
	sum := sha256.Sum256(data)

	v := &Version{
		Version:     cat.Version,
		StorageRef:  r.store.Ref(cat.Version),
		Checksum:    hex.EncodeToString(sum[:]),
		CropCount:   len(cat.Crops),
		RegionCount: len(cat.Regions),
		CreatedAt:   r.now(),
	}

	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(
		`INSERT INTO catalog_versions (`+versionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (version) DO NOTHING`),
		v.Version, v.StorageRef, v.Checksum, v.CropCount, v.RegionCount, false, v.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "insert catalog version %s", v.Version)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, eris.Wrap(err, "insert rows affected")
	} else if n == 0 {
		return nil, eris.Wrapf(ErrVersionExists, "version %s", v.Version)
	}

	if err := r.store.PutCatalog(ctx, v.Version, data); err != nil {
		r.unpublish(context.WithoutCancel(ctx), v.Version)
		return nil, err
	}

	zap.L().Info("published catalog",
		zap.String("version", v.Version),
		zap.String("ref", v.StorageRef),
		zap.Int("crops", v.CropCount),
	)
	return v, nil
}

// unpublish drops the index row of a version whose document never made it
// to the store, so the version can be published again.
func (r *Registry) unpublish(ctx context.Context, version string) {
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(
		`DELETE FROM catalog_versions WHERE version = ? AND NOT active`), version); err != nil {
		zap.L().Error("failed to remove unpublished catalog version",
			zap.String("version", version),
			zap.Error(err),
		)
	}
}

func (r *Registry) lookup(ctx context.Context, version string) (*Version, error) {
	var v Version
	err := scanVersion(r.db.QueryRowContext(ctx, r.dialect.Rebind(
		`SELECT `+versionColumns+` FROM catalog_versions WHERE version = ?`), version), &v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "version %s", version)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "get catalog version %s", version)
	}
	return &v, nil
}

// Version returns the index record of one version.
func (r *Registry) Version(ctx context.Context, version string) (*Version, error) {
	return r.lookup(ctx, version)
}

// List returns all versions, newest first.
func (r *Registry) List(ctx context.Context) ([]Version, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+versionColumns+` FROM catalog_versions ORDER BY created_at DESC, version DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "list catalog versions")
	}
	defer rows.Close()

	versions := []Version{}
	for rows.Next() {
		var v Version
		if err := scanVersion(rows, &v); err != nil {
			return nil, eris.Wrap(err, "scan catalog version")
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Catalog loads and verifies a published catalog.
func (r *Registry) Catalog(ctx context.Context, version string) (*farm.Catalog, error) {
	v, err := r.lookup(ctx, version)
	if err != nil {
		return nil, err
	}
	data, err := r.store.GetCatalog(ctx, version)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	if got := hex.EncodeToString(sum[:]); got != v.Checksum {
		return nil, eris.Errorf("catalog %s checksum mismatch: index %s, store %s", version, v.Checksum, got)
	}
	return farm.DecodeCatalog(data)
}

// Activate makes version the catalog served by default. Exactly one
// version is active afterwards.
func (r *Registry) Activate(ctx context.Context, version string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "begin activate")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(
		`UPDATE catalog_versions SET active = ? WHERE active`), false); err != nil {
		return eris.Wrap(err, "deactivate catalogs")
	}
	res, err := tx.ExecContext(ctx, r.dialect.Rebind(
		`UPDATE catalog_versions SET active = ? WHERE version = ?`), true, version)
	if err != nil {
		return eris.Wrapf(err, "activate catalog %s", version)
	}
	if n, err := res.RowsAffected(); err != nil {
		return eris.Wrap(err, "activate rows affected")
	} else if n == 0 {
		return eris.Wrapf(ErrNotFound, "version %s", version)
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "commit activate")
	}
	zap.L().Info("activated catalog", zap.String("version", version))
	return nil
}

// Active returns the active version, or ErrNotFound if none is active.
func (r *Registry) Active(ctx context.Context) (*Version, error) {
	var v Version
	err := scanVersion(r.db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM catalog_versions WHERE active`), &v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrap(ErrNotFound, "no active catalog")
	}
	if err != nil {
		return nil, eris.Wrap(err, "get active catalog")
	}
	return &v, nil
}
