package datasets

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// GetByID returns a dataset by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (ReferenceDataset, error) {
	const query = `
SELECT id, name, version, description, storage_uri, is_active, created_at, updated_at
FROM reference_datasets
WHERE id = $1
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

// FindActiveByNameVersion returns the active dataset with the given unique
// (name, version) pair.
func (r *PGRepo) FindActiveByNameVersion(ctx context.Context, name, version string) (ReferenceDataset, error) {
	const query = `
SELECT id, name, version, description, storage_uri, is_active, created_at, updated_at
FROM reference_datasets
WHERE name = $1 AND version = $2 AND is_active = true
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, name, version))
}

func (r *PGRepo) scanOne(row *sql.Row) (ReferenceDataset, error) {
	var ds ReferenceDataset
	var description sql.NullString
	err := row.Scan(
		&ds.ID,
		&ds.Name,
		&ds.Version,
		&description,
		&ds.StorageURI,
		&ds.IsActive,
		&ds.CreatedAt,
		&ds.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ReferenceDataset{}, ErrNotFound
		}
		return ReferenceDataset{}, err
	}
	if description.Valid {
		ds.Description = &description.String
	}
	return ds, nil
}
