package datasets

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no dataset matches the lookup.
var ErrNotFound = errors.New("reference dataset not found")

// Repo defines read operations for reference datasets. Datasets are never
// created through this interface; (name, version) resolution must be
// deterministic.
type Repo interface {
	GetByID(ctx context.Context, id string) (ReferenceDataset, error)
	FindActiveByNameVersion(ctx context.Context, name, version string) (ReferenceDataset, error)
}
