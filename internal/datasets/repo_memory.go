package datasets

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo stores reference datasets in memory and is safe for concurrent
// use. Intended for tests and DB-less local runs.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]ReferenceDataset
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]ReferenceDataset)}
}

// Seed inserts a dataset, assigning an ID when absent, and returns it.
func (r *MemoryRepo) Seed(ds ReferenceDataset) ReferenceDataset {
	if ds.ID == "" {
		ds.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = now
	}
	if ds.UpdatedAt.IsZero() {
		ds.UpdatedAt = now
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[ds.ID] = ds
	return ds
}

// GetByID returns a dataset by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (ReferenceDataset, error) {
	if err := ctx.Err(); err != nil {
		return ReferenceDataset{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ds, ok := r.byID[id]
	if !ok {
		return ReferenceDataset{}, ErrNotFound
	}
	return ds, nil
}

// FindActiveByNameVersion returns the active dataset with the given pair.
func (r *MemoryRepo) FindActiveByNameVersion(ctx context.Context, name, version string) (ReferenceDataset, error) {
	if err := ctx.Err(); err != nil {
		return ReferenceDataset{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ds := range r.byID {
		if ds.Name == name && ds.Version == version && ds.IsActive {
			return ds, nil
		}
	}
	return ReferenceDataset{}, ErrNotFound
}
