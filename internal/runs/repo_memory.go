package runs

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"isotope-backend/internal/datasets"
	"isotope-backend/internal/shared/util"
)

// MemoryRepo stores runs in memory and is safe for concurrent use. It is
// the dev and test stand-in for PGRepo and enforces the same transition
// rules, including the terminal-state guard.
type MemoryRepo struct {
	mu       sync.RWMutex
	byID     map[string]AnalysisRun
	datasets *datasets.MemoryRepo
}

// NewMemoryRepo constructs a MemoryRepo backed by the given dataset repo.
func NewMemoryRepo(ds *datasets.MemoryRepo) *MemoryRepo {
	return &MemoryRepo{
		byID:     make(map[string]AnalysisRun),
		datasets: ds,
	}
}

// Create stores a queued run after resolving its reference dataset.
func (r *MemoryRepo) Create(ctx context.Context, params CreateParams) (AnalysisRun, error) {
	if err := ctx.Err(); err != nil {
		return AnalysisRun{}, err
	}
	ds, err := r.datasets.GetByID(ctx, params.ReferenceDatasetID)
	if err != nil {
		return AnalysisRun{}, err
	}
	now := time.Now().UTC()
	run := AnalysisRun{
		ID:                 params.ID,
		Status:             StatusQueued,
		ReferenceDatasetID: params.ReferenceDatasetID,
		ReferenceDataset:   ds,
		InputJSON:          append(json.RawMessage(nil), params.InputJSON...),
		AlgorithmVersion:   params.AlgorithmVersion,
		ModelVersion:       params.ModelVersion,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[run.ID] = run
	return run, nil
}

// GetByID returns a run by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (AnalysisRun, error) {
	if err := ctx.Err(); err != nil {
		return AnalysisRun{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.byID[id]
	if !ok {
		return AnalysisRun{}, ErrNotFound
	}
	return run, nil
}

// List returns the newest runs first, capped at limit.
func (r *MemoryRepo) List(ctx context.Context, limit int) ([]AnalysisRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	runs := make([]AnalysisRun, 0, len(r.byID))
	for _, run := range r.byID {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// UpdateStatusResultAndError applies a worker-side transition with the same
// latching semantics as the Postgres repo.
func (r *MemoryRepo) UpdateStatusResultAndError(ctx context.Context, id, status string, result json.RawMessage, errorMessage *string, startedAt, finishedAt *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !IsKnownStatus(status) {
		return fmt.Errorf("unknown run status %q", status)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if IsTerminalStatus(run.Status) {
		return ErrTerminalState
	}
	run.Status = status
	if result != nil {
		run.ResultJSON = append(json.RawMessage(nil), result...)
	}
	if errorMessage != nil {
		clean := util.SanitizeErrorMessage(*errorMessage)
		run.ErrorMessage = &clean
	}
	if startedAt != nil {
		run.StartedAt = startedAt
	} else if status == StatusRunning && run.StartedAt == nil {
		now := time.Now().UTC()
		run.StartedAt = &now
	}
	if finishedAt != nil {
		run.FinishedAt = finishedAt
	} else if IsTerminalStatus(status) && run.FinishedAt == nil {
		now := time.Now().UTC()
		run.FinishedAt = &now
	}
	run.UpdatedAt = time.Now().UTC()
	r.byID[id] = run
	return nil
}
