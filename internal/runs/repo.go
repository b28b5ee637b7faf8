package runs

import (
	"context"
	"encoding/json"
	"time"
)

// CreateParams is everything a caller supplies at creation time. Status is
// not part of it: new runs are always queued.
type CreateParams struct {
	ID                 string
	ReferenceDatasetID string
	InputJSON          json.RawMessage
	AlgorithmVersion   *string
	ModelVersion       *string
}

// Repo defines persistence operations for analysis runs. Reads always
// include the bound reference dataset so no caller performs a second fetch.
// UpdateStatusResultAndError is the contract the external worker writes
// through; read paths never mutate.
type Repo interface {
	Create(ctx context.Context, params CreateParams) (AnalysisRun, error)
	GetByID(ctx context.Context, id string) (AnalysisRun, error)
	List(ctx context.Context, limit int) ([]AnalysisRun, error)
	UpdateStatusResultAndError(ctx context.Context, id, status string, result json.RawMessage, errorMessage *string, startedAt, finishedAt *time.Time) error
}
