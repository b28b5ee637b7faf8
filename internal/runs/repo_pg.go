package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"isotope-backend/internal/datasets"
	"isotope-backend/internal/shared/util"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const runColumns = `
r.id, r.status, r.reference_dataset_id, r.input_json, r.result_json,
r.error_message, r.algorithm_version, r.model_version,
r.started_at, r.finished_at, r.created_at, r.updated_at,
d.id, d.name, d.version, d.description, d.storage_uri, d.is_active, d.created_at, d.updated_at`

// Create inserts a queued run bound to an existing reference dataset.
// The dataset is read inside the same transaction so the returned run
// carries it without a second round trip.
func (r *PGRepo) Create(ctx context.Context, params CreateParams) (AnalysisRun, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return AnalysisRun{}, err
	}
	defer tx.Rollback()

	ds, err := getDatasetWithTx(ctx, tx, params.ReferenceDatasetID)
	if err != nil {
		return AnalysisRun{}, err
	}

	const query = `
INSERT INTO analysis_runs (id, status, reference_dataset_id, input_json, algorithm_version, model_version)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at, updated_at`
	run := AnalysisRun{
		ID:                 params.ID,
		Status:             StatusQueued,
		ReferenceDatasetID: params.ReferenceDatasetID,
		ReferenceDataset:   ds,
		InputJSON:          params.InputJSON,
		AlgorithmVersion:   params.AlgorithmVersion,
		ModelVersion:       params.ModelVersion,
	}
	err = tx.QueryRowContext(ctx, query,
		run.ID,
		run.Status,
		run.ReferenceDatasetID,
		string(run.InputJSON),
		run.AlgorithmVersion,
		run.ModelVersion,
	).Scan(&run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return AnalysisRun{}, datasets.ErrNotFound
		}
		return AnalysisRun{}, err
	}
	if err := tx.Commit(); err != nil {
		return AnalysisRun{}, err
	}
	return run, nil
}

// GetByID returns a run with its reference dataset joined in.
func (r *PGRepo) GetByID(ctx context.Context, id string) (AnalysisRun, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM analysis_runs r
JOIN reference_datasets d ON d.id = r.reference_dataset_id
WHERE r.id = $1
LIMIT 1`, runColumns)
	run, err := scanRun(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AnalysisRun{}, ErrNotFound
		}
		return AnalysisRun{}, err
	}
	return run, nil
}

// List returns the newest runs first, capped at limit.
func (r *PGRepo) List(ctx context.Context, limit int) ([]AnalysisRun, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM analysis_runs r
JOIN reference_datasets d ON d.id = r.reference_dataset_id
ORDER BY r.created_at DESC
LIMIT $1`, runColumns)
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]AnalysisRun, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// UpdateStatusResultAndError applies a worker-side transition. Terminal rows
// are never rewritten; started_at latches on the first move to running and
// finished_at on the first terminal status.
func (r *PGRepo) UpdateStatusResultAndError(ctx context.Context, id, status string, result json.RawMessage, errorMessage *string, startedAt, finishedAt *time.Time) error {
	if !IsKnownStatus(status) {
		return fmt.Errorf("unknown run status %q", status)
	}
	if errorMessage != nil {
		clean := util.SanitizeErrorMessage(*errorMessage)
		errorMessage = &clean
	}
	const query = `
UPDATE analysis_runs
SET status = $1,
    result_json = COALESCE($2::jsonb, result_json),
    error_message = COALESCE($3::text, error_message),
    started_at = CASE
        WHEN $4::timestamptz IS NOT NULL THEN $4::timestamptz
        WHEN $1 = 'running' AND started_at IS NULL THEN now()
        ELSE started_at
    END,
    finished_at = CASE
        WHEN $5::timestamptz IS NOT NULL THEN $5::timestamptz
        WHEN $1 IN ('succeeded', 'failed', 'canceled') AND finished_at IS NULL THEN now()
        ELSE finished_at
    END,
    updated_at = now()
WHERE id = $6::uuid
  AND status NOT IN ('succeeded', 'failed', 'canceled')`

	var payload any
	if result != nil {
		payload = string(result)
	}
	res, err := r.DB.ExecContext(ctx, query, status, payload, errorMessage, startedAt, finishedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish a missing row from a terminal one.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrTerminalState
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (AnalysisRun, error) {
	var run AnalysisRun
	var inputJSON string
	var resultJSON sql.NullString
	var errorMessage sql.NullString
	var algorithmVersion sql.NullString
	var modelVersion sql.NullString
	var startedAt sql.NullTime
	var finishedAt sql.NullTime
	var description sql.NullString
	err := row.Scan(
		&run.ID,
		&run.Status,
		&run.ReferenceDatasetID,
		&inputJSON,
		&resultJSON,
		&errorMessage,
		&algorithmVersion,
		&modelVersion,
		&startedAt,
		&finishedAt,
		&run.CreatedAt,
		&run.UpdatedAt,
		&run.ReferenceDataset.ID,
		&run.ReferenceDataset.Name,
		&run.ReferenceDataset.Version,
		&description,
		&run.ReferenceDataset.StorageURI,
		&run.ReferenceDataset.IsActive,
		&run.ReferenceDataset.CreatedAt,
		&run.ReferenceDataset.UpdatedAt,
	)
	if err != nil {
		return AnalysisRun{}, err
	}
	run.InputJSON = json.RawMessage(inputJSON)
	if resultJSON.Valid {
		run.ResultJSON = json.RawMessage(resultJSON.String)
	}
	if errorMessage.Valid {
		run.ErrorMessage = &errorMessage.String
	}
	if algorithmVersion.Valid {
		run.AlgorithmVersion = &algorithmVersion.String
	}
	if modelVersion.Valid {
		run.ModelVersion = &modelVersion.String
	}
	if startedAt.Valid {
		run.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	if description.Valid {
		run.ReferenceDataset.Description = &description.String
	}
	return run, nil
}

func getDatasetWithTx(ctx context.Context, tx *sql.Tx, id string) (datasets.ReferenceDataset, error) {
	const query = `
SELECT id, name, version, description, storage_uri, is_active, created_at, updated_at
FROM reference_datasets
WHERE id = $1
LIMIT 1`
	var ds datasets.ReferenceDataset
	var description sql.NullString
	err := tx.QueryRowContext(ctx, query, id).Scan(
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
			return datasets.ReferenceDataset{}, datasets.ErrNotFound
		}
		return datasets.ReferenceDataset{}, err
	}
	if description.Valid {
		ds.Description = &description.String
	}
	return ds, nil
}
