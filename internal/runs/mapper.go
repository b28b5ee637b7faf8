package runs

import (
	"time"

	"isotope-backend/internal/datasets"
)

// timeFormat is ISO-8601 with millisecond precision. Times are rendered in
// UTC so the suffix is always Z.
const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// MapRunToResponse converts a stored run into its wire shape. Stored input
// and result payloads are validated again on the way out; a row that no
// longer parses is a configuration fault, not a client error.
func MapRunToResponse(run AnalysisRun) (RunResponse, error) {
	if _, err := ParseInput(run.InputJSON); err != nil {
		return RunResponse{}, &ConfigError{Op: "map stored input", Err: err}
	}
	if run.ResultJSON != nil {
		if _, err := ParseResult(run.ResultJSON); err != nil {
			return RunResponse{}, &ConfigError{Op: "map stored result", Err: err}
		}
	}
	return RunResponse{
		ID:               run.ID,
		Status:           run.Status,
		ReferenceDataset: mapDataset(run.ReferenceDataset),
		InputJSON:        run.InputJSON,
		ResultJSON:       run.ResultJSON,
		ErrorMessage:     run.ErrorMessage,
		AlgorithmVersion: run.AlgorithmVersion,
		ModelVersion:     run.ModelVersion,
		StartedAt:        formatTimePtr(run.StartedAt),
		FinishedAt:       formatTimePtr(run.FinishedAt),
		CreatedAt:        formatTime(run.CreatedAt),
		UpdatedAt:        formatTime(run.UpdatedAt),
	}, nil
}

func mapDataset(ds datasets.ReferenceDataset) DatasetResponse {
	return DatasetResponse{
		ID:          ds.ID,
		Name:        ds.Name,
		Version:     ds.Version,
		Description: ds.Description,
		StorageURI:  ds.StorageURI,
		IsActive:    ds.IsActive,
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
