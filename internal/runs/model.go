package runs

import (
	"encoding/json"
	"time"

	"isotope-backend/internal/datasets"
)

const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
)

// IsTerminalStatus reports whether a run in the given status can never
// transition again.
func IsTerminalStatus(status string) bool {
	return status == StatusSucceeded || status == StatusFailed || status == StatusCanceled
}

// IsKnownStatus reports whether the given status is part of the run state
// machine.
func IsKnownStatus(status string) bool {
	switch status {
	case StatusQueued, StatusRunning, StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// AnalysisRun is one request to classify isotope measurements against a
// reference dataset. Created queued by this service; status, result and
// error fields are mutated only by the external worker through the shared
// persisted record.
type AnalysisRun struct {
	ID                 string
	Status             string
	ReferenceDatasetID string
	ReferenceDataset   datasets.ReferenceDataset
	InputJSON          json.RawMessage
	ResultJSON         json.RawMessage
	ErrorMessage       *string
	AlgorithmVersion   *string
	ModelVersion       *string
	StartedAt          *time.Time
	FinishedAt         *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
