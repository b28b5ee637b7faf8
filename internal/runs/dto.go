package runs

import "encoding/json"

// CreateRunRequest is the POST body for creating a run from an already
// resolved reference dataset ID.
type CreateRunRequest struct {
	ReferenceDatasetID string          `json:"referenceDatasetId"`
	InputJSON          json.RawMessage `json:"inputJson"`
	AlgorithmVersion   *string         `json:"algorithmVersion"`
	ModelVersion       *string         `json:"modelVersion"`
}

// DatasetResponse is the reference dataset as embedded in run responses.
type DatasetResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Version     string  `json:"version"`
	Description *string `json:"description"`
	StorageURI  string  `json:"storageUri"`
	IsActive    bool    `json:"isActive"`
}

// RunResponse is the wire shape of an analysis run. Unset optional fields
// serialize as explicit nulls so clients see a stable key set.
type RunResponse struct {
	ID               string          `json:"id"`
	Status           string          `json:"status"`
	ReferenceDataset DatasetResponse `json:"referenceDataset"`
	InputJSON        json.RawMessage `json:"inputJson"`
	ResultJSON       json.RawMessage `json:"resultJson"`
	ErrorMessage     *string         `json:"errorMessage"`
	AlgorithmVersion *string         `json:"algorithmVersion"`
	ModelVersion     *string         `json:"modelVersion"`
	StartedAt        *string         `json:"startedAt"`
	FinishedAt       *string         `json:"finishedAt"`
	CreatedAt        string          `json:"createdAt"`
	UpdatedAt        string          `json:"updatedAt"`
}
