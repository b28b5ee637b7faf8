package runs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"isotope-backend/internal/datasets"
	"isotope-backend/internal/shared/metrics"
	"isotope-backend/internal/shared/telemetry"
)

// Service contains business logic for analysis runs.
type Service struct {
	Repo        Repo
	Datasets    datasets.Repo
	MaxTake     int
	DefaultTake int
}

// CreateFromRequest validates the submitted payload, persists a queued run
// and returns its wire shape. Nothing is written until the whole payload
// has passed validation.
func (s *Service) CreateFromRequest(ctx context.Context, req CreateRunRequest) (RunResponse, error) {
	start := time.Now()
	inputs, err := ParseInput(NormalizeInput(req.InputJSON))
	var fields []FieldError
	if err != nil {
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			return RunResponse{}, err
		}
		fields = vErr.Fields
	}
	if req.ReferenceDatasetID == "" {
		fields = append(fields, FieldError{
			Path:    "referenceDatasetId",
			Message: "must be a non-empty string",
		})
	}
	if len(fields) > 0 {
		metrics.IncValidationFailed()
		return RunResponse{}, &ValidationError{Fields: fields}
	}
	canonical, err := json.Marshal(inputs)
	if err != nil {
		return RunResponse{}, &ConfigError{Op: "encode canonical input", Err: err}
	}
	run, err := s.Repo.Create(ctx, CreateParams{
		ID:                 uuid.NewString(),
		ReferenceDatasetID: req.ReferenceDatasetID,
		InputJSON:          canonical,
		AlgorithmVersion:   req.AlgorithmVersion,
		ModelVersion:       req.ModelVersion,
	})
	if err != nil {
		return RunResponse{}, err
	}
	resp, err := MapRunToResponse(run)
	if err != nil {
		return RunResponse{}, err
	}
	metrics.IncRunCreated()
	metrics.ObserveCreateDurationMs(float64(time.Since(start).Milliseconds()))
	telemetry.Info("run.created", map[string]any{
		"run_id":            run.ID,
		"reference_dataset": run.ReferenceDataset.Name + "/" + run.ReferenceDataset.Version,
	})
	return resp, nil
}

// CreateFromInputs validates the payload, resolves its referenceSample to an
// active dataset and persists a queued run. This is the path callers use
// when they only know the comparison's reference sample key.
func (s *Service) CreateFromInputs(ctx context.Context, rawInput json.RawMessage, algorithmVersion, modelVersion *string) (RunResponse, error) {
	inputs, err := ParseInput(NormalizeInput(rawInput))
	if err != nil {
		metrics.IncValidationFailed()
		return RunResponse{}, err
	}
	ref, err := ResolveReferenceDataset(inputs.Comparison.ReferenceSample)
	if err != nil {
		return RunResponse{}, err
	}
	ds, err := s.Datasets.FindActiveByNameVersion(ctx, ref.Name, ref.Version)
	if err != nil {
		if errors.Is(err, datasets.ErrNotFound) {
			return RunResponse{}, &ConfigError{Op: "resolve reference dataset " + ref.Name + "/" + ref.Version, Err: err}
		}
		return RunResponse{}, err
	}
	canonical, err := json.Marshal(inputs)
	if err != nil {
		return RunResponse{}, &ConfigError{Op: "encode canonical input", Err: err}
	}
	run, err := s.Repo.Create(ctx, CreateParams{
		ID:                 uuid.NewString(),
		ReferenceDatasetID: ds.ID,
		InputJSON:          canonical,
		AlgorithmVersion:   algorithmVersion,
		ModelVersion:       modelVersion,
	})
	if err != nil {
		return RunResponse{}, err
	}
	resp, err := MapRunToResponse(run)
	if err != nil {
		return RunResponse{}, err
	}
	metrics.IncRunCreated()
	telemetry.Info("run.created", map[string]any{
		"run_id":            run.ID,
		"reference_dataset": ds.Name + "/" + ds.Version,
	})
	return resp, nil
}

// Get returns a single run in wire shape.
func (s *Service) Get(ctx context.Context, id string) (RunResponse, error) {
	run, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return RunResponse{}, err
	}
	resp, err := MapRunToResponse(run)
	if err != nil {
		return RunResponse{}, err
	}
	metrics.IncRunFetched()
	return resp, nil
}

// List returns up to take runs, newest first. Out-of-range values clamp to
// the configured bounds instead of failing.
func (s *Service) List(ctx context.Context, take int) ([]RunResponse, error) {
	if take <= 0 {
		take = s.DefaultTake
	}
	if take > s.MaxTake {
		take = s.MaxTake
	}
	if take < 1 {
		take = 1
	}
	runs, err := s.Repo.List(ctx, take)
	if err != nil {
		return nil, err
	}
	responses := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		resp, err := MapRunToResponse(run)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	metrics.IncRunListed()
	return responses, nil
}
