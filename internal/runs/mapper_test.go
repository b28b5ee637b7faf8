package runs

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"isotope-backend/internal/datasets"
)

func storedRun(t *testing.T) AnalysisRun {
	t.Helper()
	created := time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	return AnalysisRun{
		ID:                 "8f14e45f-ea2a-4c3b-9f0b-1a2b3c4d5e6f",
		Status:             StatusQueued,
		ReferenceDatasetID: "ds-1",
		ReferenceDataset: datasets.ReferenceDataset{
			ID:         "ds-1",
			Name:       "modern_png",
			Version:    "2026-01",
			StorageURI: "/reference_datasets/modern_png/2026-01/dataset.csv",
			IsActive:   true,
		},
		InputJSON: validInputJSON(t, nil),
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestMapRunToResponseFormatsTimestamps(t *testing.T) {
	run := storedRun(t)

	resp, err := MapRunToResponse(run)
	if err != nil {
		t.Fatalf("map run: %v", err)
	}
	if resp.CreatedAt != "2026-03-14T09:26:53.589Z" {
		t.Fatalf("unexpected createdAt %q", resp.CreatedAt)
	}
	if resp.StartedAt != nil || resp.FinishedAt != nil {
		t.Fatalf("expected nil startedAt/finishedAt for a queued run")
	}
}

func TestMapRunToResponseConvertsNonUTCToUTC(t *testing.T) {
	run := storedRun(t)
	tokyo := time.FixedZone("JST", 9*3600)
	started := time.Date(2026, 3, 14, 18, 30, 0, 0, tokyo)
	run.Status = StatusRunning
	run.StartedAt = &started

	resp, err := MapRunToResponse(run)
	if err != nil {
		t.Fatalf("map run: %v", err)
	}
	if resp.StartedAt == nil || *resp.StartedAt != "2026-03-14T09:30:00.000Z" {
		t.Fatalf("expected UTC startedAt, got %v", resp.StartedAt)
	}
}

func TestMapRunToResponseEmitsExplicitNulls(t *testing.T) {
	resp, err := MapRunToResponse(storedRun(t))
	if err != nil {
		t.Fatalf("map run: %v", err)
	}

	encoded, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	for _, key := range []string{
		`"resultJson":null`,
		`"errorMessage":null`,
		`"algorithmVersion":null`,
		`"modelVersion":null`,
		`"startedAt":null`,
		`"finishedAt":null`,
	} {
		if !strings.Contains(string(encoded), key) {
			t.Fatalf("expected %s in %s", key, encoded)
		}
	}
}

func TestMapRunToResponseRejectsCorruptStoredInput(t *testing.T) {
	run := storedRun(t)
	run.InputJSON = json.RawMessage(`{"metadata":{}}`)

	_, err := MapRunToResponse(run)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError for corrupt stored input, got %T: %v", err, err)
	}
}

func TestMapRunToResponseRejectsCorruptStoredResult(t *testing.T) {
	run := storedRun(t)
	run.Status = StatusSucceeded
	run.ResultJSON = json.RawMessage(`{"summary":{}}`)

	_, err := MapRunToResponse(run)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError for corrupt stored result, got %T: %v", err, err)
	}
}
