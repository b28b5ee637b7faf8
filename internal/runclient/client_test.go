package runclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"isotope-backend/internal/runs"
)

func runFixture(status string) runs.RunResponse {
	return runs.RunResponse{
		ID:        "run-1",
		Status:    status,
		InputJSON: json.RawMessage(`{}`),
		CreatedAt: "2026-03-14T09:26:53.589Z",
		UpdatedAt: "2026-03-14T09:26:53.589Z",
	}
}

func TestGetRunDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/analysis-runs/run-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(runFixture(runs.StatusRunning))
	}))
	t.Cleanup(server.Close)

	client := New(server.URL)
	run, err := client.GetRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != runs.StatusRunning {
		t.Fatalf("expected running, got %q", run.Status)
	}
}

func TestGetRunNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	_, err := New(server.URL).GetRun(context.Background(), "run-missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetRunUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	_, err := New(server.URL).GetRun(context.Background(), "run-1")
	if err == nil {
		t.Fatalf("expected error for 502 response")
	}
}

func TestCreateRunPostsPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		var req runs.CreateRunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ReferenceDatasetID != "ds-1" {
			t.Errorf("unexpected dataset id %q", req.ReferenceDatasetID)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(runFixture(runs.StatusQueued))
	}))
	t.Cleanup(server.Close)

	run, err := New(server.URL).CreateRun(context.Background(), runs.CreateRunRequest{
		ReferenceDatasetID: "ds-1",
		InputJSON:          json.RawMessage(`{}`),
	})
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if run.Status != runs.StatusQueued {
		t.Fatalf("expected queued, got %q", run.Status)
	}
}
