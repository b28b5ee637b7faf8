// Package runclient is a small Go client for the analysis-run API, with a
// poller that tracks a run until it reaches a terminal status.
package runclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"isotope-backend/internal/runs"
)

// ErrNotFound is returned when the server reports no run for the given id.
var ErrNotFound = errors.New("analysis run not found")

// Client talks to one analysis-run API server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New constructs a Client with a sensible request timeout.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// GetRun fetches a single run by id.
func (c *Client) GetRun(ctx context.Context, id string) (runs.RunResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/v1/analysis-runs/"+id, nil)
	if err != nil {
		return runs.RunResponse{}, err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return runs.RunResponse{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var run runs.RunResponse
		if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
			return runs.RunResponse{}, fmt.Errorf("decode run %s: %w", id, err)
		}
		return run, nil
	case http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return runs.RunResponse{}, ErrNotFound
	default:
		io.Copy(io.Discard, resp.Body)
		return runs.RunResponse{}, fmt.Errorf("get run %s: unexpected status %d", id, resp.StatusCode)
	}
}

// CreateRun submits a new run.
func (c *Client) CreateRun(ctx context.Context, req runs.CreateRunRequest) (runs.RunResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return runs.RunResponse{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v1/analysis-runs", bytes.NewReader(body))
	if err != nil {
		return runs.RunResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return runs.RunResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		io.Copy(io.Discard, resp.Body)
		return runs.RunResponse{}, fmt.Errorf("create run: unexpected status %d", resp.StatusCode)
	}
	var run runs.RunResponse
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return runs.RunResponse{}, fmt.Errorf("decode created run: %w", err)
	}
	return run, nil
}
