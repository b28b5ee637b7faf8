package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"isotope-backend/internal/shared/telemetry"
)

func TestLoggingEmitsRunFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	router := gin.New()
	router.Use(RequestID(), Logging())
	router.GET("/api/v1/analysis-runs/:id", func(c *gin.Context) {
		c.Set("runId", c.Param("id"))
		c.Set("runStatus", "running")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis-runs/run-1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["msg"] != "request.complete" {
		t.Fatalf("unexpected msg %v", entry["msg"])
	}
	if entry["run_id"] != "run-1" || entry["run_status"] != "running" {
		t.Fatalf("expected run fields in %v", entry)
	}
	if id, _ := entry["request_id"].(string); id == "" {
		t.Fatalf("expected request_id in %v", entry)
	}
}

func TestLoggingSkipsPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	router := gin.New()
	router.Use(Logging())
	router.OPTIONS("/api/v1/analysis-runs", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analysis-runs", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if buf.Len() != 0 {
		t.Fatalf("expected no log for preflight, got %q", buf.String())
	}
}
