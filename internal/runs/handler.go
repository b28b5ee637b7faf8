package runs

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"isotope-backend/internal/datasets"
	"isotope-backend/internal/shared/server/respond"
	"isotope-backend/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the runs service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis-run routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analysis-runs", h.createRun)
	rg.POST("/analysis-runs/from-inputs", h.createRunFromInputs)
	rg.GET("/analysis-runs", h.listRuns)
	rg.GET("/analysis-runs/:id", h.getRun)
}

func (h *Handler) createRun(c *gin.Context) {
	var req CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "request body must be a JSON object", nil)
		return
	}

	resp, err := h.Svc.CreateFromRequest(c.Request.Context(), req)
	if err != nil {
		h.writeCreateError(c, err)
		return
	}

	c.Set("runId", resp.ID)
	c.Set("runStatus", resp.Status)
	respond.Created(c, resp)
}

func (h *Handler) createRunFromInputs(c *gin.Context) {
	var req struct {
		InputJSON        json.RawMessage `json:"inputJson"`
		AlgorithmVersion *string         `json:"algorithmVersion"`
		ModelVersion     *string         `json:"modelVersion"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "request body must be a JSON object", nil)
		return
	}

	resp, err := h.Svc.CreateFromInputs(c.Request.Context(), req.InputJSON, req.AlgorithmVersion, req.ModelVersion)
	if err != nil {
		h.writeCreateError(c, err)
		return
	}

	c.Set("runId", resp.ID)
	c.Set("runStatus", resp.Status)
	respond.Created(c, resp)
}

func (h *Handler) writeCreateError(c *gin.Context, err error) {
	var vErr *ValidationError
	var cfgErr *ConfigError
	switch {
	case errors.As(err, &vErr):
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "input validation failed", fieldIssues(vErr))
	case errors.Is(err, datasets.ErrNotFound):
		respond.Error(c, http.StatusNotFound, ErrorCodeDatasetNotFound, "reference dataset not found", nil)
	case errors.As(err, &cfgErr):
		telemetry.Error("run.create.config", map[string]any{"error": cfgErr.Error()})
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to create analysis run", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to create analysis run", nil)
	}
}

func (h *Handler) getRun(c *gin.Context) {
	id := c.Param("id")

	resp, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		var cfgErr *ConfigError
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "analysis run not found", nil)
		case errors.As(err, &cfgErr):
			telemetry.Error("run.get.config", map[string]any{"run_id": id, "error": cfgErr.Error()})
			respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to fetch analysis run", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to fetch analysis run", nil)
		}
		return
	}

	c.Set("runId", resp.ID)
	c.Set("runStatus", resp.Status)
	// Poll responses must never be served from a cache.
	c.Header("Cache-Control", "no-store")
	respond.OK(c, resp)
}

func (h *Handler) listRuns(c *gin.Context) {
	take := 0
	if v := c.Query("take"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			take = parsed
		}
	}

	runs, err := h.Svc.List(c.Request.Context(), take)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to list analysis runs", nil)
		return
	}

	respond.OK(c, runs)
}

func fieldIssues(err *ValidationError) []respond.FieldIssue {
	issues := make([]respond.FieldIssue, 0, len(err.Fields))
	for _, f := range err.Fields {
		issues = append(issues, respond.FieldIssue{Field: f.Path, Issue: f.Message})
	}
	return issues
}
