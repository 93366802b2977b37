package handler

import (
	"net/http"
	"strconv"

	"leadscore_backend/internal/scoring/service"
	"leadscore_backend/internal/scoring/transport"
	"leadscore_backend/platform/httpkit"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for scoring.
type Handler struct {
	svc *service.Service
	val *validator.Validator
	log *logger.Logger
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid run id"
	reasonManual        = "manual"
	exportFileName      = "scoring-results.csv"
	csvContentType      = "text/csv; charset=utf-8"
)

// New creates a new scoring handler.
func New(svc *service.Service, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, val: val, log: log}
}

// Score runs the scoring pipeline, or queues it with ?async=true.
// POST /api/v1/score
func (h *Handler) Score(c *gin.Context) {
	var req transport.ScoreQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if req.Async {
		result, err := h.svc.Enqueue(c.Request.Context(), reasonManual)
		if httpkit.HandleErrorWithLog(c, err, h.log) {
			return
		}
		httpkit.JSON(c, http.StatusAccepted, result)
		return
	}

	result, err := h.svc.Score(c.Request.Context())
	if httpkit.HandleErrorWithLog(c, err, h.log) {
		return
	}
	httpkit.OK(c, result)
}

// ListRuns lists recent scoring runs.
// GET /api/v1/score/runs
func (h *Handler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	result, err := h.svc.ListRuns(c.Request.Context(), limit)
	if httpkit.HandleErrorWithLog(c, err, h.log) {
		return
	}
	httpkit.OK(c, result)
}

// GetRun returns one scoring run.
// GET /api/v1/score/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	result, err := h.svc.GetRun(c.Request.Context(), id)
	if httpkit.HandleErrorWithLog(c, err, h.log) {
		return
	}
	httpkit.OK(c, result)
}

// ListResults returns stored results, best first.
// GET /api/v1/results
func (h *Handler) ListResults(c *gin.Context) {
	req, ok := h.bindResultsQuery(c)
	if !ok {
		return
	}
	result, err := h.svc.ListResults(c.Request.Context(), req)
	if httpkit.HandleErrorWithLog(c, err, h.log) {
		return
	}
	httpkit.OK(c, result)
}

// Export downloads the results as CSV.
// GET /api/v1/export
func (h *Handler) Export(c *gin.Context) {
	req, ok := h.bindResultsQuery(c)
	if !ok {
		return
	}
	body, err := h.svc.ExportCSV(c.Request.Context(), req)
	if httpkit.HandleErrorWithLog(c, err, h.log) {
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+exportFileName+`"`)
	c.Data(http.StatusOK, csvContentType, body)
}

func (h *Handler) bindResultsQuery(c *gin.Context) (transport.ResultsQuery, bool) {
	var req transport.ResultsQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return req, false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return req, false
	}
	return req, true
}
