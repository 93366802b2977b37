package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"leadscore_backend/internal/offers/service"
	"leadscore_backend/internal/offers/transport"
	"leadscore_backend/platform/httpkit"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for offers.
type Handler struct {
	svc *service.Service
	val *validator.Validator
	log *logger.Logger
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgMissingFields    = "Missing required fields: name, value_props, ideal_use_cases"
	msgNotArrays        = "value_props and ideal_use_cases must be arrays"
)

// New creates a new offers handler.
func New(svc *service.Service, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, val: val, log: log}
}

// Create stores a new current offer.
// POST /api/v1/offer
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && (typeErr.Field == "value_props" || typeErr.Field == "ideal_use_cases") {
			httpkit.Error(c, http.StatusBadRequest, msgNotArrays, nil)
			return
		}
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.ValueProps == nil || req.IdealUseCases == nil {
		httpkit.Error(c, http.StatusBadRequest, msgMissingFields, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleErrorWithLog(c, err, h.log) {
		return
	}
	httpkit.Created(c, result)
}

// GetCurrent returns the current offer.
// GET /api/v1/offer
func (h *Handler) GetCurrent(c *gin.Context) {
	result, err := h.svc.GetCurrent(c.Request.Context())
	if httpkit.HandleErrorWithLog(c, err, h.log) {
		return
	}
	httpkit.OK(c, result)
}
