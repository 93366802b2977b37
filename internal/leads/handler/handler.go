package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"leadscore_backend/internal/leads/service"
	"leadscore_backend/platform/httpkit"
	"leadscore_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for leads.
type Handler struct {
	svc      *service.Service
	maxBytes int64
	log      *logger.Logger
}

const (
	formFileField   = "file"
	msgMissingFile  = "Please upload a CSV file"
	msgNotCSV       = "Only CSV files are allowed"
	msgFileTooLarge = "CSV file is too large"
)

// New creates a new leads handler. maxBytes caps the request body; 0 disables the cap.
func New(svc *service.Service, maxBytes int64, log *logger.Logger) *Handler {
	return &Handler{svc: svc, maxBytes: maxBytes, log: log}
}

// Upload imports leads from a multipart CSV file.
// POST /api/v1/leads/upload
func (h *Handler) Upload(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}

	fh, err := c.FormFile(formFileField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpkit.Error(c, http.StatusRequestEntityTooLarge, msgFileTooLarge, nil)
			return
		}
		httpkit.Error(c, http.StatusBadRequest, msgMissingFile, nil)
		return
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
		httpkit.Error(c, http.StatusBadRequest, msgNotCSV, nil)
		return
	}

	file, err := fh.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, service.MsgReadError, nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, service.MsgReadError, nil)
		return
	}

	result, err := h.svc.ImportCSV(c.Request.Context(), service.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
		Source:      service.SourceUpload,
	})
	if httpkit.HandleErrorWithLog(c, err, h.log) {
		return
	}
	httpkit.OK(c, result)
}

// List returns every lead.
// GET /api/v1/leads
func (h *Handler) List(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context())
	if httpkit.HandleErrorWithLog(c, err, h.log) {
		return
	}
	httpkit.OK(c, result)
}
