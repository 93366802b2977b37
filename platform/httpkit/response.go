// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"errors"
	"net/http"

	"leadscore_backend/platform/apperr"
	"leadscore_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

const msgInternal = "internal server error"

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Stage   string      `json:"stage,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// Error sends an error response with the given status code and message.
func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// OK sends a 200 OK response with the given payload.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Created sends a 201 Created response with the given payload.
func Created(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusCreated, payload)
}

// HandleError maps domain errors to HTTP responses.
// A typed *apperr.Error anywhere in the chain decides the status code and body.
// Untyped errors are logged and reported as a generic 500.
// Returns true if an error was handled, false otherwise.
func HandleError(c *gin.Context, err error) bool {
	return HandleErrorWithLog(c, err, nil)
}

// HandleErrorWithLog is HandleError with a logger for causes that are not exposed.
func HandleErrorWithLog(c *gin.Context, err error, log *logger.Logger) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		status := domainErr.HTTPStatus()
		if status >= http.StatusInternalServerError && log != nil {
			log.WithContext(c.Request.Context()).HTTPError(c.Request.Method, c.Request.URL.Path, status, err, c.ClientIP())
		}
		c.JSON(status, ErrorResponse{
			Error:   domainErr.Message,
			Stage:   domainErr.Stage,
			Details: domainErr.Details,
		})
		return true
	}

	if log != nil {
		log.WithContext(c.Request.Context()).HTTPError(c.Request.Method, c.Request.URL.Path, http.StatusInternalServerError, err, c.ClientIP())
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgInternal})
	return true
}
