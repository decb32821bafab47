// Package handlers provides HTTP handler implementations for the public
// widget API.
//
// This file defines the standard response envelope used across all endpoints.
// Every response, success or failure, carries the request correlation id so
// support staff can line up widget reports with server logs.
//
// Example failure:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "success": false,
//	  "error": {
//	    "code": "HOLD_NOT_FOUND",
//	    "message": "hold not found or expired",
//	    "request_id": "123e4567-e89b-12d3-a456-426614174000"
//	  }
//	}
//
// Example success:
//
//	HTTP/1.1 200 OK
//	{ "success": true, "request_id": "…", "hold_id": "…", "expires_at": "…" }
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seatwise/go-booking-backend/internal/http/middleware"
)

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	// Code is a stable, machine-readable taxonomy code (see errors.go).
	Code string `json:"code"`
	// Message is human-readable and safe to show to users.
	Message string `json:"message"`
	// RequestID correlates server logs and client errors.
	RequestID string `json:"request_id,omitempty"`
	// Issues carries structured diagnostic detail, e.g. the tenant
	// resolution attempt trail. Never secrets.
	Issues []any `json:"issues,omitempty"`
}

// ErrorResponse is the standard failure envelope returned by all endpoints.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// fail aborts the request with a structured error and logs server-side errors.
//
// Server errors (>=500) are logged using the request-scoped logger from
// middleware.
func fail(c *gin.Context, status int, code, msg string, issues ...any) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Code:      code,
			Message:   msg,
			RequestID: reqID,
			Issues:    issues,
		},
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// envelope wraps body with the success flag and correlation id. Handlers pass
// a gin.H and get the standard shape back.
func envelope(c *gin.Context, body gin.H) gin.H {
	out := gin.H{
		"success":    true,
		"request_id": c.Writer.Header().Get("X-Request-ID"),
	}
	for k, v := range body {
		out[k] = v
	}
	return out
}

// ok writes a success JSON response in the standard envelope.
func ok(c *gin.Context, status int, body gin.H) {
	c.JSON(status, envelope(c, body))
}
