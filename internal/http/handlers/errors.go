// Package handlers defines HTTP-layer error codes used across all API
// endpoints.
//
// This file centralizes the error taxonomy that is mapped to HTTP responses
// (via the `fail()` helper in this package). The codes are stable and
// machine-readable; widget clients branch on them to self-correct (refresh a
// token, restart checkout, surface a validation message).
//
// Conventions:
//   - Every error response includes both an HTTP status and one of these codes.
//   - Diagnostic detail (e.g. which tenant-resolution strategies ran) travels
//     in the `issues` list; secrets and full tokens never do.
package handlers

const (
	ErrCodeAuthFailure        = "AUTH_FAILURE"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeTenantNotFound     = "TENANT_NOT_FOUND"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeHoldFailed         = "HOLD_FAILED"
	ErrCodeHoldNotFound       = "HOLD_NOT_FOUND"
	ErrCodeConfirmationFailed = "CONFIRMATION_FAILED"
	ErrCodeBookingNotCreated  = "BOOKING_NOT_CREATED"
	ErrCodeInternal           = "INTERNAL_ERROR"

	// Transport-level:
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)
