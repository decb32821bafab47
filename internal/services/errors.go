// Package services implements the business logic of the reservation engine:
// availability search, checkout holds, and booking confirmation. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; mapping to
// the HTTP error taxonomy happens at the handler layer.
package services

import "errors"

var (
	// ErrInvalidInput is returned when a request is missing required fields
	// or carries malformed values. A client error, not a server fault.
	ErrInvalidInput = errors.New("invalid input")

	// ErrHoldFailed is returned when a hold could not be persisted after the
	// schema-variant retry.
	ErrHoldFailed = errors.New("hold could not be created")

	// ErrHoldNotFound is returned when the referenced hold does not exist or
	// has expired. The two cases are deliberately indistinguishable to
	// clients.
	ErrHoldNotFound = errors.New("hold not found or expired")

	// ErrNoCapacity is returned by the confirmation capacity re-check when no
	// suitable table remains free for the hold's window.
	ErrNoCapacity = errors.New("no capacity remaining for the requested time")

	// ErrBookingNotCreated is returned when the booking insert produced no
	// usable row and the bounded compensating re-reads were exhausted.
	ErrBookingNotCreated = errors.New("booking not created")

	// ErrConfirmationFailed wraps store-level failures during confirmation
	// that are not covered by a more specific error.
	ErrConfirmationFailed = errors.New("confirmation failed")
)
