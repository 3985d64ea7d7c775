// Package common defines shared constants and sentinel errors used across
// the service and transport layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Conflicts are reported to callers as a normal response carrying a flag.
	ErrorConflict      = errors.New("conflict")
	ErrorEmailInUse    = errors.New("this email is already in use")
	ErrorAlreadyBooked = errors.New("you have already booked this product")
	ErrorProductSold   = errors.New("this product is already sold")

	// Settlement errors. ErrorSettlement means writes were attempted and the
	// outcome must be inspected by an operator.
	ErrorSettlement           = errors.New("payment settlement failed")
	ErrorSettlementInProgress = errors.New("payment settlement in progress")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
