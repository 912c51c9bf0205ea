package demo

import "errors"

var (
	// ErrSessionNotFound covers unknown ids and sessions past their TTL;
	// callers are expected to create a fresh session rather than retry.
	ErrSessionNotFound = errors.New("demo session not found or expired")

	// ErrStoreFull is returned when the live-session ceiling is reached.
	ErrStoreFull = errors.New("maximum number of demo sessions reached")

	// ErrInvalidPayment wraps all payment-entry validation failures.
	ErrInvalidPayment = errors.New("invalid payment entry")

	ErrUnknownDemoType = errors.New("unknown demo type")
)
