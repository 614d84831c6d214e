package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrUpstreamFailure     = errors.New("upstream failure")
	ErrUserRejected        = errors.New("user rejected transaction")
	ErrNoHistory           = errors.New("no donation history")
	ErrSubmissionInFlight  = errors.New("donation submission already in flight")
)
