package services

import "errors"

// Deterministic rejections surfaced directly to callers. Anything else
// returned by a service is a failed unit of work (storage or wiring) and
// is wrapped with context instead.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrAlreadyResolved = errors.New("payment request already resolved")
	ErrInvalidInput    = errors.New("invalid input")
)
