package service

import "errors"

// Error kinds surfaced to the route layer. Anything else coming out of
// the manager is a store failure and maps to a 500.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrConflict        = errors.New("already exists")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)
