package domain

import "errors"

// Message text is part of the contract: callers and clients match on it.
var (
	ErrUnauthorized  = errors.New("Unauthorized")
	ErrMissingFields = errors.New("Missing required fields")
	ErrNotFound      = errors.New("Not found")
)

var (
	ErrInvalidInput    = errors.New("Invalid input")
	ErrVersionConflict = errors.New("Version conflict")
)
