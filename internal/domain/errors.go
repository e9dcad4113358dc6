package domain

import "errors"

// Sentinel errors shared across repositories and services
var (
	// ErrNotFound indicates the requested entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a uniqueness conflict (duplicate email, second summary for a call)
	ErrAlreadyExists = errors.New("already exists")
)
