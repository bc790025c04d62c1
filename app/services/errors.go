package services

import (
	"errors"

	"inkwell/app/repositories"
)

var (
	// ErrValidation covers malformed or rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrPermission is returned when the actor may not perform the operation.
	ErrPermission = errors.New("permission denied")
	// ErrConflict is returned when the slug retry budget is exhausted.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials is returned on failed login or token checks.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound mirrors the storage sentinel so callers only need to
	// know about service errors.
	ErrNotFound = repositories.ErrNotFound
)
