package service

import (
	"errors"
	"fmt"
)

// Sentinel errors form the contract between services and handlers. Handlers
// map these to HTTP status codes and client-safe error codes; anything else
// is a 500.
var (
	// ErrInvalidCredentials merges "no such account" and "wrong password" so
	// login responses cannot be used to probe which emails are registered.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email address not verified")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("expired token")
	ErrAccountNotFound    = errors.New("account not found")
	ErrDatasetNotFound    = errors.New("dataset not found")
	ErrRequestNotFound    = errors.New("data request not found")
	ErrRequestDecided     = errors.New("data request already decided")
	ErrSelfRoleChange     = errors.New("cannot change own role")
	ErrUnknownRole        = errors.New("unknown role")
)

// ValidationError carries per-field messages back to the client.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Fields))
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) add(field, msg string) { e.Fields[field] = msg }

func (e *ValidationError) errOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
