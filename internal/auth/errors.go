package auth

import "errors"

var (
	// ErrUnauthorized is returned when the caller lacks the required role
	// or does not own the record it is operating on.
	ErrUnauthorized = errors.New("auth: unauthorized")
	// ErrInvalidToken is returned when a credential cannot be verified.
	ErrInvalidToken = errors.New("auth: invalid token")
)
