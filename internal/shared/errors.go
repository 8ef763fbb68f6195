package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure. The cause (unknown email,
	// missing hash, wrong password) is never distinguished to callers.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates no verified identity attached to the request.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates an authenticated identity with insufficient privilege.
	ErrForbidden = errors.New("forbidden")
)
