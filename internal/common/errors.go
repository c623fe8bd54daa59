// Package common defines shared constants and sentinel errors used across
// snofbase components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Directory/store-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrorValidation    = errors.New("validation error")

	// Identity lifecycle errors.
	ErrorUsernameTaken      = errors.New("username already exists")
	ErrorInvalidOrExpired   = errors.New("invalid or expired")
	ErrorInvalidCredentials = errors.New("invalid credentials")

	// Notifier errors. A delivery failure never unwinds a committed
	// store mutation; it only degrades the result reported upstream.
	ErrorDelivery = errors.New("delivery failed")

	// Auth errors (invalid or malformed session token).
	ErrorInvalidToken = errors.New("invalid token")
)
