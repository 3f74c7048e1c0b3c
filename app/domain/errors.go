package domain

import "errors"

// Error taxonomy for the gateway. The Keycloak driver classifies every IdP
// failure into one of these kinds; handlers translate them to HTTP at
// their outer boundary and never let a driver error propagate unmapped.
var (
	// ErrInvalidGrant covers invalid, expired or revoked grants
	// (authorization codes and refresh tokens).
	ErrInvalidGrant = errors.New("invalid grant or token")

	// ErrAuthenticationFailed covers bad credentials and rejected or
	// expired access tokens.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// Profile store errors.
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
)
