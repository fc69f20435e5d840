package config

import "errors"

// Validation errors returned by [Config.validate] when configuration
// groups are incomplete or invalid.
var (
	// ErrInvalidBaseURL indicates that the transport base URL could not be
	// parsed as an absolute URL.
	ErrInvalidBaseURL = errors.New("invalid transport base URL")
)
