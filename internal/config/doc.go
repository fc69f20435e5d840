// Package config loads the client configuration from three sources merged
// in priority order: environment variables, command-line flags, and an
// optional JSON file. Merging uses mergo, so an earlier non-zero value wins
// over a later one; defaults fill whatever remains unset.
package config
