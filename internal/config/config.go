// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"net/url"
	"time"
)

// Config is the top-level configuration container for the go-vault-sync
// client. It is populated by merging values from environment variables,
// command-line flags, and an optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type Config struct {
	// App contains application-level client settings.
	App App `envPrefix:"APP_" json:"app,omitempty"`

	// Storage contains local cache settings.
	Storage Storage `envPrefix:"STORAGE_" json:"storage,omitempty"`

	// Transport contains remote store addresses and timeouts.
	Transport Transport `envPrefix:"TRANSPORT_" json:"transport,omitempty"`

	// Sync contains sync engine and background job settings.
	Sync Sync `envPrefix:"SYNC_" json:"sync,omitempty"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c/-config flag.
	JSONFilePath string `env:"CONFIG" json:"-"`
}

// App holds application-level client settings.
type App struct {
	// LogToFile redirects logs to a file next to the executable so stdout
	// stays usable for the interactive client.
	LogToFile bool `env:"LOG_TO_FILE" json:"log_to_file"`
}

// Storage groups local persistence settings.
type Storage struct {
	// DB holds local cache database settings.
	DB DB `envPrefix:"DB_" json:"db,omitempty"`
}

// DB contains the local cache database connection settings.
type DB struct {
	// DSN is the SQLite file path of the local vault cache.
	DSN string `env:"DSN" json:"dsn"`
}

// Transport holds network settings used by the transport layer.
type Transport struct {
	// BaseURL is the HTTP endpoint of the remote vault store.
	BaseURL string `env:"BASE_URL" json:"base_url"`

	// RequestTimeout is the default timeout for outbound requests.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" json:"request_timeout"`
}

// Sync contains sync engine settings.
type Sync struct {
	// Interval defines how often the background sync job runs.
	Interval time.Duration `env:"INTERVAL" json:"interval"`

	// Parallelism bounds how many objects of one batch are decrypted
	// concurrently. Zero picks the default.
	Parallelism int `env:"PARALLELISM" json:"parallelism"`
}

// GetConfig builds the client configuration from env, flags, and the
// optional JSON file, applies defaults, and validates the result.
func GetConfig() (*Config, error) {
	cfg, err := newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return cfg, cfg.validate()
}

func (c *Config) applyDefaults() {
	if c.Storage.DB.DSN == "" {
		c.Storage.DB.DSN = "vault-cache.db"
	}
	if c.Transport.RequestTimeout <= 0 {
		c.Transport.RequestTimeout = 15 * time.Second
	}
	if c.Sync.Interval <= 0 {
		c.Sync.Interval = 5 * time.Minute
	}
	if c.Sync.Parallelism <= 0 {
		c.Sync.Parallelism = 4
	}
}

func (c *Config) validate() error {
	if c.Transport.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.Transport.BaseURL); err != nil {
			return ErrInvalidBaseURL
		}
	}
	return nil
}
