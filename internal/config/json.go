// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// JSONConfig mirrors [Config] for file-based configuration. Durations are
// declared as [Duration] so the file may spell them as "30s" or "5m".
type JSONConfig struct {
	App struct {
		LogToFile bool `json:"log_to_file"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Transport struct {
		BaseURL        string   `json:"base_url"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"transport,omitempty"`

	Sync struct {
		Interval    Duration `json:"interval"`
		Parallelism int      `json:"parallelism"`
	} `json:"sync,omitempty"`
}

func parseJSON(jsonFilePath string) (*Config, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg JSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &Config{
		App: App{
			LogToFile: jsonCfg.App.LogToFile,
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
		},
		Transport: Transport{
			BaseURL:        jsonCfg.Transport.BaseURL,
			RequestTimeout: time.Duration(jsonCfg.Transport.RequestTimeout),
		},
		Sync: Sync{
			Interval:    time.Duration(jsonCfg.Sync.Interval),
			Parallelism: jsonCfg.Sync.Parallelism,
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return fmt.Errorf("invalid duration: %v", v)
	}
}
