package config

import "flag"

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a server base URL, e.g. http://localhost:8080
//	-d local cache database file path
//	-c/-config json file path with configs
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-sync-interval background sync interval (e.g., "5m")
//	-sync-parallelism how many objects are decrypted concurrently
//	-log-to-file redirect logs to a file next to the executable
func ParseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Transport.BaseURL, "a", "", "Server base URL")
	flag.StringVar(&cfg.Storage.DB.DSN, "d", "", "Local cache database file path")
	flag.StringVar(&cfg.JSONFilePath, "c", "", "JSON config file path")
	flag.StringVar(&cfg.JSONFilePath, "config", "", "JSON config file path (alias)")
	flag.DurationVar(&cfg.Transport.RequestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	flag.DurationVar(&cfg.Sync.Interval, "sync-interval", 0, "Background sync interval (e.g., 5m)")
	flag.IntVar(&cfg.Sync.Parallelism, "sync-parallelism", 0, "Concurrent decrypts per sync batch")
	flag.BoolVar(&cfg.App.LogToFile, "log-to-file", false, "Write logs to a file instead of stdout")

	flag.Parse()

	return cfg
}
