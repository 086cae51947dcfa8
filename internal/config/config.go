// Package config holds queue configuration, simulation input loading and
// runtime settings for the command line and the HTTP server.
package config

import "os"

// RunConfig holds runtime settings shared by the CLI and the server.
type RunConfig struct {
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: text, json
	Format    string // Result format: table, json, yaml
	DBPath    string // SQLite database path; empty disables run history
	Addr      string // Listen address for serve (default ":8080")
}

// DefaultRunConfig returns sensible defaults, honoring CPUSCHED_DB and CPUSCHED_ADDR.
func DefaultRunConfig() RunConfig {
	cfg := RunConfig{
		LogLevel:  "info",
		LogFormat: "text",
		Format:    "table",
		Addr:      ":8080",
	}
	if s := os.Getenv("CPUSCHED_DB"); s != "" {
		cfg.DBPath = s
	}
	if s := os.Getenv("CPUSCHED_ADDR"); s != "" {
		cfg.Addr = s
	}
	return cfg
}
