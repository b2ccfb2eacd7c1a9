// Package config loads runtime configuration for the techstore client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c or -config.
//  3. Environment variables prefixed with TECHSTORE_ (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-i string   identity API base URL
//	-p string   catalog (products) API base URL
//	-d string   path of the local SQLite database
//	-s string   session backend: sqlite, redis or memory
//	-l string   log level: debug, info, warn, error
//
// # JSON schema
//
// Durations use timex.Duration, so "2s" and integer nanoseconds both work:
//
//	{
//	  "identity_base_url": "https://id.example.com",
//	  "catalog_base_url": "https://catalog.example.com",
//	  "session_backend": "sqlite",
//	  "database_path": "techstore.db",
//	  "catalog_timeout": "10s",
//	  "catalog_retries": 2,
//	  "catalog_backoff": "2s",
//	  "log_backend": "zap"
//	}
//
// Environment variables use the JSON key upper-cased, e.g.
// TECHSTORE_IDENTITY_BASE_URL or TECHSTORE_REDIS_ADDR.
package config
