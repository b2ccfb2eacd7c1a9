package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/techstore/internal/flagx"
	"github.com/dmitrijs2005/techstore/internal/timex"
)

// JsonConfig is the DTO for the JSON file. Zero values mean "not set" and
// leave the current Config value untouched.
type JsonConfig struct {
	IdentityBaseURL   string         `json:"identity_base_url"`
	CatalogBaseURL    string         `json:"catalog_base_url"`
	SessionBackend    string         `json:"session_backend"`
	DatabasePath      string         `json:"database_path"`
	RedisAddr         string         `json:"redis_addr"`
	RequestTimeout    timex.Duration `json:"request_timeout"`
	CatalogTimeout    timex.Duration `json:"catalog_timeout"`
	CatalogRetries    *int           `json:"catalog_retries"`
	CatalogBackoff    timex.Duration `json:"catalog_backoff"`
	CountdownSeconds  int            `json:"countdown_seconds"`
	OTPErrorDelay     timex.Duration `json:"otp_error_delay"`
	IdentityRateLimit float64        `json:"identity_rate_limit"`
	LogLevel          string         `json:"log_level"`
	LogBackend        string         `json:"log_backend"`
	S3Region          string         `json:"s3_region"`
	S3Bucket          string         `json:"s3_bucket"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
	S3AccessKey       string         `json:"s3_access_key"`
	S3SecretKey       string         `json:"s3_secret_key"`
}

// parseJson overlays cfg with the JSON file named by -c/-config. Without the
// flag nothing happens. Read or decode errors panic.
func parseJson(cfg *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.IdentityBaseURL, jc.IdentityBaseURL)
	setString(&cfg.CatalogBaseURL, jc.CatalogBaseURL)
	setString(&cfg.SessionBackend, jc.SessionBackend)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogBackend, jc.LogBackend)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)

	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.CatalogTimeout.Duration > 0 {
		cfg.CatalogTimeout = jc.CatalogTimeout.Duration
	}
	if jc.CatalogRetries != nil {
		cfg.CatalogRetries = *jc.CatalogRetries
	}
	if jc.CatalogBackoff.Duration > 0 {
		cfg.CatalogBackoff = jc.CatalogBackoff.Duration
	}
	if jc.CountdownSeconds > 0 {
		cfg.CountdownSeconds = jc.CountdownSeconds
	}
	if jc.OTPErrorDelay.Duration > 0 {
		cfg.OTPErrorDelay = jc.OTPErrorDelay.Duration
	}
	if jc.IdentityRateLimit > 0 {
		cfg.IdentityRateLimit = jc.IdentityRateLimit
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
