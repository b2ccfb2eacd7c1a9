package config

import (
	"github.com/spf13/viper"
)

const envPrefix = "TECHSTORE"

func newEnvViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	return v
}

// parseEnv overlays cfg with TECHSTORE_* environment variables. Only
// variables that are actually set are applied.
func parseEnv(cfg *Config) {
	v := newEnvViper()

	strs := map[string]*string{
		"identity_base_url": &cfg.IdentityBaseURL,
		"catalog_base_url":  &cfg.CatalogBaseURL,
		"session_backend":   &cfg.SessionBackend,
		"database_path":     &cfg.DatabasePath,
		"redis_addr":        &cfg.RedisAddr,
		"log_level":         &cfg.LogLevel,
		"log_backend":       &cfg.LogBackend,
		"s3_region":         &cfg.S3Region,
		"s3_bucket":         &cfg.S3Bucket,
		"s3_base_endpoint":  &cfg.S3BaseEndpoint,
		"s3_access_key":     &cfg.S3AccessKey,
		"s3_secret_key":     &cfg.S3SecretKey,
	}
	for key, dst := range strs {
		_ = v.BindEnv(key)
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	for _, key := range []string{"request_timeout", "catalog_timeout", "catalog_backoff", "otp_error_delay",
		"catalog_retries", "countdown_seconds", "identity_rate_limit"} {
		_ = v.BindEnv(key)
	}
	if v.IsSet("request_timeout") {
		cfg.RequestTimeout = v.GetDuration("request_timeout")
	}
	if v.IsSet("catalog_timeout") {
		cfg.CatalogTimeout = v.GetDuration("catalog_timeout")
	}
	if v.IsSet("catalog_backoff") {
		cfg.CatalogBackoff = v.GetDuration("catalog_backoff")
	}
	if v.IsSet("otp_error_delay") {
		cfg.OTPErrorDelay = v.GetDuration("otp_error_delay")
	}
	if v.IsSet("catalog_retries") {
		cfg.CatalogRetries = v.GetInt("catalog_retries")
	}
	if v.IsSet("countdown_seconds") {
		cfg.CountdownSeconds = v.GetInt("countdown_seconds")
	}
	if v.IsSet("identity_rate_limit") {
		cfg.IdentityRateLimit = v.GetFloat64("identity_rate_limit")
	}
}
