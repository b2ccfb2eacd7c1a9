package config

import "time"

// Session backends accepted by SessionBackend.
const (
	SessionSQLite = "sqlite"
	SessionRedis  = "redis"
	SessionMemory = "memory"
)

// Config holds runtime settings for the techstore client.
//
// Fields:
//   - IdentityBaseURL / CatalogBaseURL: fixed base URLs of the two remote APIs.
//   - SessionBackend: where the session marker lives (sqlite, redis, memory).
//   - DatabasePath: SQLite file used by the sqlite backend.
//   - RedisAddr: host:port used by the redis backend.
//   - RequestTimeout: deadline the CLI puts on each identity call.
//   - CatalogTimeout / CatalogRetries / CatalogBackoff: product loading policy.
//   - CountdownSeconds: resend cooldown of both OTP dialogs.
//   - OTPErrorDelay: how long OTP cells stay marked as errored before clearing.
//   - IdentityRateLimit: max identity calls per second, 0 disables limiting.
//   - LogLevel / LogBackend: logging setup (slog or zap).
//   - S3*: object storage used for avatar uploads.
type Config struct {
	IdentityBaseURL   string
	CatalogBaseURL    string
	SessionBackend    string
	DatabasePath      string
	RedisAddr         string
	RequestTimeout    time.Duration
	CatalogTimeout    time.Duration
	CatalogRetries    int
	CatalogBackoff    time.Duration
	CountdownSeconds  int
	OTPErrorDelay     time.Duration
	IdentityRateLimit float64
	LogLevel          string
	LogBackend        string
	S3Region          string
	S3Bucket          string
	S3BaseEndpoint    string
	S3AccessKey       string
	S3SecretKey       string
}

// LoadDefaults populates c with the production endpoints and the timings the
// storefront has always used.
func (c *Config) LoadDefaults() {
	c.IdentityBaseURL = "https://fo6c74qovg.execute-api.af-south-1.amazonaws.com"
	c.CatalogBaseURL = "https://xf9zlapr5e.execute-api.af-south-1.amazonaws.com"
	c.SessionBackend = SessionSQLite
	c.DatabasePath = "techstore.db"
	c.RedisAddr = "127.0.0.1:6379"
	c.RequestTimeout = 30 * time.Second
	c.CatalogTimeout = 10 * time.Second
	c.CatalogRetries = 2
	c.CatalogBackoff = 2 * time.Second
	c.CountdownSeconds = 60
	c.OTPErrorDelay = time.Second
	c.IdentityRateLimit = 0
	c.LogLevel = "info"
	c.LogBackend = "slog"
	c.S3Region = "af-south-1"
	c.S3Bucket = "techstore-avatars"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
