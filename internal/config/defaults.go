package config

import "time"

// Default values applied to unset fields.
const (
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultRefDataBackend    = BackendJSONFile
	DefaultStandardsPath     = "data/standards.json"
	DefaultContributionsPath = "data/contributions.json"

	DefaultPostgresPort    = 5432
	DefaultPostgresSSLMode = "disable"
	DefaultPostgresConns   = 10

	DefaultRedisAddr    = "localhost:6379"
	DefaultRedisTimeout = 3 * time.Second
	DefaultRedisTTL     = 15 * time.Minute
	DefaultRedisPrefix  = "scentinel"

	DefaultMetricsPath = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the platform
// default. Explicitly configured values always win.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.RefData.Backend == "" {
		cfg.RefData.Backend = DefaultRefDataBackend
	}
	if cfg.RefData.StandardsPath == "" {
		cfg.RefData.StandardsPath = DefaultStandardsPath
	}
	if cfg.RefData.ContributionsPath == "" {
		cfg.RefData.ContributionsPath = DefaultContributionsPath
	}
	if cfg.RefData.Postgres.Port == 0 {
		cfg.RefData.Postgres.Port = DefaultPostgresPort
	}
	if cfg.RefData.Postgres.SSLMode == "" {
		cfg.RefData.Postgres.SSLMode = DefaultPostgresSSLMode
	}
	if cfg.RefData.Postgres.MaxConns == 0 {
		cfg.RefData.Postgres.MaxConns = DefaultPostgresConns
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = DefaultRedisTimeout
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = DefaultRedisTimeout
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = DefaultRedisTimeout
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisPrefix
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
