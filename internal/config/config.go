// Package config defines all configuration structures for the Scentinel
// platform. No I/O or parsing logic lives here, only plain data types and
// validation; loading is in loader.go.
package config

import (
	"fmt"
	"time"

	"github.com/olfacto/scentinel/internal/infrastructure/monitoring/logging"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// CORSAllowedOrigins lists origins permitted by the CORS middleware;
	// empty disables CORS headers entirely.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// RefDataConfig selects and parameterizes the reference-data backend.
type RefDataConfig struct {
	// Backend is one of "jsonfile", "sqlite", "postgres".
	Backend string `mapstructure:"backend"`

	// StandardsPath and ContributionsPath locate the two JSON reference
	// files for the jsonfile backend.
	StandardsPath     string `mapstructure:"standards_path"`
	ContributionsPath string `mapstructure:"contributions_path"`

	// Watch enables hot-reloading of the jsonfile backend when the files
	// change on disk.
	Watch bool `mapstructure:"watch"`

	// SQLitePath locates the embedded database for the sqlite backend.
	SQLitePath string `mapstructure:"sqlite_path"`

	// Postgres parameterizes the postgres backend.
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN renders the pgx connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// RedisConfig holds result-cache connection parameters. Enabled=false runs
// the service without a cache; calculations are cheap enough that Redis is
// an optimization, never a requirement.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Config is the root configuration structure for the platform. Every
// component reads its settings from the relevant sub-struct.
type Config struct {
	Server  ServerConfig      `mapstructure:"server"`
	RefData RefDataConfig     `mapstructure:"refdata"`
	Redis   RedisConfig       `mapstructure:"redis"`
	Metrics MetricsConfig     `mapstructure:"metrics"`
	Log     logging.LogConfig `mapstructure:"log"`
}

// Validate performs semantic validation of the fully-populated Config.
// Callers should treat any error as fatal and refuse to start.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}

	switch c.RefData.Backend {
	case BackendJSONFile:
		if c.RefData.StandardsPath == "" || c.RefData.ContributionsPath == "" {
			return fmt.Errorf("config: refdata backend %q requires standards_path and contributions_path", BackendJSONFile)
		}
	case BackendSQLite:
		if c.RefData.SQLitePath == "" {
			return fmt.Errorf("config: refdata backend %q requires sqlite_path", BackendSQLite)
		}
	case BackendPostgres:
		if c.RefData.Postgres.Host == "" || c.RefData.Postgres.DBName == "" {
			return fmt.Errorf("config: refdata backend %q requires postgres host and db_name", BackendPostgres)
		}
	default:
		return fmt.Errorf("config: refdata.backend %q is invalid; expected %s|%s|%s",
			c.RefData.Backend, BackendJSONFile, BackendSQLite, BackendPostgres)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.enabled requires redis.addr")
	}
	return nil
}

// Reference-data backend names.
const (
	BackendJSONFile = "jsonfile"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)
