// Package config provides configuration loading, defaults, and validation
// for the Scentinel platform.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all platform
// settings.
const envPrefix = "SCENTINEL"

// envKeys are bound explicitly: viper's Unmarshal does not see keys that
// exist only as environment variables under AutomaticEnv.
var envKeys = []string{
	"server.port", "server.read_timeout", "server.write_timeout",
	"server.shutdown_timeout", "server.cors_allowed_origins",
	"refdata.backend", "refdata.standards_path", "refdata.contributions_path",
	"refdata.watch", "refdata.sqlite_path",
	"refdata.postgres.host", "refdata.postgres.port", "refdata.postgres.user",
	"refdata.postgres.password", "refdata.postgres.db_name",
	"refdata.postgres.ssl_mode", "refdata.postgres.max_conns",
	"refdata.postgres.conn_max_lifetime",
	"redis.enabled", "redis.addr", "redis.password", "redis.db",
	"redis.dial_timeout", "redis.read_timeout", "redis.write_timeout",
	"redis.default_ttl", "redis.key_prefix",
	"metrics.enabled", "metrics.path",
	"log.level", "log.format", "log.output_paths",
}

// newViper builds a pre-configured Viper instance: YAML file type,
// SCENTINEL_ env prefix, automatic env binding, and a key replacer mapping
// "." to "_" so nested keys like "refdata.backend" resolve to
// SCENTINEL_REFDATA_BACKEND.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the YAML file at configPath, merges SCENTINEL_* environment
// overrides, applies defaults for unset fields, and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from SCENTINEL_* environment
// variables with no config file, the preferred strategy for containerized
// deployments.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	// Environment values arrive as strings; weak typing lets them decode
	// into int and bool fields.
	weak := func(dc *mapstructure.DecoderConfig) { dc.WeaklyTypedInput = true }
	if err := v.Unmarshal(cfg, weak); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the newly parsed
// Config whenever the file changes on disk. It is intended for hot-reloading
// non-critical settings such as log level; callers apply only the safe
// subset at runtime. Watch is non-blocking; the background goroutine is
// managed by viper. A changed file that fails to parse or validate does not
// trigger onChange.
func Watch(configPath string, onChange func(*Config)) error {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}
