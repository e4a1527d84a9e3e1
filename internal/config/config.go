// Package config loads the runtime configuration from fullform.yaml and FULLFORM_* env vars.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. FULLFORM_STORE_BACKEND.
const EnvPrefix = "FULLFORM"

// Config holds all the runtime configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Store      StoreConfig      `mapstructure:"store"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Throttle   ThrottleConfig   `mapstructure:"throttle"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Formplayer FormplayerConfig `mapstructure:"formplayer"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
	Options    OptionsConfig    `mapstructure:"options"`
	Fixtures   FixturesConfig   `mapstructure:"fixtures"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// ShutdownTimeoutSeconds bounds graceful shutdown of the HTTP server.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// StoreConfig selects where snapshots and display options are kept.
type StoreConfig struct {
	// Backend is one of memory, file, redis, sqlite.
	Backend string `mapstructure:"backend"`
	// Path is the directory of the file backend or the database file of sqlite.
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	Prefix     string `mapstructure:"prefix"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
	// Lock enables the distributed session lock.
	Lock bool `mapstructure:"lock"`
}

type ThrottleConfig struct {
	IntervalMs int `mapstructure:"interval_ms"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// FormplayerConfig points the answer transport at a form server. An empty URL keeps
// answers local.
type FormplayerConfig struct {
	URL            string `mapstructure:"url"`
	AuthToken      string `mapstructure:"auth_token"`
	Domain         string `mapstructure:"domain"`
	Username       string `mapstructure:"username"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// EncryptionConfig enables sealed snapshots when Secret is set.
type EncryptionConfig struct {
	Secret    string   `mapstructure:"secret"`
	Salt      string   `mapstructure:"salt"`
	Fallbacks []string `mapstructure:"fallbacks"`
	// PIIPatterns masks answers of matching questions before they are stored.
	PIIPatterns []string `mapstructure:"pii_patterns"`
}

type OptionsConfig struct {
	// Environment scopes display option keys, e.g. "prod".
	Environment string `mapstructure:"environment"`
}

type FixturesConfig struct {
	Dir string `mapstructure:"dir"`
}

// ThrottleInterval converts IntervalMs to a duration.
func (c *ThrottleConfig) ThrottleInterval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// TTL converts TTLMinutes to a duration. Zero means no expiry.
func (c *RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

func (c *FormplayerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                   ":8080",
			ShutdownTimeoutSeconds: 10,
		},
		Store: StoreConfig{
			Backend: "memory",
			Path:    ".fullform/sessions",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			Prefix:     "fullform:session:",
			TTLMinutes: 24 * 60,
		},
		Throttle: ThrottleConfig{
			IntervalMs: 500,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Formplayer: FormplayerConfig{
			TimeoutSeconds: 10,
		},
		Options: OptionsConfig{
			Environment: "local",
		},
		Fixtures: FixturesConfig{
			Dir: "fixtures",
		},
	}
}

// SetDefaults registers every default with viper so env overrides work for unset keys.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("server.addr", defaults.Server.Addr)
	viper.SetDefault("server.shutdown_timeout_seconds", defaults.Server.ShutdownTimeoutSeconds)

	viper.SetDefault("store.backend", defaults.Store.Backend)
	viper.SetDefault("store.path", defaults.Store.Path)

	viper.SetDefault("redis.addr", defaults.Redis.Addr)
	viper.SetDefault("redis.password", defaults.Redis.Password)
	viper.SetDefault("redis.db", defaults.Redis.DB)
	viper.SetDefault("redis.prefix", defaults.Redis.Prefix)
	viper.SetDefault("redis.ttl_minutes", defaults.Redis.TTLMinutes)
	viper.SetDefault("redis.lock", defaults.Redis.Lock)

	viper.SetDefault("throttle.interval_ms", defaults.Throttle.IntervalMs)
	viper.SetDefault("logging.level", defaults.Logging.Level)

	viper.SetDefault("formplayer.url", defaults.Formplayer.URL)
	viper.SetDefault("formplayer.auth_token", defaults.Formplayer.AuthToken)
	viper.SetDefault("formplayer.domain", defaults.Formplayer.Domain)
	viper.SetDefault("formplayer.username", defaults.Formplayer.Username)
	viper.SetDefault("formplayer.timeout_seconds", defaults.Formplayer.TimeoutSeconds)

	viper.SetDefault("encryption.secret", defaults.Encryption.Secret)
	viper.SetDefault("encryption.salt", defaults.Encryption.Salt)
	viper.SetDefault("encryption.fallbacks", defaults.Encryption.Fallbacks)
	viper.SetDefault("encryption.pii_patterns", defaults.Encryption.PIIPatterns)

	viper.SetDefault("options.environment", defaults.Options.Environment)
	viper.SetDefault("fixtures.dir", defaults.Fixtures.Dir)
}

// Init points viper at the config file and environment. An empty cfgFile searches
// ./fullform.yaml and the user config directory. A missing file is not an error.
func Init(cfgFile string) error {
	SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("fullform")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath(ConfigDir())
	}

	viper.SetEnvPrefix(EnvPrefix)
	// FULLFORM_STORE_BACKEND for store.backend
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// Load reads the configuration from viper into a Config struct and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fullform")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fullform"
	}
	return filepath.Join(home, ".config", "fullform")
}
