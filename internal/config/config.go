// Package config loads and validates guestbook configuration via Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Supported values for db.driver.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	DB      DBConfig      `mapstructure:"db"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                   int `mapstructure:"port"`
	ReadHeaderTimeoutSec   int `mapstructure:"read_header_timeout_seconds"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// LoggingConfig selects the zap level, encoder and optional rolling file.
type LoggingConfig struct {
	Level          string `mapstructure:"level"`
	Development    bool   `mapstructure:"development"`
	File           string `mapstructure:"file"`
	FileMaxSizeMB  int    `mapstructure:"file_max_size_mb"`
	FileMaxBackups int    `mapstructure:"file_max_backups"`
	FileMaxAgeDays int    `mapstructure:"file_max_age_days"`
	FileCompress   bool   `mapstructure:"file_compress"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	Driver                string `mapstructure:"driver"`
	Host                  string `mapstructure:"host"`
	Port                  int    `mapstructure:"port"`
	User                  string `mapstructure:"user"`
	Password              string `mapstructure:"password"`
	Name                  string `mapstructure:"name"`
	DSN                   string `mapstructure:"dsn"`
	Path                  string `mapstructure:"path"`
	Table                 string `mapstructure:"table"`
	MaxConns              int    `mapstructure:"max_conns"`
	ConnectTimeoutSeconds int    `mapstructure:"connect_timeout_seconds"`
}

// MetricsConfig holds the namespace for runtime and process metrics.
type MetricsConfig struct {
	Prefix string `mapstructure:"prefix"`
}

// envBindings maps config keys onto the unprefixed environment variables the
// service has always read.
var envBindings = map[string]string{
	"server.port":                     "PORT",
	"server.shutdown_timeout_seconds": "SHUTDOWN_TIMEOUT_SECONDS",
	"logging.level":                   "LOG_LEVEL",
	"logging.development":             "LOG_DEVELOPMENT",
	"logging.file":                    "LOG_FILE",
	"logging.file_max_size_mb":        "LOG_FILE_MAX_SIZE_MB",
	"logging.file_max_backups":        "LOG_FILE_MAX_BACKUPS",
	"logging.file_max_age_days":       "LOG_FILE_MAX_AGE_DAYS",
	"logging.file_compress":           "LOG_FILE_COMPRESS",
	"db.driver":                       "DB_DRIVER",
	"db.host":                         "DB_HOST",
	"db.port":                         "DB_PORT",
	"db.user":                         "DB_USER",
	"db.password":                     "DB_PASSWORD",
	"db.name":                         "DB_NAME",
	"db.dsn":                          "DB_DSN",
	"db.path":                         "DB_PATH",
	"db.table":                        "DB_TABLE",
	"db.max_conns":                    "DB_MAX_CONNS",
	"db.connect_timeout_seconds":      "DB_CONNECT_TIMEOUT_SECONDS",
	"metrics.prefix":                  "METRICS_PREFIX",
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_header_timeout_seconds", 5)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.file_max_size_mb", 100)
	v.SetDefault("logging.file_max_backups", 3)
	v.SetDefault("logging.file_max_age_days", 7)
	v.SetDefault("db.driver", DriverMySQL)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.user", "user")
	v.SetDefault("db.password", "password")
	v.SetDefault("db.name", "guestbook_db")
	v.SetDefault("db.path", "guestbook.db")
	v.SetDefault("db.table", "entries")
	v.SetDefault("db.max_conns", 10)
	v.SetDefault("db.connect_timeout_seconds", 5)
	v.SetDefault("metrics.prefix", "guestbook_app_")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	switch c.DB.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("db.driver %q is not one of mysql, postgres, sqlite, memory", c.DB.Driver)
	}
	if c.DB.MaxConns <= 0 {
		return fmt.Errorf("db.max_conns must be > 0")
	}
	if c.DB.Port < 0 {
		return fmt.Errorf("db.port must be >= 0")
	}
	if c.DB.Driver == DriverSQLite && c.DB.Path == "" {
		return fmt.Errorf("db.path must be set when db.driver is sqlite")
	}
	return nil
}

// ConnectTimeout converts the configured seconds into a duration.
func (c DBConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

// ShutdownTimeout converts the configured seconds into a duration.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// ReadHeaderTimeout converts the configured seconds into a duration.
func (c ServerConfig) ReadHeaderTimeout() time.Duration {
	return time.Duration(c.ReadHeaderTimeoutSec) * time.Second
}
