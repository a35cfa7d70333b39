package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every bound variable; viper treats empty values as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Fatalf("expected port 3000, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected info level, got %q", cfg.Logging.Level)
	}
	db := cfg.DB
	if db.Driver != DriverMySQL || db.Host != "localhost" || db.User != "user" ||
		db.Password != "password" || db.Name != "guestbook_db" {
		t.Fatalf("unexpected db defaults: %+v", db)
	}
	if db.MaxConns != 10 {
		t.Fatalf("expected pool size 10, got %d", db.MaxConns)
	}
	if cfg.Metrics.Prefix != "guestbook_app_" {
		t.Fatalf("expected metrics prefix guestbook_app_, got %q", cfg.Metrics.Prefix)
	}
	if got := cfg.Server.ShutdownTimeout(); got != 10*time.Second {
		t.Fatalf("expected shutdown timeout 10s, got %v", got)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "gb")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("DB_NAME", "visits")
	t.Setenv("DB_MAX_CONNS", "4")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8081 || cfg.Logging.Level != "debug" {
		t.Fatalf("expected env overrides, got %+v", cfg)
	}
	if cfg.DB.Driver != DriverPostgres || cfg.DB.Host != "db.internal" || cfg.DB.User != "gb" ||
		cfg.DB.Password != "s3cret" || cfg.DB.Name != "visits" || cfg.DB.MaxConns != 4 {
		t.Fatalf("expected db env overrides, got %+v", cfg.DB)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
  shutdown_timeout_seconds: 3
logging:
  level: warn
  development: true
  file: /tmp/guestbook.log
db:
  driver: sqlite
  path: /var/lib/guestbook/guestbook.db
  max_conns: 2
  connect_timeout_seconds: 1
metrics:
  prefix: gb_
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if !cfg.Logging.Development || cfg.Logging.Level != "warn" || cfg.Logging.File != "/tmp/guestbook.log" {
		t.Fatalf("expected logging overrides, got %+v", cfg.Logging)
	}
	if cfg.DB.Driver != DriverSQLite || cfg.DB.Path != "/var/lib/guestbook/guestbook.db" || cfg.DB.MaxConns != 2 {
		t.Fatalf("expected db overrides, got %+v", cfg.DB)
	}
	if got := cfg.DB.ConnectTimeout(); got != time.Second {
		t.Fatalf("expected connect timeout 1s, got %v", got)
	}
	if cfg.Metrics.Prefix != "gb_" {
		t.Fatalf("expected metrics prefix gb_, got %q", cfg.Metrics.Prefix)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:  ServerConfig{Port: 3000},
		Logging: LoggingConfig{Level: "info"},
		DB:      DBConfig{Driver: DriverMySQL, MaxConns: 10},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid port",
			cfg: func() Config {
				c := base
				c.Server.Port = 0
				return c
			}(),
			want: "server.port",
		},
		{
			name: "invalid level",
			cfg: func() Config {
				c := base
				c.Logging.Level = "verbose"
				return c
			}(),
			want: "logging.level",
		},
		{
			name: "unknown driver",
			cfg: func() Config {
				c := base
				c.DB.Driver = "oracle"
				return c
			}(),
			want: "db.driver",
		},
		{
			name: "empty pool",
			cfg: func() Config {
				c := base
				c.DB.MaxConns = 0
				return c
			}(),
			want: "db.max_conns",
		},
		{
			name: "sqlite without path",
			cfg: func() Config {
				c := base
				c.DB.Driver = DriverSQLite
				return c
			}(),
			want: "db.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("expected base config to validate, got %v", err)
	}
}
