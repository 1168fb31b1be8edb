package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the solverwatch server and CLI.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	ErrorLog ErrorLogConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port               int
	Env                string
	RateLimitPerMinute int
	ImportMaxBytes     int64
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsDir   string
}

type RedisConfig struct {
	URL string
}

// ErrorLogConfig controls the error log payload cache.
type ErrorLogConfig struct {
	CacheTTL time.Duration
}

type LogConfig struct {
	Level slog.Level
	// File, when set, receives a JSON copy of every log record.
	File string
}

// LoadOption adjusts validation in Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	redisOptional bool
}

// WithOptionalRedis lets Load succeed without REDIS_URL, for tools that run
// without the payload cache.
func WithOptionalRedis() LoadOption {
	return func(o *loadOptions) { o.redisOptional = true }
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load(opts ...LoadOption) (*Config, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               envInt("SOLVERWATCH_PORT", 8080),
			Env:                envString("SOLVERWATCH_ENV", "development"),
			RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 120),
			ImportMaxBytes:     int64(envInt("IMPORT_MAX_BYTES", 256<<20)),
		},
		Database: DatabaseConfig{
			URL:             databaseURL(),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrationsDir:   envString("DATABASE_MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		ErrorLog: ErrorLogConfig{
			CacheTTL: envDuration("ERROR_LOG_CACHE_TTL", time.Hour),
		},
		Log: LogConfig{
			Level: envLevel("LOG_LEVEL", slog.LevelInfo),
			File:  os.Getenv("LOG_FILE"),
		},
	}

	if err := cfg.validate(o); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate(o loadOptions) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL or DATABASE_HOST is required")
	}
	if !strings.HasPrefix(c.Database.URL, "postgres://") && !strings.HasPrefix(c.Database.URL, "postgresql://") {
		return fmt.Errorf("DATABASE_URL must start with postgres:// or postgresql://")
	}

	if c.Redis.URL == "" && !o.redisOptional {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SOLVERWATCH_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.ErrorLog.CacheTTL <= 0 {
		return fmt.Errorf("ERROR_LOG_CACHE_TTL must be positive, got %s", c.ErrorLog.CacheTTL)
	}

	return nil
}

// databaseURL returns DATABASE_URL, or builds one from the split
// DATABASE_HOST/PORT/USER/PASSWORD/NAME variables when it is unset.
func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	host := os.Getenv("DATABASE_HOST")
	if host == "" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(envString("DATABASE_USER", "postgres"), os.Getenv("DATABASE_PASSWORD")),
		Host:   net.JoinHostPort(host, strconv.Itoa(envInt("DATABASE_PORT", 5432))),
		Path:   "/" + envString("DATABASE_NAME", "solverwatch"),
	}
	if mode := os.Getenv("DATABASE_SSLMODE"); mode != "" {
		u.RawQuery = url.Values{"sslmode": {mode}}.Encode()
	}
	return u.String()
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return l
}
