// Package config loads settings from defaults, an optional YAML file and
// FA_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sangupta/fileanalysis/internal/clickhouse"
	"github.com/sangupta/fileanalysis/internal/dialect"
	"github.com/sangupta/fileanalysis/internal/observability"
	"github.com/sangupta/fileanalysis/internal/retry"
	"github.com/sangupta/fileanalysis/internal/writer"
)

// Config holds all configuration for the application
type Config struct {
	Sink       string           `yaml:"sink"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Postgres   PostgresConfig   `yaml:"postgres"`

	// bbolt file for per-column maximum widths; empty disables it
	ColumnSizePath string `yaml:"column_size_path"`

	Retry  RetryConfig  `yaml:"retry"`
	Format FormatConfig `yaml:"format"`

	LogLevel string        `yaml:"log_level"`
	LogFile  string        `yaml:"log_file"`
	Tracing  TracingConfig `yaml:"tracing"`
}

// ClickHouseConfig configures the ClickHouse sink
type ClickHouseConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Database  string `yaml:"database"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	BatchSize int    `yaml:"batch_size"`
}

// PostgresConfig configures the PostgreSQL sink
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int    `yaml:"max_conns"`
}

// RetryConfig configures retries of sink connection setup
type RetryConfig struct {
	MaxAttempts    int     `yaml:"max_attempts"`
	InitialDelayMs int     `yaml:"initial_delay_ms"`
	MaxDelayMs     int     `yaml:"max_delay_ms"`
	Multiplier     float64 `yaml:"multiplier"`
}

// FormatConfig holds the per-dialect options
type FormatConfig struct {
	HasHeaderRow       bool   `yaml:"has_header_row"`
	Delimiter          string `yaml:"delimiter"`
	RetainLongMessages bool   `yaml:"retain_long_messages"`
	SkipLevel          string `yaml:"skip_level"`
	Table              string `yaml:"table"`
}

// TracingConfig configures OpenTelemetry export
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"`
}

// Default returns the built-in configuration
func Default() *Config {
	r := retry.DefaultConfig()
	return &Config{
		Sink: writer.KindMemory,
		ClickHouse: ClickHouseConfig{
			Host:      "localhost",
			Port:      9000,
			Database:  "fileanalysis",
			User:      "default",
			BatchSize: 1000,
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
		},
		Retry: RetryConfig{
			MaxAttempts:    r.MaxAttempts,
			InitialDelayMs: int(r.InitialDelay / time.Millisecond),
			MaxDelayMs:     int(r.MaxDelay / time.Millisecond),
			Multiplier:     r.Multiplier,
		},
		Format: FormatConfig{
			HasHeaderRow: true,
			Delimiter:    ",",
		},
		LogLevel: "info",
		Tracing: TracingConfig{
			Protocol: "grpc",
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment are used. overrides (command line flags) run
// after the environment; the result is validated once, at the end.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()

	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	c.Sink = getEnv("FA_SINK", c.Sink)

	c.ClickHouse.Host = getEnv("FA_CLICKHOUSE_HOST", c.ClickHouse.Host)
	c.ClickHouse.Port = getEnvInt("FA_CLICKHOUSE_PORT", c.ClickHouse.Port)
	c.ClickHouse.Database = getEnv("FA_CLICKHOUSE_DB", c.ClickHouse.Database)
	c.ClickHouse.User = getEnv("FA_CLICKHOUSE_USER", c.ClickHouse.User)
	c.ClickHouse.Password = getEnv("FA_CLICKHOUSE_PASSWORD", c.ClickHouse.Password)
	c.ClickHouse.BatchSize = getEnvInt("FA_CLICKHOUSE_BATCH_SIZE", c.ClickHouse.BatchSize)

	c.Postgres.DSN = getEnv("FA_POSTGRES_DSN", c.Postgres.DSN)
	c.Postgres.MaxConns = getEnvInt("FA_POSTGRES_MAX_CONNS", c.Postgres.MaxConns)

	c.ColumnSizePath = getEnv("FA_COLUMN_SIZE_PATH", c.ColumnSizePath)

	c.Retry.MaxAttempts = getEnvInt("FA_RETRY_MAX_ATTEMPTS", c.Retry.MaxAttempts)
	c.Retry.InitialDelayMs = getEnvInt("FA_RETRY_INITIAL_DELAY_MS", c.Retry.InitialDelayMs)
	c.Retry.MaxDelayMs = getEnvInt("FA_RETRY_MAX_DELAY_MS", c.Retry.MaxDelayMs)
	c.Retry.Multiplier = getEnvFloat("FA_RETRY_MULTIPLIER", c.Retry.Multiplier)

	c.Format.HasHeaderRow = getEnvBool("FA_HAS_HEADER_ROW", c.Format.HasHeaderRow)
	c.Format.Delimiter = getEnv("FA_DELIMITER", c.Format.Delimiter)
	c.Format.RetainLongMessages = getEnvBool("FA_RETAIN_LONG_MESSAGES", c.Format.RetainLongMessages)
	c.Format.SkipLevel = getEnv("FA_SKIP_LEVEL", c.Format.SkipLevel)
	c.Format.Table = getEnv("FA_TABLE", c.Format.Table)

	c.LogLevel = getEnv("FA_LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("FA_LOG_FILE", c.LogFile)
	c.Tracing.Enabled = getEnvBool("FA_TRACING_ENABLED", c.Tracing.Enabled)
	c.Tracing.Endpoint = getEnv("FA_TRACING_ENDPOINT", c.Tracing.Endpoint)
	c.Tracing.Protocol = getEnv("FA_TRACING_PROTOCOL", c.Tracing.Protocol)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Sink {
	case writer.KindMemory:
	case writer.KindClickHouse:
		if c.ClickHouse.Host == "" {
			return errors.New("clickhouse host is required")
		}
		if c.ClickHouse.Port <= 0 || c.ClickHouse.Port > 65535 {
			return errors.New("clickhouse port must be between 1 and 65535")
		}
		if c.ClickHouse.Database == "" {
			return errors.New("clickhouse database is required")
		}
		if c.ClickHouse.BatchSize < 1 {
			return errors.New("clickhouse batch size must be at least 1")
		}
	case writer.KindPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("postgres dsn is required")
		}
	default:
		return fmt.Errorf("unknown sink %q (use memory, clickhouse or postgres)", c.Sink)
	}

	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry max attempts must be at least 1")
	}
	if c.Retry.Multiplier < 1 {
		return errors.New("retry multiplier must be at least 1")
	}
	if c.Format.Delimiter == "" {
		return errors.New("delimiter must not be empty")
	}
	if c.Tracing.Enabled && c.Tracing.Protocol != "grpc" && c.Tracing.Protocol != "http" {
		return fmt.Errorf("unsupported tracing protocol %q (use grpc or http)", c.Tracing.Protocol)
	}

	return nil
}

// RetryPolicy converts the retry settings
func (c *Config) RetryPolicy() retry.Config {
	r := retry.DefaultConfig()
	r.MaxAttempts = c.Retry.MaxAttempts
	r.InitialDelay = time.Duration(c.Retry.InitialDelayMs) * time.Millisecond
	r.MaxDelay = time.Duration(c.Retry.MaxDelayMs) * time.Millisecond
	r.Multiplier = c.Retry.Multiplier
	return r
}

// SinkOptions builds the options of writer.Open
func (c *Config) SinkOptions() writer.Options {
	return writer.Options{
		Kind: c.Sink,
		ClickHouse: clickhouse.Options{
			Host:     c.ClickHouse.Host,
			Port:     c.ClickHouse.Port,
			Database: c.ClickHouse.Database,
			Username: c.ClickHouse.User,
			Password: c.ClickHouse.Password,
		},
		BatchSize:        c.ClickHouse.BatchSize,
		PostgresDSN:      c.Postgres.DSN,
		PostgresMaxConns: int32(c.Postgres.MaxConns),
		Retry:            c.RetryPolicy(),
		ColumnSizePath:   c.ColumnSizePath,
	}
}

// DialectOptions builds the options every dialect is created with
func (c *Config) DialectOptions() dialect.Options {
	return dialect.Options{
		HasHeaderRow:       c.Format.HasHeaderRow,
		Delimiter:          UnescapeDelimiter(c.Format.Delimiter),
		RetainLongMessages: c.Format.RetainLongMessages,
		SkipLevel:          c.Format.SkipLevel,
		Table:              c.Format.Table,
	}
}

// TracerConfig builds the tracer configuration
func (c *Config) TracerConfig(version string) observability.TracerConfig {
	return observability.TracerConfig{
		ServiceName:    "fileanalysis",
		ServiceVersion: version,
		Endpoint:       c.Tracing.Endpoint,
		Protocol:       c.Tracing.Protocol,
		Enabled:        c.Tracing.Enabled,
	}
}

// UnescapeDelimiter turns the escapes \t, \n and \\ typed on a command line into characters
func UnescapeDelimiter(s string) string {
	return strings.NewReplacer(`\t`, "\t", `\n`, "\n", `\\`, `\`).Replace(s)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
