package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Advisory  AdvisoryConfig  `yaml:"advisory"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	MCP       MCPConfig       `yaml:"mcp"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Content-Type,X-Request-Id"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"127.0.0.1"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"   env:"SERVER_MAX_BODY_BYTES"   env-default:"26214400"`
}

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StorageConfig selects the record store backend.
type StorageConfig struct {
	Driver     string `yaml:"driver"      env:"STORAGE_DRIVER"      env-default:"sqlite"`
	SQLitePath string `yaml:"sqlite_path" env:"STORAGE_SQLITE_PATH" env-default:"./allergycare.db"`
}

// DatabaseConfig holds PostgreSQL connection settings. Only used when the
// storage driver is postgres.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DATABASE_AUTO_MIGRATE"       env-default:"true"`
}

// AdvisoryConfig holds settings of the language-model summarizer.
type AdvisoryConfig struct {
	Enabled     bool          `yaml:"enabled"      env:"ADVISORY_ENABLED"      env-default:"true"`
	BaseURL     string        `yaml:"base_url"     env:"ADVISORY_BASE_URL"     env-default:"https://api.together.xyz/v1"`
	APIKey      string        `yaml:"api_key"      env:"ADVISORY_API_KEY"`
	Model       string        `yaml:"model"        env:"ADVISORY_MODEL"        env-default:"meta-llama/Llama-3.3-70B-Instruct-Turbo"`
	Timeout     time.Duration `yaml:"timeout"      env:"ADVISORY_TIMEOUT"      env-default:"10s"`
	MaxTokens   int           `yaml:"max_tokens"   env:"ADVISORY_MAX_TOKENS"   env-default:"500"`
	Temperature float64       `yaml:"temperature"  env:"ADVISORY_TEMPERATURE"  env-default:"0.7"`
	DevFallback bool          `yaml:"dev_fallback" env:"ADVISORY_DEV_FALLBACK" env-default:"false"`
	TaskTTL     time.Duration `yaml:"task_ttl"     env:"ADVISORY_TASK_TTL"     env-default:"15m"`
	MaxTasks    int           `yaml:"max_tasks"    env:"ADVISORY_MAX_TASKS"    env-default:"256"`
}

// AnalysisConfig holds trigger analysis settings.
type AnalysisConfig struct {
	Timezone       string `yaml:"timezone"        env:"ANALYSIS_TIMEZONE"        env-default:"UTC"`
	HighConfidence int    `yaml:"high_confidence" env:"ANALYSIS_HIGH_CONFIDENCE" env-default:"70"`

	// Location is resolved from Timezone during validation.
	Location *time.Location `yaml:"-" env:"-"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// RateLimitConfig limits the expensive analysis endpoints per client.
type RateLimitConfig struct {
	AnalysisPerMinute int           `yaml:"analysis_per_minute" env:"RATE_LIMIT_ANALYSIS_PER_MINUTE" env-default:"20"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"    env:"RATE_LIMIT_CLEANUP_INTERVAL"    env-default:"5m"`
}

// MCP transports.
const (
	MCPTransportStdio = "stdio"
	MCPTransportHTTP  = "http"
)

// MCPConfig holds settings of the Model Context Protocol server.
type MCPConfig struct {
	Transport string `yaml:"transport" env:"MCP_TRANSPORT" env-default:"stdio"`
	Addr      string `yaml:"addr"      env:"MCP_ADDR"      env-default:"127.0.0.1:8081"`
}

// HasAPIKey reports whether a credential for the summarizer is configured.
func (c AdvisoryConfig) HasAPIKey() bool {
	return c.APIKey != ""
}
