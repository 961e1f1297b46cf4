package config

import (
	"fmt"
	"net/url"
	"time"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Storage.validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	if c.Storage.Driver == DriverPostgres && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required when storage.driver is %q", DriverPostgres)
	}

	if err := c.Advisory.validate(); err != nil {
		return fmt.Errorf("advisory: %w", err)
	}

	if err := c.Analysis.validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}

	if c.MCP.Transport != MCPTransportStdio && c.MCP.Transport != MCPTransportHTTP {
		return fmt.Errorf("mcp.transport must be %q or %q (got %q)", MCPTransportStdio, MCPTransportHTTP, c.MCP.Transport)
	}

	if c.RateLimit.AnalysisPerMinute <= 0 {
		return fmt.Errorf("rate_limit.analysis_per_minute must be > 0 (got %d)", c.RateLimit.AnalysisPerMinute)
	}

	return nil
}

func (s *StorageConfig) validate() error {
	switch s.Driver {
	case DriverSQLite:
		if s.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required")
		}
	case DriverPostgres:
	default:
		return fmt.Errorf("driver must be %q or %q (got %q)", DriverSQLite, DriverPostgres, s.Driver)
	}
	return nil
}

func (a *AdvisoryConfig) validate() error {
	if a.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %s)", a.Timeout)
	}
	if a.MaxTasks <= 0 {
		return fmt.Errorf("max_tasks must be > 0 (got %d)", a.MaxTasks)
	}
	if a.TaskTTL <= 0 {
		return fmt.Errorf("task_ttl must be > 0 (got %s)", a.TaskTTL)
	}
	if a.Temperature < 0 || a.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2] (got %v)", a.Temperature)
	}
	u, err := url.Parse(a.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL (got %q)", a.BaseURL)
	}
	return nil
}

func (a *AnalysisConfig) validate() error {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	a.Location = loc

	if a.HighConfidence < 0 || a.HighConfidence > 100 {
		return fmt.Errorf("high_confidence must be within [0, 100] (got %d)", a.HighConfidence)
	}
	return nil
}
