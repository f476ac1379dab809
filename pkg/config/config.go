package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for aps-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration (schedule view cache)
	Redis RedisConfig `yaml:"redis"`

	// Scheduling configuration (plant-level planning knobs)
	Scheduling SchedulingConfig `yaml:"scheduling"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"aps"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"aps_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration. An empty host disables the cache;
// the server then serves every schedule read from PostgreSQL.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// SchedulingConfig holds the plant-level planning knobs. Defaults mirror the
// standard plant: 08:00-17:00 work day, 3h overtime allowance, 30 minute
// changeover fallback, overtime billed at 450 per hour.
type SchedulingConfig struct {
	WorkDayStartHour         int     `yaml:"work_day_start_hour" env:"SCHED_WORK_DAY_START_HOUR" env-default:"8"`
	WorkDayEndHour           int     `yaml:"work_day_end_hour" env:"SCHED_WORK_DAY_END_HOUR" env-default:"17"`
	MaxOvertimeHours         float64 `yaml:"max_overtime_hours" env:"SCHED_MAX_OVERTIME_HOURS" env-default:"3"`
	DefaultChangeoverMinutes float64 `yaml:"default_changeover_minutes" env:"SCHED_DEFAULT_CHANGEOVER_MINUTES" env-default:"30"`
	OvertimeCostPerHour      float64 `yaml:"overtime_cost_per_hour" env:"SCHED_OVERTIME_COST_PER_HOUR" env-default:"450"`
	DefaultHorizonDays       int     `yaml:"default_horizon_days" env:"SCHED_DEFAULT_HORIZON_DAYS" env-default:"7"`
	ScheduleCacheTTLSeconds  int     `yaml:"schedule_cache_ttl_seconds" env:"SCHED_SCHEDULE_CACHE_TTL_SECONDS" env-default:"60"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	s := c.Scheduling
	if s.WorkDayStartHour < 0 || s.WorkDayEndHour > 24 || s.WorkDayEndHour <= s.WorkDayStartHour {
		return fmt.Errorf("work day window %d-%d is not a valid hour range", s.WorkDayStartHour, s.WorkDayEndHour)
	}
	if s.MaxOvertimeHours < 0 {
		return fmt.Errorf("max_overtime_hours cannot be negative, got %g", s.MaxOvertimeHours)
	}
	if s.DefaultChangeoverMinutes < 0 {
		return fmt.Errorf("default_changeover_minutes cannot be negative, got %g", s.DefaultChangeoverMinutes)
	}
	if s.DefaultHorizonDays < 1 {
		return fmt.Errorf("default_horizon_days must be at least 1, got %d", s.DefaultHorizonDays)
	}
	return nil
}
