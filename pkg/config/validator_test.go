package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:     "fleet-health",
			Mode:     "development",
			LogLevel: "info",
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			Name:           "fleet_health",
			MaxConnections: 10,
		},
		Hysteresis: HysteresisConfig{
			SoftStaleDelay: 5 * time.Minute,
			HardStaleDelay: 15 * time.Minute,
			Holds: map[string]HoldConfig{
				"CRITICAL": {MinHold: 2 * time.Minute, RequiredSamples: 2},
			},
		},
		Analytics: AnalyticsConfig{
			BaselineWindowDays: 7,
			TrendWindowHours:   4,
		},
		Scheduler: SchedulerConfig{
			TrendInterval:      15 * time.Minute,
			BaselineInterval:   24 * time.Hour,
			StaleSweepInterval: time.Minute,
			TaskTimeout:        2 * time.Minute,
		},
		API: APIConfig{
			Port:         8080,
			DefaultLimit: 50,
			MaxLimit:     500,
		},
	}
}

func TestValidate_AcceptsGoodConfig(t *testing.T) {
	assert.NoError(t, validTestConfig().Validate())
}

func TestValidate_RejectsBadFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"missing app name", func(c *Config) { c.App.Name = "" }, "app.name"},
		{"bad mode", func(c *Config) { c.App.Mode = "staging" }, "app.mode"},
		{"bad log level", func(c *Config) { c.App.LogLevel = "trace" }, "app.log_level"},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, "database.host"},
		{"db port out of range", func(c *Config) { c.Database.Port = 70000 }, "database.port"},
		{"missing db name", func(c *Config) { c.Database.Name = "" }, "database.name"},
		{"zero db connections", func(c *Config) { c.Database.MaxConnections = 0 }, "database.max_connections"},
		{"zero soft stale delay", func(c *Config) { c.Hysteresis.SoftStaleDelay = 0 }, "soft_stale_delay"},
		{
			"hard stale not beyond soft",
			func(c *Config) { c.Hysteresis.HardStaleDelay = c.Hysteresis.SoftStaleDelay },
			"hard_stale_delay",
		},
		{
			"hold without samples",
			func(c *Config) { c.Hysteresis.Holds["CRITICAL"] = HoldConfig{RequiredSamples: 0} },
			"required_samples",
		},
		{"zero baseline window", func(c *Config) { c.Analytics.BaselineWindowDays = 0 }, "baseline_window_days"},
		{"zero trend window", func(c *Config) { c.Analytics.TrendWindowHours = 0 }, "trend_window_hours"},
		{"zero task timeout", func(c *Config) { c.Scheduler.TaskTimeout = 0 }, "task_timeout"},
		{"api port out of range", func(c *Config) { c.API.Port = 0 }, "api.port"},
		{"default limit above max", func(c *Config) { c.API.DefaultLimit = 1000 }, "default_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidate_AccumulatesAllErrors(t *testing.T) {
	cfg := validTestConfig()
	cfg.App.Name = ""
	cfg.Database.Host = ""
	cfg.API.Port = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app.name")
	assert.Contains(t, err.Error(), "database.host")
	assert.Contains(t, err.Error(), "api.port")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		Name:     "fleet_health",
		User:     "monitor",
		Password: "secret",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "dbname=fleet_health")
	// SSL defaults off when unset.
	assert.Contains(t, dsn, "sslmode=disable")

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.DSN(), "sslmode=require")
}
