package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/fleet-health")
	}

	// Environment variable settings
	v.SetEnvPrefix("FLEETHEALTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "fleet-health")
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "15s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "fleethealth")
	v.SetDefault("database.user", "admin")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.migration_timeout", "60s")

	// Hysteresis defaults
	v.SetDefault("hysteresis.soft_stale_delay", "5m")
	v.SetDefault("hysteresis.hard_stale_delay", "15m")
	v.SetDefault("hysteresis.holds.DANGER.min_hold", "1m")
	v.SetDefault("hysteresis.holds.DANGER.required_samples", 1)
	v.SetDefault("hysteresis.holds.CRITICAL.min_hold", "2m")
	v.SetDefault("hysteresis.holds.CRITICAL.required_samples", 2)
	v.SetDefault("hysteresis.holds.WARNING.min_hold", "3m")
	v.SetDefault("hysteresis.holds.WARNING.required_samples", 2)
	v.SetDefault("hysteresis.holds.HEALTHY.min_hold", "5m")
	v.SetDefault("hysteresis.holds.HEALTHY.required_samples", 3)

	// Analytics defaults
	v.SetDefault("analytics.baseline_window_days", 14)
	v.SetDefault("analytics.trend_window_hours", 6)
	v.SetDefault("analytics.baselines_kept", 5)
	v.SetDefault("analytics.trends_kept", 10)

	// Scheduler defaults
	v.SetDefault("scheduler.trend_interval", "1h")
	v.SetDefault("scheduler.baseline_interval", "24h")
	v.SetDefault("scheduler.aggregation_interval", "24h")
	v.SetDefault("scheduler.stale_sweep_interval", "1m")
	v.SetDefault("scheduler.task_timeout", "2m")
	v.SetDefault("scheduler.server_lookback", "48h")

	// API defaults
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "15s")
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.rate_burst", 200)
	v.SetDefault("api.default_limit", 50)
	v.SetDefault("api.max_limit", 500)

	// WebSocket defaults
	v.SetDefault("websocket.max_connections", 1000)
	v.SetDefault("websocket.ping_interval", "30s")

	// Events defaults
	v.SetDefault("events.buffer_size", 100)
}
