package config

import (
	"errors"
	"fmt"
)

func (c *Config) Validate() error {
	var errs []error

	// App validation
	if c.App.Name == "" {
		errs = append(errs, errors.New("app.name is required"))
	}

	validModes := map[string]bool{"development": true, "production": true, "test": true}
	if !validModes[c.App.Mode] {
		errs = append(errs, fmt.Errorf("app.mode must be one of: development, production, test"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		errs = append(errs, fmt.Errorf("app.log_level must be one of: debug, info, warn, error"))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, errors.New("database.port must be between 1 and 65535"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is required"))
	}
	if c.Database.MaxConnections <= 0 {
		errs = append(errs, errors.New("database.max_connections must be positive"))
	}

	// Hysteresis validation
	if c.Hysteresis.SoftStaleDelay <= 0 {
		errs = append(errs, errors.New("hysteresis.soft_stale_delay must be positive"))
	}
	if c.Hysteresis.HardStaleDelay <= c.Hysteresis.SoftStaleDelay {
		errs = append(errs, errors.New("hysteresis.hard_stale_delay must exceed soft_stale_delay"))
	}
	for status, hold := range c.Hysteresis.Holds {
		if hold.MinHold < 0 {
			errs = append(errs, fmt.Errorf("hysteresis.holds.%s.min_hold must not be negative", status))
		}
		if hold.RequiredSamples < 1 {
			errs = append(errs, fmt.Errorf("hysteresis.holds.%s.required_samples must be at least 1", status))
		}
	}

	// Analytics validation
	if c.Analytics.BaselineWindowDays <= 0 {
		errs = append(errs, errors.New("analytics.baseline_window_days must be positive"))
	}
	if c.Analytics.TrendWindowHours <= 0 {
		errs = append(errs, errors.New("analytics.trend_window_hours must be positive"))
	}

	// Scheduler validation
	if c.Scheduler.TrendInterval <= 0 {
		errs = append(errs, errors.New("scheduler.trend_interval must be positive"))
	}
	if c.Scheduler.BaselineInterval <= 0 {
		errs = append(errs, errors.New("scheduler.baseline_interval must be positive"))
	}
	if c.Scheduler.StaleSweepInterval <= 0 {
		errs = append(errs, errors.New("scheduler.stale_sweep_interval must be positive"))
	}
	if c.Scheduler.TaskTimeout <= 0 {
		errs = append(errs, errors.New("scheduler.task_timeout must be positive"))
	}

	// API validation
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, errors.New("api.port must be between 1 and 65535"))
	}
	if c.API.MaxLimit > 0 && c.API.DefaultLimit > c.API.MaxLimit {
		errs = append(errs, errors.New("api.default_limit must not exceed api.max_limit"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
