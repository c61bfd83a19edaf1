package alerting

import (
	"fmt"

	"github.com/OldStager01/fleet-health/pkg/models"
)

// ValidateCondition rejects misconfigured alert conditions at config time so
// evaluation never has to handle them. For monotonically-increasing
// parameters the thresholds must satisfy recovery < warning < critical; for
// decreasing parameters the inequality reverses.
func ValidateCondition(c *models.AlertConditionConfig) error {
	if c.Parameter == "" {
		return models.NewValidationError("parameter", "parameter is required")
	}
	known := false
	for _, p := range models.AllParameters() {
		if p == c.Parameter {
			known = true
			break
		}
	}
	if !known {
		return models.NewValidationError("parameter", fmt.Sprintf("unknown parameter %q", c.Parameter))
	}

	for _, rule := range []struct {
		name string
		r    models.ThresholdRule
	}{
		{"warning", c.Warning},
		{"critical", c.Critical},
		{"recovery", c.Recovery},
	} {
		if !rule.r.Operator.IsValid() {
			return models.NewValidationError(rule.name+".operator", fmt.Sprintf("unknown operator %q", rule.r.Operator))
		}
		if rule.r.MinDurationMinutes < 0 {
			return models.NewValidationError(rule.name+".min_duration_minutes", "must be non-negative")
		}
	}

	if c.Warning.Operator.Increasing() != c.Critical.Operator.Increasing() {
		return models.NewValidationError("critical.operator", "warning and critical must breach in the same direction")
	}

	if c.Warning.Operator.Increasing() {
		if !(c.Recovery.Value < c.Warning.Value && c.Warning.Value < c.Critical.Value) {
			return models.NewValidationError("thresholds", "require recovery < warning < critical for increasing parameters")
		}
		if c.Recovery.Operator.Increasing() {
			return models.NewValidationError("recovery.operator", "recovery must breach in the opposite direction")
		}
	} else {
		if !(c.Recovery.Value > c.Warning.Value && c.Warning.Value > c.Critical.Value) {
			return models.NewValidationError("thresholds", "require recovery > warning > critical for decreasing parameters")
		}
		if !c.Recovery.Operator.Increasing() {
			return models.NewValidationError("recovery.operator", "recovery must breach in the opposite direction")
		}
	}

	if c.AntiSpam.CooldownMinutes < 0 {
		return models.NewValidationError("anti_spam.cooldown_minutes", "must be non-negative")
	}
	if c.AntiSpam.MaxPerHour < 0 {
		return models.NewValidationError("anti_spam.max_per_hour", "must be non-negative")
	}
	if (c.AntiSpam.RecurringCount > 0) != (c.AntiSpam.RecurringWithinMinutes > 0) {
		return models.NewValidationError("anti_spam.recurring", "recurring count and window must be set together")
	}

	return nil
}
