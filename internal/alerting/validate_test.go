package alerting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OldStager01/fleet-health/pkg/models"
)

func validCondition() *models.AlertConditionConfig {
	return &models.AlertConditionConfig{
		ID:        "cond-1",
		Parameter: models.ParamCPU,
		Warning:   models.ThresholdRule{Value: 80, Operator: models.OpGreaterEqual},
		Critical:  models.ThresholdRule{Value: 90, Operator: models.OpGreaterEqual},
		Recovery:  models.ThresholdRule{Value: 70, Operator: models.OpLessThan},
		Enabled:   true,
	}
}

func TestValidateCondition(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.AlertConditionConfig)
		wantErr bool
	}{
		{
			name:   "valid increasing condition",
			mutate: func(c *models.AlertConditionConfig) {},
		},
		{
			name: "valid decreasing condition",
			mutate: func(c *models.AlertConditionConfig) {
				c.Parameter = models.ParamCPU
				c.Warning = models.ThresholdRule{Value: 20, Operator: models.OpLessEqual}
				c.Critical = models.ThresholdRule{Value: 10, Operator: models.OpLessEqual}
				c.Recovery = models.ThresholdRule{Value: 30, Operator: models.OpGreaterThan}
			},
		},
		{
			name:    "missing parameter",
			mutate:  func(c *models.AlertConditionConfig) { c.Parameter = "" },
			wantErr: true,
		},
		{
			name:    "unknown parameter",
			mutate:  func(c *models.AlertConditionConfig) { c.Parameter = "temperature" },
			wantErr: true,
		},
		{
			name:    "unknown operator",
			mutate:  func(c *models.AlertConditionConfig) { c.Warning.Operator = "eq" },
			wantErr: true,
		},
		{
			name:    "negative debounce",
			mutate:  func(c *models.AlertConditionConfig) { c.Critical.MinDurationMinutes = -1 },
			wantErr: true,
		},
		{
			name:    "warning and critical breach in different directions",
			mutate:  func(c *models.AlertConditionConfig) { c.Critical.Operator = models.OpLessEqual },
			wantErr: true,
		},
		{
			name:    "recovery not below warning",
			mutate:  func(c *models.AlertConditionConfig) { c.Recovery.Value = 85 },
			wantErr: true,
		},
		{
			name:    "warning not below critical",
			mutate:  func(c *models.AlertConditionConfig) { c.Warning.Value = 95 },
			wantErr: true,
		},
		{
			name:    "recovery breaches in the same direction",
			mutate:  func(c *models.AlertConditionConfig) { c.Recovery.Operator = models.OpGreaterEqual },
			wantErr: true,
		},
		{
			name:    "negative cooldown",
			mutate:  func(c *models.AlertConditionConfig) { c.AntiSpam.CooldownMinutes = -5 },
			wantErr: true,
		},
		{
			name:    "recurring count without window",
			mutate:  func(c *models.AlertConditionConfig) { c.AntiSpam.RecurringCount = 3 },
			wantErr: true,
		},
		{
			name: "recurring count with window",
			mutate: func(c *models.AlertConditionConfig) {
				c.AntiSpam.RecurringCount = 3
				c.AntiSpam.RecurringWithinMinutes = 60
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond := validCondition()
			tt.mutate(cond)

			err := ValidateCondition(cond)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, models.IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
