package classifier

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/fleet-health/pkg/models"
)

func sampleWith(cpu, mem, disk, latency, loss, load1 float64) *models.MetricSample {
	return &models.MetricSample{
		ServerID:  "srv-1",
		Timestamp: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
		CPUPct:    cpu,
		MemPct:    mem,
		DiskPct:   disk,
		Network: models.NetworkMetrics{
			DownloadMbps:  500,
			UploadMbps:    200,
			LatencyMs:     latency,
			PacketLossPct: loss,
		},
		Load: models.LoadMetrics{Load1: load1, Load5: load1, Load15: load1},
	}
}

func TestClassify_CombinedStatus(t *testing.T) {
	tests := []struct {
		name     string
		sample   *models.MetricSample
		expected models.ServerStatus
	}{
		{
			name:     "all normal is healthy",
			sample:   sampleWith(50, 60, 40, 20, 0, 1),
			expected: models.StatusHealthy,
		},
		{
			name:     "any danger parameter forces danger",
			sample:   sampleWith(96, 60, 40, 20, 0, 1),
			expected: models.StatusDanger,
		},
		{
			name:     "core critical alone is critical",
			sample:   sampleWith(86, 60, 40, 20, 0, 1),
			expected: models.StatusCritical,
		},
		{
			name:     "core critical plus another warning escalates to danger",
			sample:   sampleWith(86, 60, 40, 250, 0, 1),
			expected: models.StatusDanger,
		},
		{
			name:     "lone non-core critical is only warning",
			sample:   sampleWith(50, 60, 86, 20, 0, 1),
			expected: models.StatusWarning,
		},
		{
			name:     "two non-core criticals are critical",
			sample:   sampleWith(50, 60, 86, 600, 0, 1),
			expected: models.StatusCritical,
		},
		{
			name:     "core warning plus a critical is critical",
			sample:   sampleWith(76, 60, 40, 600, 0, 1),
			expected: models.StatusCritical,
		},
		{
			name:     "two warnings are warning",
			sample:   sampleWith(50, 60, 76, 250, 0, 1),
			expected: models.StatusWarning,
		},
		{
			name:     "single core warning is warning",
			sample:   sampleWith(76, 60, 40, 20, 0, 1),
			expected: models.StatusWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.sample)
			assert.Equal(t, tt.expected, c.Status)
		})
	}
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		name     string
		cpu      float64
		expected models.ConditionLevel
	}{
		{"just below warning", 74.9, models.LevelNormal},
		{"warning boundary goes to warning", 75, models.LevelWarning},
		{"critical boundary goes to critical", 85, models.LevelCritical},
		{"danger boundary goes to danger", 95, models.LevelDanger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(sampleWith(tt.cpu, 60, 40, 20, 0, 1))
			assert.Equal(t, tt.expected, c.Levels[models.ParamCPU])
		})
	}
}

func TestClassify_LatencyAndLoadBands(t *testing.T) {
	c := Classify(sampleWith(50, 60, 40, 500, 5, 8))
	assert.Equal(t, models.LevelCritical, c.Levels[models.ParamLatency])
	assert.Equal(t, models.LevelCritical, c.Levels[models.ParamPacketLoss])
	assert.Equal(t, models.LevelCritical, c.Levels[models.ParamLoad1])
}

func TestClassify_MissingValueIsUnknown(t *testing.T) {
	sample := sampleWith(50, 60, 40, 20, 0, 1)
	sample.Network.LatencyMs = math.NaN()

	c := Classify(sample)
	assert.Equal(t, models.LevelUnknown, c.Levels[models.ParamLatency])
	// A missing value never forces a bad status on its own.
	assert.Equal(t, models.StatusHealthy, c.Status)
	assert.Greater(t, c.WeightedScore, 0.0)
}

func TestClassify_OutOfRangeValueIsDanger(t *testing.T) {
	c := Classify(sampleWith(120, 60, 40, 20, 0, 1))
	assert.Equal(t, models.LevelDanger, c.Levels[models.ParamCPU])
	assert.Equal(t, models.StatusDanger, c.Status)
}

func TestClassify_WeightedScore(t *testing.T) {
	healthy := Classify(sampleWith(10, 10, 10, 5, 0, 0.5))
	assert.Equal(t, 0.0, healthy.WeightedScore)

	worst := Classify(sampleWith(99, 99, 99, 5000, 50, 100))
	assert.Equal(t, 100.0, worst.WeightedScore)
}

func TestCriticalThreshold(t *testing.T) {
	v, ok := CriticalThreshold(models.ParamCPU)
	require.True(t, ok)
	assert.Equal(t, 85.0, v)

	v, ok = CriticalThreshold(models.ParamLatency)
	require.True(t, ok)
	assert.Equal(t, 500.0, v)

	_, ok = CriticalThreshold(models.Parameter("unknown"))
	assert.False(t, ok)
}
