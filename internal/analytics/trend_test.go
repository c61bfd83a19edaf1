package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/fleet-health/pkg/models"
)

var trendStart = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

// risingCPUSamples builds n samples 30 minutes apart with cpu rising by
// slopePerHour from base. Everything else stays constant.
func risingCPUSamples(n int, base, slopePerHour float64) []models.MetricSample {
	samples := make([]models.MetricSample, 0, n)
	for i := 0; i < n; i++ {
		h := float64(i) * 0.5
		samples = append(samples, aggSample(base+slopePerHour*h, trendStart.Add(time.Duration(i)*30*time.Minute)))
	}
	return samples
}

func trendWindowEnd(samples []models.MetricSample) time.Time {
	return samples[len(samples)-1].Timestamp
}

func TestComputeTrend_RefusesThinWindow(t *testing.T) {
	samples := risingCPUSamples(MinTrendSamples-1, 50, 0)

	_, err := ComputeTrend("srv-1", trendStart, trendStart.Add(time.Hour), samples, nil)
	require.Error(t, err)
	assert.True(t, models.IsInsufficientData(err))
}

func TestComputeTrend_StrongGrowthIsHighRisk(t *testing.T) {
	samples := risingCPUSamples(8, 60, 4)

	ta, err := ComputeTrend("srv-1", trendStart, trendWindowEnd(samples), samples, nil)
	require.NoError(t, err)

	cpu := ta.PerParameter[models.ParamCPU]
	assert.InDelta(t, 4, cpu.SlopePerHour, 0.001)
	assert.Equal(t, models.TrendStronglyIncreasing, cpu.Direction)
	assert.InDelta(t, 100, cpu.Confidence, 0.001)
	// 74 + 4*24 clamps to the top of the valid range.
	assert.InDelta(t, 100, cpu.Predicted24h, 0.001)

	assert.Equal(t, models.RiskHigh, ta.Risk.Level)
	assert.Equal(t, models.ParamCPU, ta.Risk.PrimaryCause)
	require.NotNil(t, ta.Risk.ETAHours)
	assert.Greater(t, *ta.Risk.ETAHours, 0.0)

	require.NotEmpty(t, ta.Recommendations)
	assert.Equal(t, "investigate_growth", ta.Recommendations[0].Action)
	assert.Equal(t, models.ParamCPU, ta.Recommendations[0].Parameter)
}

func TestComputeTrend_ModerateGrowthPlansCapacity(t *testing.T) {
	samples := risingCPUSamples(8, 70, 1.5)

	ta, err := ComputeTrend("srv-1", trendStart, trendWindowEnd(samples), samples, nil)
	require.NoError(t, err)

	cpu := ta.PerParameter[models.ParamCPU]
	assert.Equal(t, models.TrendIncreasing, cpu.Direction)

	require.NotEmpty(t, ta.Recommendations)
	assert.Equal(t, "plan_capacity", ta.Recommendations[0].Action)
}

func TestComputeTrend_FlatSeriesIsStableAndLowRisk(t *testing.T) {
	samples := risingCPUSamples(6, 50, 0)

	ta, err := ComputeTrend("srv-1", trendStart, trendWindowEnd(samples), samples, nil)
	require.NoError(t, err)

	for _, pt := range ta.PerParameter {
		assert.Equal(t, models.TrendStable, pt.Direction)
		// A perfectly flat series is a perfect fit.
		assert.InDelta(t, 100, pt.Confidence, 0.001)
	}

	assert.Equal(t, 0.0, ta.AnomalyScore)
	assert.Empty(t, ta.Anomalies)
	assert.Equal(t, models.RiskLow, ta.Risk.Level)
	assert.Empty(t, ta.Recommendations)
}

func TestComputeTrend_SpikeIsHighAnomaly(t *testing.T) {
	samples := risingCPUSamples(12, 50, 0)
	samples[11].CPUPct = 90

	ta, err := ComputeTrend("srv-1", trendStart, trendWindowEnd(samples), samples, nil)
	require.NoError(t, err)

	require.Len(t, ta.Anomalies, 1)
	a := ta.Anomalies[0]
	assert.Equal(t, models.ParamCPU, a.Parameter)
	assert.Equal(t, models.AnomalyHigh, a.Severity)
	assert.Equal(t, 90.0, a.Value)
	assert.Greater(t, a.ZScore, 3.0)
	assert.Equal(t, 20.0, ta.AnomalyScore)
}

func TestComputeTrend_BaselineStdFloorsAnomalies(t *testing.T) {
	samples := risingCPUSamples(12, 50, 0)
	samples[11].CPUPct = 90

	// The same spike against a baseline with a wide historical deviation is
	// not anomalous.
	baseline := &models.Baseline{
		PerParameter: map[models.Parameter]models.BaselineStats{
			models.ParamCPU: {Std: 40},
		},
	}

	ta, err := ComputeTrend("srv-1", trendStart, trendWindowEnd(samples), samples, baseline)
	require.NoError(t, err)

	assert.Empty(t, ta.Anomalies)
	assert.Equal(t, 0.0, ta.AnomalyScore)
}
