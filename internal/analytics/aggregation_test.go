package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/fleet-health/pkg/models"
)

var aggDay = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func aggSample(cpu float64, at time.Time) models.MetricSample {
	return models.MetricSample{
		ServerID:  "srv-1",
		Timestamp: at,
		CPUPct:    cpu,
		MemPct:    50,
		DiskPct:   40,
		Network:   models.NetworkMetrics{DownloadMbps: 500, UploadMbps: 200, LatencyMs: 20},
		Load:      models.LoadMetrics{Load1: 1, Load5: 1, Load15: 1},
	}
}

func TestComputeDailyAggregate_NoSamples(t *testing.T) {
	_, err := ComputeDailyAggregate("srv-1", aggDay, nil)
	require.Error(t, err)
	assert.True(t, models.IsInsufficientData(err))
}

func TestComputeDailyAggregate_ConditionMinutesAndUptime(t *testing.T) {
	samples := []models.MetricSample{
		aggSample(50, aggDay),                    // healthy
		aggSample(76, aggDay.Add(10*time.Minute)), // warning
	}

	agg, err := ComputeDailyAggregate("srv-1", aggDay, samples)
	require.NoError(t, err)

	assert.Equal(t, 2, agg.SampleCount)
	assert.Equal(t, 1, agg.TransitionCount)

	// Ten minutes attributed to the first sample's condition; the rest of
	// the day is a gap long enough to count as downtime.
	assert.InDelta(t, 10, agg.MinutesInCondition.Normal, 0.001)
	assert.InDelta(t, 0, agg.MinutesInCondition.Warning, 0.001)
	assert.InDelta(t, 10.0/1440*100, agg.UptimePct, 0.001)
	assert.Equal(t, models.LevelNormal, agg.DominantCondition)

	cpu := agg.PerParameter[models.ParamCPU]
	assert.Equal(t, 50.0, cpu.Min)
	assert.Equal(t, 76.0, cpu.Max)
	assert.InDelta(t, 63, cpu.Avg, 0.001)
	assert.Equal(t, 76.0, cpu.P95)
}

func TestComputeDailyAggregate_LeadGapIsDowntime(t *testing.T) {
	// A single sample one hour into the day: both the lead gap and the tail
	// gap are downtime.
	samples := []models.MetricSample{aggSample(50, aggDay.Add(time.Hour))}

	agg, err := ComputeDailyAggregate("srv-1", aggDay, samples)
	require.NoError(t, err)

	assert.InDelta(t, 0, agg.UptimePct, 0.001)
}

func TestComputeDailyAggregate_P95NearestRank(t *testing.T) {
	var samples []models.MetricSample
	for i := 1; i <= 20; i++ {
		samples = append(samples, aggSample(float64(i), aggDay.Add(time.Duration(i)*time.Minute)))
	}

	agg, err := ComputeDailyAggregate("srv-1", aggDay, samples)
	require.NoError(t, err)

	// Nearest rank: ceil(0.95 * 20) = 19th value.
	assert.Equal(t, 19.0, agg.PerParameter[models.ParamCPU].P95)
}

func TestComputeDailyAggregate_DangerFoldsIntoCritical(t *testing.T) {
	samples := []models.MetricSample{
		aggSample(96, aggDay),
		aggSample(96, aggDay.Add(10*time.Minute)),
	}

	agg, err := ComputeDailyAggregate("srv-1", aggDay, samples)
	require.NoError(t, err)

	assert.InDelta(t, 10, agg.MinutesInCondition.Critical, 0.001)
	assert.Equal(t, models.LevelCritical, agg.DominantCondition)
	assert.Equal(t, 0, agg.TransitionCount)
}

func TestComputeDailyAggregate_TransitionsUseFullVocabulary(t *testing.T) {
	// Both samples fold into critical minutes, but the underlying statuses
	// differ and the flip still counts as a transition.
	samples := []models.MetricSample{
		aggSample(86, aggDay),                     // critical
		aggSample(96, aggDay.Add(10*time.Minute)), // danger
	}

	agg, err := ComputeDailyAggregate("srv-1", aggDay, samples)
	require.NoError(t, err)

	assert.InDelta(t, 10, agg.MinutesInCondition.Critical, 0.001)
	assert.Equal(t, models.LevelCritical, agg.DominantCondition)
	assert.Equal(t, 1, agg.TransitionCount)
}

func TestComputeDailyAggregate_DominantTieGoesToWorse(t *testing.T) {
	samples := []models.MetricSample{
		aggSample(96, aggDay),
		aggSample(50, aggDay.Add(10*time.Minute)),
		aggSample(50, aggDay.Add(20*time.Minute)),
	}

	agg, err := ComputeDailyAggregate("srv-1", aggDay, samples)
	require.NoError(t, err)

	// Ten critical minutes and ten normal minutes: the tie resolves toward
	// the worse condition.
	assert.InDelta(t, 10, agg.MinutesInCondition.Critical, 0.001)
	assert.InDelta(t, 10, agg.MinutesInCondition.Normal, 0.001)
	assert.Equal(t, models.LevelCritical, agg.DominantCondition)
}
