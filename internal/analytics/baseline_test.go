package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/fleet-health/pkg/models"
)

// baselineSamples builds n one-minute-spaced samples starting at start.
func baselineSamples(n int, cpu float64, start time.Time) []models.MetricSample {
	samples := make([]models.MetricSample, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, aggSample(cpu, start.Add(time.Duration(i)*time.Minute)))
	}
	return samples
}

func TestComputeBaseline_RefusesThinWindow(t *testing.T) {
	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	samples := baselineSamples(MinBaselineSamples-1, 50, start)

	_, err := ComputeBaseline("srv-1", start, start.Add(2*time.Hour), samples)
	require.Error(t, err)
	assert.True(t, models.IsInsufficientData(err))
}

func TestComputeBaseline_ConstantSeries(t *testing.T) {
	// Monday 10:00 UTC; 120 samples span hours 10 and 11.
	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	samples := baselineSamples(120, 50, start)

	b, err := ComputeBaseline("srv-1", start, start.Add(2*time.Hour), samples)
	require.NoError(t, err)

	assert.Equal(t, 120, b.SampleCount)

	cpu := b.PerParameter[models.ParamCPU]
	assert.Equal(t, 50.0, cpu.Mean)
	assert.Equal(t, 50.0, cpu.Median)
	assert.Equal(t, 0.0, cpu.Std)
	assert.Equal(t, 50.0, cpu.P5)
	assert.Equal(t, 50.0, cpu.P99)
	assert.Equal(t, 50.0, cpu.CI95Low)
	assert.Equal(t, 50.0, cpu.CI95High)

	hourly := b.HourlyProfile[models.ParamCPU]
	assert.Equal(t, 60, hourly[10].Count)
	assert.Equal(t, 60, hourly[11].Count)
	assert.Equal(t, 0, hourly[12].Count)
	assert.Equal(t, 50.0, hourly[10].Mean)

	// All samples fall on a weekday.
	dayType := b.DayType[models.ParamCPU]
	assert.Equal(t, 50.0, dayType.WeekdayMean)
	assert.Equal(t, 0.0, dayType.WeekendMean)

	assert.Equal(t, 1.0, b.Quality.Completeness)
	assert.Equal(t, 1.0, b.Quality.Consistency)
	assert.Equal(t, 1.0, b.Quality.Accuracy)
}

func TestComputeBaseline_ConfidenceInterval(t *testing.T) {
	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	// Alternating 40/60: mean 50, population stddev 10.
	samples := make([]models.MetricSample, 0, 120)
	for i := 0; i < 120; i++ {
		v := 40.0
		if i%2 == 1 {
			v = 60.0
		}
		samples = append(samples, aggSample(v, start.Add(time.Duration(i)*time.Minute)))
	}

	b, err := ComputeBaseline("srv-1", start, start.Add(2*time.Hour), samples)
	require.NoError(t, err)

	cpu := b.PerParameter[models.ParamCPU]
	half := 1.96 * 10 / math.Sqrt(120)
	assert.InDelta(t, 50-half, cpu.CI95Low, 0.001)
	assert.InDelta(t, 50+half, cpu.CI95High, 0.001)
}

func TestComputeBaseline_QualityFlagsBadSamples(t *testing.T) {
	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	samples := baselineSamples(120, 50, start)

	// One structurally incomplete sample, one out-of-range reading, and one
	// extreme outlier beyond the sanity ceiling.
	samples[0].Network.LatencyMs = math.NaN()
	samples[1].CPUPct = 150
	samples[2].CPUPct = 250

	b, err := ComputeBaseline("srv-1", start, start.Add(2*time.Hour), samples)
	require.NoError(t, err)

	assert.InDelta(t, 119.0/120, b.Quality.Completeness, 0.0001)
	assert.InDelta(t, 118.0/120, b.Quality.Consistency, 0.0001)
	assert.InDelta(t, 119.0/120, b.Quality.Accuracy, 0.0001)
}
