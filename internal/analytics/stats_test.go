package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, median(nil))
	assert.Equal(t, 3.0, median([]float64{1, 3, 5}))
	assert.Equal(t, 2.5, median([]float64{1, 2, 3, 4}))
}

func TestPercentileNearestRank(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}

	assert.Equal(t, 10.0, percentileNearestRank(sorted, 1))
	assert.Equal(t, 30.0, percentileNearestRank(sorted, 50))
	assert.Equal(t, 50.0, percentileNearestRank(sorted, 95))
	assert.Equal(t, 0.0, percentileNearestRank(nil, 50))
}

func TestPercentileInterpolated(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}

	assert.Equal(t, 30.0, percentileInterpolated(sorted, 50))
	assert.InDelta(t, 48, percentileInterpolated(sorted, 95), 0.001)
	assert.Equal(t, 10.0, percentileInterpolated(sorted, 0))
	assert.Equal(t, 50.0, percentileInterpolated(sorted, 100))
	assert.Equal(t, 7.0, percentileInterpolated([]float64{7}, 50))
}

func TestMovingAverages(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}

	assert.InDelta(t, 4.5, sma(values, 4), 0.001)
	// Window larger than the series falls back to the full mean.
	assert.InDelta(t, 3.5, sma(values, 12), 0.001)

	series := ema([]float64{10, 20}, 4)
	assert.Equal(t, 10.0, series[0])
	assert.InDelta(t, 14, series[1], 0.001) // alpha 0.4
}

func TestOLSFit(t *testing.T) {
	xs := []float64{0, 1, 2, 3}

	slope, intercept, r2 := olsFit(xs, []float64{1, 3, 5, 7})
	assert.InDelta(t, 2, slope, 0.001)
	assert.InDelta(t, 1, intercept, 0.001)
	assert.InDelta(t, 1, r2, 0.001)

	slope, _, r2 = olsFit(xs, []float64{5, 5, 5, 5})
	assert.Equal(t, 0.0, slope)
	assert.Equal(t, 1.0, r2)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-5, 0, 100))
	assert.Equal(t, 100.0, clamp(120, 0, 100))
	assert.Equal(t, 42.0, clamp(42, 0, 100))
}
