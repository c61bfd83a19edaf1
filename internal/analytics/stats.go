package analytics

import (
	"math"
	"sort"
)

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// popStdDev is the population standard deviation.
func popStdDev(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// percentileNearestRank returns the p-th percentile of sorted values using
// the nearest-rank method. Daily aggregates use this.
func percentileNearestRank(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	rank := int(math.Ceil(p / 100 * float64(n)))
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	return sorted[rank-1]
}

// percentileInterpolated returns the p-th percentile using linear
// interpolation between closest ranks. Baselines use this.
func percentileInterpolated(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if upper >= n {
		upper = n - 1
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

func sortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}

// sma is the simple moving average of the last window values.
func sma(values []float64, window int) float64 {
	if len(values) == 0 {
		return 0
	}
	if window > len(values) {
		window = len(values)
	}
	return mean(values[len(values)-window:])
}

// ema computes the exponential moving average series with the smoothing
// factor 2/(window+1), seeded at the first value.
func ema(values []float64, window int) []float64 {
	if len(values) == 0 {
		return nil
	}
	alpha := 2.0 / (float64(window) + 1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// olsFit fits y = intercept + slope*x by ordinary least squares and returns
// the coefficient of determination alongside.
func olsFit(xs, ys []float64) (slope, intercept, r2 float64) {
	n := float64(len(xs))
	if n < 2 {
		return 0, mean(ys), 0
	}

	meanX := mean(xs)
	meanY := mean(ys)

	var ssXY, ssXX, ssYY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		ssXY += dx * dy
		ssXX += dx * dx
		ssYY += dy * dy
	}

	if ssXX == 0 {
		return 0, meanY, 0
	}
	slope = ssXY / ssXX
	intercept = meanY - slope*meanX

	if ssYY == 0 {
		// A perfectly flat series is a perfect fit.
		return slope, intercept, 1
	}
	r2 = (ssXY * ssXY) / (ssXX * ssYY)
	return slope, intercept, r2
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
