package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/OldStager01/fleet-health/pkg/models"
)

// MinBaselineSamples is the floor below which a baseline is refused.
const MinBaselineSamples = 100

// sanityCeiling flags extreme outliers in the accuracy score: percentage
// parameters beyond 200% are garbage readings, not load.
const sanityCeilingFactor = 2.0

// ComputeBaseline builds the adaptive statistical baseline for a server over
// the window. Fails with InsufficientDataError below MinBaselineSamples.
func ComputeBaseline(serverID string, windowStart, windowEnd time.Time, samples []models.MetricSample) (*models.Baseline, error) {
	if len(samples) < MinBaselineSamples {
		return nil, &models.InsufficientDataError{
			ServerID: serverID,
			Task:     "baseline",
			Needed:   MinBaselineSamples,
			Got:      len(samples),
		}
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})

	perParam := make(map[models.Parameter]models.BaselineStats)
	hourly := make(map[models.Parameter][24]models.HourlyStat)
	dayType := make(map[models.Parameter]models.DayTypeStats)

	for _, param := range models.AllParameters() {
		var values []float64
		var hourValues [24][]float64
		var weekday, weekend []float64

		for i := range samples {
			v, ok := samples[i].ValueOf(param)
			if !ok {
				continue
			}
			values = append(values, v)

			ts := samples[i].Timestamp.UTC()
			hourValues[ts.Hour()] = append(hourValues[ts.Hour()], v)
			if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
				weekend = append(weekend, v)
			} else {
				weekday = append(weekday, v)
			}
		}
		if len(values) == 0 {
			continue
		}

		sorted := sortedCopy(values)
		m := mean(values)
		std := popStdDev(values)
		minValid, maxValid := models.ValidRange(param)

		half := 1.96 * std / math.Sqrt(float64(len(values)))
		perParam[param] = models.BaselineStats{
			Mean:     m,
			Median:   median(sorted),
			Std:      std,
			P5:       percentileInterpolated(sorted, 5),
			P25:      percentileInterpolated(sorted, 25),
			P75:      percentileInterpolated(sorted, 75),
			P95:      percentileInterpolated(sorted, 95),
			P99:      percentileInterpolated(sorted, 99),
			CI95Low:  clamp(m-half, minValid, maxValid),
			CI95High: clamp(m+half, minValid, maxValid),
		}

		var profile [24]models.HourlyStat
		for h := 0; h < 24; h++ {
			profile[h] = models.HourlyStat{
				Mean:  mean(hourValues[h]),
				Std:   popStdDev(hourValues[h]),
				Count: len(hourValues[h]),
			}
		}
		hourly[param] = profile

		dayType[param] = models.DayTypeStats{
			WeekdayMean: mean(weekday),
			WeekdayStd:  popStdDev(weekday),
			WeekendMean: mean(weekend),
			WeekendStd:  popStdDev(weekend),
		}
	}

	return &models.Baseline{
		ServerID:      serverID,
		WindowStart:   windowStart.UTC(),
		WindowEnd:     windowEnd.UTC(),
		SampleCount:   len(samples),
		PerParameter:  perParam,
		HourlyProfile: hourly,
		DayType:       dayType,
		Quality:       assessQuality(samples),
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// assessQuality reports three independent fractions: structurally complete
// samples, value-range-consistent samples, and samples free of extreme
// outliers. They are reported separately, never averaged.
func assessQuality(samples []models.MetricSample) models.DataQuality {
	if len(samples) == 0 {
		return models.DataQuality{}
	}

	var complete, consistent, accurate int
	for i := range samples {
		s := &samples[i]

		isComplete := true
		for _, param := range models.AllParameters() {
			if _, ok := s.ValueOf(param); !ok {
				isComplete = false
				break
			}
		}
		if isComplete {
			complete++
		}

		isConsistent := true
		isAccurate := true
		for _, param := range models.AllParameters() {
			v, ok := s.ValueOf(param)
			if !ok {
				continue
			}
			min, max := models.ValidRange(param)
			if v < min || v > max {
				isConsistent = false
			}
			if v < min || v > max*sanityCeilingFactor {
				isAccurate = false
			}
		}
		if isConsistent {
			consistent++
		}
		if isAccurate {
			accurate++
		}
	}

	n := float64(len(samples))
	return models.DataQuality{
		Completeness: float64(complete) / n,
		Consistency:  float64(consistent) / n,
		Accuracy:     float64(accurate) / n,
	}
}
