package analytics

import (
	"sort"
	"time"

	"github.com/OldStager01/fleet-health/internal/classifier"
	"github.com/OldStager01/fleet-health/pkg/models"
)

// offlineGap is the sample gap beyond which the elapsed time counts as
// downtime rather than condition minutes. Matches the hard stale delay.
const offlineGap = 15 * time.Minute

// ComputeDailyAggregate builds the statistical summary for one server-day
// from the samples in [startOfDay, endOfDay). Zero samples yield an
// InsufficientDataError and no record.
func ComputeDailyAggregate(serverID string, date time.Time, samples []models.MetricSample) (*models.DailyAggregate, error) {
	if len(samples) == 0 {
		return nil, &models.InsufficientDataError{ServerID: serverID, Task: "aggregation", Needed: 1, Got: 0}
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})

	day := date.UTC().Truncate(24 * time.Hour)

	perParam := make(map[models.Parameter]models.ParameterStats, len(models.AllParameters()))
	for _, param := range models.AllParameters() {
		var values []float64
		for i := range samples {
			if v, ok := samples[i].ValueOf(param); ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		sorted := sortedCopy(values)
		perParam[param] = models.ParameterStats{
			Min: sorted[0],
			Max: sorted[len(sorted)-1],
			Avg: mean(values),
			Std: popStdDev(values),
			P95: percentileNearestRank(sorted, 95),
		}
	}

	minutes, transitions, offlineMinutes := conditionMinutes(samples, day)

	agg := &models.DailyAggregate{
		ServerID:           serverID,
		Date:               day,
		SampleCount:        len(samples),
		PerParameter:       perParam,
		DominantCondition:  dominantCondition(minutes),
		MinutesInCondition: minutes,
		TransitionCount:    transitions,
		UptimePct:          clamp((totalDayMinutes-offlineMinutes)/totalDayMinutes*100, 0, 100),
		CreatedAt:          time.Now().UTC(),
	}
	return agg, nil
}

const totalDayMinutes = 24 * 60.0

// conditionMinutes attributes the time between adjacent samples to the
// earlier sample's combined condition, in the legacy three-level vocabulary.
// Transitions are counted in the classifier's full vocabulary, before the
// fold, so a DANGER-to-CRITICAL flip still registers. Gaps longer than
// offlineGap count as downtime instead.
func conditionMinutes(samples []models.MetricSample, day time.Time) (models.ConditionMinutes, int, float64) {
	var minutes models.ConditionMinutes
	var offlineMinutes float64
	transitions := 0

	endOfDay := day.Add(24 * time.Hour)
	var prevStatus models.ServerStatus

	for i := range samples {
		status := classifier.Classify(&samples[i]).Status
		level := displayLevel(status)

		if i > 0 && status != prevStatus {
			transitions++
		}
		prevStatus = status

		var next time.Time
		if i+1 < len(samples) {
			next = samples[i+1].Timestamp
		} else {
			next = endOfDay
		}

		gap := next.Sub(samples[i].Timestamp)
		if gap <= 0 {
			continue
		}
		if gap > offlineGap {
			offlineMinutes += gap.Minutes()
			continue
		}

		switch level {
		case models.LevelWarning:
			minutes.Warning += gap.Minutes()
		case models.LevelCritical:
			minutes.Critical += gap.Minutes()
		default:
			minutes.Normal += gap.Minutes()
		}
	}

	// Time before the first sample is downtime if the gap from midnight is
	// large enough to have tripped the offline detector.
	lead := samples[0].Timestamp.Sub(day)
	if lead > offlineGap {
		offlineMinutes += lead.Minutes()
	}

	return minutes, transitions, offlineMinutes
}

// displayLevel folds the five-level status vocabulary into the three-level
// aggregate bucketing; danger counts as critical.
func displayLevel(status models.ServerStatus) models.ConditionLevel {
	switch status {
	case models.StatusWarning:
		return models.LevelWarning
	case models.StatusCritical, models.StatusDanger:
		return models.LevelCritical
	default:
		return models.LevelNormal
	}
}

// dominantCondition picks the level with the most minutes, worst first on
// ties.
func dominantCondition(minutes models.ConditionMinutes) models.ConditionLevel {
	type bucket struct {
		level   models.ConditionLevel
		minutes float64
	}
	// Worst first so ties resolve toward the worse level.
	buckets := []bucket{
		{models.LevelCritical, minutes.Critical},
		{models.LevelWarning, minutes.Warning},
		{models.LevelNormal, minutes.Normal},
	}

	best := buckets[0]
	for _, b := range buckets[1:] {
		if b.minutes > best.minutes {
			best = b
		}
	}
	return best.level
}
