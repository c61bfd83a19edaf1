package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/OldStager01/fleet-health/internal/classifier"
	"github.com/OldStager01/fleet-health/pkg/models"
)

const (
	// MinTrendSamples is the floor below which a trend run is refused.
	MinTrendSamples = 4

	smaFastWindow = 4
	smaSlowWindow = 12

	// slopeEpsilon separates stable from trending; strongSlope adds the
	// strongly_ prefix. Units per hour.
	slopeEpsilon = 0.1
	strongSlope  = 2.0

	anomalyScoreCutoff = 50.0
)

// ComputeTrend analyzes a short recent window of samples. The baseline is
// optional; when present its per-parameter stddev floors the running
// deviation so anomaly z-scores stay meaningful on quiet series.
func ComputeTrend(serverID string, windowStart, windowEnd time.Time, samples []models.MetricSample, baseline *models.Baseline) (*models.TrendAnalysis, error) {
	if len(samples) < MinTrendSamples {
		return nil, &models.InsufficientDataError{
			ServerID: serverID,
			Task:     "trend",
			Needed:   MinTrendSamples,
			Got:      len(samples),
		}
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})

	perParam := make(map[models.Parameter]models.ParameterTrend)
	var anomalies []models.Anomaly
	anomalyScore := 0.0

	for _, param := range models.AllParameters() {
		var values, hours []float64
		var times []time.Time
		for i := range samples {
			v, ok := samples[i].ValueOf(param)
			if !ok {
				continue
			}
			values = append(values, v)
			hours = append(hours, samples[i].Timestamp.Sub(windowStart).Hours())
			times = append(times, samples[i].Timestamp)
		}
		if len(values) < MinTrendSamples {
			continue
		}

		slope, _, r2 := olsFit(hours, values)
		confidence := clamp(r2*100, 0, 100)

		emaFast := ema(values, smaFastWindow)
		emaSlow := ema(values, smaSlowWindow)

		minValid, maxValid := models.ValidRange(param)
		current := values[len(values)-1]

		pt := models.ParameterTrend{
			Averages: models.MovingAverages{
				SMA4:  sma(values, smaFastWindow),
				SMA12: sma(values, smaSlowWindow),
				EMA4:  emaFast[len(emaFast)-1],
				EMA12: emaSlow[len(emaSlow)-1],
			},
			SlopePerHour: slope,
			Direction:    direction(slope),
			Confidence:   confidence,
			Predicted1h:  clamp(current+slope*1, minValid, maxValid),
			Predicted6h:  clamp(current+slope*6, minValid, maxValid),
			Predicted24h: clamp(current+slope*24, minValid, maxValid),
		}
		perParam[param] = pt

		paramAnomalies, paramScore := detectAnomalies(param, values, times, emaSlow, baseline)
		anomalies = append(anomalies, paramAnomalies...)
		anomalyScore += paramScore
	}

	if len(perParam) == 0 {
		return nil, &models.InsufficientDataError{
			ServerID: serverID,
			Task:     "trend",
			Needed:   MinTrendSamples,
			Got:      0,
		}
	}

	anomalyScore = clamp(anomalyScore, 0, 100)

	analysis := &models.TrendAnalysis{
		ServerID:        serverID,
		WindowStart:     windowStart.UTC(),
		WindowEnd:       windowEnd.UTC(),
		SampleCount:     len(samples),
		PerParameter:    perParam,
		Anomalies:       anomalies,
		AnomalyScore:    anomalyScore,
		Risk:            assessRisk(perParam, anomalyScore),
		Recommendations: recommend(perParam),
		CreatedAt:       time.Now().UTC(),
	}
	return analysis, nil
}

func direction(slope float64) models.TrendDirection {
	switch {
	case math.Abs(slope) < slopeEpsilon:
		return models.TrendStable
	case slope >= strongSlope:
		return models.TrendStronglyIncreasing
	case slope <= -strongSlope:
		return models.TrendStronglyDecreasing
	case slope > 0:
		return models.TrendIncreasing
	default:
		return models.TrendDecreasing
	}
}

// detectAnomalies z-scores each value against the slow EMA and a running
// population stddev. |z| > 2 / 2.5 / 3 maps to low / medium / high.
func detectAnomalies(param models.Parameter, values []float64, times []time.Time, emaSlow []float64, baseline *models.Baseline) ([]models.Anomaly, float64) {
	std := popStdDev(values)
	if baseline != nil {
		if bs, ok := baseline.PerParameter[param]; ok && bs.Std > std {
			std = bs.Std
		}
	}
	if std == 0 {
		return nil, 0
	}

	var anomalies []models.Anomaly
	score := 0.0
	for i, v := range values {
		z := (v - emaSlow[i]) / std
		absZ := math.Abs(z)
		if absZ <= 2 {
			continue
		}

		severity := models.AnomalyLow
		contribution := 5.0
		switch {
		case absZ > 3:
			severity = models.AnomalyHigh
			contribution = 20
		case absZ > 2.5:
			severity = models.AnomalyMedium
			contribution = 10
		}

		anomalies = append(anomalies, models.Anomaly{
			Parameter: param,
			Timestamp: times[i],
			Value:     v,
			Expected:  emaSlow[i],
			ZScore:    z,
			Severity:  severity,
		})
		score += contribution
	}
	return anomalies, score
}

// assessRisk classifies predicted failure risk: high when any +24h
// prediction crosses its critical threshold, medium above the anomaly
// cutoff, otherwise scaled down by the weakest fit confidence.
func assessRisk(perParam map[models.Parameter]models.ParameterTrend, anomalyScore float64) models.FailureRisk {
	minConfidence := 100.0
	for _, pt := range perParam {
		if pt.Confidence < minConfidence {
			minConfidence = pt.Confidence
		}
	}

	for _, param := range models.AllParameters() {
		pt, ok := perParam[param]
		if !ok {
			continue
		}
		critical, hasThreshold := classifier.CriticalThreshold(param)
		if !hasThreshold || pt.Predicted24h < critical {
			continue
		}

		risk := models.FailureRisk{
			Level:        models.RiskHigh,
			Confidence:   pt.Confidence,
			PrimaryCause: param,
		}
		if pt.SlopePerHour > 0 {
			current := pt.Averages.EMA4
			if current < critical {
				eta := (critical - current) / pt.SlopePerHour
				risk.ETAHours = &eta
			} else {
				zero := 0.0
				risk.ETAHours = &zero
			}
		}
		return risk
	}

	if anomalyScore > anomalyScoreCutoff {
		return models.FailureRisk{Level: models.RiskMedium, Confidence: minConfidence}
	}
	if minConfidence >= 50 {
		return models.FailureRisk{Level: models.RiskLow, Confidence: minConfidence}
	}
	return models.FailureRisk{Level: models.RiskVeryLow, Confidence: minConfidence}
}

// recommend emits a small rule list keyed off which parameter is trending
// and how fast. Data payload only; acting on it is the caller's business.
func recommend(perParam map[models.Parameter]models.ParameterTrend) []models.Recommendation {
	var recs []models.Recommendation
	for _, param := range models.AllParameters() {
		pt, ok := perParam[param]
		if !ok {
			continue
		}
		switch pt.Direction {
		case models.TrendStronglyIncreasing:
			recs = append(recs, models.Recommendation{
				Parameter: param,
				Action:    "investigate_growth",
				Reason:    "rapid upward trend; projected to keep climbing",
			})
		case models.TrendIncreasing:
			critical, ok := classifier.CriticalThreshold(param)
			if ok && pt.Predicted24h >= critical {
				recs = append(recs, models.Recommendation{
					Parameter: param,
					Action:    "plan_capacity",
					Reason:    "projected to reach critical territory within 24h",
				})
			}
		case models.TrendStronglyDecreasing:
			recs = append(recs, models.Recommendation{
				Parameter: param,
				Action:    "verify_workload",
				Reason:    "rapid downward trend; confirm the workload is still running",
			})
		}
	}
	return recs
}
