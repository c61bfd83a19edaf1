package classifier

import (
	"github.com/OldStager01/fleet-health/pkg/models"
)

// band is one numeric range mapped to a condition level. Bands are evaluated
// worst-to-best so a boundary value resolves to the worse bucket.
type band struct {
	min   float64
	level models.ConditionLevel
}

// bands maps each parameter to its fixed thresholds, worst first. A value
// below every band floor is normal; a value that is negative (outside the
// documented range) falls through to danger in classifyValue.
var bands = map[models.Parameter][]band{
	models.ParamCPU:        {{95, models.LevelDanger}, {85, models.LevelCritical}, {75, models.LevelWarning}},
	models.ParamMemory:     {{95, models.LevelDanger}, {85, models.LevelCritical}, {75, models.LevelWarning}},
	models.ParamDisk:       {{95, models.LevelDanger}, {85, models.LevelCritical}, {75, models.LevelWarning}},
	models.ParamLatency:    {{1000, models.LevelDanger}, {500, models.LevelCritical}, {200, models.LevelWarning}},
	models.ParamPacketLoss: {{10, models.LevelDanger}, {5, models.LevelCritical}, {2, models.LevelWarning}},
	models.ParamLoad1:      {{16, models.LevelDanger}, {8, models.LevelCritical}, {4, models.LevelWarning}},
}

// levelWeights feed the auxiliary weighted score. Unknown counts mid-severity
// so missing data is visible without forcing a bad status by itself.
var levelWeights = map[models.ConditionLevel]float64{
	models.LevelNormal:   0,
	models.LevelWarning:  1,
	models.LevelUnknown:  2,
	models.LevelCritical: 3,
	models.LevelDanger:   5,
}

const maxLevelWeight = 5.0

// Classify maps one sample to per-parameter condition levels and a combined
// instantaneous status. Pure: no history, no side effects.
func Classify(sample *models.MetricSample) *models.Classification {
	levels := make(map[models.Parameter]models.ConditionLevel, len(models.AllParameters()))
	for _, param := range models.AllParameters() {
		value, ok := sample.ValueOf(param)
		if !ok {
			levels[param] = models.LevelUnknown
			continue
		}
		levels[param] = classifyValue(param, value)
	}

	return &models.Classification{
		ServerID:      sample.ServerID,
		Timestamp:     sample.Timestamp,
		Levels:        levels,
		Status:        combineStatus(levels),
		WeightedScore: weightedScore(levels),
	}
}

// CriticalThreshold returns the floor of the critical band for a parameter.
// Trend analysis uses it to decide whether a prediction crosses into
// critical territory.
func CriticalThreshold(param models.Parameter) (float64, bool) {
	bs, ok := bands[param]
	if !ok {
		return 0, false
	}
	for _, b := range bs {
		if b.level == models.LevelCritical {
			return b.min, true
		}
	}
	return 0, false
}

func classifyValue(param models.Parameter, value float64) models.ConditionLevel {
	bs, ok := bands[param]
	if !ok {
		return models.LevelUnknown
	}

	// Fail safe toward visibility: a value outside the documented range is
	// danger, not silence.
	min, max := models.ValidRange(param)
	if value < min || value > max {
		return models.LevelDanger
	}

	for _, b := range bs {
		if value >= b.min {
			return b.level
		}
	}
	return models.LevelNormal
}

// combineStatus applies the fixed priority rules. Unknown levels never
// trigger DANGER or CRITICAL on their own.
func combineStatus(levels map[models.Parameter]models.ConditionLevel) models.ServerStatus {
	var (
		dangerCount    int
		criticalCount  int
		warningOrWorse int
	)
	for _, level := range levels {
		switch level {
		case models.LevelDanger:
			dangerCount++
			warningOrWorse++
		case models.LevelCritical:
			criticalCount++
			warningOrWorse++
		case models.LevelWarning:
			warningOrWorse++
		}
	}

	cpu := levels[models.ParamCPU]
	mem := levels[models.ParamMemory]
	coreCritical := cpu == models.LevelCritical || mem == models.LevelCritical
	coreWarning := cpu == models.LevelWarning || mem == models.LevelWarning

	// 1. DANGER: any parameter in danger, or cpu/memory critical plus at
	// least one other parameter at warning or worse.
	if dangerCount > 0 {
		return models.StatusDanger
	}
	if coreCritical && warningOrWorse >= 2 {
		return models.StatusDanger
	}

	// 2. CRITICAL: core critical, two criticals anywhere, or core warning
	// alongside another critical.
	if coreCritical || criticalCount >= 2 {
		return models.StatusCritical
	}
	if coreWarning && criticalCount >= 1 {
		return models.StatusCritical
	}

	// 3. WARNING: two warnings, a lone non-core critical, or core warning.
	if warningOrWorse >= 2 || criticalCount >= 1 || coreWarning {
		return models.StatusWarning
	}

	return models.StatusHealthy
}

// weightedScore is a diagnostic metric in [0,100]; it never drives the
// status decision.
func weightedScore(levels map[models.Parameter]models.ConditionLevel) float64 {
	if len(levels) == 0 {
		return 0
	}
	var total float64
	for _, level := range levels {
		total += levelWeights[level]
	}
	return total / (maxLevelWeight * float64(len(levels))) * 100
}
