package models

import "time"

// ParameterStats is a daily statistical summary for one parameter.
type ParameterStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	Std float64 `json:"std"`
	P95 float64 `json:"p95"`
}

// ConditionMinutes buckets a day into the legacy three-level display
// vocabulary. Danger minutes count as critical.
type ConditionMinutes struct {
	Normal   float64 `json:"normal"`
	Warning  float64 `json:"warning"`
	Critical float64 `json:"critical"`
}

// DailyAggregate is the once-per-server-day statistical summary. Immutable
// after creation except for controlled rebuilds, which overwrite.
type DailyAggregate struct {
	ServerID           string                       `json:"server_id"`
	Date               time.Time                    `json:"date"`
	SampleCount        int                          `json:"sample_count"`
	PerParameter       map[Parameter]ParameterStats `json:"per_parameter"`
	DominantCondition  ConditionLevel               `json:"dominant_condition"`
	MinutesInCondition ConditionMinutes             `json:"minutes_in_condition"`
	TransitionCount    int                          `json:"transition_count"`
	UptimePct          float64                      `json:"uptime_pct"`
	CreatedAt          time.Time                    `json:"created_at"`
}
