package models

import "time"

// BaselineStats is the adaptive statistical baseline for one parameter.
type BaselineStats struct {
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Std      float64 `json:"std"`
	P5       float64 `json:"p5"`
	P25      float64 `json:"p25"`
	P75      float64 `json:"p75"`
	P95      float64 `json:"p95"`
	P99      float64 `json:"p99"`
	CI95Low  float64 `json:"ci95_low"`
	CI95High float64 `json:"ci95_high"`
}

// HourlyStat is the per-hour-of-day profile entry for one parameter.
type HourlyStat struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Count int     `json:"count"`
}

// DayTypeStats splits a parameter's behavior between weekdays and weekends.
type DayTypeStats struct {
	WeekdayMean float64 `json:"weekday_mean"`
	WeekdayStd  float64 `json:"weekday_std"`
	WeekendMean float64 `json:"weekend_mean"`
	WeekendStd  float64 `json:"weekend_std"`
}

// DataQuality reports three independent quality fractions in [0,1]. They are
// deliberately not averaged into one opaque number.
type DataQuality struct {
	Completeness float64 `json:"completeness"`
	Consistency  float64 `json:"consistency"`
	Accuracy     float64 `json:"accuracy"`
}

// Baseline describes "normal" behavior for a server over a rolling window.
// Recomputed periodically; superseded, not merged.
type Baseline struct {
	ServerID      string                          `json:"server_id"`
	WindowStart   time.Time                       `json:"window_start"`
	WindowEnd     time.Time                       `json:"window_end"`
	SampleCount   int                             `json:"sample_count"`
	PerParameter  map[Parameter]BaselineStats     `json:"per_parameter"`
	HourlyProfile map[Parameter][24]HourlyStat    `json:"hourly_profile"`
	DayType       map[Parameter]DayTypeStats      `json:"day_type"`
	Quality       DataQuality                     `json:"quality"`
	CreatedAt     time.Time                       `json:"created_at"`
}
