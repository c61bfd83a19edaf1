package models

import "time"

type TrendDirection string

const (
	TrendStable             TrendDirection = "stable"
	TrendIncreasing         TrendDirection = "increasing"
	TrendDecreasing         TrendDirection = "decreasing"
	TrendStronglyIncreasing TrendDirection = "strongly_increasing"
	TrendStronglyDecreasing TrendDirection = "strongly_decreasing"
)

// MovingAverages holds the smoothed series endpoints at the fast (4-sample)
// and slow (12-sample) windows.
type MovingAverages struct {
	SMA4  float64 `json:"sma_4"`
	SMA12 float64 `json:"sma_12"`
	EMA4  float64 `json:"ema_4"`
	EMA12 float64 `json:"ema_12"`
}

// ParameterTrend is the short-window trend result for one parameter.
type ParameterTrend struct {
	Averages     MovingAverages `json:"moving_averages"`
	SlopePerHour float64        `json:"slope_per_hour"`
	Direction    TrendDirection `json:"direction"`
	Confidence   float64        `json:"confidence"`
	Predicted1h  float64        `json:"predicted_1h"`
	Predicted6h  float64        `json:"predicted_6h"`
	Predicted24h float64        `json:"predicted_24h"`
}

type AnomalySeverity string

const (
	AnomalyLow    AnomalySeverity = "low"
	AnomalyMedium AnomalySeverity = "medium"
	AnomalyHigh   AnomalySeverity = "high"
)

// Anomaly is one sample flagged by z-score against the smoothed series.
type Anomaly struct {
	Parameter Parameter       `json:"parameter"`
	Timestamp time.Time       `json:"timestamp"`
	Value     float64         `json:"value"`
	Expected  float64         `json:"expected"`
	ZScore    float64         `json:"z_score"`
	Severity  AnomalySeverity `json:"severity"`
}

type RiskLevel string

const (
	RiskVeryLow RiskLevel = "very_low"
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
)

// FailureRisk is the predicted-failure-risk classification for a server.
type FailureRisk struct {
	Level        RiskLevel `json:"level"`
	Confidence   float64   `json:"confidence"`
	ETAHours     *float64  `json:"eta_hours,omitempty"`
	PrimaryCause Parameter `json:"primary_cause,omitempty"`
}

// Recommendation is a data payload keyed off which parameter is trending and
// how fast. It is never a control action.
type Recommendation struct {
	Parameter Parameter `json:"parameter"`
	Action    string    `json:"action"`
	Reason    string    `json:"reason"`
}

// TrendAnalysis is the short-cycle trend/anomaly/prediction record.
// Superseded each run.
type TrendAnalysis struct {
	ServerID        string                       `json:"server_id"`
	WindowStart     time.Time                    `json:"window_start"`
	WindowEnd       time.Time                    `json:"window_end"`
	SampleCount     int                          `json:"sample_count"`
	PerParameter    map[Parameter]ParameterTrend `json:"per_parameter"`
	Anomalies       []Anomaly                    `json:"anomalies"`
	AnomalyScore    float64                      `json:"anomaly_score"`
	Risk            FailureRisk                  `json:"risk"`
	Recommendations []Recommendation             `json:"recommendations"`
	CreatedAt       time.Time                    `json:"created_at"`
}
