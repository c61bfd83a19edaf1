package models

import "time"

type CompareOp string

const (
	OpGreaterThan  CompareOp = "gt"
	OpGreaterEqual CompareOp = "gte"
	OpLessThan     CompareOp = "lt"
	OpLessEqual    CompareOp = "lte"
)

// Matches applies the operator to (value, threshold).
func (op CompareOp) Matches(value, threshold float64) bool {
	switch op {
	case OpGreaterThan:
		return value > threshold
	case OpGreaterEqual:
		return value >= threshold
	case OpLessThan:
		return value < threshold
	case OpLessEqual:
		return value <= threshold
	}
	return false
}

// Increasing reports whether the operator describes a
// monotonically-increasing breach direction (worse when higher).
func (op CompareOp) Increasing() bool {
	return op == OpGreaterThan || op == OpGreaterEqual
}

func (op CompareOp) IsValid() bool {
	switch op {
	case OpGreaterThan, OpGreaterEqual, OpLessThan, OpLessEqual:
		return true
	}
	return false
}

// ThresholdRule is one comparison rule of an alert condition.
type ThresholdRule struct {
	Value              float64   `json:"value"`
	Operator           CompareOp `json:"operator"`
	MinDurationMinutes int       `json:"min_duration_minutes"`
}

// AntiSpamPolicy controls repeated firing of the same condition.
type AntiSpamPolicy struct {
	CooldownMinutes        int  `json:"cooldown_minutes"`
	StateBased             bool `json:"state_based"`
	MaxPerHour             int  `json:"max_per_hour"`
	RecurringCount         int  `json:"recurring_count"`
	RecurringWithinMinutes int  `json:"recurring_within_minutes"`
}

// AlertConditionConfig is an operator-defined alert condition. ServerID nil
// means the condition applies fleet-wide; server-specific conditions shadow
// global ones for the same parameter.
type AlertConditionConfig struct {
	ID        string         `json:"id"`
	ServerID  *string        `json:"server_id,omitempty"`
	Parameter Parameter      `json:"parameter"`
	Warning   ThresholdRule  `json:"warning"`
	Critical  ThresholdRule  `json:"critical"`
	Recovery  ThresholdRule  `json:"recovery"`
	AntiSpam  AntiSpamPolicy `json:"anti_spam"`
	Enabled   bool           `json:"enabled"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// IsGlobal reports whether the condition applies to every server.
func (c *AlertConditionConfig) IsGlobal() bool {
	return c.ServerID == nil
}

type AlertSeverity string

const (
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityCritical AlertSeverity = "critical"
)

type AlertState string

const (
	AlertStateTransient  AlertState = "TRANSIENT"
	AlertStateRecurring  AlertState = "RECURRING"
	AlertStateSuppressed AlertState = "SUPPRESSED"
	AlertStateResolved   AlertState = "RESOLVED"
)

// AlertInstance is the lifecycle object for breaches of one condition on one
// server. Created on first accepted fire, escalated to RECURRING once the
// recurrence criteria are met, resolved after the recovery threshold holds.
type AlertInstance struct {
	ID              string        `json:"id"`
	ConditionID     string        `json:"condition_id"`
	ServerID        string        `json:"server_id"`
	Parameter       Parameter     `json:"parameter"`
	Severity        AlertSeverity `json:"severity"`
	FirstFiredAt    time.Time     `json:"first_fired_at"`
	LastFiredAt     time.Time     `json:"last_fired_at"`
	OccurrenceCount int           `json:"occurrence_count"`
	State           AlertState    `json:"state"`
}

func (a *AlertInstance) IsActive() bool {
	return a.State != AlertStateResolved
}

type AlertEventType string

const (
	AlertEventFired      AlertEventType = "fired"
	AlertEventEscalated  AlertEventType = "escalated"
	AlertEventResolved   AlertEventType = "resolved"
	AlertEventSuppressed AlertEventType = "suppressed"
)

// AlertEvent is what downstream notification collaborators receive.
type AlertEvent struct {
	Instance  *AlertInstance `json:"instance"`
	Type      AlertEventType `json:"type"`
	Reason    string         `json:"reason"`
	Value     float64        `json:"value"`
	Timestamp time.Time      `json:"timestamp"`
}
