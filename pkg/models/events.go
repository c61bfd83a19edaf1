package models

import "time"

type EventType string

const (
	EventTypeSampleReceived       EventType = "sample_received"
	EventTypeStatusChanged        EventType = "status_changed"
	EventTypeTransitionRejected   EventType = "transition_rejected"
	EventTypeAlertFired           EventType = "alert_fired"
	EventTypeAlertEscalated       EventType = "alert_escalated"
	EventTypeAlertResolved        EventType = "alert_resolved"
	EventTypeAlertSuppressed      EventType = "alert_suppressed"
	EventTypeAggregationCompleted EventType = "aggregation_completed"
	EventTypeBaselineCompleted    EventType = "baseline_completed"
	EventTypeTrendCompleted       EventType = "trend_completed"
	EventTypeTaskSkipped          EventType = "task_skipped"
	EventTypeTaskFailed           EventType = "task_failed"
	EventTypeError                EventType = "error"
)

type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityCritical EventSeverity = "critical"
)

// Event represents an internal system event
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	Severity  EventSeverity `json:"severity"`
	ServerID  string        `json:"server_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Message   string        `json:"message"`
	Data      interface{}   `json:"data,omitempty"`
	TraceID   string        `json:"trace_id,omitempty"`
}

func NewEvent(eventType EventType, serverID, message string) *Event {
	return &Event{
		ID:        NewUUID(),
		Type:      eventType,
		Severity:  SeverityInfo,
		ServerID:  serverID,
		Timestamp: time.Now().UTC(),
		Message:   message,
	}
}

func (e *Event) WithSeverity(severity EventSeverity) *Event {
	e.Severity = severity
	return e
}

func (e *Event) WithData(data interface{}) *Event {
	e.Data = data
	return e
}

func (e *Event) WithTraceID(traceID string) *Event {
	e.TraceID = traceID
	return e
}
