package events

import (
	"context"
	"encoding/json"

	"github.com/OldStager01/fleet-health/internal/logger"
	"github.com/OldStager01/fleet-health/pkg/database"
	"github.com/OldStager01/fleet-health/pkg/models"
)

type EventLogger struct {
	db        *database.DB
	eventChan <-chan *models.Event
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewEventLogger(db *database.DB, eventChan <-chan *models.Event) *EventLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventLogger{
		db:        db,
		eventChan: eventChan,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (l *EventLogger) Start() {
	go l.run()
}

func (l *EventLogger) Stop() {
	l.cancel()
}

func (l *EventLogger) run() {
	for {
		select {
		case <-l.ctx.Done():
			return
		case event, ok := <-l.eventChan:
			if !ok {
				return
			}
			l.processEvent(event)
		}
	}
}

func (l *EventLogger) processEvent(event *models.Event) {
	// Log to structured logger
	entry := logger.WithFields(map[string]interface{}{
		"event_type": event.Type,
		"server_id":  event.ServerID,
		"severity":   event.Severity,
		"trace_id":   event.TraceID,
	})

	switch event.Severity {
	case models.SeverityCritical:
		entry.Error(event.Message)
	case models.SeverityWarning:
		entry.Warn(event.Message)
	default:
		entry.Info(event.Message)
	}

	// Persist specific events to database
	switch event.Type {
	case models.EventTypeStatusChanged:
		l.persistStatusChange(event)
	case models.EventTypeAlertFired,
		models.EventTypeAlertEscalated,
		models.EventTypeAlertResolved,
		models.EventTypeAlertSuppressed:
		l.persistAlertEvent(event)
	}
}

func (l *EventLogger) persistStatusChange(event *models.Event) {
	change, ok := event.Data.(*models.StatusChange)
	if !ok {
		return
	}

	query := `
		INSERT INTO status_changes
			(server_id, timestamp, old_status, new_status, reason, confidence)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := l.db.ExecContext(l.ctx, query,
		change.ServerID,
		change.Timestamp,
		change.OldStatus,
		change.NewStatus,
		change.Reason,
		change.Confidence,
	)

	if err != nil {
		logger.Errorf("Failed to persist status change: %v", err)
	}
}

func (l *EventLogger) persistAlertEvent(event *models.Event) {
	alert, ok := event.Data.(*models.AlertEvent)
	if !ok || alert.Instance == nil {
		return
	}

	query := `
		INSERT INTO alert_events
			(instance_id, server_id, condition_id, parameter, severity, event_type, reason, value, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := l.db.ExecContext(l.ctx, query,
		alert.Instance.ID,
		alert.Instance.ServerID,
		alert.Instance.ConditionID,
		alert.Instance.Parameter,
		alert.Instance.Severity,
		alert.Type,
		alert.Reason,
		alert.Value,
		alert.Timestamp,
	)

	if err != nil {
		logger.Errorf("Failed to persist alert event: %v", err)
	}
}

func (l *EventLogger) LogToJSON(event *models.Event) string {
	data, _ := json.Marshal(event)
	return string(data)
}
