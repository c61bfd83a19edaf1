package events

import (
	"github.com/OldStager01/fleet-health/pkg/models"
)

type Publisher struct {
	bus     *EventBus
	traceID string
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) WithTraceID(traceID string) *Publisher {
	return &Publisher{
		bus:     p.bus,
		traceID: traceID,
	}
}

func (p *Publisher) publish(event *models.Event) {
	if p.traceID != "" {
		event.TraceID = p.traceID
	}
	p.bus.Publish(event)
}

func (p *Publisher) SampleReceived(serverID string, c *models.Classification) {
	event := models.NewEvent(models.EventTypeSampleReceived, serverID, "Sample classified").
		WithData(c)
	p.publish(event)
}

func (p *Publisher) StatusChanged(change *models.StatusChange) {
	msg := "Status changed: " + string(change.OldStatus) + " -> " + string(change.NewStatus)
	event := models.NewEvent(models.EventTypeStatusChanged, change.ServerID, msg).
		WithData(change)

	switch change.NewStatus {
	case models.StatusCritical, models.StatusDanger, models.StatusOffline:
		event.WithSeverity(models.SeverityCritical)
	case models.StatusWarning:
		event.WithSeverity(models.SeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) TransitionRejected(serverID string, candidate models.ServerStatus, reason string) {
	event := models.NewEvent(models.EventTypeTransitionRejected, serverID, "Transition held: "+reason).
		WithData(map[string]interface{}{
			"candidate": candidate,
			"reason":    reason,
		})
	p.publish(event)
}

func (p *Publisher) AlertEvent(serverID string, alert *models.AlertEvent) {
	var eventType models.EventType
	switch alert.Type {
	case models.AlertEventFired:
		eventType = models.EventTypeAlertFired
	case models.AlertEventEscalated:
		eventType = models.EventTypeAlertEscalated
	case models.AlertEventResolved:
		eventType = models.EventTypeAlertResolved
	default:
		eventType = models.EventTypeAlertSuppressed
	}

	event := models.NewEvent(eventType, serverID, "Alert "+string(alert.Type)+": "+string(alert.Instance.Parameter)).
		WithData(alert)

	if alert.Type == models.AlertEventFired || alert.Type == models.AlertEventEscalated {
		if alert.Instance.Severity == models.AlertSeverityCritical {
			event.WithSeverity(models.SeverityCritical)
		} else {
			event.WithSeverity(models.SeverityWarning)
		}
	}

	p.publish(event)
}

func (p *Publisher) AggregationCompleted(serverID string, agg *models.DailyAggregate) {
	event := models.NewEvent(models.EventTypeAggregationCompleted, serverID, "Daily aggregate computed").
		WithData(agg)
	p.publish(event)
}

func (p *Publisher) BaselineCompleted(serverID string, baseline *models.Baseline) {
	event := models.NewEvent(models.EventTypeBaselineCompleted, serverID, "Baseline recomputed").
		WithData(baseline)
	p.publish(event)
}

func (p *Publisher) TrendCompleted(serverID string, trend *models.TrendAnalysis) {
	event := models.NewEvent(models.EventTypeTrendCompleted, serverID, "Trend analysis completed").
		WithData(trend)
	p.publish(event)
}

func (p *Publisher) TaskSkipped(serverID, task, reason string) {
	event := models.NewEvent(models.EventTypeTaskSkipped, serverID, "Task skipped: "+task).
		WithData(map[string]interface{}{
			"task":   task,
			"reason": reason,
		})
	p.publish(event)
}

func (p *Publisher) TaskFailed(serverID, task string, err error) {
	event := models.NewEvent(models.EventTypeTaskFailed, serverID, "Task failed: "+task).
		WithSeverity(models.SeverityWarning).
		WithData(map[string]interface{}{
			"task":  task,
			"error": err.Error(),
		})
	p.publish(event)
}

func (p *Publisher) Error(serverID string, message string, err error) {
	event := models.NewEvent(models.EventTypeError, serverID, message).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.publish(event)
}
