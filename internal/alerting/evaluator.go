package alerting

import (
	"sync"
	"time"

	"github.com/OldStager01/fleet-health/internal/logger"
	"github.com/OldStager01/fleet-health/pkg/models"
)

// Suppression reason strings.
const (
	ReasonCooldown   = "cooldown_active"
	ReasonRateCapped = "max_per_hour_reached"
)

// conditionTrack is the evaluator's state for one (server, condition) pair.
type conditionTrack struct {
	firstBreachAt   *time.Time
	breachSeverity  models.AlertSeverity
	recoveryStartAt *time.Time
	lastFiredAt     map[models.AlertSeverity]time.Time
	fireTimes       []time.Time
	instance        *models.AlertInstance
}

// Evaluator applies alert conditions to sampled values and drives the
// AlertInstance lifecycle. It is independent of the hysteresis machine.
type Evaluator struct {
	tracks map[string]*conditionTrack // key: serverID + "/" + conditionID
	mu     sync.Mutex
}

func NewEvaluator() *Evaluator {
	return &Evaluator{tracks: make(map[string]*conditionTrack)}
}

// MergeConditions resolves which conditions apply to a server: enabled only,
// server-specific configs shadowing global ones for the same parameter.
func MergeConditions(serverID string, conditions []models.AlertConditionConfig) []models.AlertConditionConfig {
	specific := make(map[models.Parameter]models.AlertConditionConfig)
	global := make(map[models.Parameter]models.AlertConditionConfig)

	for _, c := range conditions {
		if !c.Enabled {
			continue
		}
		if c.IsGlobal() {
			global[c.Parameter] = c
		} else if *c.ServerID == serverID {
			specific[c.Parameter] = c
		}
	}

	merged := make([]models.AlertConditionConfig, 0, len(specific)+len(global))
	for _, c := range specific {
		merged = append(merged, c)
	}
	for param, c := range global {
		if _, shadowed := specific[param]; !shadowed {
			merged = append(merged, c)
		}
	}
	return merged
}

// Evaluate checks one sample against every applicable condition and returns
// the alert events produced this cycle.
func (e *Evaluator) Evaluate(sample *models.MetricSample, conditions []models.AlertConditionConfig, now time.Time) []models.AlertEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	var events []models.AlertEvent
	for i := range conditions {
		cond := &conditions[i]
		value, ok := sample.ValueOf(cond.Parameter)
		if !ok {
			continue
		}
		if ev := e.evaluateCondition(sample.ServerID, cond, value, now); ev != nil {
			events = append(events, *ev)
		}
	}
	return events
}

func (e *Evaluator) evaluateCondition(serverID string, cond *models.AlertConditionConfig, value float64, now time.Time) *models.AlertEvent {
	track := e.track(serverID, cond.ID)

	// Critical first, then warning, then recovery.
	switch {
	case cond.Critical.Operator.Matches(value, cond.Critical.Value):
		return e.handleBreach(serverID, cond, track, models.AlertSeverityCritical, cond.Critical, value, now)
	case cond.Warning.Operator.Matches(value, cond.Warning.Value):
		return e.handleBreach(serverID, cond, track, models.AlertSeverityWarning, cond.Warning, value, now)
	case cond.Recovery.Operator.Matches(value, cond.Recovery.Value):
		return e.handleRecovery(serverID, cond, track, value, now)
	default:
		// Between recovery and warning: both persistence clocks reset.
		track.firstBreachAt = nil
		track.recoveryStartAt = nil
		return nil
	}
}

func (e *Evaluator) handleBreach(serverID string, cond *models.AlertConditionConfig, track *conditionTrack, severity models.AlertSeverity, rule models.ThresholdRule, value float64, now time.Time) *models.AlertEvent {
	track.recoveryStartAt = nil

	// Persistence clock restarts when the severity changes.
	if track.firstBreachAt == nil || track.breachSeverity != severity {
		track.firstBreachAt = &now
		track.breachSeverity = severity
	}

	if now.Sub(*track.firstBreachAt) < time.Duration(rule.MinDurationMinutes)*time.Minute {
		return nil
	}

	e.pruneFires(track, cond, now)

	// Hard cap wins over everything else.
	if cond.AntiSpam.MaxPerHour > 0 && e.firesWithin(track, now, time.Hour) >= cond.AntiSpam.MaxPerHour {
		return e.suppress(serverID, cond, track, severity, value, now, ReasonRateCapped)
	}

	// Cooldown per (server, condition, severity) unless state-based alerting
	// is disabled.
	if cond.AntiSpam.StateBased && cond.AntiSpam.CooldownMinutes > 0 {
		if last, ok := track.lastFiredAt[severity]; ok {
			cooldown := time.Duration(cond.AntiSpam.CooldownMinutes) * time.Minute
			if now.Sub(last) < cooldown {
				return e.suppress(serverID, cond, track, severity, value, now, ReasonCooldown)
			}
		}
	}

	return e.fire(serverID, cond, track, severity, value, now)
}

func (e *Evaluator) fire(serverID string, cond *models.AlertConditionConfig, track *conditionTrack, severity models.AlertSeverity, value float64, now time.Time) *models.AlertEvent {
	if track.lastFiredAt == nil {
		track.lastFiredAt = make(map[models.AlertSeverity]time.Time)
	}
	track.lastFiredAt[severity] = now
	track.fireTimes = append(track.fireTimes, now)

	if track.instance == nil || !track.instance.IsActive() {
		track.instance = &models.AlertInstance{
			ID:              models.NewUUID(),
			ConditionID:     cond.ID,
			ServerID:        serverID,
			Parameter:       cond.Parameter,
			Severity:        severity,
			FirstFiredAt:    now,
			LastFiredAt:     now,
			OccurrenceCount: 1,
			State:           models.AlertStateTransient,
		}
	} else {
		track.instance.OccurrenceCount++
		track.instance.LastFiredAt = now
		track.instance.Severity = severity
		if track.instance.State == models.AlertStateSuppressed {
			track.instance.State = models.AlertStateTransient
		}
	}

	eventType := models.AlertEventFired
	if cond.AntiSpam.RecurringCount > 0 && track.instance.State == models.AlertStateTransient {
		window := time.Duration(cond.AntiSpam.RecurringWithinMinutes) * time.Minute
		if e.firesWithin(track, now, window) >= cond.AntiSpam.RecurringCount {
			track.instance.State = models.AlertStateRecurring
			eventType = models.AlertEventEscalated
		}
	}

	logger.WithServer(serverID).Infof(
		"Alert %s: condition=%s parameter=%s severity=%s value=%.2f occurrences=%d",
		eventType, cond.ID, cond.Parameter, severity, value, track.instance.OccurrenceCount,
	)

	inst := *track.instance
	return &models.AlertEvent{Instance: &inst, Type: eventType, Reason: string(severity) + "_threshold_breached", Value: value, Timestamp: now}
}

func (e *Evaluator) suppress(serverID string, cond *models.AlertConditionConfig, track *conditionTrack, severity models.AlertSeverity, value float64, now time.Time, reason string) *models.AlertEvent {
	if track.instance == nil || !track.instance.IsActive() {
		// Nothing fired yet for this episode; a rate-capped breach still
		// needs an instance so the suppression is recorded, a cooldown one
		// does not.
		if reason == ReasonCooldown {
			return nil
		}
		track.instance = &models.AlertInstance{
			ID:           models.NewUUID(),
			ConditionID:  cond.ID,
			ServerID:     serverID,
			Parameter:    cond.Parameter,
			Severity:     severity,
			FirstFiredAt: now,
			State:        models.AlertStateSuppressed,
		}
	}

	track.instance.OccurrenceCount++
	track.instance.LastFiredAt = now
	if reason == ReasonRateCapped {
		track.instance.State = models.AlertStateSuppressed
	}

	logger.WithServer(serverID).Debugf(
		"Alert suppressed: condition=%s severity=%s reason=%s", cond.ID, severity, reason,
	)

	inst := *track.instance
	return &models.AlertEvent{Instance: &inst, Type: models.AlertEventSuppressed, Reason: reason, Value: value, Timestamp: now}
}

func (e *Evaluator) handleRecovery(serverID string, cond *models.AlertConditionConfig, track *conditionTrack, value float64, now time.Time) *models.AlertEvent {
	track.firstBreachAt = nil

	if track.instance == nil || !track.instance.IsActive() {
		track.recoveryStartAt = nil
		return nil
	}

	if track.recoveryStartAt == nil {
		track.recoveryStartAt = &now
	}
	hold := time.Duration(cond.Recovery.MinDurationMinutes) * time.Minute
	if now.Sub(*track.recoveryStartAt) < hold {
		return nil
	}

	track.instance.State = models.AlertStateResolved
	inst := *track.instance
	track.instance = nil
	track.recoveryStartAt = nil
	track.lastFiredAt = nil
	track.fireTimes = nil

	logger.WithServer(serverID).Infof(
		"Alert resolved: condition=%s parameter=%s", cond.ID, cond.Parameter,
	)

	return &models.AlertEvent{Instance: &inst, Type: models.AlertEventResolved, Reason: "recovery_threshold_held", Value: value, Timestamp: now}
}

// pruneFires drops fire history older than every window the condition still
// needs: the rate-cap hour or the recurrence window, whichever is longer.
func (e *Evaluator) pruneFires(track *conditionTrack, cond *models.AlertConditionConfig, now time.Time) {
	keep := time.Hour
	if w := time.Duration(cond.AntiSpam.RecurringWithinMinutes) * time.Minute; w > keep {
		keep = w
	}

	cutoff := now.Add(-keep)
	kept := track.fireTimes[:0]
	for _, t := range track.fireTimes {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	track.fireTimes = kept
}

// firesWithin counts accepted fires in the trailing window. It never mutates
// the history; pruning is pruneFires' job.
func (e *Evaluator) firesWithin(track *conditionTrack, now time.Time, window time.Duration) int {
	count := 0
	cutoff := now.Add(-window)
	for _, t := range track.fireTimes {
		if !t.Before(cutoff) {
			count++
		}
	}
	return count
}

// ActiveInstance returns the live instance for a (server, condition) pair,
// if any.
func (e *Evaluator) ActiveInstance(serverID, conditionID string) *models.AlertInstance {
	e.mu.Lock()
	defer e.mu.Unlock()

	track, ok := e.tracks[serverID+"/"+conditionID]
	if !ok || track.instance == nil {
		return nil
	}
	inst := *track.instance
	return &inst
}

// Reset drops all evaluator state for a server.
func (e *Evaluator) Reset(serverID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prefix := serverID + "/"
	for key := range e.tracks {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			delete(e.tracks, key)
		}
	}
}

func (e *Evaluator) track(serverID, conditionID string) *conditionTrack {
	key := serverID + "/" + conditionID
	track, ok := e.tracks[key]
	if !ok {
		track = &conditionTrack{}
		e.tracks[key] = track
	}
	return track
}
