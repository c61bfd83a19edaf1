package alerting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/fleet-health/pkg/models"
)

var evalStart = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func cpuCondition(antiSpam models.AntiSpamPolicy) models.AlertConditionConfig {
	return models.AlertConditionConfig{
		ID:        "cond-cpu",
		Parameter: models.ParamCPU,
		Warning:   models.ThresholdRule{Value: 80, Operator: models.OpGreaterEqual},
		Critical:  models.ThresholdRule{Value: 90, Operator: models.OpGreaterEqual},
		Recovery:  models.ThresholdRule{Value: 70, Operator: models.OpLessThan},
		AntiSpam:  antiSpam,
		Enabled:   true,
	}
}

func cpuSample(cpu float64, at time.Time) *models.MetricSample {
	return &models.MetricSample{
		ServerID:  "srv-1",
		Timestamp: at,
		CPUPct:    cpu,
		MemPct:    50,
		DiskPct:   40,
		Load:      models.LoadMetrics{Load1: 1},
	}
}

func evaluateOne(e *Evaluator, cond models.AlertConditionConfig, cpu float64, at time.Time) []models.AlertEvent {
	return e.Evaluate(cpuSample(cpu, at), []models.AlertConditionConfig{cond}, at)
}

func TestEvaluate_FiresOnBreach(t *testing.T) {
	e := NewEvaluator()
	cond := cpuCondition(models.AntiSpamPolicy{})

	events := evaluateOne(e, cond, 92, evalStart)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, models.AlertEventFired, ev.Type)
	assert.Equal(t, models.AlertSeverityCritical, ev.Instance.Severity)
	assert.Equal(t, models.AlertStateTransient, ev.Instance.State)
	assert.Equal(t, 1, ev.Instance.OccurrenceCount)
	assert.Equal(t, 92.0, ev.Value)
}

func TestEvaluate_CriticalWinsOverWarning(t *testing.T) {
	e := NewEvaluator()
	cond := cpuCondition(models.AntiSpamPolicy{})

	events := evaluateOne(e, cond, 85, evalStart)
	require.Len(t, events, 1)
	assert.Equal(t, models.AlertSeverityWarning, events[0].Instance.Severity)

	events = evaluateOne(e, cond, 95, evalStart.Add(time.Minute))
	require.Len(t, events, 1)
	assert.Equal(t, models.AlertSeverityCritical, events[0].Instance.Severity)
}

func TestEvaluate_DebounceHoldsFirstFire(t *testing.T) {
	e := NewEvaluator()
	cond := cpuCondition(models.AntiSpamPolicy{})
	cond.Warning.MinDurationMinutes = 2

	// Breach must persist for 2 minutes before anything fires.
	events := evaluateOne(e, cond, 85, evalStart)
	assert.Empty(t, events)

	events = evaluateOne(e, cond, 85, evalStart.Add(time.Minute))
	assert.Empty(t, events)

	events = evaluateOne(e, cond, 85, evalStart.Add(2*time.Minute))
	require.Len(t, events, 1)
	assert.Equal(t, models.AlertEventFired, events[0].Type)
}

func TestEvaluate_DebounceResetsWhenBreachClears(t *testing.T) {
	e := NewEvaluator()
	cond := cpuCondition(models.AntiSpamPolicy{})
	cond.Warning.MinDurationMinutes = 2

	evaluateOne(e, cond, 85, evalStart)
	// Dips between recovery and warning: the persistence clock restarts.
	evaluateOne(e, cond, 75, evalStart.Add(time.Minute))

	events := evaluateOne(e, cond, 85, evalStart.Add(2*time.Minute))
	assert.Empty(t, events)
}

func TestEvaluate_CooldownSuppressesRepeatFires(t *testing.T) {
	e := NewEvaluator()
	cond := cpuCondition(models.AntiSpamPolicy{CooldownMinutes: 5, StateBased: true})

	events := evaluateOne(e, cond, 92, evalStart)
	require.Len(t, events, 1)
	assert.Equal(t, models.AlertEventFired, events[0].Type)

	// Within the cooldown the breach is recorded as suppressed.
	events = evaluateOne(e, cond, 93, evalStart.Add(2*time.Minute))
	require.Len(t, events, 1)
	assert.Equal(t, models.AlertEventSuppressed, events[0].Type)
	assert.Equal(t, ReasonCooldown, events[0].Reason)

	// After the cooldown it fires again.
	events = evaluateOne(e, cond, 93, evalStart.Add(6*time.Minute))
	require.Len(t, events, 1)
	assert.Equal(t, models.AlertEventFired, events[0].Type)
	assert.Equal(t, 3, events[0].Instance.OccurrenceCount)
}

func TestEvaluate_CooldownPerSeverity(t *testing.T) {
	e := NewEvaluator()
	cond := cpuCondition(models.AntiSpamPolicy{CooldownMinutes: 10, StateBased: true})

	events := evaluateOne(e, cond, 85, evalStart)
	require.Len(t, events, 1)
	assert.Equal(t, models.AlertEventFired, events[0].Type)

	// Escalating to critical is a different severity, not bound by the
	// warning cooldown.
	events = evaluateOne(e, cond, 95, evalStart.Add(time.Minute))
	require.Len(t, events, 1)
	assert.Equal(t, models.AlertEventFired, events[0].Type)
	assert.Equal(t, models.AlertSeverityCritical, events[0].Instance.Severity)
}

func TestEvaluate_RecurringEscalation(t *testing.T) {
	e := NewEvaluator()
	cond := cpuCondition(models.AntiSpamPolicy{RecurringCount: 3, RecurringWithinMinutes: 60})

	at := evalStart
	for i := 0; i < 2; i++ {
		events := evaluateOne(e, cond, 92, at)
		require.Len(t, events, 1)
		assert.Equal(t, models.AlertEventFired, events[0].Type)
		at = at.Add(5 * time.Minute)
	}

	// Third fire within the hour escalates to RECURRING.
	events := evaluateOne(e, cond, 92, at)
	require.Len(t, events, 1)
	assert.Equal(t, models.AlertEventEscalated, events[0].Type)
	assert.Equal(t, models.AlertStateRecurring, events[0].Instance.State)
}

func TestEvaluate_RecurringWindowLongerThanRateCap(t *testing.T) {
	e := NewEvaluator()
	cond := cpuCondition(models.AntiSpamPolicy{MaxPerHour: 10, RecurringCount: 3, RecurringWithinMinutes: 180})

	at := evalStart
	for i := 0; i < 2; i++ {
		events := evaluateOne(e, cond, 92, at)
		require.Len(t, events, 1)
		assert.Equal(t, models.AlertEventFired, events[0].Type)
		at = at.Add(70 * time.Minute)
	}

	// Fires 70 minutes apart have each left the rate-cap hour, but all three
	// sit inside the three-hour recurrence window and must still escalate.
	events := evaluateOne(e, cond, 92, at)
	require.Len(t, events, 1)
	assert.Equal(t, models.AlertEventEscalated, events[0].Type)
	assert.Equal(t, models.AlertStateRecurring, events[0].Instance.State)
}

func TestEvaluate_MaxPerHourCap(t *testing.T) {
	e := NewEvaluator()
	cond := cpuCondition(models.AntiSpamPolicy{MaxPerHour: 2})

	at := evalStart
	for i := 0; i < 2; i++ {
		events := evaluateOne(e, cond, 92, at)
		require.Len(t, events, 1)
		assert.Equal(t, models.AlertEventFired, events[0].Type)
		at = at.Add(5 * time.Minute)
	}

	// The cap wins over everything: further breaches are suppressed.
	events := evaluateOne(e, cond, 92, at)
	require.Len(t, events, 1)
	assert.Equal(t, models.AlertEventSuppressed, events[0].Type)
	assert.Equal(t, ReasonRateCapped, events[0].Reason)
	assert.Equal(t, models.AlertStateSuppressed, events[0].Instance.State)
}

func TestEvaluate_RecoveryRequiresHold(t *testing.T) {
	e := NewEvaluator()
	cond := cpuCondition(models.AntiSpamPolicy{})
	cond.Recovery.MinDurationMinutes = 2

	evaluateOne(e, cond, 92, evalStart)

	// Recovery must hold continuously before the instance resolves.
	events := evaluateOne(e, cond, 65, evalStart.Add(time.Minute))
	assert.Empty(t, events)

	events = evaluateOne(e, cond, 65, evalStart.Add(3*time.Minute))
	require.Len(t, events, 1)
	assert.Equal(t, models.AlertEventResolved, events[0].Type)
	assert.Equal(t, models.AlertStateResolved, events[0].Instance.State)
	assert.Nil(t, e.ActiveInstance("srv-1", cond.ID))
}

func TestEvaluate_RecoveryInterruptedByBreach(t *testing.T) {
	e := NewEvaluator()
	cond := cpuCondition(models.AntiSpamPolicy{})
	cond.Recovery.MinDurationMinutes = 5

	evaluateOne(e, cond, 92, evalStart)
	evaluateOne(e, cond, 65, evalStart.Add(time.Minute))
	// The breach interrupts the recovery hold.
	evaluateOne(e, cond, 92, evalStart.Add(2*time.Minute))

	events := evaluateOne(e, cond, 65, evalStart.Add(3*time.Minute))
	assert.Empty(t, events)
	assert.NotNil(t, e.ActiveInstance("srv-1", cond.ID))
}

func TestEvaluate_RecoveryWithoutInstanceIsQuiet(t *testing.T) {
	e := NewEvaluator()
	cond := cpuCondition(models.AntiSpamPolicy{})

	events := evaluateOne(e, cond, 65, evalStart)
	assert.Empty(t, events)
}

func TestMergeConditions(t *testing.T) {
	serverID := "srv-1"
	otherID := "srv-2"

	global := cpuCondition(models.AntiSpamPolicy{})
	global.ID = "global-cpu"

	specific := cpuCondition(models.AntiSpamPolicy{})
	specific.ID = "specific-cpu"
	specific.ServerID = &serverID

	foreign := cpuCondition(models.AntiSpamPolicy{})
	foreign.ID = "foreign-cpu"
	foreign.ServerID = &otherID

	disabled := cpuCondition(models.AntiSpamPolicy{})
	disabled.ID = "disabled-mem"
	disabled.Parameter = models.ParamMemory
	disabled.Enabled = false

	globalMem := cpuCondition(models.AntiSpamPolicy{})
	globalMem.ID = "global-mem"
	globalMem.Parameter = models.ParamMemory

	merged := MergeConditions(serverID, []models.AlertConditionConfig{global, specific, foreign, disabled, globalMem})

	ids := make(map[string]bool, len(merged))
	for _, c := range merged {
		ids[c.ID] = true
	}

	// The server-specific cpu condition shadows the global one; the other
	// server's condition and the disabled one are dropped.
	assert.Len(t, merged, 2)
	assert.True(t, ids["specific-cpu"])
	assert.True(t, ids["global-mem"])
}

func TestReset(t *testing.T) {
	e := NewEvaluator()
	cond := cpuCondition(models.AntiSpamPolicy{})

	evaluateOne(e, cond, 92, evalStart)
	require.NotNil(t, e.ActiveInstance("srv-1", cond.ID))

	e.Reset("srv-1")
	assert.Nil(t, e.ActiveInstance("srv-1", cond.ID))
}
