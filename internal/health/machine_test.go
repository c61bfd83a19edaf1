package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/fleet-health/pkg/models"
)

var testStart = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	m, err := NewMachine(Config{
		Policy:         DefaultPolicy(),
		SoftStaleDelay: 5 * time.Minute,
		HardStaleDelay: 15 * time.Minute,
	})
	require.NoError(t, err)
	return m
}

func newTestState(m *Machine) *models.ServerHealthState {
	return models.NewServerHealthState("srv-1", m.RingCapacity(), testStart)
}

func classification(status models.ServerStatus, at time.Time) *models.Classification {
	return &models.Classification{
		ServerID:  "srv-1",
		Timestamp: at,
		Status:    status,
	}
}

func TestNewMachine_RejectsBadConfig(t *testing.T) {
	_, err := NewMachine(Config{
		Policy:         Policy{models.StatusHealthy: {MinHold: time.Minute, RequiredSamples: 0}},
		SoftStaleDelay: 5 * time.Minute,
		HardStaleDelay: 15 * time.Minute,
	})
	assert.Error(t, err)

	_, err = NewMachine(Config{
		SoftStaleDelay: 10 * time.Minute,
		HardStaleDelay: 5 * time.Minute,
	})
	assert.Error(t, err)
}

func TestEvaluate_UpgradeIsImmediate(t *testing.T) {
	m := newTestMachine(t)
	state := newTestState(m)

	d := m.Evaluate(state, classification(models.StatusCritical, testStart), testStart)

	assert.True(t, d.Applied)
	assert.Equal(t, models.StatusHealthy, d.OldStatus)
	assert.Equal(t, models.StatusCritical, d.NewStatus)
	assert.Equal(t, ReasonUpgrade, d.Reason)
	assert.Equal(t, models.StatusCritical, state.CurrentStatus)
}

func TestEvaluate_DowngradeRequiresHoldTime(t *testing.T) {
	m := newTestMachine(t)
	state := newTestState(m)

	m.Evaluate(state, classification(models.StatusCritical, testStart), testStart)

	// CRITICAL holds for 2 minutes; one minute is not enough.
	at := testStart.Add(1 * time.Minute)
	d := m.Evaluate(state, classification(models.StatusHealthy, at), at)

	assert.False(t, d.Applied)
	assert.Equal(t, ReasonHoldTimeNotElapsed, d.Reason)
	assert.Equal(t, models.StatusCritical, state.CurrentStatus)
}

func TestEvaluate_DowngradeRequiresAgreeingSamples(t *testing.T) {
	m := newTestMachine(t)
	state := newTestState(m)

	m.Evaluate(state, classification(models.StatusCritical, testStart), testStart)

	// Hold time has elapsed but only one recent sample agrees with HEALTHY.
	at := testStart.Add(3 * time.Minute)
	d := m.Evaluate(state, classification(models.StatusHealthy, at), at)
	assert.False(t, d.Applied)
	assert.Equal(t, ReasonSamplesNotAgreeing, d.Reason)

	// A second agreeing sample confirms the downgrade.
	at = testStart.Add(4 * time.Minute)
	d = m.Evaluate(state, classification(models.StatusHealthy, at), at)
	assert.True(t, d.Applied)
	assert.Equal(t, ReasonDowngradeConfirmed, d.Reason)
	assert.Equal(t, models.StatusHealthy, state.CurrentStatus)
}

func TestEvaluate_NoChangeIsRejected(t *testing.T) {
	m := newTestMachine(t)
	state := newTestState(m)

	d := m.Evaluate(state, classification(models.StatusHealthy, testStart), testStart)

	assert.False(t, d.Applied)
	assert.Equal(t, ReasonNoChange, d.Reason)
}

func TestEvaluate_OutOfOrderSampleIsIgnored(t *testing.T) {
	m := newTestMachine(t)
	state := newTestState(m)

	now := testStart.Add(time.Minute)
	m.Evaluate(state, classification(models.StatusHealthy, now.Add(-time.Second)), now)
	require.Equal(t, models.StatusHealthy, state.CurrentStatus)
	require.Equal(t, 1, state.Recent.Len())

	// A straggler from twenty minutes ago arrives after a fresh sample. It
	// must not trip the staleness transitions or move LastSampleAt backward.
	d := m.Evaluate(state, classification(models.StatusCritical, now.Add(-20*time.Minute)), now)

	assert.False(t, d.Applied)
	assert.Equal(t, ReasonOutOfOrder, d.Reason)
	assert.Equal(t, models.StatusHealthy, state.CurrentStatus)
	assert.Equal(t, now.Add(-time.Second), state.LastSampleAt)
	assert.Equal(t, 1, state.Recent.Len())
}

func TestEvaluate_StaleSampleForcesWarning(t *testing.T) {
	m := newTestMachine(t)
	state := newTestState(m)

	now := testStart.Add(6 * time.Minute)
	d := m.Evaluate(state, classification(models.StatusHealthy, testStart), now)

	assert.True(t, d.Applied)
	assert.Equal(t, models.StatusWarning, d.NewStatus)
	assert.Equal(t, ReasonStaleDataSoft, d.Reason)
	assert.Equal(t, 50.0, d.Confidence)
}

func TestEvaluate_VeryStaleSampleForcesOffline(t *testing.T) {
	m := newTestMachine(t)
	state := newTestState(m)

	now := testStart.Add(16 * time.Minute)
	d := m.Evaluate(state, classification(models.StatusHealthy, testStart), now)

	assert.True(t, d.Applied)
	assert.Equal(t, models.StatusOffline, d.NewStatus)
	assert.Equal(t, ReasonStaleDataHard, d.Reason)
	assert.Equal(t, 100.0, d.Confidence)
}

func TestMarkStale(t *testing.T) {
	m := newTestMachine(t)

	tests := []struct {
		name           string
		sinceSample    time.Duration
		startingStatus models.ServerStatus
		wantApplied    bool
		wantStatus     models.ServerStatus
	}{
		{"fresh server untouched", 1 * time.Minute, models.StatusHealthy, false, models.StatusHealthy},
		{"soft stale demotes healthy", 6 * time.Minute, models.StatusHealthy, true, models.StatusWarning},
		{"soft stale leaves worse status alone", 6 * time.Minute, models.StatusCritical, false, models.StatusCritical},
		{"hard stale goes offline", 16 * time.Minute, models.StatusCritical, true, models.StatusOffline},
		{"already offline stays put", 16 * time.Minute, models.StatusOffline, false, models.StatusOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := newTestState(m)
			state.CurrentStatus = tt.startingStatus
			state.LastSampleAt = testStart

			d := m.MarkStale(state, testStart.Add(tt.sinceSample))

			assert.Equal(t, tt.wantApplied, d.Applied)
			assert.Equal(t, tt.wantStatus, state.CurrentStatus)
		})
	}
}

func TestOverride_BlocksAutomaticTransitions(t *testing.T) {
	m := newTestMachine(t)
	state := newTestState(m)

	d, err := m.SetOverride(state, models.StatusMaintenance, "planned patching", nil, testStart)
	require.NoError(t, err)
	assert.True(t, d.Applied)
	assert.Equal(t, models.StatusMaintenance, state.CurrentStatus)

	// Even a danger classification is held back while the override is active.
	at := testStart.Add(time.Minute)
	d = m.Evaluate(state, classification(models.StatusDanger, at), at)
	assert.False(t, d.Applied)
	assert.Equal(t, ReasonMaintenanceOverride, d.Reason)
	assert.Equal(t, models.StatusMaintenance, state.CurrentStatus)
}

func TestOverride_ExpiresAndResumes(t *testing.T) {
	m := newTestMachine(t)
	state := newTestState(m)

	dur := 10 * time.Minute
	_, err := m.SetOverride(state, models.StatusMaintenance, "planned patching", &dur, testStart)
	require.NoError(t, err)

	// Past the expiry the next evaluation resumes automatic transitions.
	at := testStart.Add(11 * time.Minute)
	d := m.Evaluate(state, classification(models.StatusCritical, at), at)
	assert.True(t, d.Applied)
	assert.Equal(t, models.StatusCritical, state.CurrentStatus)
	assert.Nil(t, state.Override)
}

func TestOverride_Validation(t *testing.T) {
	m := newTestMachine(t)
	state := newTestState(m)

	_, err := m.SetOverride(state, models.ServerStatus("BOGUS"), "reason", nil, testStart)
	assert.True(t, models.IsValidation(err))

	_, err = m.SetOverride(state, models.StatusMaintenance, "", nil, testStart)
	assert.True(t, models.IsValidation(err))

	negative := -time.Minute
	_, err = m.SetOverride(state, models.StatusMaintenance, "reason", &negative, testStart)
	assert.True(t, models.IsValidation(err))
}

func TestClearOverride(t *testing.T) {
	m := newTestMachine(t)
	state := newTestState(m)

	_, err := m.ClearOverride(state, testStart)
	assert.True(t, models.IsValidation(err))

	m.Evaluate(state, classification(models.StatusWarning, testStart), testStart)
	_, err = m.SetOverride(state, models.StatusMaintenance, "reason", nil, testStart)
	require.NoError(t, err)

	d, err := m.ClearOverride(state, testStart.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, d.Applied)
	// Falls back to the most recent classified status.
	assert.Equal(t, models.StatusWarning, state.CurrentStatus)
	assert.Nil(t, state.Override)
}
