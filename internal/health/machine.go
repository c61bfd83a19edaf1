package health

import (
	"fmt"
	"time"

	"github.com/OldStager01/fleet-health/internal/logger"
	"github.com/OldStager01/fleet-health/pkg/models"
)

// Transition reason strings, machine-readable for observability.
const (
	ReasonUpgrade             = "status_worsened"
	ReasonDowngradeConfirmed  = "downgrade_confirmed"
	ReasonStaleDataSoft       = "stale_data"
	ReasonStaleDataHard       = "stale_data_offline"
	ReasonMaintenanceOverride = "maintenance_override"
	ReasonHoldTimeNotElapsed  = "hold_time_not_elapsed"
	ReasonSamplesNotAgreeing  = "insufficient_agreeing_samples"
	ReasonOutOfOrder          = "out_of_order_sample"
	ReasonNoChange            = "no_change"
	ReasonOverrideSet         = "override_set"
	ReasonOverrideCleared     = "override_cleared"
	ReasonOverrideExpired     = "override_expired"
)

type Config struct {
	Policy         Policy
	SoftStaleDelay time.Duration
	HardStaleDelay time.Duration
}

// Machine is the hysteresis state machine. It is stateless across calls; all
// per-server state lives in the ServerHealthState the orchestrator passes in
// under the per-server lock.
type Machine struct {
	config Config
}

// Decision is the outcome of one evaluation. Rejected transitions keep
// Applied false and carry the rejection reason.
type Decision struct {
	Applied    bool
	OldStatus  models.ServerStatus
	NewStatus  models.ServerStatus
	Reason     string
	Confidence float64
}

func NewMachine(cfg Config) (*Machine, error) {
	if cfg.Policy == nil {
		cfg.Policy = DefaultPolicy()
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if cfg.SoftStaleDelay == 0 {
		cfg.SoftStaleDelay = 5 * time.Minute
	}
	if cfg.HardStaleDelay == 0 {
		cfg.HardStaleDelay = 15 * time.Minute
	}
	if cfg.HardStaleDelay <= cfg.SoftStaleDelay {
		return nil, fmt.Errorf("hard stale delay %s must exceed soft stale delay %s",
			cfg.HardStaleDelay, cfg.SoftStaleDelay)
	}
	return &Machine{config: cfg}, nil
}

// RingCapacity returns the ring buffer size new health states should use.
func (m *Machine) RingCapacity() int {
	n := m.config.Policy.MaxRequiredSamples()
	if n < 10 {
		n = 10
	}
	return n
}

// Evaluate consumes one classifier result and decides whether the persisted
// status changes. Staleness overrides everything, upgrades apply
// immediately, downgrades must satisfy both the hold time and the
// agreeing-sample count. Late stragglers are rejected before they touch the
// ring or the staleness clock.
func (m *Machine) Evaluate(state *models.ServerHealthState, c *models.Classification, now time.Time) Decision {
	// A sample older than the latest one seen is a delayed delivery, not
	// evidence the server went quiet. It must not drive the staleness
	// transitions and LastSampleAt never moves backward.
	if c.Timestamp.Before(state.LastSampleAt) {
		return m.reject(state, c.Status, ReasonOutOfOrder)
	}

	state.Recent.Push(models.StatusSample{Status: c.Status, Timestamp: c.Timestamp})
	state.LastSampleAt = c.Timestamp

	if state.Override.Active(now) {
		return m.reject(state, c.Status, ReasonMaintenanceOverride)
	}
	if state.Override != nil {
		// Expired override: resume automatic transitions.
		state.Override = nil
	}

	age := now.Sub(c.Timestamp)
	if age > m.config.HardStaleDelay {
		return m.apply(state, models.StatusOffline, ReasonStaleDataHard, 100, now)
	}
	if age > m.config.SoftStaleDelay {
		return m.apply(state, models.StatusWarning, ReasonStaleDataSoft, 50, now)
	}

	candidate := c.Status
	current := state.CurrentStatus

	if candidate == current {
		state.Confidence = m.agreement(state, candidate)
		return m.reject(state, candidate, ReasonNoChange)
	}

	if candidate.WorseThan(current) {
		return m.apply(state, candidate, ReasonUpgrade, m.agreement(state, candidate), now)
	}

	hold, ok := m.config.Policy[current]
	if !ok {
		hold = Hold{MinHold: 5 * time.Minute, RequiredSamples: 3}
	}

	if now.Sub(state.LastStatusChangeAt) < hold.MinHold {
		return m.reject(state, candidate, ReasonHoldTimeNotElapsed)
	}
	if state.Recent.CountAgreeing(candidate, hold.RequiredSamples) < hold.RequiredSamples {
		return m.reject(state, candidate, ReasonSamplesNotAgreeing)
	}

	return m.apply(state, candidate, ReasonDowngradeConfirmed, m.agreement(state, candidate), now)
}

// MarkStale forces the stale transitions for a server that produced no
// sample at all; the scheduler sweep calls this with the last known sample
// time.
func (m *Machine) MarkStale(state *models.ServerHealthState, now time.Time) Decision {
	if state.Override.Active(now) {
		return m.reject(state, state.CurrentStatus, ReasonMaintenanceOverride)
	}

	age := now.Sub(state.LastSampleAt)
	switch {
	case age > m.config.HardStaleDelay:
		if state.CurrentStatus == models.StatusOffline {
			return m.reject(state, models.StatusOffline, ReasonNoChange)
		}
		return m.apply(state, models.StatusOffline, ReasonStaleDataHard, 100, now)
	case age > m.config.SoftStaleDelay:
		if state.CurrentStatus.Rank() >= models.StatusWarning.Rank() {
			return m.reject(state, state.CurrentStatus, ReasonNoChange)
		}
		return m.apply(state, models.StatusWarning, ReasonStaleDataSoft, 50, now)
	default:
		return m.reject(state, state.CurrentStatus, ReasonNoChange)
	}
}

// SetOverride pins a server to an administrative status. Only explicit
// override calls may enter MAINTENANCE.
func (m *Machine) SetOverride(state *models.ServerHealthState, status models.ServerStatus, reason string, duration *time.Duration, now time.Time) (Decision, error) {
	if !status.IsValid() {
		return Decision{}, models.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}
	if reason == "" {
		return Decision{}, models.NewValidationError("reason", "override reason is required")
	}

	override := &models.StatusOverride{Status: status, Reason: reason, SetAt: now}
	if duration != nil {
		if *duration <= 0 {
			return Decision{}, models.NewValidationError("duration", "override duration must be positive")
		}
		expires := now.Add(*duration)
		override.ExpiresAt = &expires
	}

	state.Override = override
	return m.apply(state, status, ReasonOverrideSet, 100, now), nil
}

// ClearOverride reverts an administrative override; the next evaluation
// resumes automatic transitions.
func (m *Machine) ClearOverride(state *models.ServerHealthState, now time.Time) (Decision, error) {
	if state.Override == nil {
		return Decision{}, models.NewValidationError("override", "no override set for server")
	}
	state.Override = nil

	// Fall back to the most recent classified status, if any.
	candidate := state.CurrentStatus
	if recent := state.Recent.Recent(1); len(recent) > 0 {
		candidate = recent[0].Status
	}
	return m.apply(state, candidate, ReasonOverrideCleared, m.agreement(state, candidate), now), nil
}

func (m *Machine) apply(state *models.ServerHealthState, status models.ServerStatus, reason string, confidence float64, now time.Time) Decision {
	old := state.CurrentStatus
	if status == old {
		state.Confidence = confidence
		return Decision{Applied: false, OldStatus: old, NewStatus: status, Reason: ReasonNoChange, Confidence: confidence}
	}

	state.CurrentStatus = status
	state.LastStatusChangeAt = now
	state.Confidence = confidence

	logger.WithServer(state.ServerID).Infof(
		"Status transition: %s -> %s (reason: %s, confidence: %.0f)",
		old, status, reason, confidence,
	)

	return Decision{Applied: true, OldStatus: old, NewStatus: status, Reason: reason, Confidence: confidence}
}

func (m *Machine) reject(state *models.ServerHealthState, candidate models.ServerStatus, reason string) Decision {
	logger.WithServer(state.ServerID).Debugf(
		"Status held at %s (candidate: %s, reason: %s)",
		state.CurrentStatus, candidate, reason,
	)
	return Decision{
		Applied:    false,
		OldStatus:  state.CurrentStatus,
		NewStatus:  state.CurrentStatus,
		Reason:     reason,
		Confidence: state.Confidence,
	}
}

// agreement is the share of recent ring samples matching the status, as a
// percentage.
func (m *Machine) agreement(state *models.ServerHealthState, status models.ServerStatus) float64 {
	window := m.config.Policy.MaxRequiredSamples()
	if window < 3 {
		window = 3
	}
	recent := state.Recent.Recent(window)
	if len(recent) == 0 {
		return 0
	}
	return float64(state.Recent.CountAgreeing(status, len(recent))) / float64(len(recent)) * 100
}
