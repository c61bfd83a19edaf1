package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func failingBreaker(maxFailures int, cooldown time.Duration) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Name:        "test",
		MaxFailures: maxFailures,
		Cooldown:    cooldown,
		ProbeQuota:  2,
	})
}

func tripBreaker(t *testing.T, cb *CircuitBreaker, failures int) {
	t.Helper()
	for i := 0; i < failures; i++ {
		err := cb.Do(func() error { return errBoom })
		require.ErrorIs(t, err, errBoom)
	}
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := failingBreaker(3, time.Minute)

	tripBreaker(t, cb, 3)
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Do(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := failingBreaker(3, time.Minute)

	tripBreaker(t, cb, 2)
	require.NoError(t, cb.Do(func() error { return nil }))

	// The streak restarted, so two more failures do not open the circuit.
	tripBreaker(t, cb, 2)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_ProbesCloseAfterCooldown(t *testing.T) {
	cb := failingBreaker(1, 10*time.Millisecond)

	tripBreaker(t, cb, 1)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	// First probe is allowed through and moves the circuit to half-open.
	require.NoError(t, cb.Do(func() error { return nil }))
	assert.Equal(t, StateHalfOpen, cb.State())

	// The probe quota is two; the second success closes the circuit.
	require.NoError(t, cb.Do(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb := failingBreaker(1, 10*time.Millisecond)

	tripBreaker(t, cb, 1)
	time.Sleep(20 * time.Millisecond)

	err := cb.Do(func() error { return errBoom })
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, StateOpen, cb.State())

	err = cb.Do(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := failingBreaker(1, time.Minute)

	tripBreaker(t, cb, 1)
	require.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.NoError(t, cb.Do(func() error { return nil }))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
}
