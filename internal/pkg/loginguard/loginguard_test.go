package loginguard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard(maxAttempts int, start time.Time) (*Guard, *time.Time) {
	clock := start
	g := New(maxAttempts)
	g.now = func() time.Time {
		return clock
	}

	return g, &clock
}

func TestGuard_AttemptsCountDown(t *testing.T) {
	g, _ := newTestGuard(5, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	for i, want := range []int{4, 3, 2, 1} {
		locked, _, attemptsLeft := g.Fail("alice@example.com")
		require.False(t, locked, "attempt %d should not lock", i+1)
		assert.Equal(t, want, attemptsLeft)
	}

	locked, retryIn, attemptsLeft := g.Fail("alice@example.com")
	assert.True(t, locked)
	assert.Equal(t, 0, attemptsLeft)
	assert.Equal(t, Lockout, retryIn)
}

func TestGuard_CheckWhileLocked(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	g, clock := newTestGuard(3, start)

	for i := 0; i < 3; i++ {
		g.Fail("alice@example.com")
	}

	locked, retryIn := g.Check("alice@example.com")
	require.True(t, locked)
	assert.Equal(t, Lockout, retryIn)

	// The deadline is fixed at the moment of lockout, so the remaining wait
	// shrinks as time passes.
	*clock = start.Add(20 * time.Minute)
	locked, retryIn = g.Check("alice@example.com")
	require.True(t, locked)
	assert.Equal(t, 40*time.Minute, retryIn)
}

func TestGuard_LockoutExpires(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	g, clock := newTestGuard(3, start)

	for i := 0; i < 3; i++ {
		g.Fail("alice@example.com")
	}
	g.Check("alice@example.com")

	*clock = start.Add(Lockout + time.Second)
	locked, retryIn := g.Check("alice@example.com")
	assert.False(t, locked)
	assert.Zero(t, retryIn)

	// The counter restarted from zero.
	locked, _, attemptsLeft := g.Fail("alice@example.com")
	assert.False(t, locked)
	assert.Equal(t, 2, attemptsLeft)
}

func TestGuard_ResetClearsCounter(t *testing.T) {
	g, _ := newTestGuard(3, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	g.Fail("alice@example.com")
	g.Fail("alice@example.com")
	g.Reset("alice@example.com")

	locked, _, attemptsLeft := g.Fail("alice@example.com")
	assert.False(t, locked)
	assert.Equal(t, 2, attemptsLeft)
}

func TestGuard_IdentitiesAreIndependent(t *testing.T) {
	g, _ := newTestGuard(3, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	for i := 0; i < 3; i++ {
		g.Fail("alice@example.com")
	}

	locked, _ := g.Check("alice@example.com")
	require.True(t, locked)

	locked, _ = g.Check("bob@example.com")
	assert.False(t, locked)
}
