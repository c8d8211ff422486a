// Package loginguard throttles repeated failed login attempts per identity.
//
// State lives in process memory and resets on restart. Counters are keyed by
// identity (normalized email), so one account being hammered does not lock out
// everyone else.
package loginguard

import (
	"sync"
	"time"
)

const Lockout = time.Hour

type attemptState struct {
	failed  int
	retryAt time.Time
}

// Guard tracks failed attempts and hands out lockout decisions.
type Guard struct {
	mu          sync.Mutex
	maxAttempts int
	attempts    map[string]*attemptState

	now func() time.Time
}

func New(maxAttempts int) *Guard {
	return &Guard{
		maxAttempts: maxAttempts,
		attempts:    make(map[string]*attemptState),
		now:         time.Now,
	}
}

// Check is called before evaluating credentials. It returns the remaining
// lockout when the identity has exhausted its attempts. Once the lockout
// window has passed the counter is treated as fresh.
func (g *Guard) Check(identity string) (locked bool, retryIn time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, ok := g.attempts[identity]
	if !ok {
		return false, 0
	}

	now := g.now()
	if !state.retryAt.IsZero() && now.After(state.retryAt) {
		delete(g.attempts, identity)
		return false, 0
	}

	if state.failed >= g.maxAttempts {
		// The retry deadline is generated once and held until the counter resets.
		if state.retryAt.IsZero() {
			state.retryAt = now.Add(Lockout)
		}

		return true, state.retryAt.Sub(now)
	}

	return false, 0
}

// Fail records a failed credential check. When the increment exhausts the
// budget it returns locked=true with the remaining lockout, otherwise the
// number of attempts left.
func (g *Guard) Fail(identity string) (locked bool, retryIn time.Duration, attemptsLeft int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, ok := g.attempts[identity]
	if !ok {
		state = &attemptState{}
		g.attempts[identity] = state
	}

	state.failed++
	if state.failed >= g.maxAttempts {
		if state.retryAt.IsZero() {
			state.retryAt = g.now().Add(Lockout)
		}

		return true, state.retryAt.Sub(g.now()), 0
	}

	return false, 0, g.maxAttempts - state.failed
}

// Reset clears the counter after a successful login.
func (g *Guard) Reset(identity string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.attempts, identity)
}
