/*
Package limiter provides rate limiting functionality for abuse control.

This file implements the per-user flood guard used by the session registry to
throttle chat and game creation. It utilizes the Token Bucket algorithm
(rate.Limiter) with a single-token bucket refilled once per flood window, so two
actions inside one window are denied and actions spaced a full window apart pass.
*/
package limiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// FloodGuard implements a per-user minimum-interval limiter keyed by user id.
type FloodGuard struct {
	// mu protects concurrent access to the limits map.
	mu sync.Mutex

	// limits stores the map from user id to the *rate.Limiter instance.
	limits map[uint16]*rate.Limiter

	// window is the minimum interval between two allowed actions.
	// A zero window disables the guard entirely.
	window time.Duration
}

// NewFloodGuard creates a FloodGuard enforcing the given minimum interval.
func NewFloodGuard(window time.Duration) *FloodGuard {
	return &FloodGuard{
		limits: make(map[uint16]*rate.Limiter),
		window: window,
	}
}

// Allow reports whether the user may perform the guarded action now,
// consuming the user's token on success.
func (f *FloodGuard) Allow(userID uint16) bool {
	if f.window <= 0 {
		return true
	}

	f.mu.Lock()
	limit, exists := f.limits[userID]
	if !exists {
		limit = rate.NewLimiter(rate.Every(f.window), 1)
		f.limits[userID] = limit
	}
	f.mu.Unlock()

	return limit.Allow()
}

// Forget drops the limiter state for a departed user, freeing its bucket.
func (f *FloodGuard) Forget(userID uint16) {
	f.mu.Lock()
	delete(f.limits, userID)
	f.mu.Unlock()
}
