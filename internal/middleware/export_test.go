package middleware

import "time"

// SetClock replaces the limiter's time source for tests.
func (rl *RateLimiter) SetClock(now func() time.Time) { rl.now = now }

// Evict runs one eviction pass.
func (rl *RateLimiter) Evict() { rl.evict() }
