package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a token bucket. Tokens refill continuously at Rate per second up
// to Burst. Allow is safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	rate   float64
	burst  float64
	tokens float64
	last   time.Time
}

func New(rate, burst float64) *Limiter {
	return &Limiter{rate: rate, burst: burst, tokens: burst, last: time.Now()}
}

// Allow reports whether a single request may proceed now.
func (l *Limiter) Allow() bool {
	return l.AllowN(1)
}

// AllowN reports whether n tokens are available, consuming them if so.
func (l *Limiter) AllowN(n float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(l.last).Seconds()
	l.last = now

	l.tokens += elapsed * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
	if l.tokens < n {
		return false
	}
	l.tokens -= n
	return true
}

// Reserve blocks until n tokens are available or the deadline passes.
func (l *Limiter) Reserve(n float64, deadline time.Time) bool {
	for {
		if l.AllowN(n) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(10 * time.Millisecond)
	}
}
