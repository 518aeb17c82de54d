package service

import (
	"sync"
	"time"
)

// circuitBreaker stops calling a provider after max consecutive failures and
// lets a single trial call through once cooldown has passed.
type circuitBreaker struct {
	mu       sync.Mutex
	failures int
	max      int
	cooldown time.Duration
	openedAt time.Time
	now      func() time.Time
}

func newCircuitBreaker(max int, cooldown time.Duration) *circuitBreaker {
	return &circuitBreaker{max: max, cooldown: cooldown, now: time.Now}
}

func (b *circuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.max <= 0 || b.failures < b.max {
		return true
	}
	if b.now().Sub(b.openedAt) >= b.cooldown {
		// half-open: one trial, re-armed on failure
		b.openedAt = b.now()
		return true
	}
	return false
}

func (b *circuitBreaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= b.max {
		b.openedAt = b.now()
	}
}

func (b *circuitBreaker) Status() (consecutiveErrors int, isOpen bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures, b.max > 0 && b.failures >= b.max
}
