package core

// limiter.go bounds how many feeds are validated at once.
//
// Each run holds one slot for its whole duration. When all slots are taken,
// callers wait up to maxWait before failing with ErrTooManyValidations.
// WaitForDrain lets shutdown block until in-flight runs finish.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyValidations is returned when no slot frees up within the wait
// timeout. Clients should retry after a short delay.
var ErrTooManyValidations = errors.New("too many concurrent validations, please try again later")

// DefaultMaxConcurrentValidations is the default number of parallel runs.
const DefaultMaxConcurrentValidations = 2

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// ValidationLimiter is a counting semaphore over validation runs.
type ValidationLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

// NewValidationLimiter allows at most maxConcurrent simultaneous runs.
// Non-positive arguments select the defaults.
func NewValidationLimiter(maxConcurrent int, maxWait time.Duration) *ValidationLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentValidations
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &ValidationLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting up to the limiter's maxWait.
// The caller must Release the slot once the run completes.
func (l *ValidationLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyValidations
	}
}

// TryAcquire takes a slot without blocking and reports whether it did.
func (l *ValidationLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *ValidationLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.slots
}

// ActiveCount returns the number of runs holding a slot.
func (l *ValidationLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *ValidationLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Available returns the number of free slots.
func (l *ValidationLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no run holds a slot or ctx is done.
func (l *ValidationLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of a ValidationLimiter.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the limiter's current state.
func (l *ValidationLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: cap(l.slots),
	}
}
