package trials

// run_limiter.go serializes import runs inside one process.
//
// A run reads the id snapshot and then writes against it, so two runs that
// overlap can both classify the same new id as an insert. The limiter
// queues runs behind a semaphore; callers that cannot get a slot within
// maxWait fail with ErrRunInProgress.
//
// This only covers runs in the same process. Separate processes importing
// into the same table are not coordinated.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRunInProgress is returned when every run slot stays occupied for longer
// than the limiter's wait time.
var ErrRunInProgress = errors.New("another import run is in progress, please try again later")

// DefaultMaxConcurrentRuns keeps runs strictly sequential.
const DefaultMaxConcurrentRuns = 1

// DefaultMaxWaitTime is how long a run waits for a slot before giving up.
const DefaultMaxWaitTime = 30 * time.Second

// RunLimiter bounds the number of import runs executing at once.
type RunLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewRunLimiter creates a limiter allowing maxConcurrent simultaneous runs.
func NewRunLimiter(maxConcurrent int, maxWait time.Duration) *RunLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRuns
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &RunLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire waits for a run slot.
// The caller must call Release once the run finishes.
func (l *RunLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		// Caller cancellation wins over our own timeout
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrRunInProgress
	}
}

// Release frees a slot taken by Acquire.
func (l *RunLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of runs holding a slot.
func (l *RunLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Available returns the number of free slots.
func (l *RunLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until no run is active or ctx is done.
// Used during shutdown so an in-flight run can commit.
func (l *RunLimiter) WaitForDrain(ctx context.Context) error {
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

// RunLimiterStatus is a snapshot of the limiter for health output.
type RunLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *RunLimiter) Status() RunLimiterStatus {
	return RunLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: cap(l.semaphore),
	}
}
