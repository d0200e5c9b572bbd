package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is the position of a CircuitBreaker.
type State int

const (
	StateClosed   State = iota // calls flow normally
	StateOpen                  // calls fail fast
	StateHalfOpen              // probing whether the backend recovered
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// ErrCircuitOpen is returned without calling the backend while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker stops calling a failing backend for a cooldown period.
type CircuitBreaker struct {
	maxFailures      int
	failureThreshold float64
	cooldown         time.Duration
	successThreshold int
	now              func() time.Time

	mu              sync.RWMutex
	state           State
	failureCount    int
	successCount    int
	totalRequests   int
	lastStateChange time.Time
}

// NewCircuitBreaker returns a closed breaker. The breaker opens after
// maxFailures failures or once the failure rate reaches failureThreshold.
func NewCircuitBreaker(maxFailures int, failureThreshold float64, cooldown time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if failureThreshold <= 0 || failureThreshold > 1 {
		failureThreshold = 0.5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{
		maxFailures:      maxFailures,
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		successThreshold: 2,
		now:              time.Now,
		state:            StateClosed,
	}
}

// Execute runs fn unless the breaker is open. Context cancellation is not
// counted as a backend failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !cb.allow() {
		return ErrCircuitOpen
	}

	err := fn()
	if err != nil && (errors.Is(err, context.Canceled) || ctx.Err() != nil) {
		return err
	}
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return true
	}
	if cb.now().Sub(cb.lastStateChange) < cb.cooldown {
		return false
	}
	cb.transition(StateHalfOpen)
	return true
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalRequests++
	if err != nil {
		cb.failureCount++
		switch cb.state {
		case StateHalfOpen:
			cb.transition(StateOpen)
		case StateClosed:
			rate := float64(cb.failureCount) / float64(cb.totalRequests)
			if cb.failureCount >= cb.maxFailures || (cb.totalRequests >= cb.maxFailures && rate >= cb.failureThreshold) {
				cb.transition(StateOpen)
			}
		}
		return
	}

	cb.successCount++
	switch cb.state {
	case StateHalfOpen:
		if cb.successCount >= cb.successThreshold {
			cb.transition(StateClosed)
		}
	case StateClosed:
		if cb.successCount > cb.failureCount {
			cb.failureCount = 0
		}
	}
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(to State) {
	cb.state = to
	cb.lastStateChange = cb.now()
	cb.successCount = 0
	if to == StateClosed {
		cb.failureCount = 0
		cb.totalRequests = 0
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// BreakerStats is a snapshot of the breaker counters.
type BreakerStats struct {
	State         string  `json:"state"`
	FailureCount  int     `json:"failure_count"`
	TotalRequests int     `json:"total_requests"`
	FailureRate   float64 `json:"failure_rate"`
}

func (cb *CircuitBreaker) Stats() BreakerStats {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	rate := 0.0
	if cb.totalRequests > 0 {
		rate = float64(cb.failureCount) / float64(cb.totalRequests)
	}
	return BreakerStats{
		State:         cb.state.String(),
		FailureCount:  cb.failureCount,
		TotalRequests: cb.totalRequests,
		FailureRate:   rate,
	}
}

// Probe is a health check: it fails while the breaker is open and reports
// the counters that opened it.
func (cb *CircuitBreaker) Probe(context.Context) error {
	st := cb.Stats()
	if st.State != StateOpen.String() {
		return nil
	}
	return fmt.Errorf("%w: %d of %d recent calls failed", ErrCircuitOpen, st.FailureCount, st.TotalRequests)
}
