package resilience

import (
	"context"
	"sync"
)

// Limiter bounds the number of concurrent calls into a backend.
type Limiter struct {
	slots chan struct{}
	max   int

	mu            sync.Mutex
	active        int
	waiting       int64
	totalAcquired int64
}

// NewLimiter allows at most max concurrent holders. Values below one mean one.
func NewLimiter(max int) *Limiter {
	if max <= 0 {
		max = 1
	}
	return &Limiter{
		slots: make(chan struct{}, max),
		max:   max,
	}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	l.waiting++
	l.mu.Unlock()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.waiting--
		l.active++
		l.totalAcquired++
		l.mu.Unlock()
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		l.waiting--
		l.mu.Unlock()
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (l *Limiter) Release() {
	<-l.slots
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
}

// LimiterStats is a snapshot of the limiter counters.
type LimiterStats struct {
	Max           int   `json:"max"`
	Active        int   `json:"active"`
	Waiting       int64 `json:"waiting"`
	TotalAcquired int64 `json:"total_acquired"`
}

func (l *Limiter) Stats() LimiterStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LimiterStats{
		Max:           l.max,
		Active:        l.active,
		Waiting:       l.waiting,
		TotalAcquired: l.totalAcquired,
	}
}
