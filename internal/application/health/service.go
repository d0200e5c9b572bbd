package health

import (
	"context"
	"sync"
	"time"

	corehealth "3tcapital/facturas_sri/internal/core/health"
)

const defaultCheckTimeout = 3 * time.Second

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Check probes one dependency. A failing critical check marks the service
// DOWN, any other failure marks it DEGRADED.
type Check struct {
	Name     string
	Critical bool
	Probe    func(ctx context.Context) error
}

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	startedAt time.Time
	checks    []Check
	timeout   time.Duration
}

func NewService(meta Metadata, checks ...Check) *Service {
	return &Service{
		meta:      meta,
		startedAt: time.Now().UTC(),
		checks:    checks,
		timeout:   defaultCheckTimeout,
	}
}

// Status returns the current availability snapshot. Checks run concurrently,
// each bounded by the check timeout.
func (s *Service) Status(ctx context.Context) corehealth.Status {
	uptime := time.Since(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      corehealth.StatusUp,
		StartedAt:   s.startedAt,
		Uptime:      uptime.String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}
	if len(s.checks) == 0 {
		return status
	}

	deps := make([]corehealth.Dependency, len(s.checks))
	var wg sync.WaitGroup
	for i, check := range s.checks {
		wg.Add(1)
		go func(i int, check Check) {
			defer wg.Done()
			deps[i] = s.run(ctx, check)
		}(i, check)
	}
	wg.Wait()

	for _, dep := range deps {
		if dep.Status == corehealth.StatusUp {
			continue
		}
		if dep.Critical {
			status.Status = corehealth.StatusDown
		} else if status.Status == corehealth.StatusUp {
			status.Status = corehealth.StatusDegraded
		}
	}
	status.Dependencies = deps
	return status
}

func (s *Service) run(ctx context.Context, check Check) corehealth.Dependency {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := check.Probe(ctx)
	dep := corehealth.Dependency{
		Name:      check.Name,
		Status:    corehealth.StatusUp,
		Critical:  check.Critical,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		dep.Status = corehealth.StatusDown
		dep.Detail = err.Error()
	}
	return dep
}
