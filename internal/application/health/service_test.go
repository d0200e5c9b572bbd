package health

import (
	"context"
	"errors"
	"testing"
	"time"

	corehealth "3tcapital/facturas_sri/internal/core/health"
)

func TestNewService(t *testing.T) {
	meta := Metadata{
		Service:     "test-service",
		Version:     "1.0.0",
		Environment: "test",
	}

	service := NewService(meta)

	if service == nil {
		t.Fatal("expected service to be created, got nil")
	}
	if service.meta != meta {
		t.Error("expected service to have the provided metadata")
	}
	if service.startedAt.IsZero() {
		t.Error("expected startedAt to be set")
	}
}

func TestService_Status_NoChecks(t *testing.T) {
	meta := Metadata{Service: "test-service", Version: "1.0.0", Environment: "test"}
	service := NewService(meta)

	time.Sleep(10 * time.Millisecond)
	status := service.Status(context.Background())

	if status.Service != meta.Service || status.Version != meta.Version || status.Environment != meta.Environment {
		t.Errorf("unexpected metadata in %+v", status)
	}
	if status.Status != corehealth.StatusUp {
		t.Errorf("expected status UP, got %q", status.Status)
	}
	if status.Uptime == "" || status.UptimeSecs < 0 {
		t.Errorf("unexpected uptime %q/%d", status.Uptime, status.UptimeSecs)
	}
	if len(status.Dependencies) != 0 {
		t.Errorf("expected no dependencies, got %d", len(status.Dependencies))
	}
}

func TestService_Status_Dependencies(t *testing.T) {
	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name     string
		checks   []Check
		expected string
	}{
		{
			name:     "all healthy",
			checks:   []Check{{Name: "database", Critical: true, Probe: ok}, {Name: "archive", Probe: ok}},
			expected: corehealth.StatusUp,
		},
		{
			name:     "optional dependency down",
			checks:   []Check{{Name: "database", Critical: true, Probe: ok}, {Name: "archive", Probe: fail}},
			expected: corehealth.StatusDegraded,
		},
		{
			name:     "critical dependency down",
			checks:   []Check{{Name: "database", Critical: true, Probe: fail}, {Name: "archive", Probe: fail}},
			expected: corehealth.StatusDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := NewService(Metadata{Service: "svc"}, tt.checks...).Status(context.Background())
			if status.Status != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, status.Status)
			}
			if len(status.Dependencies) != len(tt.checks) {
				t.Fatalf("expected %d dependencies, got %d", len(tt.checks), len(status.Dependencies))
			}
			for i, dep := range status.Dependencies {
				if dep.Name != tt.checks[i].Name {
					t.Errorf("dependency %d: expected %s, got %s", i, tt.checks[i].Name, dep.Name)
				}
			}
		})
	}
}

func TestService_Status_CheckTimeout(t *testing.T) {
	slow := Check{Name: "ocr", Probe: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	service := NewService(Metadata{Service: "svc"}, slow)
	service.timeout = 20 * time.Millisecond

	status := service.Status(context.Background())
	if status.Status != corehealth.StatusDegraded {
		t.Errorf("expected DEGRADED, got %s", status.Status)
	}
	if status.Dependencies[0].Detail == "" {
		t.Error("expected timeout detail")
	}
}
