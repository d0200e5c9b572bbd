package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apphealth "3tcapital/facturas_sri/internal/application/health"
	corehealth "3tcapital/facturas_sri/internal/core/health"
)

func TestNewHandler(t *testing.T) {
	service := &apphealth.Service{}
	handler := NewHandler(service)

	if handler == nil {
		t.Fatal("expected handler to be created, got nil")
	}
	if handler.service != service {
		t.Error("expected handler to have the provided service")
	}
}

func TestHandler_Status(t *testing.T) {
	meta := apphealth.Metadata{
		Service:     "facturas-sri",
		Version:     "1.0.0",
		Environment: "test",
	}
	failing := func(context.Context) error { return errors.New("unreachable") }

	tests := []struct {
		name           string
		checks         []apphealth.Check
		expectedCode   int
		expectedStatus string
	}{
		{name: "no dependencies", expectedCode: http.StatusOK, expectedStatus: corehealth.StatusUp},
		{
			name:           "archive down",
			checks:         []apphealth.Check{{Name: "archive", Probe: failing}},
			expectedCode:   http.StatusOK,
			expectedStatus: corehealth.StatusDegraded,
		},
		{
			name:           "database down",
			checks:         []apphealth.Check{{Name: "database", Critical: true, Probe: failing}},
			expectedCode:   http.StatusServiceUnavailable,
			expectedStatus: corehealth.StatusDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(apphealth.NewService(meta, tt.checks...))

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			handler.Status(w, req)

			if w.Code != tt.expectedCode {
				t.Errorf("expected status code %d, got %d", tt.expectedCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", ct)
			}

			var status corehealth.Status
			if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if status.Service != meta.Service {
				t.Errorf("expected service %q, got %q", meta.Service, status.Service)
			}
			if status.Status != tt.expectedStatus {
				t.Errorf("expected status %q, got %q", tt.expectedStatus, status.Status)
			}
		})
	}
}
