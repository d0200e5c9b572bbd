package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"3tcapital/facturas_sri/internal/infrastructure/config"
)

func TestExtendedTimeout(t *testing.T) {
	cfg := config.HTTPSettings{WriteTimeoutBatch: 2 * time.Minute}

	var deadline time.Time
	var hasDeadline bool
	handler := ExtendedTimeout(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, hasDeadline = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	}))

	start := time.Now()
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/facturas/lote", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !hasDeadline {
		t.Fatal("expected a context deadline")
	}
	if d := deadline.Sub(start); d < time.Minute || d > 3*time.Minute {
		t.Errorf("unexpected deadline distance %v", d)
	}
}

func TestExtendedTimeout_Disabled(t *testing.T) {
	handler := ExtendedTimeout(config.HTTPSettings{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Deadline(); ok {
			t.Error("expected no deadline when the batch timeout is unset")
		}
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
}
