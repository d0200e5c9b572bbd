package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appinvoice "3tcapital/facturas_sri/internal/application/invoice"
	apptaxpayer "3tcapital/facturas_sri/internal/application/taxpayer"
	invoicehttp "3tcapital/facturas_sri/internal/adapters/http/invoice"
	taxpayerhttp "3tcapital/facturas_sri/internal/adapters/http/taxpayer"
	"3tcapital/facturas_sri/internal/infrastructure/config"
	"3tcapital/facturas_sri/internal/infrastructure/http/middleware"
	"3tcapital/facturas_sri/internal/testutil"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNew_NilLogger(t *testing.T) {
	_, err := New(Options{
		Config:        config.AppConfig{HTTP: config.HTTPSettings{Port: 8080}},
		Logger:        nil,
		HealthHandler: okHandler(),
	})

	if err == nil {
		t.Fatal("expected error for nil logger")
	}
	if err.Error() != "logger is required" {
		t.Errorf("expected error 'logger is required', got %q", err.Error())
	}
}

func TestNew_NilHealthHandler(t *testing.T) {
	_, err := New(Options{
		Config: config.AppConfig{HTTP: config.HTTPSettings{Port: 8080}},
		Logger: testutil.NewTestLogger(),
	})

	if err == nil {
		t.Fatal("expected error for nil health handler")
	}
	if err.Error() != "health handler is required" {
		t.Errorf("expected error 'health handler is required', got %q", err.Error())
	}
}

func TestNew_ValidOptions(t *testing.T) {
	cfg := config.AppConfig{
		HTTP: config.HTTPSettings{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
	}

	server, err := New(Options{
		Config:        cfg,
		Logger:        testutil.NewTestLogger(),
		HealthHandler: okHandler(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server.httpServer.Addr != ":8080" {
		t.Errorf("expected address ':8080', got %q", server.httpServer.Addr)
	}
	if server.httpServer.WriteTimeout != 10*time.Second {
		t.Errorf("expected write timeout 10s, got %v", server.httpServer.WriteTimeout)
	}
}

func newRoutedServer(t *testing.T) *Server {
	t.Helper()
	log := testutil.NewNullLogger()

	auth, err := middleware.NewJWTAuthenticator(config.AuthSettings{Enabled: false, DevUserHeader: "X-User-Id"}, log)
	if err != nil {
		t.Fatalf("authenticator: %v", err)
	}

	server, err := New(Options{
		Config:          config.AppConfig{HTTP: config.HTTPSettings{Port: 8080}},
		Logger:          log,
		HealthHandler:   okHandler(),
		Authenticator:   auth,
		InvoiceHandler:  invoicehttp.NewHandler(appinvoice.NewService(&testutil.MockInvoiceRepository{}, nil, log), log),
		TaxpayerHandler: taxpayerhttp.NewHandler(apptaxpayer.NewService(&testutil.MockTaxpayerRepository{}, time.Minute, log), log),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return server
}

func TestServer_Routes(t *testing.T) {
	server := newRoutedServer(t)
	defer server.Close()

	tests := []struct {
		name           string
		method         string
		path           string
		user           string
		expectedStatus int
	}{
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
		{"list requires user", http.MethodGet, "/api/facturas", "", http.StatusUnauthorized},
		{"list with dev user", http.MethodGet, "/api/facturas", "user-1", http.StatusOK},
		{"detail of unknown invoice", http.MethodGet, "/api/facturas/9", "user-1", http.StatusNotFound},
		{"ruc lookup", http.MethodGet, "/api/ruc/1790012345001", "user-1", http.StatusNotFound},
		{"upload routes absent without handler", http.MethodPost, "/api/upload/factura", "user-1", http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/api/facturas", "user-1", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.user != "" {
				req.Header.Set("X-User-Id", tt.user)
			}
			w := httptest.NewRecorder()
			server.httpServer.Handler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestServer_Close(t *testing.T) {
	server, err := New(Options{
		Config:        config.AppConfig{HTTP: config.HTTPSettings{Port: 8080}},
		Logger:        testutil.NewTestLogger(),
		HealthHandler: okHandler(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should not panic without an authenticator
	server.Close()
}

func TestServer_Run_ContextCancel(t *testing.T) {
	server, err := New(Options{
		Config: config.AppConfig{
			HTTP: config.HTTPSettings{Port: 0, ShutdownTimeout: time.Second},
		},
		Logger:        testutil.NewTestLogger(),
		HealthHandler: okHandler(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := server.Run(ctx); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestServer_Run_StopsAfterCancel(t *testing.T) {
	server, err := New(Options{
		Config: config.AppConfig{
			HTTP: config.HTTPSettings{Port: 0, ShutdownTimeout: time.Second},
		},
		Logger:        testutil.NewTestLogger(),
		HealthHandler: okHandler(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	done := make(chan error, 1)
	go func() { done <- server.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}
