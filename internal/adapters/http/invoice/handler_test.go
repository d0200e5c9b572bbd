package invoice

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	appinvoice "3tcapital/facturas_sri/internal/application/invoice"
	"3tcapital/facturas_sri/internal/core/invoice"
	ctxutil "3tcapital/facturas_sri/internal/infrastructure/context"
	"3tcapital/facturas_sri/internal/testutil"
)

func withUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != "" {
				r = r.WithContext(ctxutil.WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newQueryRouter(repo *testutil.MockInvoiceRepository, userID string) http.Handler {
	h := NewHandler(appinvoice.NewService(repo, &testutil.MockArchiveStore{}, testutil.NewNullLogger()), testutil.NewNullLogger())
	r := chi.NewRouter()
	r.Use(withUser(userID))
	r.Get("/api/facturas", h.List)
	r.Get("/api/facturas/resumen", h.Summary)
	r.Get("/api/facturas/dashboard", h.Dashboard)
	r.Get("/api/facturas/{id}", h.Get)
	r.Get("/api/facturas/{id}/original", h.Original)
	r.Patch("/api/facturas/detalles/{detalleId}/clasificacion", h.Classify)
	return r
}

func TestNewHandler(t *testing.T) {
	service := &appinvoice.Service{}
	logger := testutil.NewNullLogger()
	handler := NewHandler(service, logger)

	if handler == nil {
		t.Fatal("expected handler to be created, got nil")
	}
	if handler.service != service {
		t.Error("expected handler to have the provided service")
	}
	if handler.log != logger {
		t.Error("expected handler to have the provided logger")
	}
}

func TestHandler_List(t *testing.T) {
	repo := &testutil.MockInvoiceRepository{
		ListFunc: func(_ context.Context, userID string) ([]invoice.ListEntry, error) {
			if userID != "user-1" {
				t.Errorf("expected user-1, got %s", userID)
			}
			return []invoice.ListEntry{{
				ID:            3,
				Number:        "001-001-000000010",
				ProviderName:  "PANADERIA EL TRIGAL",
				ProviderTaxID: "1790012345001",
				IssueDate:     time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
				Total:         decimal.RequireFromString("12.50"),
				Status:        invoice.StatusXMLOK,
				Source:        invoice.SourceXML,
				PersonalTotal: decimal.RequireFromString("12.50"),
			}}, nil
		},
	}

	w := httptest.NewRecorder()
	newQueryRouter(repo, "user-1").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/facturas", nil))

	var body map[string]interface{}
	testutil.ReadJSONResponse(t, w, &body)

	if body["status"] != "200" || body["message"] != "Exitoso" {
		t.Errorf("unexpected envelope %v", body)
	}
	if body["total"].(float64) != 1 {
		t.Errorf("expected total 1, got %v", body["total"])
	}
	first := body["data"].([]interface{})[0].(map[string]interface{})
	if first["fecha_emision"] != "2025-02-10" {
		t.Errorf("expected fecha_emision 2025-02-10, got %v", first["fecha_emision"])
	}
	if first["total_gasto_personal"] != "12.5" {
		t.Errorf("expected personal total 12.5, got %v", first["total_gasto_personal"])
	}
}

func TestHandler_RequiresUser(t *testing.T) {
	w := httptest.NewRecorder()
	newQueryRouter(&testutil.MockInvoiceRepository{}, "").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/facturas", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestHandler_Get(t *testing.T) {
	authDate := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := &testutil.MockInvoiceRepository{
		GetFunc: func(_ context.Context, userID string, id int64) (*invoice.Document, error) {
			if id != 5 {
				return nil, invoice.ErrNotFound
			}
			return &invoice.Document{
				ID:        5,
				Source:    invoice.SourceXML,
				Type:      invoice.TypeInvoice,
				Number:    "001-001-000000005",
				Status:    invoice.StatusXMLOK,
				IssueDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
				Auth:      invoice.Authorization{Status: "AUTORIZADO", Date: &authDate},
				Items: []invoice.LineItem{{
					ID:          9,
					Description: "Consulta médica",
					Taxes:       []invoice.TaxEntry{{Code: "2", RateCode: "0"}},
				}},
				Payments: []invoice.PaymentEntry{{Method: "20", Amount: decimal.RequireFromString("40.00")}},
			}, nil
		},
	}

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{"found", "/api/facturas/5", http.StatusOK},
		{"not owned", "/api/facturas/6", http.StatusNotFound},
		{"invalid id", "/api/facturas/abc", http.StatusBadRequest},
		{"negative id", "/api/facturas/-1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newQueryRouter(repo, "user-1").ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var body map[string]interface{}
			testutil.ReadJSONResponse(t, w, &body)
			data := body["data"].(map[string]interface{})
			if data["sri_estado"] != "AUTORIZADO" {
				t.Errorf("expected sri_estado AUTORIZADO, got %v", data["sri_estado"])
			}
			detalles := data["detalles"].([]interface{})
			if len(detalles) != 1 {
				t.Fatalf("expected 1 detail, got %d", len(detalles))
			}
			if len(detalles[0].(map[string]interface{})["impuestos"].([]interface{})) != 1 {
				t.Error("expected the item tax to be returned")
			}
			if data["revision_requerida"] != false {
				t.Errorf("XML invoices need no review, got %v", data["revision_requerida"])
			}
		})
	}
}

func TestHandler_Classify(t *testing.T) {
	var got invoice.Classification
	repo := &testutil.MockInvoiceRepository{
		ClassifyFunc: func(_ context.Context, _ string, itemID int64, c invoice.Classification) error {
			if itemID == 404 {
				return invoice.ErrNotFound
			}
			got = c
			return nil
		},
	}

	tests := []struct {
		name           string
		path           string
		body           string
		expectedStatus int
	}{
		{"personal", "/api/facturas/detalles/9/clasificacion", `{"tipo":"PERSONAL","subtipo":"EDUCACION"}`, http.StatusOK},
		{"unknown type", "/api/facturas/detalles/9/clasificacion", `{"tipo":"REGALO"}`, http.StatusBadRequest},
		{"missing type", "/api/facturas/detalles/9/clasificacion", `{}`, http.StatusBadRequest},
		{"malformed json", "/api/facturas/detalles/9/clasificacion", `{`, http.StatusBadRequest},
		{"foreign item", "/api/facturas/detalles/404/clasificacion", `{"tipo":"ACTIVIDAD"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, tt.path, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			newQueryRouter(repo, "user-1").ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}

	if !got.Personal || got.PersonalKind != "EDUCACION" {
		t.Errorf("unexpected stored classification %+v", got)
	}
}

func TestHandler_Summary(t *testing.T) {
	var gotYear int
	repo := &testutil.MockInvoiceRepository{
		MonthlySummariesFunc: func(_ context.Context, _ string, year int) ([]invoice.MonthlySummary, error) {
			gotYear = year
			return []invoice.MonthlySummary{{Month: time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC), Count: 2}}, nil
		},
	}
	router := newQueryRouter(repo, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/facturas/resumen?anio=2024", nil))

	var body map[string]interface{}
	testutil.ReadJSONResponse(t, w, &body)
	if gotYear != 2024 {
		t.Errorf("expected year 2024, got %d", gotYear)
	}
	month := body["data"].([]interface{})[0].(map[string]interface{})
	if month["mes"] != "2024-01" {
		t.Errorf("expected mes 2024-01, got %v", month["mes"])
	}

	for _, path := range []string{"/api/facturas/resumen?anio=dos", "/api/facturas/resumen?anio=1800"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestHandler_Dashboard(t *testing.T) {
	repo := &testutil.MockInvoiceRepository{
		DashboardFunc: func(context.Context, string) (*invoice.Dashboard, error) {
			return &invoice.Dashboard{
				Count:       4,
				NeedsReview: 1,
				ByCategory:  []invoice.Bucket{{Label: "SALUD", Count: 4}},
			}, nil
		},
	}

	w := httptest.NewRecorder()
	newQueryRouter(repo, "user-1").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/facturas/dashboard", nil))

	var body map[string]interface{}
	testutil.ReadJSONResponse(t, w, &body)
	data := body["data"].(map[string]interface{})
	if data["pendientes_revision"].(float64) != 1 {
		t.Errorf("expected 1 pending review, got %v", data["pendientes_revision"])
	}
	if len(data["por_categoria"].([]interface{})) != 1 {
		t.Error("expected one category bucket")
	}
}

func TestHandler_Original(t *testing.T) {
	repo := &testutil.MockInvoiceRepository{
		GetFunc: func(_ context.Context, _ string, id int64) (*invoice.Document, error) {
			if id == 1 {
				return &invoice.Document{ID: 1, ArchiveKey: "user-1/2025/01/x.pdf"}, nil
			}
			return &invoice.Document{ID: id}, nil
		},
	}
	router := newQueryRouter(repo, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/facturas/1/original", nil))
	var body map[string]interface{}
	testutil.ReadJSONResponse(t, w, &body)
	if body["data"].(map[string]interface{})["url"] != "https://archive.test/user-1/2025/01/x.pdf" {
		t.Errorf("unexpected url %v", body["data"])
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/facturas/2/original", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for invoices without original, got %d", w.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unsupported", &invoice.DocumentError{Op: "detect", Err: invoice.ErrUnsupportedFormat}, http.StatusUnsupportedMediaType},
		{"invalid", invoice.Invalid("decode xml", "bad"), http.StatusBadRequest},
		{"classification", invoice.ErrInvalidClassification, http.StatusBadRequest},
		{"year", appinvoice.ErrInvalidYear, http.StatusBadRequest},
		{"not found", invoice.ErrNotFound, http.StatusNotFound},
		{"backend", errors.Join(invoice.ErrBackendUnavailable, errors.New("tesseract")), http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"storage", invoice.ErrStorageFailure, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _, _ := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
