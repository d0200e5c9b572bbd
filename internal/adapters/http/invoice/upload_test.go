package invoice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"3tcapital/facturas_sri/internal/application/ingestion"
	"3tcapital/facturas_sri/internal/core/analyzer"
	"3tcapital/facturas_sri/internal/core/invoice"
	"3tcapital/facturas_sri/internal/core/ocr"
	ctxutil "3tcapital/facturas_sri/internal/infrastructure/context"
	"3tcapital/facturas_sri/internal/testutil"
)

const knownKey = "1002202501179001234500120010010000000101234567815"

type stubDecoder struct{}

func (stubDecoder) Decode(data []byte) (*invoice.Document, error) {
	if string(data) == "<roto" {
		return nil, invoice.Invalid("decode xml", "unexpected EOF")
	}
	return &invoice.Document{
		Type:      invoice.TypeInvoice,
		AccessKey: string(data),
		Number:    "001-001-000000010",
		Provider:  invoice.Provider{TaxID: "1790012345001", Name: "FARMACIA CENTRAL"},
		IssueDate: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
		Totals:    invoice.Totals{GrandTotal: decimal.RequireFromString("11.20")},
	}, nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, in ocr.Input) (*ocr.Result, error) {
	return &ocr.Result{Text: "NOTA DE VENTA " + in.Filename, Method: ocr.MethodImage, Engine: "stub"}, nil
}

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(text string) *analyzer.Analysis {
	return &analyzer.Analysis{
		DocumentType: invoice.TypeSalesNote,
		TaxID:        "1790012345001",
		Number:       "001-001-000000099",
		Total:        decimal.RequireFromString("4.50"),
		Confidence:   80,
		Status:       invoice.StatusOK,
	}
}

func newUploadHandler(repo *testutil.MockInvoiceRepository) *UploadHandler {
	log := testutil.NewNullLogger()
	svc := ingestion.NewService(ingestion.Config{
		Decoder:  stubDecoder{},
		OCR:      stubExtractor{},
		Analyzer: stubAnalyzer{},
		Repo:     repo,
		Archive:  &testutil.MockArchiveStore{},
	}, log)
	return NewUploadHandler(svc, ingestion.NewBatchProcessor(svc, 2, 2, log), 1<<20, 3, log)
}

func authed(req *http.Request) *http.Request {
	return req.WithContext(ctxutil.WithUserID(req.Context(), "user-1"))
}

func xmlFile(name, key string) testutil.MultipartFile {
	return testutil.MultipartFile{Filename: name, ContentType: "text/xml", Data: []byte(key)}
}

func TestUploadHandler_Upload(t *testing.T) {
	repo := &testutil.MockInvoiceRepository{
		FindByAccessKeyFunc: func(_ context.Context, key string) (int64, bool, error) {
			if key == knownKey {
				return 77, true, nil
			}
			return 0, false, nil
		},
		CreateFunc: func(context.Context, *invoice.Document) (int64, error) {
			return 12, nil
		},
	}
	h := newUploadHandler(repo)

	tests := []struct {
		name            string
		files           []testutil.MultipartFile
		expectedStatus  int
		expectedOutcome invoice.Outcome
		expectedID      int64
	}{
		{
			name:            "stored xml",
			files:           []testutil.MultipartFile{xmlFile("factura.xml", "2002202501179001234500120010010000000111234567811")},
			expectedStatus:  http.StatusCreated,
			expectedOutcome: invoice.OutcomeComplete,
			expectedID:      12,
		},
		{
			name:            "duplicate xml",
			files:           []testutil.MultipartFile{xmlFile("factura.xml", knownKey)},
			expectedStatus:  http.StatusOK,
			expectedOutcome: invoice.OutcomeDuplicate,
			expectedID:      77,
		},
		{
			name:            "scanned image",
			files:           []testutil.MultipartFile{{Filename: "ticket.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}}},
			expectedStatus:  http.StatusCreated,
			expectedOutcome: invoice.OutcomeOCR,
			expectedID:      12,
		},
		{
			name:           "broken xml",
			files:          []testutil.MultipartFile{xmlFile("factura.xml", "<roto")},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unsupported format",
			files:          []testutil.MultipartFile{{Filename: "notas.docx", ContentType: "application/msword", Data: []byte("x")}},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "two files",
			files:          []testutil.MultipartFile{xmlFile("a.xml", "1"), xmlFile("b.xml", "2")},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authed(testutil.CreateMultipartRequest(http.MethodPost, "/api/upload/factura", "file", tt.files, nil))
			w := httptest.NewRecorder()
			h.Upload(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedOutcome == "" {
				return
			}

			var result ingestion.Result
			if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if result.Outcome != tt.expectedOutcome {
				t.Errorf("expected outcome %s, got %s", tt.expectedOutcome, result.Outcome)
			}
			if result.InvoiceID != tt.expectedID {
				t.Errorf("expected invoice id %d, got %d", tt.expectedID, result.InvoiceID)
			}
		})
	}
}

func TestUploadHandler_UploadValidation(t *testing.T) {
	h := newUploadHandler(&testutil.MockInvoiceRepository{})

	t.Run("no user", func(t *testing.T) {
		req := testutil.CreateMultipartRequest(http.MethodPost, "/api/upload/factura", "file", []testutil.MultipartFile{xmlFile("a.xml", "1")}, nil)
		w := httptest.NewRecorder()
		h.Upload(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("wrong field", func(t *testing.T) {
		req := authed(testutil.CreateMultipartRequest(http.MethodPost, "/api/upload/factura", "archivo", []testutil.MultipartFile{xmlFile("a.xml", "1")}, nil))
		w := httptest.NewRecorder()
		h.Upload(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("not multipart", func(t *testing.T) {
		req := authed(testutil.CreateRequest(http.MethodPost, "/api/upload/factura", map[string]string{"file": "x"}, nil))
		w := httptest.NewRecorder()
		h.Upload(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestUploadHandler_Batch(t *testing.T) {
	repo := &testutil.MockInvoiceRepository{
		FindByAccessKeyFunc: func(_ context.Context, key string) (int64, bool, error) {
			return 77, key == knownKey, nil
		},
	}
	h := newUploadHandler(repo)

	files := []testutil.MultipartFile{
		xmlFile("a.xml", "2002202501179001234500120010010000000111234567811"),
		xmlFile("b.xml", knownKey),
		xmlFile("c.xml", "<roto"),
	}
	req := authed(testutil.CreateMultipartRequest(http.MethodPost, "/api/facturas/lote", "file", files, nil))
	w := httptest.NewRecorder()
	h.Batch(w, req)

	var report map[string]interface{}
	testutil.ReadJSONResponse(t, w, &report)

	if report["almacenadas"].(float64) != 1 || report["duplicadas"].(float64) != 1 || report["fallidas"].(float64) != 1 {
		t.Errorf("unexpected counters %v", report)
	}
	items := report["archivos"].([]interface{})
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[2].(map[string]interface{})["archivo"] != "c.xml" {
		t.Errorf("expected input order to be kept, got %v", items[2])
	}
	if got := items[2].(map[string]interface{})["error"]; got != "documento inválido: unexpected EOF" {
		t.Errorf("expected a client-safe error for the broken file, got %v", got)
	}

	tooMany := append(files, xmlFile("d.xml", "4"))
	req = authed(testutil.CreateMultipartRequest(http.MethodPost, "/api/facturas/lote", "file", tooMany, nil))
	w = httptest.NewRecorder()
	h.Batch(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 above the file limit, got %d", w.Code)
	}
}

func TestUploadHandler_SalesNote(t *testing.T) {
	created := false
	repo := &testutil.MockInvoiceRepository{
		CreateFunc: func(context.Context, *invoice.Document) (int64, error) {
			created = true
			return 1, nil
		},
	}
	h := newUploadHandler(repo)

	req := authed(testutil.CreateMultipartRequest(http.MethodPost, "/api/ocr/nota-venta", "file",
		[]testutil.MultipartFile{{Filename: "nota.png", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}}, nil))
	w := httptest.NewRecorder()
	h.SalesNote(w, req)

	var body map[string]interface{}
	testutil.ReadJSONResponse(t, w, &body)
	data := body["data"].(map[string]interface{})
	if data["metodo"] != string(ocr.MethodImage) {
		t.Errorf("expected method image, got %v", data["metodo"])
	}
	if data["analisis"].(map[string]interface{})["tipo_comprobante"] != invoice.TypeSalesNote {
		t.Errorf("unexpected analysis %v", data["analisis"])
	}
	if created {
		t.Error("sales note preview must not store anything")
	}

	req = authed(testutil.CreateMultipartRequest(http.MethodPost, "/api/ocr/nota-venta", "file",
		[]testutil.MultipartFile{xmlFile("factura.xml", "1")}, nil))
	w = httptest.NewRecorder()
	h.SalesNote(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415 for XML previews, got %d", w.Code)
	}
}
