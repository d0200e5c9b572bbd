package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"3tcapital/facturas_sri/internal/testutil"
)

// failingResponseWriter fails every body write.
type failingResponseWriter struct {
	http.ResponseWriter
}

func (f *failingResponseWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name           string
		statusCode     int
		message        string
		errors         []string
		expectedErrors []string
	}{
		{
			name:           "validation error",
			statusCode:     http.StatusBadRequest,
			message:        "Error de Validación",
			errors:         []string{"El RUC debe tener al menos 10 dígitos numéricos"},
			expectedErrors: []string{"El RUC debe tener al menos 10 dígitos numéricos"},
		},
		{
			name:           "multiple errors",
			statusCode:     http.StatusUnprocessableEntity,
			message:        "Error de Validación",
			errors:         []string{"tipo es requerido", "anio debe ser numérico"},
			expectedErrors: []string{"tipo es requerido", "anio debe ser numérico"},
		},
		{
			name:           "nil errors become an empty list",
			statusCode:     http.StatusInternalServerError,
			message:        "Error Interno del Servidor",
			errors:         nil,
			expectedErrors: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.statusCode, tt.message, tt.errors, testutil.NewNullLogger())

			if w.Code != tt.statusCode {
				t.Errorf("expected status code %d, got %d", tt.statusCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", ct)
			}
			if strings.Contains(w.Body.String(), `"errors":null`) {
				t.Error("errors must never be encoded as null")
			}

			var response ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, response.Message)
			}
			if len(response.Errors) != len(tt.expectedErrors) {
				t.Fatalf("expected %d errors, got %d", len(tt.expectedErrors), len(response.Errors))
			}
			for i, want := range tt.expectedErrors {
				if response.Errors[i] != want {
					t.Errorf("expected error[%d] %q, got %q", i, want, response.Errors[i])
				}
			}
		})
	}
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	base := httptest.NewRecorder()
	w := &failingResponseWriter{ResponseWriter: base}

	WriteJSON(w, http.StatusCreated, map[string]int{"id": 1}, testutil.NewNullLogger())
	WriteJSON(w, http.StatusCreated, map[string]int{"id": 1}, nil)

	if base.Code != http.StatusCreated {
		t.Errorf("expected the status to be written before the body, got %d", base.Code)
	}
}

func TestWriteData(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteData(w, []string{"a", "b"}, 2, true, testutil.NewNullLogger())

		var body map[string]interface{}
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["status"] != "200" || body["message"] != "Exitoso" {
			t.Errorf("unexpected envelope %v", body)
		}
		if body["total"].(float64) != 2 {
			t.Errorf("expected total 2, got %v", body["total"])
		}
	})

	t.Run("single object omits total", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteData(w, map[string]string{"ruc": "1790012345001"}, 0, false, nil)

		var body map[string]interface{}
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if _, ok := body["total"]; ok {
			t.Error("total must be omitted for single objects")
		}
		if w.Header().Get("Content-Type") != "application/json" {
			t.Error("expected JSON content type")
		}
	})
}
