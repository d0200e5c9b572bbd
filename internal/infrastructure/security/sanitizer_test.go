package security

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func TestSanitizeHeaders(t *testing.T) {
	tests := []struct {
		name     string
		headers  http.Header
		expected map[string]string
	}{
		{
			name: "sensitive headers are redacted",
			headers: http.Header{
				"Authorization": []string{"Bearer secret-token"},
				"Cookie":        []string{"session=abc123"},
				"Content-Type":  []string{"application/json"},
				"X-Api-Key":     []string{"my-api-key"},
			},
			expected: map[string]string{
				"Authorization": "[REDACTED]",
				"Cookie":        "[REDACTED]",
				"Content-Type":  "application/json",
				"X-Api-Key":     "[REDACTED]",
			},
		},
		{
			name: "multiple values are joined",
			headers: http.Header{
				"Accept": []string{"application/json", "text/html"},
			},
			expected: map[string]string{
				"Accept": "application/json, text/html",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeHeaders(tt.headers)
			for key, expectedValue := range tt.expected {
				if result[key] != expectedValue {
					t.Errorf("expected %s=%s, got %s", key, expectedValue, result[key])
				}
			}
		})
	}
}

func decode(t *testing.T, raw json.RawMessage) map[string]interface{} {
	t.Helper()
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	return data
}

func TestSanitizeBody(t *testing.T) {
	image := strings.Repeat("QUJD", 200)

	tests := []struct {
		name        string
		body        []byte
		maxSize     int
		expectation func(t *testing.T, result json.RawMessage)
	}{
		{
			name:    "empty body returns nil",
			body:    []byte{},
			maxSize: 1000,
			expectation: func(t *testing.T, result json.RawMessage) {
				if result != nil {
					t.Errorf("expected nil, got %s", result)
				}
			},
		},
		{
			name:    "credentials are redacted",
			body:    []byte(`{"username":"john","password":"secret123","access_token":"t"}`),
			maxSize: 1000,
			expectation: func(t *testing.T, result json.RawMessage) {
				data := decode(t, result)
				if data["password"] != "[REDACTED]" || data["access_token"] != "[REDACTED]" {
					t.Errorf("expected credentials redacted, got %v", data)
				}
				if data["username"] != "john" {
					t.Errorf("expected username to remain, got %v", data["username"])
				}
			},
		},
		{
			name:    "base64 images are elided before truncation",
			body:    []byte(`{"images":["` + image + `"],"lang":"es"}`),
			maxSize: 1000,
			expectation: func(t *testing.T, result json.RawMessage) {
				data := decode(t, result)
				images, ok := data["images"].([]interface{})
				if !ok || len(images) != 1 {
					t.Fatalf("images = %v", data["images"])
				}
				if images[0] != "[omitted 800 bytes]" {
					t.Errorf("expected size marker, got %v", images[0])
				}
				if data["lang"] != "es" {
					t.Errorf("expected lang to remain, got %v", data["lang"])
				}
			},
		},
		{
			name:    "short document fields are kept",
			body:    []byte(`{"data":"ok"}`),
			maxSize: 1000,
			expectation: func(t *testing.T, result json.RawMessage) {
				if decode(t, result)["data"] != "ok" {
					t.Errorf("expected data to remain, got %s", result)
				}
			},
		},
		{
			name:    "large bodies are truncated",
			body:    []byte(`{"results":[[{"text":"FACTURA 001-001-000000123 TOTAL 10,00","confidence":0.98}]]}`),
			maxSize: 20,
			expectation: func(t *testing.T, result json.RawMessage) {
				data := decode(t, result)
				if data["_truncated"] != true {
					t.Errorf("expected truncation marker, got %v", data)
				}
				if preview, _ := data["_preview"].(string); len(preview) != 20 {
					t.Errorf("expected 20 byte preview, got %q", preview)
				}
			},
		},
		{
			name:    "plain text is wrapped",
			body:    []byte("Bad Gateway"),
			maxSize: 1000,
			expectation: func(t *testing.T, result json.RawMessage) {
				data := decode(t, result)
				if data["_raw"] != "Bad Gateway" || data["_format"] != "text" {
					t.Errorf("unexpected wrapper %v", data)
				}
			},
		},
		{
			name:    "binary is summarized",
			body:    []byte{0xff, 0xd8, 0xff, 0xe0},
			maxSize: 1000,
			expectation: func(t *testing.T, result json.RawMessage) {
				data := decode(t, result)
				if data["_binary"] != true || data["_size"] != float64(4) {
					t.Errorf("unexpected summary %v", data)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.expectation(t, SanitizeBody(tt.body, tt.maxSize))
		})
	}
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "url without sensitive params unchanged",
			url:      "http://paddle:8866/predict/ocr_system?lang=es",
			expected: "http://paddle:8866/predict/ocr_system?lang=es",
		},
		{
			name:     "api key is redacted",
			url:      "https://vision.example.com/v1/images:annotate?key=abc123",
			expected: "https://vision.example.com/v1/images:annotate?key=%5BREDACTED%5D",
		},
		{
			name:     "token is redacted",
			url:      "https://ocr.example.com/run?format=json&token=abc123",
			expected: "https://ocr.example.com/run?format=json&token=%5BREDACTED%5D",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := SanitizeURL(tt.url); result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}
