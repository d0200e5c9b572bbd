// Package security scrubs credentials and document payloads from traffic
// before it is logged or audited.
package security

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

const redactedValue = "[REDACTED]"

// bulkyThreshold is the string length above which a document field is elided.
const bulkyThreshold = 256

var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
}

// sensitiveFields are matched as substrings of lowercased JSON keys.
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"private_key",
	"credential",
	"authorization",
}

// documentFields carry base64 images or PDFs sent to OCR backends. Their
// values are replaced by a size marker so audits stay small and do not
// retain taxpayer documents.
var documentFields = map[string]bool{
	"images":  true,
	"image":   true,
	"content": true,
	"file":    true,
	"data":    true,
}

// SanitizeHeaders returns a copy of headers with credentials redacted.
func SanitizeHeaders(headers http.Header) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = redactedValue
			continue
		}
		sanitized[key] = strings.Join(values, ", ")
	}
	return sanitized
}

// SanitizeBody returns body as JSON suitable for a jsonb column. JSON bodies
// are scrubbed field by field. Non-JSON text is wrapped and binary data is
// summarized. The result is truncated to maxSize bytes of preview.
func SanitizeBody(body []byte, maxSize int) json.RawMessage {
	if len(body) == 0 {
		return nil
	}

	if len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b {
		decompressed, err := decompressGzip(body)
		if err != nil {
			return summary("gzip", len(body))
		}
		body = decompressed
	}
	if !utf8.Valid(body) {
		return summary("binary", len(body))
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return truncate(map[string]interface{}{"_raw": string(body), "_format": "text"}, len(body), maxSize)
	}

	sanitized, err := json.Marshal(sanitizeValue(data))
	if err != nil {
		return summary("unencodable", len(body))
	}
	if maxSize > 0 && len(sanitized) > maxSize {
		return truncate(map[string]interface{}{"_preview": string(sanitized[:maxSize])}, len(sanitized), maxSize)
	}
	return json.RawMessage(sanitized)
}

func truncate(wrapped map[string]interface{}, size, maxSize int) json.RawMessage {
	if raw, ok := wrapped["_raw"].(string); ok && maxSize > 0 && len(raw) > maxSize {
		wrapped["_raw"] = raw[:maxSize]
		wrapped["_truncated"] = true
	}
	if _, ok := wrapped["_preview"]; ok {
		wrapped["_truncated"] = true
	}
	wrapped["_size"] = size
	result, _ := json.Marshal(wrapped)
	return json.RawMessage(result)
}

func summary(format string, size int) json.RawMessage {
	result, _ := json.Marshal(map[string]interface{}{
		"_binary": true,
		"_format": format,
		"_size":   size,
	})
	return json.RawMessage(result)
}

func decompressGzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func sanitizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for key, value := range val {
			lower := strings.ToLower(key)
			switch {
			case isSensitive(lower):
				out[key] = redactedValue
			case documentFields[lower]:
				out[key] = elide(value)
			default:
				out[key] = sanitizeValue(value)
			}
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, value := range val {
			out[i] = sanitizeValue(value)
		}
		return out
	default:
		return val
	}
}

func isSensitive(key string) bool {
	for _, field := range sensitiveFields {
		if strings.Contains(key, field) {
			return true
		}
	}
	return false
}

// elide replaces long strings, directly or inside an array, with a size marker.
func elide(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		if len(val) > bulkyThreshold {
			return fmt.Sprintf("[omitted %d bytes]", len(val))
		}
		return val
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = elide(item)
		}
		return out
	default:
		return sanitizeValue(val)
	}
}

// SanitizeURL redacts sensitive query parameter values.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	query := u.Query()
	changed := false
	for key := range query {
		if isSensitive(strings.ToLower(key)) || strings.EqualFold(key, "key") {
			query.Set(key, redactedValue)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = query.Encode()
	return u.String()
}
