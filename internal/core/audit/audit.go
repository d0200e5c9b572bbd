package audit

import (
	"context"
	"encoding/json"
	"time"
)

// BackendCall is the audit record of one request to a remote OCR backend.
// Bodies are stored sanitized: credentials redacted and image payloads
// replaced by their size.
type BackendCall struct {
	ID              int64
	CorrelationID   string
	Backend         string
	Operation       string
	RequestMethod   string
	RequestURL      string
	RequestHeaders  map[string]string
	RequestBody     json.RawMessage
	ResponseStatus  *int
	ResponseHeaders map[string]string
	ResponseBody    json.RawMessage
	DurationMs      int64
	ErrorMessage    string
	CreatedAt       time.Time
}

// Failed reports whether the call errored or returned a 5xx status.
func (c BackendCall) Failed() bool {
	if c.ErrorMessage != "" {
		return true
	}
	return c.ResponseStatus != nil && *c.ResponseStatus >= 500
}

// Repository persists backend call audits.
type Repository interface {
	Save(ctx context.Context, call BackendCall) error

	// FindByCorrelationID returns the calls made while serving one upload.
	FindByCorrelationID(ctx context.Context, correlationID string) ([]BackendCall, error)
}
