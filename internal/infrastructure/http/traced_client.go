package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"3tcapital/facturas_sri/internal/core/audit"
	ctxutil "3tcapital/facturas_sri/internal/infrastructure/context"
	"3tcapital/facturas_sri/internal/infrastructure/security"
)

// TracedClient wraps an HTTP client used to reach remote OCR backends. Every
// call is logged and, when enabled, persisted as an audit.BackendCall with
// credentials and document payloads scrubbed.
type TracedClient struct {
	client       *http.Client
	log          *slog.Logger
	auditRepo    audit.Repository
	backend      string
	auditEnabled bool
	logReqBody   bool
	logRespBody  bool
	maxBodySize  int
	auditTimeout time.Duration
}

// TracedClientConfig holds configuration for the traced HTTP client.
type TracedClientConfig struct {
	Timeout         time.Duration
	AuditEnabled    bool
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodySize     int
	MaxConnsPerHost int
}

// NewTracedClient creates a traced client for one backend.
func NewTracedClient(cfg *TracedClientConfig, log *slog.Logger, auditRepo audit.Repository, backend string) *TracedClient {
	maxBody := cfg.MaxBodySize
	if maxBody == 0 {
		maxBody = 64 * 1024
	}
	maxConns := cfg.MaxConnsPerHost
	if maxConns == 0 {
		maxConns = 16
	}

	transport := &http.Transport{
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   maxConns,
		MaxConnsPerHost:       maxConns,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &TracedClient{
		client:       &http.Client{Timeout: cfg.Timeout, Transport: transport},
		log:          log,
		auditRepo:    auditRepo,
		backend:      backend,
		auditEnabled: cfg.AuditEnabled,
		logReqBody:   cfg.LogRequestBody,
		logRespBody:  cfg.LogResponseBody,
		maxBodySize:  maxBody,
		auditTimeout: 10 * time.Second,
	}
}

// Do executes req, restoring both bodies so callers can read them.
func (c *TracedClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	correlationID := ctxutil.GetCorrelationID(ctx)
	operation := c.operation(req)
	start := time.Now()

	if correlationID != "" {
		req.Header.Set("X-Correlation-ID", correlationID)
	}

	var requestBody []byte
	if req.Body != nil {
		var err error
		requestBody, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(requestBody))
	}

	c.logRequest(correlationID, operation, req, requestBody)

	resp, err := c.client.Do(req)
	duration := time.Since(start)

	var responseBody []byte
	if resp != nil && resp.Body != nil {
		responseBody, _ = io.ReadAll(resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(responseBody))
	}

	c.logResponse(correlationID, operation, req, resp, err, duration, responseBody)

	if c.auditEnabled && c.auditRepo != nil {
		if correlationID == "" {
			correlationID = fmt.Sprintf("ocr-%d", time.Now().UnixNano())
		}
		call := c.buildCall(correlationID, operation, req, resp, err, duration, requestBody, responseBody)

		// The request context ends with the upload, the audit row must not.
		go func() {
			defer func() {
				if r := recover(); r != nil {
					c.log.Error("Panic persisting backend audit log", "panic", r, "correlation_id", call.CorrelationID)
				}
			}()
			saveCtx, cancel := context.WithTimeout(context.Background(), c.auditTimeout)
			defer cancel()
			if err := c.auditRepo.Save(saveCtx, call); err != nil {
				c.log.Error("Failed to persist backend audit log",
					"error", err,
					"correlation_id", call.CorrelationID,
					"backend", c.backend,
					"operation", operation,
				)
			}
		}()
	}

	return resp, err
}

func (c *TracedClient) logRequest(correlationID, operation string, req *http.Request, body []byte) {
	attrs := []any{
		"correlation_id", correlationID,
		"backend", c.backend,
		"operation", operation,
		"method", req.Method,
		"url", security.SanitizeURL(req.URL.String()),
		"request_size_bytes", len(body),
	}
	if c.logReqBody && len(body) > 0 {
		attrs = append(attrs, "request_body", string(security.SanitizeBody(body, c.maxBodySize)))
	}
	c.log.Info("backend_request", attrs...)
}

func (c *TracedClient) logResponse(correlationID, operation string, req *http.Request, resp *http.Response, err error, duration time.Duration, body []byte) {
	attrs := []any{
		"correlation_id", correlationID,
		"backend", c.backend,
		"operation", operation,
		"method", req.Method,
		"url", security.SanitizeURL(req.URL.String()),
		"duration_ms", duration.Milliseconds(),
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
		c.log.Error("backend_request_failed", attrs...)
		return
	}

	attrs = append(attrs, "status", resp.StatusCode, "response_size_bytes", len(body))
	if c.logRespBody && len(body) > 0 {
		attrs = append(attrs, "response_body", string(security.SanitizeBody(body, c.maxBodySize)))
	}
	switch {
	case resp.StatusCode >= 500:
		c.log.Error("backend_response", attrs...)
	case resp.StatusCode >= 400:
		c.log.Warn("backend_response", attrs...)
	default:
		c.log.Info("backend_response", attrs...)
	}
}

func (c *TracedClient) buildCall(correlationID, operation string, req *http.Request, resp *http.Response, err error, duration time.Duration, requestBody, responseBody []byte) audit.BackendCall {
	call := audit.BackendCall{
		CorrelationID:  correlationID,
		Backend:        c.backend,
		Operation:      operation,
		RequestMethod:  req.Method,
		RequestURL:     security.SanitizeURL(req.URL.String()),
		RequestHeaders: security.SanitizeHeaders(req.Header),
		RequestBody:    security.SanitizeBody(requestBody, c.maxBodySize),
		DurationMs:     duration.Milliseconds(),
	}
	if resp != nil {
		status := resp.StatusCode
		call.ResponseStatus = &status
		call.ResponseHeaders = security.SanitizeHeaders(resp.Header)
		call.ResponseBody = security.SanitizeBody(responseBody, c.maxBodySize)
	}
	if err != nil {
		call.ErrorMessage = err.Error()
	}
	return call
}

// operation names the call after the last path segment, e.g. "Ocr_system".
func (c *TracedClient) operation(req *http.Request) string {
	parts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	if last := parts[len(parts)-1]; last != "" {
		return strings.ToUpper(last[:1]) + last[1:]
	}
	return fmt.Sprintf("%s_%s", req.Method, c.backend)
}
