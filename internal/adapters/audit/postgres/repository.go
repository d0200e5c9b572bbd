package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"3tcapital/facturas_sri/internal/core/audit"
)

// Repository stores backend call audits in ocr_backend_audit_logs.
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRepository creates the audit repository. log may be nil.
func NewRepository(pool *pgxpool.Pool, log *slog.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

func (r *Repository) Save(ctx context.Context, call audit.BackendCall) error {
	const query = `
		INSERT INTO ocr_backend_audit_logs (
			correlation_id, backend, operation, request_method, request_url,
			request_headers, request_body, response_status, response_headers,
			response_body, duration_ms, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	requestHeaders, err := json.Marshal(call.RequestHeaders)
	if err != nil {
		return fmt.Errorf("marshal request headers: %w", err)
	}
	responseHeaders, err := json.Marshal(call.ResponseHeaders)
	if err != nil {
		return fmt.Errorf("marshal response headers: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		call.CorrelationID,
		call.Backend,
		call.Operation,
		call.RequestMethod,
		call.RequestURL,
		requestHeaders,
		nullableJSON(call.RequestBody),
		call.ResponseStatus,
		responseHeaders,
		nullableJSON(call.ResponseBody),
		call.DurationMs,
		call.ErrorMessage,
	)
	if err != nil {
		if r.log != nil {
			r.log.Error("Failed to insert backend audit log",
				"correlation_id", call.CorrelationID,
				"backend", call.Backend,
				"operation", call.Operation,
				"error", err,
			)
		}
		return fmt.Errorf("insert backend audit log: %w", err)
	}
	return nil
}

func (r *Repository) FindByCorrelationID(ctx context.Context, correlationID string) ([]audit.BackendCall, error) {
	const query = `
		SELECT id, correlation_id, backend, operation, request_method, request_url,
		       request_headers, request_body, response_status, response_headers,
		       response_body, duration_ms, error_message, created_at
		FROM ocr_backend_audit_logs
		WHERE correlation_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, correlationID)
	if err != nil {
		return nil, fmt.Errorf("query backend audit logs: %w", err)
	}
	defer rows.Close()

	var calls []audit.BackendCall
	for rows.Next() {
		var (
			call                            audit.BackendCall
			requestHeaders, responseHeaders []byte
			requestBody, responseBody       []byte
		)
		if err := rows.Scan(
			&call.ID,
			&call.CorrelationID,
			&call.Backend,
			&call.Operation,
			&call.RequestMethod,
			&call.RequestURL,
			&requestHeaders,
			&requestBody,
			&call.ResponseStatus,
			&responseHeaders,
			&responseBody,
			&call.DurationMs,
			&call.ErrorMessage,
			&call.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan backend audit log: %w", err)
		}
		if err := unmarshalHeaders(requestHeaders, &call.RequestHeaders); err != nil {
			return nil, fmt.Errorf("unmarshal request headers: %w", err)
		}
		if err := unmarshalHeaders(responseHeaders, &call.ResponseHeaders); err != nil {
			return nil, fmt.Errorf("unmarshal response headers: %w", err)
		}
		call.RequestBody = requestBody
		call.ResponseBody = responseBody
		calls = append(calls, call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backend audit logs: %w", err)
	}
	return calls, nil
}

// nullableJSON maps an empty body to SQL NULL instead of an invalid jsonb literal.
func nullableJSON(body json.RawMessage) any {
	if len(body) == 0 {
		return nil
	}
	return []byte(body)
}

func unmarshalHeaders(raw []byte, dst *map[string]string) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
