package postgres

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"3tcapital/facturas_sri/internal/core/audit"
)

var _ audit.Repository = (*Repository)(nil)

func TestNullableJSON(t *testing.T) {
	if got := nullableJSON(nil); got != nil {
		t.Errorf("expected nil for empty body, got %v", got)
	}
	body := json.RawMessage(`{"images":"[omitted 2048 bytes]"}`)
	got, ok := nullableJSON(body).([]byte)
	if !ok || string(got) != string(body) {
		t.Errorf("expected body bytes, got %v", nullableJSON(body))
	}
}

func TestUnmarshalHeaders(t *testing.T) {
	var headers map[string]string
	if err := unmarshalHeaders(nil, &headers); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if headers != nil {
		t.Errorf("expected nil headers, got %v", headers)
	}

	if err := unmarshalHeaders([]byte(`{"Content-Type":"application/json"}`), &headers); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if headers["Content-Type"] != "application/json" {
		t.Errorf("headers = %v", headers)
	}
}

func TestRepositoryIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if testing.Short() || dsn == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	repo := NewRepository(pool, nil)
	status := 200
	call := audit.BackendCall{
		CorrelationID:   "audit-it-001",
		Backend:         "paddle",
		Operation:       "Ocr_system",
		RequestMethod:   "POST",
		RequestURL:      "http://paddle:8866/predict/ocr_system",
		RequestHeaders:  map[string]string{"Content-Type": "application/json"},
		RequestBody:     json.RawMessage(`{"images":"[omitted 10 bytes]"}`),
		ResponseStatus:  &status,
		ResponseHeaders: map[string]string{},
		DurationMs:      42,
	}
	if err := repo.Save(ctx, call); err != nil {
		t.Fatalf("save: %v", err)
	}

	calls, err := repo.FindByCorrelationID(ctx, call.CorrelationID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(calls) == 0 {
		t.Fatal("expected at least one audit row")
	}
	if calls[0].Backend != "paddle" || calls[0].ResponseStatus == nil || *calls[0].ResponseStatus != 200 {
		t.Errorf("unexpected row: %+v", calls[0])
	}
}
