package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"3tcapital/facturas_sri/internal/core/taxpayer"
	"3tcapital/facturas_sri/internal/infrastructure/database"
	"3tcapital/facturas_sri/internal/testutil"
)

func TestRepositoryIntegration_Upsert(t *testing.T) {
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

	log := testutil.NewNullLogger()
	if err := database.RunMigrations(ctx, pool, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := NewRepository(pool, log)

	ruc := fmt.Sprintf("%013d", time.Now().UnixNano()%1e13)
	if _, err := repo.FindByRUC(ctx, ruc); !errors.Is(err, taxpayer.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := repo.Upsert(ctx, taxpayer.Taxpayer{RUC: ruc, LegalName: "FARMACIAS UNIDAS S.A.", TradeName: "FARMAUNIDAS"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Upsert(ctx, taxpayer.Taxpayer{RUC: ruc, LegalName: "FARMACIAS UNIDAS SOCIEDAD ANONIMA"}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	tp, err := repo.FindByRUC(ctx, ruc)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if tp.LegalName != "FARMACIAS UNIDAS SOCIEDAD ANONIMA" {
		t.Errorf("expected refreshed legal name, got %q", tp.LegalName)
	}
	if tp.TradeName != "FARMAUNIDAS" {
		t.Errorf("expected trade name to be kept, got %q", tp.TradeName)
	}
}
