package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"3tcapital/facturas_sri/internal/core/taxpayer"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements taxpayer.Repository on the ruc_razon_social table.
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRepository creates a PostgreSQL taxpayer repository.
func NewRepository(pool *pgxpool.Pool, log *slog.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

var _ taxpayer.Repository = (*Repository)(nil)

// FindByRUC returns the directory entry for ruc.
func (r *Repository) FindByRUC(ctx context.Context, ruc string) (*taxpayer.Taxpayer, error) {
	var tp taxpayer.Taxpayer
	err := r.pool.QueryRow(ctx, `
		SELECT ruc, razon_social, COALESCE(nombre_comercial, ''), actualizado_en
		FROM ruc_razon_social
		WHERE ruc = $1`, ruc,
	).Scan(&tp.RUC, &tp.LegalName, &tp.TradeName, &tp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, taxpayer.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query taxpayer: %w", err)
	}
	return &tp, nil
}

// Upsert stores the names for tp.RUC. An empty trade name keeps the stored one.
func (r *Repository) Upsert(ctx context.Context, tp taxpayer.Taxpayer) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ruc_razon_social (ruc, razon_social, nombre_comercial, actualizado_en)
		VALUES ($1, $2, NULLIF($3, ''), NOW())
		ON CONFLICT (ruc) DO UPDATE
		SET razon_social = EXCLUDED.razon_social,
		    nombre_comercial = COALESCE(EXCLUDED.nombre_comercial, ruc_razon_social.nombre_comercial),
		    actualizado_en = NOW()`,
		tp.RUC, tp.LegalName, tp.TradeName,
	)
	if err != nil {
		r.log.Error("Failed to upsert taxpayer", "ruc", tp.RUC, "error", err)
		return fmt.Errorf("upsert taxpayer: %w", err)
	}
	return nil
}
