package taxpayer

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound means the RUC is not in the directory.
var ErrNotFound = errors.New("taxpayer not found")

// ErrInvalidRUC means the identifier is too short or has non-digit characters.
var ErrInvalidRUC = errors.New("invalid ruc")

// Taxpayer maps a RUC to the legal name printed on its invoices.
type Taxpayer struct {
	RUC       string    `json:"ruc"`
	LegalName string    `json:"razon_social"`
	TradeName string    `json:"nombre_comercial,omitempty"`
	UpdatedAt time.Time `json:"actualizado_en"`
}

// Repository persists the RUC directory.
type Repository interface {
	// FindByRUC returns ErrNotFound when the RUC is unknown.
	FindByRUC(ctx context.Context, ruc string) (*Taxpayer, error)

	// Upsert inserts or refreshes the names stored for a RUC.
	Upsert(ctx context.Context, tp Taxpayer) error
}
