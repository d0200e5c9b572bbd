package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"3tcapital/facturas_sri/internal/core/archive"
	"3tcapital/facturas_sri/internal/core/invoice"
)

const (
	minYear = 2000
	maxYear = 2100
)

// ErrInvalidYear is returned for summary years outside the supported range.
var ErrInvalidYear = errors.New("invalid year")

// Service exposes the stored invoices of a user.
type Service struct {
	repo    invoice.Repository
	archive archive.Store
	log     *slog.Logger
	now     func() time.Time
}

// NewService creates a new invoice query service. store may be nil when
// archiving is disabled.
func NewService(repo invoice.Repository, store archive.Store, log *slog.Logger) *Service {
	return &Service{repo: repo, archive: store, log: log, now: time.Now}
}

// List returns the user's invoices, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]invoice.ListEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	return s.repo.List(ctx, userID)
}

// Get returns one invoice with all its children.
func (s *Service) Get(ctx context.Context, userID string, id int64) (*invoice.Document, error) {
	if id <= 0 {
		return nil, invoice.ErrNotFound
	}
	return s.repo.Get(ctx, userID, id)
}

// Classify applies a reviewer classification to a line item.
func (s *Service) Classify(ctx context.Context, userID string, itemID int64, tipo, subtipo string) (invoice.Classification, error) {
	c, err := invoice.NewClassification(tipo, subtipo)
	if err != nil {
		return invoice.Classification{}, err
	}
	if itemID <= 0 {
		return invoice.Classification{}, invoice.ErrNotFound
	}
	if err := s.repo.Classify(ctx, userID, itemID, c); err != nil {
		return invoice.Classification{}, err
	}

	s.log.Info("Line item classified",
		"user_id", userID,
		"item_id", itemID,
		"type", c.Type(),
		"personal_kind", c.PersonalKind,
	)
	return c, nil
}

// MonthlySummaries aggregates a year of invoices per month. Year zero means
// the current year.
func (s *Service) MonthlySummaries(ctx context.Context, userID string, year int) ([]invoice.MonthlySummary, error) {
	if year == 0 {
		year = s.now().Year()
	}
	if year < minYear || year > maxYear {
		return nil, fmt.Errorf("%w: %d must be between %d and %d", ErrInvalidYear, year, minYear, maxYear)
	}
	return s.repo.MonthlySummaries(ctx, userID, year)
}

func (s *Service) Dashboard(ctx context.Context, userID string) (*invoice.Dashboard, error) {
	return s.repo.Dashboard(ctx, userID)
}

// OriginalURL returns a temporary link to the file the invoice was ingested from.
func (s *Service) OriginalURL(ctx context.Context, userID string, id int64) (string, error) {
	doc, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if s.archive == nil || doc.ArchiveKey == "" {
		return "", archive.ErrNoOriginal
	}

	url, err := s.archive.PresignedURL(ctx, doc.ArchiveKey)
	if err != nil {
		return "", fmt.Errorf("%w: presign original: %w", invoice.ErrStorageFailure, err)
	}
	return url, nil
}
