package taxpayer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"3tcapital/facturas_sri/internal/core/taxpayer"
	"3tcapital/facturas_sri/internal/infrastructure/cache"
)

const minRUCLength = 10

// Service resolves RUCs to legal names, caching hits for a fixed TTL.
type Service struct {
	repo  taxpayer.Repository
	cache *cache.TTLCache[string, taxpayer.Taxpayer]
	log   *slog.Logger
}

// NewService creates a taxpayer service with a lookup cache of the given TTL.
func NewService(repo taxpayer.Repository, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache.NewTTLCache[string, taxpayer.Taxpayer](ttl),
		log:   log,
	}
}

// Validate checks that ruc has at least ten digits and nothing else.
func Validate(ruc string) error {
	if len(ruc) < minRUCLength {
		return fmt.Errorf("%w: se requieren al menos %d dígitos", taxpayer.ErrInvalidRUC, minRUCLength)
	}
	for _, r := range ruc {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: solo se permiten dígitos", taxpayer.ErrInvalidRUC)
		}
	}
	return nil
}

// Lookup returns the directory entry for ruc.
func (s *Service) Lookup(ctx context.Context, ruc string) (*taxpayer.Taxpayer, error) {
	ruc = strings.TrimSpace(ruc)
	if err := Validate(ruc); err != nil {
		return nil, err
	}

	if tp, ok := s.cache.Get(ruc); ok {
		return &tp, nil
	}

	tp, err := s.repo.FindByRUC(ctx, ruc)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ruc, *tp)
	return tp, nil
}

// Remember records the provider of an ingested invoice. Failures are logged
// and never returned to the caller.
func (s *Service) Remember(ctx context.Context, ruc, legalName, tradeName string) {
	ruc = strings.TrimSpace(ruc)
	legalName = strings.TrimSpace(legalName)
	if legalName == "" || Validate(ruc) != nil {
		return
	}

	tp := taxpayer.Taxpayer{RUC: ruc, LegalName: legalName, TradeName: strings.TrimSpace(tradeName)}
	if err := s.repo.Upsert(ctx, tp); err != nil {
		s.log.Warn("Could not update taxpayer directory", "ruc", ruc, "error", err)
		return
	}
	s.cache.Delete(ruc)
}
