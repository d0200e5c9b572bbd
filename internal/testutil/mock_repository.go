package testutil

import (
	"context"

	"3tcapital/facturas_sri/internal/core/invoice"
	"3tcapital/facturas_sri/internal/core/taxpayer"
)

// MockInvoiceRepository is a mock implementation of invoice.Repository for testing.
type MockInvoiceRepository struct {
	FindByAccessKeyFunc  func(ctx context.Context, key string) (int64, bool, error)
	FindMatchFunc        func(ctx context.Context, userID string, policy invoice.MatchPolicy, doc *invoice.Document) (int64, bool, error)
	CreateFunc           func(ctx context.Context, doc *invoice.Document) (int64, error)
	ListFunc             func(ctx context.Context, userID string) ([]invoice.ListEntry, error)
	GetFunc              func(ctx context.Context, userID string, id int64) (*invoice.Document, error)
	ClassifyFunc         func(ctx context.Context, userID string, itemID int64, c invoice.Classification) error
	MonthlySummariesFunc func(ctx context.Context, userID string, year int) ([]invoice.MonthlySummary, error)
	DashboardFunc        func(ctx context.Context, userID string) (*invoice.Dashboard, error)
}

// FindByAccessKey calls the mock function if set, otherwise reports no match.
func (m *MockInvoiceRepository) FindByAccessKey(ctx context.Context, key string) (int64, bool, error) {
	if m.FindByAccessKeyFunc != nil {
		return m.FindByAccessKeyFunc(ctx, key)
	}
	return 0, false, nil
}

// FindMatch calls the mock function if set, otherwise reports no match.
func (m *MockInvoiceRepository) FindMatch(ctx context.Context, userID string, policy invoice.MatchPolicy, doc *invoice.Document) (int64, bool, error) {
	if m.FindMatchFunc != nil {
		return m.FindMatchFunc(ctx, userID, policy, doc)
	}
	return 0, false, nil
}

// Create calls the mock function if set, otherwise returns id 1.
func (m *MockInvoiceRepository) Create(ctx context.Context, doc *invoice.Document) (int64, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, doc)
	}
	return 1, nil
}

// List calls the mock function if set, otherwise returns an empty slice.
func (m *MockInvoiceRepository) List(ctx context.Context, userID string) ([]invoice.ListEntry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID)
	}
	return []invoice.ListEntry{}, nil
}

// Get calls the mock function if set, otherwise returns ErrNotFound.
func (m *MockInvoiceRepository) Get(ctx context.Context, userID string, id int64) (*invoice.Document, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, id)
	}
	return nil, invoice.ErrNotFound
}

func (m *MockInvoiceRepository) Classify(ctx context.Context, userID string, itemID int64, c invoice.Classification) error {
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, userID, itemID, c)
	}
	return nil
}

func (m *MockInvoiceRepository) MonthlySummaries(ctx context.Context, userID string, year int) ([]invoice.MonthlySummary, error) {
	if m.MonthlySummariesFunc != nil {
		return m.MonthlySummariesFunc(ctx, userID, year)
	}
	return []invoice.MonthlySummary{}, nil
}

func (m *MockInvoiceRepository) Dashboard(ctx context.Context, userID string) (*invoice.Dashboard, error) {
	if m.DashboardFunc != nil {
		return m.DashboardFunc(ctx, userID)
	}
	return &invoice.Dashboard{}, nil
}

// MockTaxpayerRepository is a mock implementation of taxpayer.Repository for testing.
type MockTaxpayerRepository struct {
	FindByRUCFunc func(ctx context.Context, ruc string) (*taxpayer.Taxpayer, error)
	UpsertFunc    func(ctx context.Context, tp taxpayer.Taxpayer) error
}

// FindByRUC calls the mock function if set, otherwise returns ErrNotFound.
func (m *MockTaxpayerRepository) FindByRUC(ctx context.Context, ruc string) (*taxpayer.Taxpayer, error) {
	if m.FindByRUCFunc != nil {
		return m.FindByRUCFunc(ctx, ruc)
	}
	return nil, taxpayer.ErrNotFound
}

func (m *MockTaxpayerRepository) Upsert(ctx context.Context, tp taxpayer.Taxpayer) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, tp)
	}
	return nil
}
