package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListEntry is one row of the invoice list with its classified expense sums.
type ListEntry struct {
	ID            int64
	Number        string
	ProviderName  string
	ProviderTaxID string
	IssueDate     time.Time
	Total         decimal.Decimal
	Status        Status
	Source        SourceKind
	Category      string
	PersonalTotal decimal.Decimal
	ActivityTotal decimal.Decimal
	CreatedAt     time.Time
}

// MonthlySummary aggregates a user's invoices for one calendar month.
type MonthlySummary struct {
	Month             time.Time
	Count             int
	SubtotalTaxed     decimal.Decimal
	SubtotalZeroRated decimal.Decimal
	Tax               decimal.Decimal
	Total             decimal.Decimal
	PersonalTotal     decimal.Decimal
	ActivityTotal     decimal.Decimal
}

// Bucket is a labelled count and amount used by the dashboard.
type Bucket struct {
	Label string
	Count int
	Total decimal.Decimal
}

// Dashboard is the overview shown after login.
type Dashboard struct {
	Count        int
	Total        decimal.Decimal
	Tax          decimal.Decimal
	NeedsReview  int
	ByCategory   []Bucket
	ByStatus     []Bucket
	TopProviders []Bucket
}
