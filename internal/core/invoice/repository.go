package invoice

import "context"

// Repository defines the persistence operations for invoice documents.
type Repository interface {
	// FindByAccessKey returns the id of the document holding key.
	// The boolean is false when no document matches.
	FindByAccessKey(ctx context.Context, key string) (int64, bool, error)

	// FindMatch returns the id of a document owned by userID that equals doc
	// on every field of policy.
	FindMatch(ctx context.Context, userID string, policy MatchPolicy, doc *Document) (int64, bool, error)

	// Create stores doc with its line items, taxes, payments and additional
	// fields in a single transaction and returns the new id. A collision on
	// the access key is reported as ErrDuplicateDetected.
	Create(ctx context.Context, doc *Document) (int64, error)

	// List returns the user's documents, newest first.
	List(ctx context.Context, userID string) ([]ListEntry, error)

	// Get loads a full document. Returns ErrNotFound when it does not belong to userID.
	Get(ctx context.Context, userID string, id int64) (*Document, error)

	// Classify updates the expense classification of one line item.
	// Returns ErrNotFound when the item does not belong to userID.
	Classify(ctx context.Context, userID string, itemID int64, c Classification) error

	// MonthlySummaries aggregates the user's documents per month of year.
	MonthlySummaries(ctx context.Context, userID string, year int) ([]MonthlySummary, error)

	// Dashboard builds the overview for userID.
	Dashboard(ctx context.Context, userID string) (*Dashboard, error)
}
