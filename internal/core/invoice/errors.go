package invoice

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDocument means the XML lacks the envelope, voucher or invoice blocks.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrUnsupportedFormat means the upload is neither XML, PDF nor an image.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrDuplicateDetected means an equivalent document is already stored.
	ErrDuplicateDetected = errors.New("duplicate document")
	// ErrStorageFailure wraps any persistence failure; the transaction was rolled back.
	ErrStorageFailure = errors.New("storage failure")
	// ErrBackendUnavailable means the recognition backend failed or timed out.
	ErrBackendUnavailable = errors.New("ocr backend unavailable")
	// ErrNotFound means the document or line item does not exist for the user.
	ErrNotFound = errors.New("not found")
	// ErrInvalidClassification means a reviewer sent an unknown expense type.
	ErrInvalidClassification = errors.New("invalid classification")
)

// DocumentError adds the failing operation and a human readable detail to one
// of the sentinel errors above.
type DocumentError struct {
	Op     string
	Err    error
	Detail string
}

func (e *DocumentError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// Invalid builds an ErrInvalidDocument for op.
func Invalid(op, detail string) error {
	return &DocumentError{Op: op, Err: ErrInvalidDocument, Detail: detail}
}

// DuplicateError reports the stored document an upload collided with.
type DuplicateError struct {
	ExistingID int64
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate of invoice %d", e.ExistingID)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicateDetected
}
