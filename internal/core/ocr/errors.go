package ocr

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineFailed is returned when a recognition backend cannot process a document.
	ErrEngineFailed = errors.New("ocr engine failed")

	// ErrInvalidPDF is returned for data that cannot be opened as a PDF.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

	// ErrMissingCredentials is returned when a cloud engine has no credentials configured.
	ErrMissingCredentials = errors.New("missing OCR backend credentials")

	// ErrEngineBusy is returned when the engine is shedding load.
	ErrEngineBusy = errors.New("ocr engine unavailable")
)

// Error wraps an OCR failure with the operation that produced it.
type Error struct {
	Op      string
	Err     error
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns err as an *Error unless it already is one.
func Wrap(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var ocrErr *Error
	if errors.As(err, &ocrErr) {
		return err
	}
	return &Error{Op: op, Err: err, Details: details}
}
