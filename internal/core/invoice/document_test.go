package invoice

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDocument_NormalizeDefaults(t *testing.T) {
	ingested := time.Date(2026, 3, 9, 17, 45, 0, 0, time.FixedZone("ECT", -5*3600))

	doc := Document{}
	doc.NormalizeDefaults(ingested)

	if doc.Number != UnknownNumber {
		t.Errorf("expected Number %q, got %q", UnknownNumber, doc.Number)
	}
	if got := doc.IssueDate.Format("2006-01-02"); got != "2026-03-09" {
		t.Errorf("expected IssueDate 2026-03-09, got %s", got)
	}
	if doc.Currency != DefaultCurrency {
		t.Errorf("expected Currency %q, got %q", DefaultCurrency, doc.Currency)
	}
	if doc.Type != TypeInvoice {
		t.Errorf("expected Type %q, got %q", TypeInvoice, doc.Type)
	}
}

func TestDocument_NormalizeDefaultsKeepsValues(t *testing.T) {
	issued := time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)
	doc := Document{Number: "001-002-000000123", IssueDate: issued, Currency: "EUR", Type: TypeSalesNote}
	doc.NormalizeDefaults(time.Now())

	if doc.Number != "001-002-000000123" || !doc.IssueDate.Equal(issued) || doc.Currency != "EUR" || doc.Type != TypeSalesNote {
		t.Errorf("existing values were overwritten: %+v", doc)
	}
}

func TestStatus_NeedsReview(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusXMLOK, false},
		{StatusOK, false},
		{StatusReview, true},
		{StatusPending, true},
		{StatusManual, true},
	}
	for _, tt := range tests {
		if got := tt.status.NeedsReview(); got != tt.want {
			t.Errorf("%s.NeedsReview() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestNewClassification(t *testing.T) {
	tests := []struct {
		name    string
		tipo    string
		subtipo string
		want    Classification
		wantErr bool
	}{
		{name: "personal with kind", tipo: "PERSONAL", subtipo: "salud", want: Classification{Personal: true, PersonalKind: "SALUD"}},
		{name: "personal without kind", tipo: "personal", want: Classification{Personal: true}},
		{name: "activity drops kind", tipo: "ACTIVIDAD", subtipo: "SALUD", want: Classification{Activity: true}},
		{name: "none clears", tipo: "NINGUNO", want: Classification{}},
		{name: "unknown type", tipo: "OTRO", wantErr: true},
		{name: "unknown kind", tipo: "PERSONAL", subtipo: "MASCOTAS", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewClassification(tt.tipo, tt.subtipo)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidClassification) {
					t.Fatalf("expected ErrInvalidClassification, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestParseMatchPolicy(t *testing.T) {
	p, err := ParseMatchPolicy(" tax_id, NUMBER ,total,total")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.String() != "tax_id,number,total" {
		t.Errorf("unexpected policy %q", p.String())
	}
	if p.Has(MatchDate) {
		t.Error("policy should not include date")
	}

	if _, err := ParseMatchPolicy("tax_id,amount"); err == nil {
		t.Error("expected error for unknown field")
	}
	if _, err := ParseMatchPolicy(" , "); err == nil {
		t.Error("expected error for empty policy")
	}
}

func TestMatchPolicy_Usable(t *testing.T) {
	full := &Document{
		Provider:  Provider{TaxID: "1790012345001"},
		Number:    "001-001-000000001",
		IssueDate: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Totals:    Totals{GrandTotal: decimal.RequireFromString("10.50")},
	}
	if !DefaultXMLPolicy.Usable(full) {
		t.Error("expected full document to be usable")
	}

	noNumber := *full
	noNumber.Number = UnknownNumber
	if DefaultOCRPolicy.Usable(&noNumber) {
		t.Error("placeholder number must not be matched")
	}

	zeroTotal := *full
	zeroTotal.Totals.GrandTotal = decimal.Zero
	if DefaultOCRPolicy.Usable(&zeroTotal) {
		t.Error("zero total must not be matched")
	}

	noDate := *full
	noDate.IssueDate = time.Time{}
	if !DefaultOCRPolicy.Usable(&noDate) {
		t.Error("OCR policy does not compare dates")
	}
	if DefaultXMLPolicy.Usable(&noDate) {
		t.Error("XML policy requires a date")
	}
}

func TestDuplicateError_Is(t *testing.T) {
	var err error = &DuplicateError{ExistingID: 42}
	if !errors.Is(err, ErrDuplicateDetected) {
		t.Error("DuplicateError should match ErrDuplicateDetected")
	}
	var dup *DuplicateError
	if !errors.As(err, &dup) || dup.ExistingID != 42 {
		t.Errorf("expected existing id 42, got %+v", dup)
	}
}

func TestDocumentError_Unwrap(t *testing.T) {
	err := Invalid("decode voucher", "missing infoTributaria")
	if !errors.Is(err, ErrInvalidDocument) {
		t.Error("expected ErrInvalidDocument")
	}
	if err.Error() != "decode voucher: invalid document: missing infoTributaria" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
