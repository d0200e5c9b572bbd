package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceKind records how a document entered the system. It never changes after creation.
type SourceKind string

const (
	SourceXML    SourceKind = "XML"
	SourceOCR    SourceKind = "OCR"
	SourceManual SourceKind = "MANUAL"
)

// Status is the lifecycle marker stored with each document.
type Status string

const (
	StatusXMLOK     Status = "XML_OK"
	StatusOK        Status = "OK"
	StatusReview    Status = "REVISAR"
	StatusPending   Status = "PENDIENTE"
	StatusManual    Status = "MANUAL"
	StatusDuplicate Status = "DUPLICATE"
)

// NeedsReview reports whether a human should look at the extracted fields.
func (s Status) NeedsReview() bool {
	return s == StatusReview || s == StatusPending || s == StatusManual
}

// Outcome is the result of one ingestion as returned to the uploader.
type Outcome string

const (
	OutcomeDuplicate Outcome = "DUPLICADA"
	OutcomeComplete  Outcome = "COMPLETA_AUTOMATICA"
	OutcomeOCR       Outcome = "OCR_OK"
	OutcomeManual    Outcome = "MANUAL"
)

const (
	// UnknownNumber replaces a document number that could not be determined.
	UnknownNumber = "SIN-NUMERO"
	// DefaultCurrency is used when the source does not state one.
	DefaultCurrency = "USD"

	TypeInvoice   = "FACTURA"
	TypeSalesNote = "NOTA_VENTA"
)

// Document is the canonical invoice record produced by the ingestion pipeline.
type Document struct {
	ID           int64
	UserID       string
	Source       SourceKind
	Type         string
	AccessKey    string
	Number       string
	Estab        string
	EmissionPt   string
	Sequence     string
	Provider     Provider
	Buyer        Buyer
	IssueDate    time.Time
	Totals       Totals
	Currency     string
	Status       Status
	Confidence   int
	Category     string
	Environment  string
	RawText      string
	ArchiveKey   string
	PaymentFlags PaymentFlags
	Auth         Authorization
	Items        []LineItem
	Payments     []PaymentEntry
	Additional   []AdditionalField
	CreatedAt    time.Time
}

// Provider identifies the issuer of the invoice.
type Provider struct {
	TaxID               string
	Name                string
	TradeName           string
	HeadOffice          string
	Address             string
	Phone               string
	City                string
	AccountingObligated string
	SpecialTaxpayer     string
	Regime              string
}

// Buyer identifies the customer printed on the invoice.
type Buyer struct {
	IDType         string
	Identification string
	Name           string
	Address        string
}

// Totals holds the monetary summary of a document. Every value is non-negative
// with two decimals.
type Totals struct {
	SubtotalTaxed     decimal.Decimal
	SubtotalZeroRated decimal.Decimal
	Tax               decimal.Decimal
	WithholdingTax    decimal.Decimal
	WithholdingIncome decimal.Decimal
	Discount          decimal.Decimal
	Tip               decimal.Decimal
	GrandTotal        decimal.Decimal
}

// Authorization carries the tax authority's approval metadata. For XML
// documents it comes from the outer envelope, never from the voucher.
type Authorization struct {
	Status      string
	Number      string
	Date        *time.Time
	Environment string
}

// Taxes flattens the tax entries of every line item.
func (d *Document) Taxes() []TaxEntry {
	var taxes []TaxEntry
	for _, item := range d.Items {
		taxes = append(taxes, item.Taxes...)
	}
	return taxes
}

// PaymentFlags marks which payment methods were mentioned on a scanned receipt.
type PaymentFlags struct {
	Cash       bool `json:"efectivo"`
	Card       bool `json:"tarjeta"`
	Electronic bool `json:"electronico"`
	Other      bool `json:"otros"`
}

// Any reports whether at least one payment method was detected.
func (p PaymentFlags) Any() bool {
	return p.Cash || p.Card || p.Electronic || p.Other
}

// LineItem is one purchased good or service.
type LineItem struct {
	ID                  int64
	Code                string
	AuxCode             string
	Quantity            decimal.NullDecimal
	Description         string
	UnitPrice           decimal.Decimal
	Discount            decimal.Decimal
	Subsidy             decimal.Decimal
	PriceWithoutSubsidy decimal.Decimal
	Total               decimal.Decimal
	Taxes               []TaxEntry
	Classification      Classification
}

// TaxEntry is a tax line attached to an invoice or to one of its items.
type TaxEntry struct {
	Code     string
	RateCode string
	Rate     decimal.Decimal
	Base     decimal.Decimal
	Amount   decimal.Decimal
}

// PaymentEntry is a declared payment method and amount.
type PaymentEntry struct {
	Method   string
	Amount   decimal.Decimal
	Term     string
	TimeUnit string
}

// AdditionalField is a free-form name/value pair from the voucher.
type AdditionalField struct {
	Name  string
	Value string
}

// NormalizeDefaults enforces the storage invariants on fields that may be
// missing after extraction. ingestedAt replaces an undecidable issue date.
func (d *Document) NormalizeDefaults(ingestedAt time.Time) {
	if d.Number == "" {
		d.Number = UnknownNumber
	}
	if d.IssueDate.IsZero() {
		y, m, day := ingestedAt.Date()
		d.IssueDate = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	}
	if d.Currency == "" {
		d.Currency = DefaultCurrency
	}
	if d.Type == "" {
		d.Type = TypeInvoice
	}
}
