// Package analyzer extracts invoice fields from unstructured OCR text.
//
// Each field is produced by its own Extractor. Extractors never fail: a field
// that cannot be found is left empty and listed in Analysis.Missing.
package analyzer

import (
	"strings"

	"github.com/shopspring/decimal"

	"3tcapital/facturas_sri/internal/core/invoice"
	"3tcapital/facturas_sri/internal/core/normalize"
)

// Points awarded per key field found.
const fieldScore = 25

// Confidence thresholds for the derived status.
const (
	okThreshold     = 75
	reviewThreshold = 50
)

// Key fields that drive the confidence score.
const (
	FieldNumber = "numero"
	FieldTaxID  = "ruc"
	FieldTotal  = "total"
	FieldDate   = "fecha"
)

// Item is a line item recognized on a receipt. Quantity is invalid for the
// description-only rows produced by the degraded fallback.
type Item struct {
	Quantity    decimal.NullDecimal `json:"cantidad"`
	Description string              `json:"descripcion"`
	UnitPrice   decimal.Decimal     `json:"precio_unitario"`
	Total       decimal.Decimal     `json:"total"`
}

// Analysis is the best-effort result of reading one OCR text.
type Analysis struct {
	DocumentType        string               `json:"tipo_comprobante"`
	ProviderName        string               `json:"proveedor"`
	TaxID               string               `json:"ruc"`
	Address             string               `json:"direccion,omitempty"`
	Phone               string               `json:"telefono,omitempty"`
	City                string               `json:"ciudad,omitempty"`
	Regime              string               `json:"regimen,omitempty"`
	Number              string               `json:"numero_factura"`
	AuthorizationNumber string               `json:"numero_autorizacion,omitempty"`
	AccessKey           string               `json:"clave_acceso,omitempty"`
	IssueDate           string               `json:"fecha_emision"`
	Items               []Item               `json:"items"`
	Subtotal            decimal.Decimal      `json:"subtotal"`
	Tax                 decimal.Decimal      `json:"iva"`
	Total               decimal.Decimal      `json:"total"`
	Payment             invoice.PaymentFlags `json:"forma_pago"`
	Category            string               `json:"categoria"`
	Confidence          int                  `json:"confianza"`
	Status              invoice.Status       `json:"estado_ocr"`
	Missing             []string             `json:"campos_faltantes,omitempty"`
}

// Degraded reports whether any key field could not be determined.
func (a *Analysis) Degraded() bool {
	return len(a.Missing) > 0
}

// Text is the OCR output prepared once for all extractors.
type Text struct {
	Raw    string
	Lines  []string
	Folded []string
	// Compact is the raw text without any whitespace.
	Compact string
}

// NewText splits raw into trimmed non-empty lines with folded copies.
func NewText(raw string) *Text {
	t := &Text{Raw: raw}
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = normalize.Spaces(line)
		if line == "" {
			continue
		}
		t.Lines = append(t.Lines, line)
		t.Folded = append(t.Folded, normalize.Fold(line))
	}
	t.Compact = strings.Join(strings.Fields(raw), "")
	return t
}

// FoldedText is the folded lines joined by newlines.
func (t *Text) FoldedText() string {
	return strings.Join(t.Folded, "\n")
}

// Extractor fills one group of fields of an Analysis.
type Extractor interface {
	Name() string
	Extract(t *Text, a *Analysis)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc struct {
	Field string
	Fn    func(t *Text, a *Analysis)
}

func (f ExtractorFunc) Name() string                 { return f.Field }
func (f ExtractorFunc) Extract(t *Text, a *Analysis) { f.Fn(t, a) }

// DefaultExtractors returns the pipeline in the order it runs.
func DefaultExtractors() []Extractor {
	return []Extractor{
		ExtractorFunc{"document_type", extractDocumentType},
		ExtractorFunc{"provider_name", extractProviderName},
		ExtractorFunc{"tax_id", extractTaxID},
		ExtractorFunc{"contact", extractContact},
		ExtractorFunc{"regime", extractRegime},
		ExtractorFunc{"number", extractNumber},
		ExtractorFunc{"authorization", extractAuthorization},
		ExtractorFunc{"access_key", extractAccessKey},
		ExtractorFunc{"issue_date", extractIssueDate},
		ExtractorFunc{"items", extractItems},
		ExtractorFunc{"amounts", extractAmounts},
		ExtractorFunc{"payment", extractPayment},
		ExtractorFunc{"category", extractCategory},
	}
}

// Analyzer runs a fixed list of extractors and scores the result.
type Analyzer struct {
	extractors []Extractor
}

// New builds an Analyzer. With no extractors the default pipeline is used.
func New(extractors ...Extractor) *Analyzer {
	if len(extractors) == 0 {
		extractors = DefaultExtractors()
	}
	return &Analyzer{extractors: extractors}
}

// Analyze reads raw OCR text.
func (an *Analyzer) Analyze(raw string) *Analysis {
	t := NewText(raw)
	a := &Analysis{
		DocumentType: invoice.TypeInvoice,
		Total:        decimal.Zero,
		Subtotal:     decimal.Zero,
		Tax:          decimal.Zero,
	}
	for _, e := range an.extractors {
		e.Extract(t, a)
	}
	Score(a)
	return a
}

// Score sets Confidence, Status and Missing from the key fields.
func Score(a *Analysis) {
	a.Confidence = 0
	a.Missing = nil
	check := func(found bool, field string) {
		if found {
			a.Confidence += fieldScore
			return
		}
		a.Missing = append(a.Missing, field)
	}
	check(a.Number != "", FieldNumber)
	check(a.TaxID != "", FieldTaxID)
	check(a.Total.IsPositive(), FieldTotal)
	check(a.IssueDate != "", FieldDate)
	a.Status = StatusFor(a.Confidence)
}

// StatusFor maps a confidence score to a review status.
func StatusFor(score int) invoice.Status {
	switch {
	case score >= okThreshold:
		return invoice.StatusOK
	case score >= reviewThreshold:
		return invoice.StatusReview
	default:
		return invoice.StatusPending
	}
}
