package analyzer

import (
	"regexp"
	"strings"
	"unicode"

	"3tcapital/facturas_sri/internal/core/invoice"
)

var (
	// labelledTaxID matches "RUC: 1790012345001", "R.U.C. 1790012345001" or
	// "R U C N° 1790012345" on folded text.
	labelledTaxID = regexp.MustCompile(`\br\s*\.?\s*u\s*\.?\s*c\s*\.?\s*(?:n\s*[o°º]\.?|#)?\s*[:.\-]?\s*(\d{10,13})\b`)
	bareTaxID     = regexp.MustCompile(`\b\d{13}\b`)

	// taxIDFragment is an optional RUC label followed by the digits at the
	// end of the provider name line.
	taxIDFragment = regexp.MustCompile(`(?i)[\s,;:\-]*(?:\br\s*\.?\s*u\s*\.?\s*c\s*\.?\s*(?:n\s*[o°º]\.?|#)?\s*[:.\-]?\s*)?\d{10,13}\s*$`)

	addressLabel = regexp.MustCompile(`(?i)^(?:.*?\b)?(?:direcci[oó]n|dir\.?)(?:\s+(?:matriz|sucursal|establecimiento))?\s*(?:[:.]\s*|\s+)(.+)$`)
	phoneLabel   = regexp.MustCompile(`(?i)\b(?:cel(?:ular)?|tel(?:[eé]fono|f)?|fono|whatsapp)\s*\.?\s*[:.]?\s*(\+?\d[\d\s\-/]{5,}\d)`)
	cityLabel    = regexp.MustCompile(`(?i)\bciudad\s*[:.]\s*([\p{L} ]+)`)
	cityCountry  = regexp.MustCompile(`(?i)([\p{L}]+(?: [\p{L}]+)?)\s*[-–,]?\s*ecuador\.?\s*$`)

	regimeMarker = regexp.MustCompile(`(?i)(?:contribuyente\s+)?(?:r[eé]gimen\s+)?rimpe(?:\s*[-:]?\s*(?:negocio\s+popular|emprendedor))?|negocio\s+popular`)
)

func extractDocumentType(t *Text, a *Analysis) {
	if strings.Contains(t.FoldedText(), "nota de venta") {
		a.DocumentType = invoice.TypeSalesNote
		return
	}
	a.DocumentType = invoice.TypeInvoice
}

// extractProviderName takes the first line that contains letters. Once a tax
// ID is present anywhere in the text, a trailing RUC fragment is cut off.
func extractProviderName(t *Text, a *Analysis) {
	hasTaxID := labelledTaxID.MatchString(t.FoldedText()) || bareTaxID.MatchString(t.Raw)
	for _, line := range t.Lines {
		if !hasLetter(line) {
			continue
		}
		name := line
		if hasTaxID {
			name = strings.TrimSpace(taxIDFragment.ReplaceAllString(name, ""))
		}
		if name == "" {
			continue
		}
		a.ProviderName = name
		return
	}
}

// extractTaxID prefers a labelled RUC over any bare 13 digit sequence.
func extractTaxID(t *Text, a *Analysis) {
	if m := labelledTaxID.FindStringSubmatch(t.FoldedText()); m != nil {
		a.TaxID = m[1]
		return
	}
	if m := bareTaxID.FindString(t.Raw); m != "" {
		a.TaxID = m
	}
}

func extractContact(t *Text, a *Analysis) {
	for _, line := range t.Lines {
		if a.Address == "" {
			if m := addressLabel.FindStringSubmatch(line); m != nil {
				a.Address = strings.TrimSpace(m[1])
			}
		}
		if a.Phone == "" {
			if m := phoneLabel.FindStringSubmatch(line); m != nil {
				a.Phone = digitsOnly(m[1])
			}
		}
		if a.City == "" {
			if m := cityLabel.FindStringSubmatch(line); m != nil {
				a.City = strings.TrimSpace(m[1])
			} else if m := cityCountry.FindStringSubmatch(line); m != nil {
				a.City = strings.TrimSpace(m[1])
			}
		}
	}
}

// extractRegime keeps RIMPE markers verbatim.
func extractRegime(t *Text, a *Analysis) {
	for _, line := range t.Lines {
		if m := regimeMarker.FindString(line); m != "" {
			a.Regime = strings.TrimSpace(m)
			return
		}
	}
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '+' {
			return r
		}
		return -1
	}, s)
}
