package analyzer

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"3tcapital/facturas_sri/internal/core/normalize"
)

const minFallbackLen = 5

var (
	itemRow = regexp.MustCompile(`^(\d{1,4})\s+(\S.*)$`)
	// trailingPrices peels "0,25 0,50" or "$1.50" off the end of an item row.
	trailingPrices = regexp.MustCompile(`^(.*?)\s+\$?\s*(\d+[.,]\d{2})(?:\s+\$?\s*(\d+[.,]\d{2}))?\s*$`)
	blockEnd       = regexp.MustCompile(`^(?:sub\s*total|total|valor\s+total|iva\b|descuento|forma(?:s)?\s+de\s+pago|efectivo|tarjeta|son\s*:|recibi\s+conforme|firma)`)
)

func isItemHeader(folded string) bool {
	if !strings.Contains(folded, "cant") {
		return false
	}
	return strings.Contains(folded, "descripcion") ||
		strings.Contains(folded, "detalle") ||
		strings.Contains(folded, "concepto") ||
		strings.Contains(folded, "articulo")
}

// extractItems reads the rows between the CANT/DESCRIPCION header and the
// first totals or payment marker. Rows shaped "<qty> <text>" become items.
// When no row has that shape every line longer than five characters is kept
// as a description-only item.
func extractItems(t *Text, a *Analysis) {
	start := -1
	for i, line := range t.Folded {
		if isItemHeader(line) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return
	}

	end := len(t.Folded)
	for i := start; i < len(t.Folded); i++ {
		if blockEnd.MatchString(t.Folded[i]) {
			end = i
			break
		}
	}

	var items []Item
	for i := start; i < end; i++ {
		if m := itemRow.FindStringSubmatch(t.Lines[i]); m != nil {
			items = append(items, parseItemRow(m[1], m[2]))
		}
	}
	if len(items) == 0 {
		for i := start; i < end; i++ {
			line := t.Lines[i]
			if len([]rune(line)) <= minFallbackLen || isItemHeader(t.Folded[i]) {
				continue
			}
			items = append(items, Item{Description: line})
		}
	}
	a.Items = items
}

func parseItemRow(qty, rest string) Item {
	item := Item{
		Quantity:    decimal.NullDecimal{Decimal: decimal.RequireFromString(qty), Valid: true},
		Description: rest,
	}
	if m := trailingPrices.FindStringSubmatch(rest); m != nil && strings.TrimSpace(m[1]) != "" {
		item.Description = strings.TrimSpace(m[1])
		if m[3] != "" {
			item.UnitPrice = normalize.Amount(m[2])
			item.Total = normalize.Amount(m[3])
		} else {
			item.Total = normalize.Amount(m[2])
		}
	}
	return item
}
