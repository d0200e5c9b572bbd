package analyzer

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"3tcapital/facturas_sri/internal/core/normalize"
)

const amountPattern = `\$?\s*(?:usd)?\s*(\d[\d.,]*\d|\d)`

var (
	valorTotal = regexp.MustCompile(`valor\s+total\s*(?:usd)?\s*[:$]*\s*` + amountPattern)
	totalPagar = regexp.MustCompile(`total\s+a\s+pagar\s*[:$]*\s*` + amountPattern)
	plainTotal = regexp.MustCompile(`(?:^|[^a-z])total\s*(?:usd)?\s*[:$]*\s*` + amountPattern)
	subtotal   = regexp.MustCompile(`sub\s*total(?:\s+neto)?(?:\s+(?:sin\s+impuestos|\d{1,2}\s*%))?\s*[:$]*\s*` + amountPattern)
	ivaAmount  = regexp.MustCompile(`(?:^|[^a-z])iva\s*(?:\d{1,2}\s*%)?\s*[:$]*\s*` + amountPattern)

	// amountOnly is a line holding nothing but an amount, printed below its label.
	amountOnly = regexp.MustCompile(`^` + amountPattern + `\s*$`)
)

// amountLabel matches a labelled amount on one line, or the bare label with
// the amount on the following line.
type amountLabel struct {
	inline *regexp.Regexp
	alone  *regexp.Regexp
}

// totalStrategies are ordered from the most explicit label to a bare TOTAL.
var totalStrategies = []amountLabel{
	{valorTotal, regexp.MustCompile(`^valor\s+total\s*(?:usd)?\s*[:$]*\s*$`)},
	{totalPagar, regexp.MustCompile(`^total\s+a\s+pagar\s*[:$]*\s*$`)},
	{plainTotal, regexp.MustCompile(`^total\s*(?:usd)?\s*[:$]*\s*$`)},
}

func extractAmounts(t *Text, a *Analysis) {
	notSubtotal := func(line string) bool {
		return strings.Contains(line, "sub")
	}
	for _, label := range totalStrategies {
		if v, ok := lastAmount(t.Folded, label, notSubtotal); ok {
			a.Total = v
			break
		}
	}
	if v, ok := lastAmount(t.Folded, amountLabel{inline: subtotal}, nil); ok {
		a.Subtotal = v
	}
	// IVA lines that carry a base ("subtotal iva 15%") are not tax amounts.
	skipBases := func(line string) bool {
		return strings.Contains(line, "sub") || strings.Contains(line, "base")
	}
	if v, ok := maxAmount(t.Folded, ivaAmount, skipBases); ok {
		a.Tax = v
	}
}

// lastAmount returns the amount of the last line matching label. Receipts
// print running totals before the final one.
func lastAmount(lines []string, label amountLabel, skip func(string) bool) (decimal.Decimal, bool) {
	found := false
	var value decimal.Decimal
	for i, line := range lines {
		if skip != nil && skip(line) {
			continue
		}
		if m := label.inline.FindStringSubmatch(line); m != nil {
			value = normalize.Amount(m[1])
			found = true
			continue
		}
		if label.alone == nil || i+1 >= len(lines) || !label.alone.MatchString(line) {
			continue
		}
		if m := amountOnly.FindStringSubmatch(lines[i+1]); m != nil {
			value = normalize.Amount(m[1])
			found = true
		}
	}
	return value, found
}

func maxAmount(lines []string, re *regexp.Regexp, skip func(string) bool) (decimal.Decimal, bool) {
	found := false
	value := decimal.Zero
	for _, line := range lines {
		if skip != nil && skip(line) {
			continue
		}
		for _, m := range re.FindAllStringSubmatch(line, -1) {
			v := normalize.Amount(m[1])
			if !found || v.GreaterThan(value) {
				value = v
			}
			found = true
		}
	}
	return value, found
}
