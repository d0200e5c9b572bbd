// Package normalize converts locale-ambiguous amounts and dates found in SRI
// documents and OCR text into canonical values.
package normalize

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// MaxAmount is the exclusive upper bound accepted for any monetary value.
// Values that reach it once rounded to whole units normalize to zero.
var MaxAmount = decimal.New(1, 12)

// Amount parses a monetary string such as "1.234,56", "1,234.56" or "425,50".
//
// When both separators are present the rightmost one is the decimal separator.
// A single comma is a decimal separator; repeated separators of one kind are
// thousands separators. The result is rounded to two places and is never
// negative. Unparseable or out of range input yields zero.
func Amount(raw string) decimal.Decimal {
	d, ok := parse(raw)
	if !ok {
		return decimal.Zero
	}
	return Clamp(d)
}

// Precise is Amount keeping six decimals, the precision SRI vouchers use for
// quantities and unit prices.
func Precise(raw string) decimal.Decimal {
	d, ok := parse(raw)
	if !ok {
		return decimal.Zero
	}
	d = d.Abs().Round(6)
	if d.Round(0).GreaterThanOrEqual(MaxAmount) {
		return decimal.Zero
	}
	return d
}

func parse(raw string) (decimal.Decimal, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == ',' || r == '.' {
			return r
		}
		return -1
	}, raw)
	cleaned = strings.Trim(cleaned, ".,")
	if cleaned == "" {
		return decimal.Zero, false
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(cleaned, ",") == 1 {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastDot >= 0:
		if strings.Count(cleaned, ".") > 1 {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Clamp rounds d to two places and applies the storage guards used by Amount:
// negative values become their magnitude and values that reach MaxAmount
// become zero.
func Clamp(d decimal.Decimal) decimal.Decimal {
	d = d.Abs().Round(2)
	if d.Round(0).GreaterThanOrEqual(MaxAmount) {
		return decimal.Zero
	}
	return d
}
