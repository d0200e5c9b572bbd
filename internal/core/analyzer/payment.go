package analyzer

import (
	"regexp"
	"strings"
)

// keywords matches any of its words or phrases as whole words on folded
// text. A plural "s" or "es" suffix is accepted.
type keywords struct {
	re *regexp.Regexp
}

func newKeywords(words ...string) keywords {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(strings.TrimSpace(w))
	}
	return keywords{re: regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)(?:e?s)?\b`)}
}

func (k keywords) in(text string) bool {
	return k.re.MatchString(text)
}

var (
	cashKeywords       = newKeywords("efectivo", "sin utilizacion del sistema financiero")
	cardKeywords       = newKeywords("tarjeta", "credito", "debito", "visa", "mastercard", "diners", "datafast")
	electronicKeywords = newKeywords("transferencia", "deposito", "electronico", "payphone", "deuna")
	otherKeywords      = newKeywords("otros con utilizacion del sistema financiero", "cheque", "otros")
)

func extractPayment(t *Text, a *Analysis) {
	text := t.FoldedText()
	a.Payment.Cash = cashKeywords.in(text)
	a.Payment.Card = cardKeywords.in(text)
	a.Payment.Electronic = electronicKeywords.in(text)
	a.Payment.Other = otherKeywords.in(text)
}
