package analyzer

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// compositeNumber is the SRI layout establishment-emission point-sequence.
	compositeNumber = regexp.MustCompile(`\b(\d{3})\s*[-–]\s*(\d{3})\s*[-–]\s*(\d{6,9})\b`)

	// numberPrefixLine is a line that ends right after "001-002", with the
	// sequence printed elsewhere in a larger font.
	numberPrefixLine = regexp.MustCompile(`\b(\d{3})\s*[-–]\s*(\d{3})\s*[-–]?\s*$`)
	labelledSequence = regexp.MustCompile(`(?:\bn\s*[o°º]\.?|\bno\.|\bnumero|#)\s*[:.]?\s*(\d{5,9})\b`)
	sequenceLine     = regexp.MustCompile(`^\s*[n°º#]*\s*(\d{5,9})\s*$`)

	labelledNumber = regexp.MustCompile(`(?:factura|nota\s+de\s+venta)\s*(?:n\s*[o°º]\.?|#|no\.)?\s*[:.]?\s*(\d{3}[-\s]?\d{3}[-\s]?\d{3,9}|\d{5,})`)
	looseNumber    = regexp.MustCompile(`\b\d{3}[-\s]\d{3}[-\s]?\d+\b`)

	authorizationNumber = regexp.MustCompile(`(?:\bautorizacion|\baut\.)(?:\s*(?:sri|n\s*[o°º]\.?|no\.|numero|#))*\s*[:.]?\s*(\d{6,})`)
	accessKeyLabel      = regexp.MustCompile(`clave\s+de\s+acceso`)
	digitRun            = regexp.MustCompile(`\d+`)
	leadingDigits       = regexp.MustCompile(`^(\d{6,})`)

	phoneHint = regexp.MustCompile(`\b(?:cel|telf?|telefono|fono|whatsapp)\b`)
)

// numberStrategies are tried in order of specificity.
var numberStrategies = []func(t *Text) string{
	compositeStrategy,
	splitRegionStrategy,
	labelledStrategy,
	looseStrategy,
}

func extractNumber(t *Text, a *Analysis) {
	for _, strategy := range numberStrategies {
		if n := strategy(t); n != "" {
			a.Number = n
			return
		}
	}
}

func compositeStrategy(t *Text) string {
	for _, line := range t.Folded {
		if m := compositeNumber.FindStringSubmatch(line); m != nil {
			return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
		}
	}
	return ""
}

// splitRegionStrategy joins a "001-002" prefix line with a sequence found
// on another line, either labelled (N° 0001234) or standing alone.
func splitRegionStrategy(t *Text) string {
	prefix := ""
	prefixLine := -1
	for i, line := range t.Folded {
		if m := numberPrefixLine.FindStringSubmatch(line); m != nil {
			prefix = m[1] + "-" + m[2]
			prefixLine = i
			break
		}
	}
	if prefix == "" {
		return ""
	}
	for i, line := range t.Folded {
		if i == prefixLine {
			continue
		}
		if m := labelledSequence.FindStringSubmatch(line); m != nil {
			return prefix + "-" + m[1]
		}
	}
	for i, line := range t.Folded {
		if i == prefixLine {
			continue
		}
		if m := sequenceLine.FindStringSubmatch(line); m != nil {
			return prefix + "-" + m[1]
		}
	}
	return ""
}

func labelledStrategy(t *Text) string {
	if m := labelledNumber.FindStringSubmatch(t.FoldedText()); m != nil {
		return strings.Join(strings.Fields(m[1]), "-")
	}
	return ""
}

// looseStrategy is the last resort; phone lines are skipped since mobile
// numbers share the shape.
func looseStrategy(t *Text) string {
	for _, line := range t.Folded {
		if phoneHint.MatchString(line) {
			continue
		}
		if m := looseNumber.FindString(line); m != "" {
			return strings.Join(strings.Fields(strings.ReplaceAll(m, "-", " ")), "-")
		}
	}
	return ""
}

func extractAuthorization(t *Text, a *Analysis) {
	for _, line := range t.Folded {
		if strings.Contains(line, "fecha") {
			continue
		}
		if m := authorizationNumber.FindStringSubmatch(line); m != nil {
			a.AuthorizationNumber = m[1]
			return
		}
	}
	// The label and the number are often split across two lines.
	for i, line := range t.Folded {
		if i+1 >= len(t.Folded) || strings.Contains(line, "fecha") {
			continue
		}
		if strings.Contains(line, "autorizacion") {
			if m := leadingDigits.FindStringSubmatch(strings.ReplaceAll(t.Folded[i+1], " ", "")); m != nil {
				a.AuthorizationNumber = m[1]
				return
			}
		}
	}
}

// extractAccessKey looks for the 44 to 50 digit key, first after its label
// and then anywhere once whitespace is removed.
func extractAccessKey(t *Text, a *Analysis) {
	for i, line := range t.Folded {
		if !accessKeyLabel.MatchString(line) {
			continue
		}
		end := i + 3
		if end > len(t.Folded) {
			end = len(t.Folded)
		}
		window := strings.Join(strings.Fields(strings.Join(t.Folded[i:end], " ")), "")
		if key := accessKeyIn(window); key != "" {
			a.AccessKey = key
			return
		}
	}
	a.AccessKey = accessKeyIn(t.Compact)
}

func accessKeyIn(s string) string {
	for _, run := range digitRun.FindAllString(s, -1) {
		if len(run) >= 44 && len(run) <= 50 {
			return run
		}
	}
	return ""
}
