package analyzer

import (
	"regexp"

	"3tcapital/facturas_sri/internal/core/normalize"
)

// dateCandidates finds date-looking substrings in folded text.
var dateCandidates = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`),
	regexp.MustCompile(`\b\d{1,2}\s*[/\-.]\s*\d{1,2}\s*[/\-.]\s*\d{4}\b`),
	regexp.MustCompile(`\b\d{1,2}\s+de\s+[a-z]+\s+(?:de|del)\s+\d{4}\b`),
	regexp.MustCompile(`\b\d{1,2}\s*[/\-\s]\s*[a-z]{3,10}\.?\s*[/\-\s]\s*\d{4}\b`),
}

// dateLabels are the labels whose date wins, most trusted first. Receipts
// often print several dates, and the authorization date is the one the SRI
// validated.
var dateLabels = []*regexp.Regexp{
	regexp.MustCompile(`fecha\s+(?:y\s+hora\s+)?de\s+autorizacion`),
	regexp.MustCompile(`fecha\s+(?:de\s+)?emision`),
	regexp.MustCompile(`\bfecha\b`),
}

func extractIssueDate(t *Text, a *Analysis) {
	for _, label := range dateLabels {
		for i, line := range t.Folded {
			loc := label.FindStringIndex(line)
			if loc == nil {
				continue
			}
			if d := firstDate(line[loc[1]:]); d != "" {
				a.IssueDate = d
				return
			}
			if i+1 < len(t.Folded) {
				if d := firstDate(t.Folded[i+1]); d != "" {
					a.IssueDate = d
					return
				}
			}
		}
	}
	for _, line := range t.Folded {
		if d := firstDate(line); d != "" {
			a.IssueDate = d
			return
		}
	}
}

// firstDate returns the leftmost candidate in s that normalizes to a real date.
func firstDate(s string) string {
	best, bestPos := "", -1
	for _, re := range dateCandidates {
		for _, loc := range re.FindAllStringIndex(s, -1) {
			d, ok := normalize.Date(s[loc[0]:loc[1]])
			if !ok {
				continue
			}
			if bestPos == -1 || loc[0] < bestPos {
				best, bestPos = d, loc[0]
			}
			break
		}
	}
	return best
}
