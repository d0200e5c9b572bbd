package invoice

import (
	"fmt"
	"strings"
)

// MatchField is one column of the composite duplicate key.
type MatchField string

const (
	MatchTaxID  MatchField = "tax_id"
	MatchNumber MatchField = "number"
	MatchDate   MatchField = "date"
	MatchTotal  MatchField = "total"
)

// MatchPolicy is the set of fields compared when a document has no access key.
type MatchPolicy []MatchField

var (
	// DefaultXMLPolicy is the fallback for XML documents without an access key.
	DefaultXMLPolicy = MatchPolicy{MatchTaxID, MatchNumber, MatchDate, MatchTotal}
	// DefaultOCRPolicy is applied to high confidence scans.
	DefaultOCRPolicy = MatchPolicy{MatchTaxID, MatchNumber, MatchTotal}
)

// ParseMatchPolicy reads a comma separated field list such as "tax_id,number,total".
func ParseMatchPolicy(csv string) (MatchPolicy, error) {
	var policy MatchPolicy
	seen := make(map[MatchField]bool)
	for _, part := range strings.Split(csv, ",") {
		f := MatchField(strings.ToLower(strings.TrimSpace(part)))
		if f == "" {
			continue
		}
		switch f {
		case MatchTaxID, MatchNumber, MatchDate, MatchTotal:
		default:
			return nil, fmt.Errorf("unknown match field %q", part)
		}
		if !seen[f] {
			seen[f] = true
			policy = append(policy, f)
		}
	}
	if len(policy) == 0 {
		return nil, fmt.Errorf("match policy requires at least one field")
	}
	return policy, nil
}

// Has reports whether f is part of the policy.
func (p MatchPolicy) Has(f MatchField) bool {
	for _, x := range p {
		if x == f {
			return true
		}
	}
	return false
}

// Usable reports whether doc carries every field the policy compares.
// Comparing on placeholders would collapse unrelated documents.
func (p MatchPolicy) Usable(doc *Document) bool {
	for _, f := range p {
		switch f {
		case MatchTaxID:
			if doc.Provider.TaxID == "" {
				return false
			}
		case MatchNumber:
			if doc.Number == "" || doc.Number == UnknownNumber {
				return false
			}
		case MatchDate:
			if doc.IssueDate.IsZero() {
				return false
			}
		case MatchTotal:
			if !doc.Totals.GrandTotal.IsPositive() {
				return false
			}
		}
	}
	return true
}

func (p MatchPolicy) String() string {
	parts := make([]string, len(p))
	for i, f := range p {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}
