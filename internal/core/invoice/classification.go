package invoice

import (
	"fmt"
	"strings"
)

// ExpenseType is the reviewer's classification of a line item.
type ExpenseType string

const (
	ExpensePersonal ExpenseType = "PERSONAL"
	ExpenseActivity ExpenseType = "ACTIVIDAD"
	ExpenseNone     ExpenseType = "NINGUNO"
)

// Personal expense kinds deductible in the annual income tax return.
var PersonalKinds = []string{
	"VIVIENDA",
	"EDUCACION",
	"SALUD",
	"VESTIMENTA",
	"ALIMENTACION",
	"TURISMO",
}

// Classification marks a line item as a personal or business-activity expense.
type Classification struct {
	Personal     bool
	Activity     bool
	PersonalKind string
}

// NewClassification validates a reviewer request. The kind only applies to
// personal expenses and is discarded otherwise.
func NewClassification(tipo, subtipo string) (Classification, error) {
	switch ExpenseType(strings.ToUpper(strings.TrimSpace(tipo))) {
	case ExpensePersonal:
		kind := strings.ToUpper(strings.TrimSpace(subtipo))
		if kind != "" && !isPersonalKind(kind) {
			return Classification{}, fmt.Errorf("%w: subtipo %q no reconocido", ErrInvalidClassification, subtipo)
		}
		return Classification{Personal: true, PersonalKind: kind}, nil
	case ExpenseActivity:
		return Classification{Activity: true}, nil
	case ExpenseNone:
		return Classification{}, nil
	default:
		return Classification{}, fmt.Errorf("%w: tipo %q no reconocido", ErrInvalidClassification, tipo)
	}
}

// Type returns the expense type this classification represents.
func (c Classification) Type() ExpenseType {
	switch {
	case c.Personal:
		return ExpensePersonal
	case c.Activity:
		return ExpenseActivity
	default:
		return ExpenseNone
	}
}

func isPersonalKind(kind string) bool {
	for _, k := range PersonalKinds {
		if k == kind {
			return true
		}
	}
	return false
}
