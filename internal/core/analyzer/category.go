package analyzer

// Uncategorized is used when no keyword matches.
const Uncategorized = "SIN CLASIFICAR"

type categoryRule struct {
	category string
	keywords keywords
}

// categoryRules are evaluated in order; the first hit wins.
var categoryRules = []categoryRule{
	{"SERVICIOS PROFESIONALES", newKeywords("servicios legales", "honorarios", "asesoria", "consultoria")},
	{"SUPERMERCADO", newKeywords("supermaxi", "comisariato", "megamaxi", "tia", "aki", "gran aki", "santa maria", "coral hipermercados")},
	{"ALOJAMIENTO", newKeywords("hotel", "hospedaje", "hostal", "hosteria")},
	{"SALUD", newKeywords("farmacia", "fybeca", "sana sana", "medicamento", "clinica", "hospital", "laboratorio clinico", "consulta medica")},
	{"EDUCACION", newKeywords("colegio", "escuela", "universidad", "pension", "matricula", "libreria")},
	{"ALIMENTACION", newKeywords("restaurante", "restaurant", "cafeteria", "panaderia", "almuerzo", "menu")},
	{"VESTIMENTA", newKeywords("ropa", "calzado", "boutique", "textil", "camisa", "pantalon")},
	{"COMBUSTIBLE", newKeywords("gasolinera", "combustible", "diesel", "gasolina", "petroecuador", "primax")},
}

func extractCategory(t *Text, a *Analysis) {
	text := t.FoldedText()
	for _, rule := range categoryRules {
		if rule.keywords.in(text) {
			a.Category = rule.category
			return
		}
	}
	a.Category = Uncategorized
}

// Categorize classifies raw text with the keyword rules.
func Categorize(raw string) string {
	a := &Analysis{}
	extractCategory(NewText(raw), a)
	return a.Category
}
