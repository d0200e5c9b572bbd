package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical date format used across the service.
const DateLayout = "2006-01-02"

var spanishMonths = map[string]time.Month{
	"enero":      time.January,
	"ene":        time.January,
	"febrero":    time.February,
	"feb":        time.February,
	"marzo":      time.March,
	"mar":        time.March,
	"abril":      time.April,
	"abr":        time.April,
	"mayo":       time.May,
	"may":        time.May,
	"junio":      time.June,
	"jun":        time.June,
	"julio":      time.July,
	"jul":        time.July,
	"agosto":     time.August,
	"ago":        time.August,
	"septiembre": time.September,
	"setiembre":  time.September,
	"sep":        time.September,
	"sept":       time.September,
	"set":        time.September,
	"octubre":    time.October,
	"oct":        time.October,
	"noviembre":  time.November,
	"nov":        time.November,
	"diciembre":  time.December,
	"dic":        time.December,
}

var (
	isoDate     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:$|[t\s])`)
	slashedYMD  = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})(?:$|\s)`)
	numericDMY  = regexp.MustCompile(`^(\d{1,2})\s*[/\-.]\s*(\d{1,2})\s*[/\-.]\s*(\d{4})(?:$|\D)`)
	monthName   = regexp.MustCompile(`^(\d{1,2})\s*(?:[/\-.\s]|de)\s*([a-z]+)\.?\s*(?:[/\-.\s]|de|del)\s*(\d{4})(?:$|\D)`)
	genericForm = []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"02/01/2006 15:04:05",
		"January 2, 2006",
		"Jan 2, 2006",
		"2 January 2006",
		"02 Jan 2006",
		"20060102",
	}
)

// Date converts raw into YYYY-MM-DD. It accepts ISO dates, DD/MM/YYYY,
// DD-MM-YYYY, day/month-name/year with Spanish month names (accents and case
// ignored) and a few generic layouts. The boolean is false when nothing
// matches; no date is ever invented.
func Date(raw string) (string, bool) {
	t, ok := ParseDate(raw)
	if !ok {
		return "", false
	}
	return t.Format(DateLayout), true
}

// ParseDate is Date returning a time.Time in UTC.
func ParseDate(raw string) (time.Time, bool) {
	s := Spaces(Fold(raw))
	if s == "" {
		return time.Time{}, false
	}

	if m := isoDate.FindStringSubmatch(s); m != nil {
		return build(m[1], m[2], m[3])
	}
	if m := slashedYMD.FindStringSubmatch(s); m != nil {
		return build(m[1], m[2], m[3])
	}
	if m := numericDMY.FindStringSubmatch(s); m != nil {
		return build(m[3], m[2], m[1])
	}
	if m := monthName.FindStringSubmatch(s); m != nil {
		month, ok := spanishMonths[m[2]]
		if !ok {
			return time.Time{}, false
		}
		return build(m[3], strconv.Itoa(int(month)), m[1])
	}

	original := strings.TrimSpace(raw)
	for _, layout := range genericForm {
		if t, err := time.Parse(layout, original); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// build rejects impossible calendar dates such as 31/02.
func build(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil || y < 1900 || y > 2999 {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}
