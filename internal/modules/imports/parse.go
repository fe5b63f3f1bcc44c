package imports

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aristath/portwatch/internal/domain"
	"github.com/shopspring/decimal"
)

const bom = "\uFEFF"

// isNoValue reports whether a cell means "no value"
func isNoValue(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "-" || s == "--" || strings.EqualFold(s, "n/a")
}

// parseDecimal parses a numeric cell, stripping $, % and thousands separators.
// No-value sentinels return nil without error.
func parseDecimal(raw string) (*decimal.Decimal, error) {
	if isNoValue(raw) {
		return nil, nil
	}
	cleaned := strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(strings.TrimSpace(raw))
	// Accounting negatives, e.g. (12.50)
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = "-" + strings.Trim(cleaned, "()")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", strings.TrimSpace(raw))
	}
	return &d, nil
}

// parseShares parses a share quantity which must be positive
func parseShares(raw string) (decimal.Decimal, error) {
	d, err := parseDecimal(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quantity %q", strings.TrimSpace(raw))
	}
	if d == nil {
		return decimal.Zero, fmt.Errorf("missing quantity")
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("shares must be positive, got %s", d.String())
	}
	return *d, nil
}

// parseInt parses a whole number, tolerating a zero fractional part such as "3.0"
func parseInt(raw string) (*int64, error) {
	d, err := parseDecimal(raw)
	if err != nil || d == nil {
		return nil, err
	}
	if !d.Equal(d.Truncate(0)) {
		return nil, fmt.Errorf("invalid integer %q", strings.TrimSpace(raw))
	}
	v := d.IntPart()
	return &v, nil
}

var gradePattern = regexp.MustCompile(`^[A-F][+-]?$`)

// parseGrade returns an uppercased letter grade, or nil for anything else
func parseGrade(raw string) *string {
	g := strings.ToUpper(strings.TrimSpace(raw))
	if !gradePattern.MatchString(g) {
		return nil
	}
	return &g
}

// parseRiskTag matches the three known tags case-insensitively; anything else is unset
func parseRiskTag(raw string) *domain.RiskTag {
	for _, tag := range []domain.RiskTag{domain.RiskAggressive, domain.RiskModerate, domain.RiskCautious} {
		if strings.EqualFold(strings.TrimSpace(raw), string(tag)) {
			t := tag
			return &t
		}
	}
	return nil
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"Jan 2, 2006",
	"January 2, 2006",
	time.RFC3339,
}

// parseDate accepts the date formats seen in rating exports
func parseDate(raw string) (*time.Time, error) {
	if isNoValue(raw) {
		return nil, nil
	}
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", s)
}

// optionalText trims a text cell, returning nil for no-value sentinels
func optionalText(raw string) *string {
	if isNoValue(raw) {
		return nil
	}
	s := strings.TrimSpace(raw)
	return &s
}

// normalizeHeader lowercases a column header and drops spaces, dots and a BOM
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, bom)
	return strings.ToLower(strings.NewReplacer(" ", "", ".", "", "_", "").Replace(strings.TrimSpace(h)))
}

// headerIndex maps normalized header names to column positions
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// cell returns the value of the first matching column, or ""
func cell(record []string, idx map[string]int, names ...string) string {
	for _, name := range names {
		if i, ok := idx[name]; ok && i < len(record) {
			return record[i]
		}
	}
	return ""
}

// has reports whether any of names is a column
func has(idx map[string]int, names ...string) bool {
	for _, name := range names {
		if _, ok := idx[name]; ok {
			return true
		}
	}
	return false
}
