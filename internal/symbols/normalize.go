// Package symbols canonicalizes ticker strings.
//
// The canonical form is the join key shared by every importer, repository and
// summary view, so the same rules must apply on every write and every lookup.
package symbols

import (
	"strings"
	"unicode"
)

// Normalize returns the canonical form of a ticker: surrounding whitespace
// trimmed, internal whitespace removed, letters upper-cased. Class and exchange
// suffixes (BRK.B, RDS-A, BRK/B) are kept as written.
//
// Normalize is idempotent. Blank input returns "", callers must reject it.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsSpace(r) || r == '\uFEFF' {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// IsBlank reports whether raw normalizes to nothing or to a placeholder dash.
func IsBlank(raw string) bool {
	n := Normalize(raw)
	return n == "" || n == "-" || n == "--"
}
