package entity

import (
	"strings"
	"unicode"
)

// CanonicalName converts an entity name to its lowercase snake_case form.
// CamelCase boundaries and runs of non-alphanumeric characters both become a
// single underscore; acronyms stay together (HTTPRequest -> http_request).
//
//	CanonicalName("WidgetOwner")  // widget_owner
//	CanonicalName("widget-owner") // widget_owner
//	CanonicalName(" Widget ")     // widget
func CanonicalName(s string) string {
	var b strings.Builder
	runes := []rune(s)
	sep := false

	write := func(r rune) {
		if sep && b.Len() > 0 {
			b.WriteByte('_')
		}
		sep = false
		b.WriteRune(unicode.ToLower(r))
	}

	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					sep = true
				}
			}
			write(r)
		case unicode.IsLetter(r), unicode.IsDigit(r):
			write(r)
		default:
			sep = true
		}
	}
	return b.String()
}

// SameName reports whether a and b name the same entity once canonicalised.
func SameName(a, b string) bool {
	return CanonicalName(a) == CanonicalName(b)
}
