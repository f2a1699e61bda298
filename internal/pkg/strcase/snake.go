// Package strcase converts Go identifiers to the snake_case names used on the
// wire.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts an identifier to lower snake_case. Acronyms stay in
// one word: "HTTPServer" becomes "http_server" and "UserID" becomes "user_id".
// Characters other than letters and digits are copied as they are.
func ToLowerSnake(s string) string {
	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && wordStart(runes, i) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// wordStart reports whether the upper case rune at i begins a new word.
func wordStart(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}

	// last upper of an acronym followed by a lower case word
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
