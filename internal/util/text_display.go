package util

import (
	"strings"
	"unicode/utf8"
)

// ShortMessage collapses whitespace and caps s at maxRunes, appending "..."
// when it had to cut.
func ShortMessage(s string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = 240
	}
	s = strings.Join(strings.Fields(SanitizeText(s)), " ")
	runes := []rune(s)
	if len(runes) > maxRunes {
		return strings.TrimSpace(string(runes[:maxRunes])) + "..."
	}
	return s
}

// TruncateUTF8 returns at most maxBytes of s without splitting a rune.
func TruncateUTF8(s string, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s, false
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true
}
