package util

import (
	"strings"
	"unicode/utf8"
)

const maxErrorMessageLen = 500

// SanitizeErrorMessage flattens a worker-supplied error message into a
// single line and caps its length so log pipelines and list responses stay
// bounded. The cap lands on a rune boundary.
func SanitizeErrorMessage(msg string) string {
	s := strings.ReplaceAll(msg, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxErrorMessageLen {
		cut := maxErrorMessageLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}
