// utils/text.go
package utils

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText trims surrounding whitespace and brings the string into
// Unicode NFC, so "Müller" typed with a combining diaeresis compares
// equal to the precomposed form.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ParseIntOrZero coerces a column value to an integer. Empty or
// unparsable input yields 0.
func ParseIntOrZero(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
