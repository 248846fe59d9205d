package utils

import (
	"strings"
	"unicode/utf8"
)

// CleanUTF8 removes or replaces invalid UTF8 characters from a string
// Returns the cleaned string and a boolean indicating if cleaning was needed
func CleanUTF8(input string) (string, bool) {
	needsCleaning := strings.Contains(input, "\x00") || !utf8.ValidString(input)

	if !needsCleaning {
		return input, false
	}

	cleaned := strings.ToValidUTF8(input, "")
	cleaned = strings.ReplaceAll(cleaned, "\x00", "")

	return cleaned, true
}

// CleanText strips invalid UTF8 and collapses runs of whitespace.
func CleanText(input string) string {
	cleaned, _ := CleanUTF8(input)
	return strings.Join(strings.Fields(cleaned), " ")
}

// NormalizePlate upper-cases a licence plate and removes inner spacing so
// "abc 123" and "ABC123" compare equal.
func NormalizePlate(input string) string {
	cleaned, _ := CleanUTF8(input)
	return strings.ToUpper(strings.Join(strings.Fields(cleaned), ""))
}
