package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	entityPattern  = regexp.MustCompile(`&[^;]+;`)
	controlPattern = regexp.MustCompile(`[\x00-\x1F\x7F-\x9F]`)
)

// SanitizeText strips tag-like substrings, entity sequences and C0/C1 control
// characters, then trims surrounding whitespace. It never fails.
func SanitizeText(in string) string {
	if in == "" {
		return ""
	}
	return strings.TrimSpace(stripUnsafe(in))
}

// SanitizeEmail trims and lower-cases. Empty input yields nil. No validation.
func SanitizeEmail(in string) *string {
	if in == "" {
		return nil
	}
	out := strings.ToLower(strings.TrimSpace(in))
	return &out
}

// StripRatio reports the fraction of characters SanitizeText would delete,
// ignoring surrounding whitespace.
func StripRatio(in string) float64 {
	total := utf8.RuneCountInString(in)
	if total == 0 {
		return 0
	}
	kept := utf8.RuneCountInString(stripUnsafe(in))
	return float64(total-kept) / float64(total)
}

func stripUnsafe(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = entityPattern.ReplaceAllString(s, "")
	return controlPattern.ReplaceAllString(s, "")
}
