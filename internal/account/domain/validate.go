package domain

import (
	"regexp"
	"strings"
	"unicode"
)

const MinFullNameLen = 8

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FormatName collapses whitespace and title-cases each word. Idempotent:
// FormatName(FormatName(x)) == FormatName(x).
func FormatName(v string) string {
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return ""
	}
	for i, w := range fields {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		fields[i] = string(r)
	}
	return strings.Join(fields, " ")
}

func IsValidEmail(v string) bool {
	return emailRe.MatchString(v)
}

// IsStrongPassword requires at least 8 characters with a lowercase letter,
// an uppercase letter, and a digit.
func IsStrongPassword(v string) bool {
	if len([]rune(v)) < 8 {
		return false
	}
	var hasLower, hasUpper, hasDigit bool
	for _, r := range v {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLower && hasUpper && hasDigit
}

var emailKeyReplacer = strings.NewReplacer(
	".", ",",
	"#", "_",
	"$", "_",
	"[", "_",
	"]", "_",
	"/", "_",
)

// EmailKey converts a lowercased email into a key safe for the uniqueness
// index (no characters that key-value paths reject).
func EmailKey(emailLower string) string {
	return emailKeyReplacer.Replace(strings.ToLower(strings.TrimSpace(emailLower)))
}

// NormalizeEmail trims and lowercases an address for canonical comparison.
func NormalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
