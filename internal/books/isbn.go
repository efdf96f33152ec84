package books

import "strings"

// ValidateISBN normalizes and checksums an ISBN-10 or ISBN-13 string.
// Normalization keeps digits and X only and uppercases. The returned
// normalized form is produced even when the checksum fails, so callers can
// log the offending value.
func ValidateISBN(raw string) (normalized string, ok bool) {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if (r >= '0' && r <= '9') || r == 'X' {
			b.WriteRune(r)
		}
	}
	clean := b.String()

	switch {
	case isISBN10Shape(clean):
		sum := 0
		for i, c := range clean {
			digit := int(c - '0')
			if c == 'X' {
				digit = 10
			}
			sum += digit * (10 - i)
		}
		return clean, sum%11 == 0
	case isISBN13Shape(clean):
		sum := 0
		for i, c := range clean {
			weight := 1
			if i%2 == 1 {
				weight = 3
			}
			sum += int(c-'0') * weight
		}
		return clean, sum%10 == 0
	default:
		return clean, false
	}
}

// isISBN10Shape matches nine digits followed by a digit or X check digit.
func isISBN10Shape(s string) bool {
	if len(s) != 10 {
		return false
	}
	for i := 0; i < 9; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	last := s[9]
	return last == 'X' || (last >= '0' && last <= '9')
}

func isISBN13Shape(s string) bool {
	if len(s) != 13 {
		return false
	}
	for i := 0; i < 13; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
