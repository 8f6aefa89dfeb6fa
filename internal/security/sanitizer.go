package security

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.StrictPolicy()

// MaxFieldLength caps free-text invoice fields (names, descriptions, notes)
const MaxFieldLength = 200

// SanitizeString removes potentially dangerous characters
func SanitizeString(input string) string {
	// Trim whitespace
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Limit length
	if len(input) > 1000 {
		input = truncateRunes(input, 1000)
	}

	return input
}

// SanitizeHTML removes all HTML tags
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// SanitizeField cleans operator input destined for a receipt: markup is
// stripped, control characters dropped, whitespace collapsed and the result
// capped at MaxFieldLength runes.
func SanitizeField(input string) string {
	// bluemonday escapes entities; receipts want the literal text back
	input = html.UnescapeString(SanitizeHTML(SanitizeString(input)))
	input = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, input)
	input = strings.Join(strings.Fields(input), " ")
	return truncateRunes(input, MaxFieldLength)
}

// ValidateFileType checks if file extension is allowed
func ValidateFileType(filename string, allowedTypes []string) bool {
	filename = strings.ToLower(filename)
	for _, ext := range allowedTypes {
		if strings.HasSuffix(filename, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// ValidateFileSize checks if file size is within limit
func ValidateFileSize(size int64, maxSize int64) bool {
	return size > 0 && size <= maxSize
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
