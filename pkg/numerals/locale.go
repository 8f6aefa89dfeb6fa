package numerals

import (
	"fmt"
	"strings"
)

// Locale selects the digit set and thousands separator used for display.
type Locale string

const (
	Western Locale = "western"
	Arabic  Locale = "arabic"
)

// ParseLocale accepts "western"/"en" and "arabic"/"ar".
func ParseLocale(s string) (Locale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "western", "en", "latin":
		return Western, nil
	case "arabic", "ar":
		return Arabic, nil
	}
	return "", fmt.Errorf("unknown display locale %q", s)
}

// Separator returns the thousands separator of the locale.
func (l Locale) Separator() Separator {
	if l == Arabic {
		return ArabicSeparator
	}
	return WesternSeparator
}

// Digits maps every digit in s to the locale's digit set.
func (l Locale) Digits(s string) string {
	if l == Arabic {
		return ToDisplayDigits(ToCanonicalDigits(s))
	}
	return ToCanonicalDigits(s)
}

// Format groups thousands and maps digits for display.
func (l Locale) Format(s string) string {
	return l.Digits(FormatThousands(s, l.Separator()))
}

// FormatAmount renders a monetary float with two decimals for display.
func (l Locale) FormatAmount(f float64) string {
	return l.Format(FormatFixed(f))
}
