// Package numerals converts between Western and Arabic-Indic digits and
// formats numbers with thousand separators for display.
//
// Every function here is total: it never panics and never returns an error.
// Text that is not a number is passed through unchanged.
package numerals

import (
	"regexp"
	"strconv"
	"strings"
)

// Separator is the thousands separator inserted by FormatThousands.
type Separator string

const (
	WesternSeparator Separator = ","
	ArabicSeparator  Separator = "،"
)

var (
	displayReplacer = strings.NewReplacer(
		"0", "٠", "1", "١", "2", "٢", "3", "٣", "4", "٤", "5", "٥", "6", "٦", "7", "٧", "8", "٨", "9", "٩",
	)

	// Persian digits are accepted on input too; operators type on both keyboards.
	canonicalReplacer = strings.NewReplacer(
		"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4", "٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
		"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4", "۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	)

	separatorReplacer = strings.NewReplacer(string(WesternSeparator), "", string(ArabicSeparator), "")

	plainNumber   = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
	leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)
)

// IsDigit reports whether r is a Western, Arabic-Indic or Persian digit.
func IsDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= '٠' && r <= '٩') || (r >= '۰' && r <= '۹')
}

// ToDisplayDigits maps Western digits to Arabic-Indic digits.
func ToDisplayDigits(s string) string {
	return displayReplacer.Replace(s)
}

// ToCanonicalDigits maps Arabic-Indic (and Persian) digits to Western digits.
func ToCanonicalDigits(s string) string {
	return canonicalReplacer.Replace(s)
}

// StripSeparators removes Western and Arabic thousand separators.
func StripSeparators(s string) string {
	return separatorReplacer.Replace(s)
}

// Canonicalize returns s with Western digits, no separators and no
// surrounding whitespace.
func Canonicalize(s string) string {
	return strings.TrimSpace(StripSeparators(ToCanonicalDigits(s)))
}

// IsNumber reports whether s, once canonicalized, is a plain decimal number.
func IsNumber(s string) bool {
	return plainNumber.MatchString(Canonicalize(s))
}

// LeadingNumber returns the numeric prefix of s the way a lenient float
// parser would read it, as a clean decimal literal ("12." -> "12",
// ".5" -> "0.5", "+3" -> "3"). It returns "" when s has no numeric prefix.
func LeadingNumber(s string) string {
	m := leadingNumber.FindString(Canonicalize(s))
	if m == "" {
		return ""
	}

	negative := false
	switch m[0] {
	case '-':
		negative = true
		m = m[1:]
	case '+':
		m = m[1:]
	}

	m = strings.TrimSuffix(m, ".")
	if strings.HasPrefix(m, ".") {
		m = "0" + m
	}
	if negative {
		return "-" + m
	}
	return m
}

// FormatThousands groups the integer part of s in threes with sep and
// truncates the fraction to at most two digits. Existing separators are
// removed first, so formatting twice gives the same result. The output uses
// Western digits. Empty input gives "", and input that is not a number is
// returned unchanged.
func FormatThousands(s string, sep Separator) string {
	if s == "" {
		return ""
	}

	clean := Canonicalize(s)
	if !plainNumber.MatchString(clean) {
		return s
	}

	sign := ""
	if clean[0] == '-' || clean[0] == '+' {
		if clean[0] == '-' {
			sign = "-"
		}
		clean = clean[1:]
	}

	intPart, fracPart, hasFrac := strings.Cut(clean, ".")
	grouped := groupDigits(intPart, string(sep))

	if !hasFrac {
		return sign + grouped
	}
	if len(fracPart) > 2 {
		fracPart = fracPart[:2]
	}
	return sign + grouped + "." + fracPart
}

func groupDigits(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}

	var sb strings.Builder
	head := len(digits) % 3
	if head > 0 {
		sb.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if sb.Len() > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}

// DigitsOnly keeps the digits of s (any script), converts them to Western
// digits and truncates the result to max digits when max > 0.
func DigitsOnly(s string, max int) string {
	canonical := ToCanonicalDigits(s)

	var sb strings.Builder
	count := 0
	for _, r := range canonical {
		if r < '0' || r > '9' {
			continue
		}
		if max > 0 && count == max {
			break
		}
		sb.WriteRune(r)
		count++
	}
	return sb.String()
}

// FormatFixed renders f with exactly two decimals.
func FormatFixed(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
