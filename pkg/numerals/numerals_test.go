package numerals

import "testing"

func TestToDisplayDigits(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "Digits", input: "0123456789", want: "٠١٢٣٤٥٦٧٨٩"},
		{name: "Mixed text", input: "عيار 21", want: "عيار ٢١"},
		{name: "Separators pass through", input: "1,234.50", want: "١,٢٣٤.٥٠"},
		{name: "Empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToDisplayDigits(tt.input); got != tt.want {
				t.Errorf("ToDisplayDigits(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestToCanonicalDigits(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "Arabic-Indic", input: "٠١٢٣٤٥٦٧٨٩", want: "0123456789"},
		{name: "Persian", input: "۰۱۲۳۴۵۶۷۸۹", want: "0123456789"},
		{name: "Arabic separator kept", input: "١،٢٣٤", want: "1،234"},
		{name: "Letters pass through", input: "abc", want: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToCanonicalDigits(tt.input); got != tt.want {
				t.Errorf("ToCanonicalDigits(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDigitsRoundTrip(t *testing.T) {
	inputs := []string{"0", "1234567890", "1,234,567.89", "12.", ",,,", "9،999"}

	for _, input := range inputs {
		if got := ToCanonicalDigits(ToDisplayDigits(input)); got != input {
			t.Errorf("round trip of %q = %q", input, got)
		}
	}
}

func TestFormatThousands(t *testing.T) {
	tests := []struct {
		name  string
		input string
		sep   Separator
		want  string
	}{
		{name: "Millions western", input: "1234567", sep: WesternSeparator, want: "1,234,567"},
		{name: "Millions arabic", input: "1234567", sep: ArabicSeparator, want: "1،234،567"},
		{name: "Short integer", input: "123", sep: WesternSeparator, want: "123"},
		{name: "Exact group", input: "123456", sep: WesternSeparator, want: "123,456"},
		{name: "Truncate fraction", input: "12.3456", sep: WesternSeparator, want: "12.34"},
		{name: "Never rounds", input: "0.999", sep: WesternSeparator, want: "0.99"},
		{name: "Short fraction kept", input: "1000.5", sep: WesternSeparator, want: "1,000.5"},
		{name: "Trailing point kept", input: "1000.", sep: WesternSeparator, want: "1,000."},
		{name: "Arabic digits input", input: "١٢٣٤", sep: ArabicSeparator, want: "1،234"},
		{name: "Negative", input: "-1234.5", sep: WesternSeparator, want: "-1,234.5"},
		{name: "Empty", input: "", sep: WesternSeparator, want: ""},
		{name: "Not a number", input: "abc", sep: WesternSeparator, want: "abc"},
		{name: "Partial garbage", input: "12a", sep: WesternSeparator, want: "12a"},
		{name: "Trailing letters not grouped", input: "12345abc", sep: WesternSeparator, want: "12345abc"},
		{name: "Exponent is not a number", input: "1e5", sep: WesternSeparator, want: "1e5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatThousands(tt.input, tt.sep); got != tt.want {
				t.Errorf("FormatThousands(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatThousands_Idempotent(t *testing.T) {
	inputs := []string{"1234567.891", "12", "1000000", "-98765.4", "٩٨٧٦٥٤٣"}

	for _, sep := range []Separator{WesternSeparator, ArabicSeparator} {
		for _, input := range inputs {
			once := FormatThousands(input, sep)
			twice := FormatThousands(once, sep)
			if once != twice {
				t.Errorf("FormatThousands not idempotent for %q (%s): %q then %q", input, sep, once, twice)
			}
		}
	}
}

func TestLeadingNumber(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "12", want: "12"},
		{input: "12.", want: "12"},
		{input: ".5", want: "0.5"},
		{input: "-.5", want: "-0.5"},
		{input: "+3", want: "3"},
		{input: "12abc", want: "12"},
		{input: "1.2.3", want: "1.2"},
		{input: " ١،٢٠٠ ", want: "1200"},
		{input: "abc", want: ""},
		{input: "", want: ""},
		{input: "-", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := LeadingNumber(tt.input); got != tt.want {
				t.Errorf("LeadingNumber(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDigitsOnly(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "Mobile in Arabic digits", input: "٠١٠١٢٣٤٥٦٧٨٩٩", max: 11, want: "01012345678"},
		{name: "Strips separators", input: "1,250", max: 6, want: "1250"},
		{name: "No limit", input: "a1b2c3", max: 0, want: "123"},
		{name: "Piaster limit", input: "755", max: 2, want: "75"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DigitsOnly(tt.input, tt.max); got != tt.want {
				t.Errorf("DigitsOnly(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestLocaleFormat(t *testing.T) {
	if got := Arabic.Format("1234567.891"); got != "١،٢٣٤،٥٦٧.٨٩" {
		t.Errorf("Arabic.Format = %q", got)
	}
	if got := Western.Format("١٢٣٤"); got != "1,234" {
		t.Errorf("Western.Format = %q", got)
	}
	if got := Arabic.FormatAmount(1055.25); got != "١،٠٥٥.٢٥" {
		t.Errorf("Arabic.FormatAmount = %q", got)
	}
	if got := Western.FormatAmount(0); got != "0.00" {
		t.Errorf("Western.FormatAmount = %q", got)
	}
}

func TestParseLocale(t *testing.T) {
	for _, in := range []string{"arabic", "AR", " ar "} {
		if l, err := ParseLocale(in); err != nil || l != Arabic {
			t.Errorf("ParseLocale(%q) = %q, %v", in, l, err)
		}
	}
	if _, err := ParseLocale("klingon"); err == nil {
		t.Error("ParseLocale expected error for unknown locale")
	}
}

func TestIsDigit(t *testing.T) {
	for _, r := range "09٠٩۰۹" {
		if !IsDigit(r) {
			t.Errorf("IsDigit(%q) = false, want true", r)
		}
	}
	for _, r := range "a.,،٫ " {
		if IsDigit(r) {
			t.Errorf("IsDigit(%q) = true, want false", r)
		}
	}
}
