package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"1234.56", "1234.56"},
		{"1234,56", "1234.56"},
		{"1.234,56", "1234.56"},
		{"1.234.567,89", "1234567.89"},
		{"  100  ", "100"},
		{"", "0"},
		{"abc", "0"},
		{"12,34,56", "0"},
	}
	for _, c := range cases {
		got := ParseDecimal(c.raw)
		if !got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("ParseDecimal(%q) = %s, want %s", c.raw, got, c.want)
		}
	}
}

func TestNormalizeCNPJ(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"12.345.678/0001-95", "12345678000195"},
		{"12345678000195", "12345678000195"},
		{" 12.345.678/0001-95 ", "12345678000195"},
		{"", ""},
		{"./-", ""},
	}
	for _, c := range cases {
		if got := NormalizeCNPJ(c.raw); got != c.want {
			t.Errorf("NormalizeCNPJ(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestStrPtr(t *testing.T) {
	if StrPtr("") != nil {
		t.Error("empty string must map to nil")
	}
	if StrPtr("  ") != nil {
		t.Error("blank string must map to nil")
	}
	if got := StrPtr("Campinas"); got == nil || *got != "Campinas" {
		t.Errorf("expected pointer to Campinas, got %v", got)
	}
}
