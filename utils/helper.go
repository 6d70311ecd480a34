package utils

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var nonDigits = regexp.MustCompile(`\D`)

// ParseDecimal parses a numeric cell/field tolerating the Brazilian
// comma decimal separator ("1.234,56" and "1234,56" both parse).
// Unparseable input yields zero, not an error; missing money fields are
// audited as zero rather than aborting the document or row.
func ParseDecimal(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// NormalizeCNPJ strips formatting from a CNPJ ("12.345.678/0001-95" -> digits).
func NormalizeCNPJ(raw string) string {
	return nonDigits.ReplaceAllString(strings.TrimSpace(raw), "")
}

// TrimmedOrEmpty collapses whitespace-only cells to "".
func TrimmedOrEmpty(raw string) string {
	return strings.TrimSpace(raw)
}

// FirstNonEmpty returns the first value that trims to something.
// Used for accented/unaccented spreadsheet header variants.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func StrPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
