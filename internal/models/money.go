package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Money travels as JSON numbers, the way purchasing clients send prices back.
	decimal.MarshalJSONWithoutQuotes = true
}

// RoundMoney rounds to 2 decimals, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// NormalizeName is the canonical lookup key for product names: trimmed and case-folded.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
