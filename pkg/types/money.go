package types

import "github.com/shopspring/decimal"

// CurrencyPlaces is the precision amounts are rendered with.
const CurrencyPlaces = 2

// FormatAmount renders a decimal amount with fixed currency precision.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(CurrencyPlaces)
}

// ParseAmount parses an amount string, treating blank input as zero.
func ParseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
