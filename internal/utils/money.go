package utils

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit amount to minor units, rounding half away
// from zero (19.995 -> 2000, 19.994 -> 1999).
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// ToMajorUnits converts minor units back to a major-unit float for JSON output.
func ToMajorUnits(minor int64) float64 {
	return decimal.NewFromInt(minor).Div(hundred).InexactFloat64()
}

// FormatMajor renders minor units as a fixed two-decimal string, e.g. "19.99".
func FormatMajor(minor int64) string {
	return decimal.NewFromInt(minor).Div(hundred).StringFixed(2)
}
