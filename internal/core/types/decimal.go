// Package types provides common value types shared by domain packages.
package types

import (
	"github.com/shopspring/decimal"
)

// Ratio is an exact decimal factor (forecast weights, percentages).
// Uses decimal.Decimal so that e.g. 100 * 0.3 is exactly 30.
type Ratio = decimal.Decimal

var hundred = decimal.NewFromInt(100)

// MustRatio creates a Ratio from a string, panics on error.
// Use only for constants.
func MustRatio(s string) Ratio {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// RatioFromFloat converts an API float into a Ratio using its shortest decimal form,
// so 0.3 becomes exactly 0.3 rather than its binary approximation.
func RatioFromFloat(f float64) Ratio {
	return decimal.NewFromFloat(f)
}

// CeilInt rounds d up to the next integer.
func CeilInt(d decimal.Decimal) int64 {
	return d.Ceil().IntPart()
}

// PercentOf returns value * percent / 100.
func PercentOf(value decimal.Decimal, percent Ratio) decimal.Decimal {
	return value.Mul(percent).Div(hundred)
}

// ParseRatio parses a decimal string.
func ParseRatio(s string) (Ratio, error) {
	return decimal.NewFromString(s)
}
