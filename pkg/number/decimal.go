package number

import (
	"github.com/shopspring/decimal"
)

// BpsBase 100% in basis points
const BpsBase = 10000

// Decimal parse v, malformed input is zero
func Decimal(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

func Ceil(d decimal.Decimal, precision int32) decimal.Decimal {
	return d.Shift(precision).Ceil().Shift(-precision)
}

// Bps the bps share of amount, rounded up to precision
func Bps(amount decimal.Decimal, bps int64, precision int32) decimal.Decimal {
	return Ceil(amount.Mul(decimal.NewFromInt(bps)).Div(decimal.NewFromInt(BpsBase)), precision)
}

// MulDiv a * b / c truncated to precision, zero when c is zero
func MulDiv(a, b, c decimal.Decimal, precision int32) decimal.Decimal {
	if c.IsZero() {
		return decimal.Zero
	}

	return a.Mul(b).Div(c).Truncate(precision)
}
