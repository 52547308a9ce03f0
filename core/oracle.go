package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// IPriceOracle read only usd price source. The answer is a fixed point
// integer, the usd value is answer * 10^-decimals.
type IPriceOracle interface {
	Price(ctx context.Context, feed string) (answer decimal.Decimal, decimals int32, err error)
}
