package core

import (
	"context"

	"linkport/store/state"

	"github.com/shopspring/decimal"
)

// ILedger token balances on one chain, the native currency included
type ILedger interface {
	Balance(ctx context.Context, tx *state.Tx, asset, account string) (decimal.Decimal, error)
	Transfer(ctx context.Context, tx *state.Tx, asset, from, to string, amount decimal.Decimal) error
	Mint(ctx context.Context, tx *state.Tx, asset, to string, amount decimal.Decimal) error
}
