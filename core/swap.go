package core

import (
	"context"

	"linkport/store/state"

	"github.com/shopspring/decimal"
)

// Pair constant product pool of two assets
type Pair struct {
	Address  string          `json:"address"`
	Token0   string          `json:"token0"`
	Token1   string          `json:"token1"`
	Reserve0 decimal.Decimal `json:"reserve0"`
	Reserve1 decimal.Decimal `json:"reserve1"`
}

func (p *Pair) Exists() bool {
	return p != nil && p.Address != ""
}

// SwapRequest Path starts with the input asset, MinOut is empty or one per hop
type SwapRequest struct {
	Payer     string
	Recipient string
	Path      []string
	AmountIn  decimal.Decimal
	MinOut    []decimal.Decimal
}

type (
	IPairStore interface {
		Save(ctx context.Context, tx *state.Tx, pair *Pair) error
		// Find returns an empty pair when missing, tokens in any order
		Find(ctx context.Context, tx *state.Tx, a, b string) (*Pair, error)
		List(ctx context.Context, tx *state.Tx) ([]*Pair, error)
	}

	// ISwapRouter exact input swaps. On error the state is left untouched.
	ISwapRouter interface {
		SwapExactInput(ctx context.Context, tx *state.Tx, req *SwapRequest) (decimal.Decimal, error)
	}
)
