package core

import (
	"context"

	"linkport/store/state"

	"github.com/shopspring/decimal"
)

// Route a trusted counterpart port on another chain
type Route struct {
	Chain uint64 `json:"chain"`
	Port  string `json:"port"`
}

// TokenMapping local asset equivalence on another chain
type TokenMapping struct {
	Asset  string `json:"asset"`
	Chain  uint64 `json:"chain"`
	Remote string `json:"remote"`
}

type IPortStore interface {
	SaveRoute(ctx context.Context, tx *state.Tx, route *Route) error
	// FindRoute returns "" when no port is registered for chain
	FindRoute(ctx context.Context, tx *state.Tx, chain uint64) (string, error)
	ListRoutes(ctx context.Context, tx *state.Tx) ([]*Route, error)

	SaveToken(ctx context.Context, tx *state.Tx, mapping *TokenMapping) error
	// FindToken returns "" when asset is not mapped for chain
	FindToken(ctx context.Context, tx *state.Tx, asset string, chain uint64) (string, error)
	// FindLocalToken reverse lookup of a remote asset, "" when missing
	FindLocalToken(ctx context.Context, tx *state.Tx, remote string, chain uint64) (string, error)
	ListTokens(ctx context.Context, tx *state.Tx) ([]*TokenMapping, error)

	SaveAsset(ctx context.Context, tx *state.Tx, asset *Asset) error
	// FindAsset returns an asset with only ID set when missing
	FindAsset(ctx context.Context, tx *state.Tx, id string) (*Asset, error)
	ListAssets(ctx context.Context, tx *state.Tx) ([]*Asset, error)

	NextNonce(ctx context.Context, tx *state.Tx) (uint64, error)
}

type (
	// LoanRequest Legs are local assets, mapped to DestChain when sent
	LoanRequest struct {
		DestChain        uint64          `json:"dest_chain"`
		CollateralAsset  string          `json:"collateral_asset"`
		CollateralAmount decimal.Decimal `json:"collateral_amount"`
		Legs             []Leg           `json:"legs"`
	}

	// RepayRequest Legs are local assets of the debt
	RepayRequest struct {
		SourceChain uint64 `json:"source_chain"`
		LoanID      string `json:"loan_id"`
		Legs        []Leg  `json:"legs"`
	}

	// BridgeRequest Path and MinOut are in destination assets
	BridgeRequest struct {
		DestChain uint64            `json:"dest_chain"`
		Asset     string            `json:"asset"`
		Amount    decimal.Decimal   `json:"amount"`
		Recipient string            `json:"recipient"`
		Path      []string          `json:"path,omitempty"`
		MinOut    []decimal.Decimal `json:"min_out,omitempty"`
	}
)

// IPortService the cross-chain port of one chain
type IPortService interface {
	IMessageHandler

	Chain() uint64
	Address() string

	SetPort(ctx context.Context, caller string, chain uint64, port string) error
	SetToken(ctx context.Context, caller, asset string, chain uint64, remote string) error
	SetAsset(ctx context.Context, caller string, asset *Asset) error
	SetTokenPrice(ctx context.Context, caller, asset string, price decimal.Decimal) error
	SetPriceFeed(ctx context.Context, caller, asset, feed string) error
	TopUpFee(ctx context.Context, from string, amount decimal.Decimal) error

	GetTokenPrice(ctx context.Context, asset string) (decimal.Decimal, error)
	QuoteFee(ctx context.Context, dest uint64, payload Payload) (decimal.Decimal, error)

	Loan(ctx context.Context, caller string, req *LoanRequest) (*Loan, error)
	Repay(ctx context.Context, caller string, req *RepayRequest) (*Debt, error)
	Bridge(ctx context.Context, caller string, req *BridgeRequest) (*Transfer, error)
	CancelLoan(ctx context.Context, caller, loanID string) error
	// CancelExpired requests cancellation of loans without a receipt past the lock timeout
	CancelExpired(ctx context.Context, limit int) (int, error)
	Liquidate(ctx context.Context, caller, loanID string) error
	// Health collateral value at the liquidation threshold over outstanding debt value
	Health(ctx context.Context, loanID string) (decimal.Decimal, error)

	// Flush hands pending outbound messages to the transport again
	Flush(ctx context.Context) (int, error)
}
