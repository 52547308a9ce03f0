package core

import (
	"context"
	"time"

	"linkport/store/state"

	"github.com/shopspring/decimal"
)

// SharePrecision shares and pool amounts are truncated to this many decimals
const SharePrecision int32 = 8

// Pool a per asset liquidity vault bound to one port
type Pool struct {
	Address     string          `json:"address"`
	Asset       string          `json:"asset"`
	Port        string          `json:"port"`
	FeeRate     int64           `json:"fee_rate"`
	TotalShares decimal.Decimal `json:"total_shares"`
	// free balance
	Cash    decimal.Decimal `json:"cash"`
	Locked  decimal.Decimal `json:"locked"`
	Borrows decimal.Decimal `json:"borrows"`
	Version int64           `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Exists pool lookups return an empty pool when missing
func (p *Pool) Exists() bool {
	return p != nil && p.Address != ""
}

// TotalAssets free + locked + lent out
func (p *Pool) TotalAssets() decimal.Decimal {
	return p.Cash.Add(p.Locked).Add(p.Borrows)
}

// ExchangeRate assets per share, one before the first deposit
func (p *Pool) ExchangeRate() decimal.Decimal {
	if !p.TotalShares.IsPositive() {
		return decimal.NewFromInt(1)
	}

	return p.TotalAssets().Div(p.TotalShares)
}

// SharesValue assets redeemable by shares before fees
func (p *Pool) SharesValue(shares decimal.Decimal) decimal.Decimal {
	if !p.TotalShares.IsPositive() {
		return decimal.Zero
	}

	return shares.Mul(p.TotalAssets()).Div(p.TotalShares).Truncate(SharePrecision)
}

// PoolAccount shares and collateral lock of one account
type PoolAccount struct {
	Asset   string          `json:"asset"`
	Account string          `json:"account"`
	Shares  decimal.Decimal `json:"shares"`
	Locked  decimal.Decimal `json:"locked"`
}

type (
	IPoolStore interface {
		Create(ctx context.Context, tx *state.Tx, pool *Pool) error
		// Update bumps the pool version
		Update(ctx context.Context, tx *state.Tx, pool *Pool) error
		// Find returns an empty pool when missing
		Find(ctx context.Context, tx *state.Tx, asset string) (*Pool, error)
		List(ctx context.Context, tx *state.Tx) ([]*Pool, error)
		// FindAccount returns a zero account when missing
		FindAccount(ctx context.Context, tx *state.Tx, asset, account string) (*PoolAccount, error)
		SaveAccount(ctx context.Context, tx *state.Tx, account *PoolAccount) error
		ListAccounts(ctx context.Context, tx *state.Tx, asset string) ([]*PoolAccount, error)
	}

	// IPoolService share accounting. Lock and the movements below it may only be
	// called by the pool's bound port.
	IPoolService interface {
		Deposit(ctx context.Context, tx *state.Tx, pool *Pool, account string, amount decimal.Decimal) (decimal.Decimal, error)
		DepositNative(ctx context.Context, tx *state.Tx, pool *Pool, account string, amount decimal.Decimal) (decimal.Decimal, error)
		Withdraw(ctx context.Context, tx *state.Tx, pool *Pool, account string, shares decimal.Decimal) (decimal.Decimal, error)
		Withdrawable(ctx context.Context, tx *state.Tx, pool *Pool, account string) (decimal.Decimal, error)

		Lock(ctx context.Context, tx *state.Tx, pool *Pool, caller, account string, amount decimal.Decimal) error
		Unlock(ctx context.Context, tx *state.Tx, pool *Pool, caller, account string, amount decimal.Decimal) error
		Seize(ctx context.Context, tx *state.Tx, pool *Pool, caller, account, to string, amount decimal.Decimal) error
		// Lend pays out free balance that stays counted as borrows until repaid
		Lend(ctx context.Context, tx *state.Tx, pool *Pool, caller, to string, amount decimal.Decimal) error
		Repay(ctx context.Context, tx *state.Tx, pool *Pool, caller, from string, amount decimal.Decimal) error
		// Payout and Collect move free balance without a debt
		Payout(ctx context.Context, tx *state.Tx, pool *Pool, caller, to string, amount decimal.Decimal) error
		Collect(ctx context.Context, tx *state.Tx, pool *Pool, caller, from string, amount decimal.Decimal) error
	}

	IPoolFactory interface {
		CreatePool(ctx context.Context, tx *state.Tx, caller, port, asset string, feeRate int64) (*Pool, error)
		// GetPool returns an empty pool when missing
		GetPool(ctx context.Context, tx *state.Tx, asset string) (*Pool, error)
		// GetPoolAddress returns "" when missing
		GetPoolAddress(ctx context.Context, tx *state.Tx, asset string) (string, error)
		ListPools(ctx context.Context, tx *state.Tx) ([]*Pool, error)
	}
)
