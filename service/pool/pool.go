package pool

import (
	"context"
	"fmt"

	"linkport/core"
	"linkport/pkg/number"
	"linkport/store/state"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// MinInitialDeposit smallest first deposit of a pool, it fixes the initial exchange rate
	MinInitialDeposit decimal.Decimal `json:"min_initial_deposit"`
}

var (
	// DefaultMinInitialDeposit applies when MinInitialDeposit is not positive
	DefaultMinInitialDeposit = decimal.New(1, -4)

	// maxRoundingLossBps deposits losing more than this to share truncation are refused
	maxRoundingLossBps = decimal.NewFromInt(1)
)

type service struct {
	pools  core.IPoolStore
	ledger core.ILedger
	cfg    Config
}

// New pool share accounting service
func New(pools core.IPoolStore, ledger core.ILedger, cfg Config) core.IPoolService {
	if !cfg.MinInitialDeposit.IsPositive() {
		cfg.MinInitialDeposit = DefaultMinInitialDeposit
	}

	return &service{
		pools:  pools,
		ledger: ledger,
		cfg:    cfg,
	}
}

func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}

	if !core.FitsPrecision(amount, core.SharePrecision) {
		return core.ErrInvalidPrecision
	}

	return nil
}

func (s *service) Deposit(ctx context.Context, tx *state.Tx, pool *core.Pool, account string, amount decimal.Decimal) (decimal.Decimal, error) {
	if core.IsNative(pool.Asset) {
		return decimal.Zero, core.ErrNativeAsset
	}

	return s.deposit(ctx, tx, pool, account, amount)
}

func (s *service) DepositNative(ctx context.Context, tx *state.Tx, pool *core.Pool, account string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !core.IsNative(pool.Asset) {
		return decimal.Zero, core.ErrNotNativePool
	}

	return s.deposit(ctx, tx, pool, account, amount)
}

func (s *service) deposit(ctx context.Context, tx *state.Tx, pool *core.Pool, account string, amount decimal.Decimal) (decimal.Decimal, error) {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"pool":    pool.Asset,
		"account": account,
	})

	if !pool.Exists() {
		return decimal.Zero, core.ErrPoolNotFound
	}

	if err := checkAmount(amount); err != nil {
		return decimal.Zero, err
	}

	var shares decimal.Decimal
	if pool.TotalShares.IsZero() {
		if amount.LessThan(s.cfg.MinInitialDeposit) {
			return decimal.Zero, fmt.Errorf("first deposit %s under %s: %w", amount, s.cfg.MinInitialDeposit, core.ErrMinimumDeposit)
		}
		shares = amount
	} else {
		assets := pool.TotalAssets()
		if !assets.IsPositive() {
			return decimal.Zero, core.ErrPoolInsolvent
		}

		shares = number.MulDiv(amount, pool.TotalShares, assets, core.SharePrecision)
		if !shares.IsPositive() {
			return decimal.Zero, fmt.Errorf("deposit %s mints no shares: %w", amount, core.ErrInvalidAmount)
		}

		value := shares.Mul(assets).Div(pool.TotalShares)
		if loss := amount.Sub(value); loss.Mul(decimal.NewFromInt(number.BpsBase)).GreaterThan(amount.Mul(maxRoundingLossBps)) {
			return decimal.Zero, fmt.Errorf("deposit %s loses %s to share rounding: %w", amount, loss, core.ErrInvalidAmount)
		}
	}

	if err := s.ledger.Transfer(ctx, tx, pool.Asset, account, pool.Address, amount); err != nil {
		return decimal.Zero, err
	}

	acc, err := s.pools.FindAccount(ctx, tx, pool.Asset, account)
	if err != nil {
		log.WithError(err).Errorln("pools.FindAccount")
		return decimal.Zero, err
	}

	acc.Shares = acc.Shares.Add(shares)
	if err := s.pools.SaveAccount(ctx, tx, acc); err != nil {
		log.WithError(err).Errorln("pools.SaveAccount")
		return decimal.Zero, err
	}

	pool.TotalShares = pool.TotalShares.Add(shares)
	pool.Cash = pool.Cash.Add(amount)
	if err := s.pools.Update(ctx, tx, pool); err != nil {
		log.WithError(err).Errorln("pools.Update")
		return decimal.Zero, err
	}

	log.Debugf("deposit %s, minted %s shares", amount, shares)
	return shares, nil
}

// Withdraw burns shares at the pre fee rate, the fee stays in the pool
func (s *service) Withdraw(ctx context.Context, tx *state.Tx, pool *core.Pool, account string, shares decimal.Decimal) (decimal.Decimal, error) {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"pool":    pool.Asset,
		"account": account,
	})

	if !pool.Exists() {
		return decimal.Zero, core.ErrPoolNotFound
	}

	if err := checkAmount(shares); err != nil {
		return decimal.Zero, err
	}

	acc, err := s.pools.FindAccount(ctx, tx, pool.Asset, account)
	if err != nil {
		log.WithError(err).Errorln("pools.FindAccount")
		return decimal.Zero, err
	}

	if acc.Shares.LessThan(shares) {
		return decimal.Zero, fmt.Errorf("has %s shares, withdraw %s: %w", acc.Shares, shares, core.ErrInsufficientShares)
	}

	assets := pool.TotalAssets()
	gross := number.MulDiv(shares, assets, pool.TotalShares, core.SharePrecision)
	fee := decimal.Min(number.Bps(gross, pool.FeeRate, core.SharePrecision), gross)
	net := gross.Sub(fee)

	if net.GreaterThan(pool.Cash) {
		return decimal.Zero, fmt.Errorf("payout %s over free balance %s: %w", net, pool.Cash, core.ErrInsufficientLiquidity)
	}

	remaining := number.MulDiv(acc.Shares.Sub(shares), assets.Sub(net), pool.TotalShares.Sub(shares), core.SharePrecision)
	if remaining.LessThan(acc.Locked) {
		return decimal.Zero, fmt.Errorf("remaining %s under locked %s: %w", remaining, acc.Locked, core.ErrInsufficientCollateral)
	}

	if net.IsPositive() {
		if err := s.ledger.Transfer(ctx, tx, pool.Asset, pool.Address, account, net); err != nil {
			log.WithError(err).Errorln("ledger.Transfer")
			return decimal.Zero, err
		}
	}

	acc.Shares = acc.Shares.Sub(shares)
	if err := s.pools.SaveAccount(ctx, tx, acc); err != nil {
		log.WithError(err).Errorln("pools.SaveAccount")
		return decimal.Zero, err
	}

	pool.TotalShares = pool.TotalShares.Sub(shares)
	pool.Cash = pool.Cash.Sub(net)
	if err := s.pools.Update(ctx, tx, pool); err != nil {
		log.WithError(err).Errorln("pools.Update")
		return decimal.Zero, err
	}

	log.Debugf("withdraw %s shares, paid %s, fee %s", shares, net, fee)
	return net, nil
}

// Withdrawable unlocked share value capped by the free balance, before fees
func (s *service) Withdrawable(ctx context.Context, tx *state.Tx, pool *core.Pool, account string) (decimal.Decimal, error) {
	acc, err := s.pools.FindAccount(ctx, tx, pool.Asset, account)
	if err != nil {
		return decimal.Zero, err
	}

	free := pool.SharesValue(acc.Shares).Sub(acc.Locked)
	if free.IsNegative() {
		return decimal.Zero, nil
	}

	return decimal.Min(free, pool.Cash), nil
}
