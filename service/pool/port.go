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

// operations below are restricted to the pool's bound port

func (s *service) authorize(pool *core.Pool, caller string, amount decimal.Decimal) error {
	if !pool.Exists() {
		return core.ErrPoolNotFound
	}

	if !core.SameAddress(caller, pool.Port) {
		return fmt.Errorf("%s is not the port of pool %s: %w", caller, pool.Asset, core.ErrUnauthorizedCaller)
	}

	return checkAmount(amount)
}

func (s *service) update(ctx context.Context, tx *state.Tx, pool *core.Pool, acc *core.PoolAccount) error {
	if acc != nil {
		if err := s.pools.SaveAccount(ctx, tx, acc); err != nil {
			logger.FromContext(ctx).WithError(err).Errorln("pools.SaveAccount")
			return err
		}
	}

	if err := s.pools.Update(ctx, tx, pool); err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("pools.Update")
		return err
	}

	return nil
}

func (s *service) Lock(ctx context.Context, tx *state.Tx, pool *core.Pool, caller, account string, amount decimal.Decimal) error {
	if err := s.authorize(pool, caller, amount); err != nil {
		return err
	}

	if amount.GreaterThan(pool.Cash) {
		return fmt.Errorf("lock %s over free balance %s: %w", amount, pool.Cash, core.ErrInsufficientLiquidity)
	}

	acc, err := s.pools.FindAccount(ctx, tx, pool.Asset, account)
	if err != nil {
		return err
	}

	if equity := pool.SharesValue(acc.Shares).Sub(acc.Locked); equity.LessThan(amount) {
		return fmt.Errorf("lock %s over unlocked equity %s: %w", amount, equity, core.ErrInsufficientCollateral)
	}

	acc.Locked = acc.Locked.Add(amount)
	pool.Cash = pool.Cash.Sub(amount)
	pool.Locked = pool.Locked.Add(amount)

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"pool":    pool.Asset,
		"account": account,
	}).Debugf("lock %s", amount)
	return s.update(ctx, tx, pool, acc)
}

func (s *service) Unlock(ctx context.Context, tx *state.Tx, pool *core.Pool, caller, account string, amount decimal.Decimal) error {
	if err := s.authorize(pool, caller, amount); err != nil {
		return err
	}

	acc, err := s.pools.FindAccount(ctx, tx, pool.Asset, account)
	if err != nil {
		return err
	}

	if amount.GreaterThan(acc.Locked) {
		return fmt.Errorf("unlock %s over locked %s: %w", amount, acc.Locked, core.ErrInsufficientLocked)
	}

	acc.Locked = acc.Locked.Sub(amount)
	pool.Locked = pool.Locked.Sub(amount)
	pool.Cash = pool.Cash.Add(amount)

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"pool":    pool.Asset,
		"account": account,
	}).Debugf("unlock %s", amount)
	return s.update(ctx, tx, pool, acc)
}

// Seize removes locked funds from the pool and burns the owner's shares worth them
func (s *service) Seize(ctx context.Context, tx *state.Tx, pool *core.Pool, caller, account, to string, amount decimal.Decimal) error {
	if err := s.authorize(pool, caller, amount); err != nil {
		return err
	}

	acc, err := s.pools.FindAccount(ctx, tx, pool.Asset, account)
	if err != nil {
		return err
	}

	if amount.GreaterThan(acc.Locked) {
		return fmt.Errorf("seize %s over locked %s: %w", amount, acc.Locked, core.ErrInsufficientLocked)
	}

	burn := number.Ceil(amount.Mul(pool.TotalShares).Div(pool.TotalAssets()), core.SharePrecision)
	burn = decimal.Min(burn, acc.Shares)

	if err := s.ledger.Transfer(ctx, tx, pool.Asset, pool.Address, to, amount); err != nil {
		return err
	}

	acc.Shares = acc.Shares.Sub(burn)
	acc.Locked = acc.Locked.Sub(amount)
	pool.TotalShares = pool.TotalShares.Sub(burn)
	pool.Locked = pool.Locked.Sub(amount)

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"pool":    pool.Asset,
		"account": account,
	}).Infof("seize %s to %s, burned %s shares", amount, to, burn)
	return s.update(ctx, tx, pool, acc)
}

func (s *service) Lend(ctx context.Context, tx *state.Tx, pool *core.Pool, caller, to string, amount decimal.Decimal) error {
	if err := s.payout(ctx, tx, pool, caller, to, amount); err != nil {
		return err
	}

	pool.Borrows = pool.Borrows.Add(amount)
	return s.update(ctx, tx, pool, nil)
}

func (s *service) Repay(ctx context.Context, tx *state.Tx, pool *core.Pool, caller, from string, amount decimal.Decimal) error {
	if err := s.collect(ctx, tx, pool, caller, from, amount); err != nil {
		return err
	}

	pool.Borrows = decimal.Max(pool.Borrows.Sub(amount), decimal.Zero)
	return s.update(ctx, tx, pool, nil)
}

func (s *service) Payout(ctx context.Context, tx *state.Tx, pool *core.Pool, caller, to string, amount decimal.Decimal) error {
	if err := s.payout(ctx, tx, pool, caller, to, amount); err != nil {
		return err
	}

	return s.update(ctx, tx, pool, nil)
}

func (s *service) Collect(ctx context.Context, tx *state.Tx, pool *core.Pool, caller, from string, amount decimal.Decimal) error {
	if err := s.collect(ctx, tx, pool, caller, from, amount); err != nil {
		return err
	}

	return s.update(ctx, tx, pool, nil)
}

func (s *service) payout(ctx context.Context, tx *state.Tx, pool *core.Pool, caller, to string, amount decimal.Decimal) error {
	if err := s.authorize(pool, caller, amount); err != nil {
		return err
	}

	if amount.GreaterThan(pool.Cash) {
		return fmt.Errorf("pay %s over free balance %s: %w", amount, pool.Cash, core.ErrInsufficientLiquidity)
	}

	if err := s.ledger.Transfer(ctx, tx, pool.Asset, pool.Address, to, amount); err != nil {
		return err
	}

	pool.Cash = pool.Cash.Sub(amount)
	return nil
}

func (s *service) collect(ctx context.Context, tx *state.Tx, pool *core.Pool, caller, from string, amount decimal.Decimal) error {
	if err := s.authorize(pool, caller, amount); err != nil {
		return err
	}

	if err := s.ledger.Transfer(ctx, tx, pool.Asset, from, pool.Address, amount); err != nil {
		return err
	}

	pool.Cash = pool.Cash.Add(amount)
	return nil
}
