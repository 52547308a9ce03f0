package cmd

import (
	"context"
	"errors"
	"fmt"

	"linkport/core"
	"linkport/pkg/number"
	"linkport/store/state"

	"github.com/fox-one/pkg/logger"
	"github.com/sirupsen/logrus"
)

var bootstrapKey = state.Key("bootstrap")

// bootstrap apply the configured pools, routes, tokens and prices.
// Faucet mints and swap liquidity are only applied to a fresh state.
func bootstrap(ctx context.Context, n *node) error {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"chain": n.cfg.Selector,
		"name":  n.cfg.Name,
	})
	ctx = logger.WithContext(ctx, log)

	if len(cfg.Admins) == 0 {
		log.Infoln("no admin configured, skip bootstrap")
		return nil
	}
	caller := cfg.Admins[0]
	c := n.cfg

	if err := n.DB.Tx(func(tx *state.Tx) error {
		for _, p := range c.Pools {
			if _, err := n.Factory.CreatePool(ctx, tx, caller, c.Port, p.Asset, p.FeeRate); err != nil && !errors.Is(err, core.ErrPoolExists) {
				return fmt.Errorf("create pool %s: %w", p.Asset, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	for _, r := range c.Routes {
		if err := n.Port.SetPort(ctx, caller, r.Selector, r.Port); err != nil {
			return fmt.Errorf("set port %d: %w", r.Selector, err)
		}
	}

	for _, t := range c.Tokens {
		if err := n.Port.SetToken(ctx, caller, t.Local, t.Selector, t.Remote); err != nil {
			return fmt.Errorf("set token %s: %w", t.Local, err)
		}
	}

	for _, a := range c.Assets {
		asset := a.Asset()
		if err := n.Port.SetAsset(ctx, caller, asset); err != nil {
			return fmt.Errorf("set asset %s: %w", a.ID, err)
		}

		if asset.Price.IsPositive() {
			if err := n.Port.SetTokenPrice(ctx, caller, asset.ID, asset.Price); err != nil {
				return fmt.Errorf("set price %s: %w", a.ID, err)
			}
		}

		if asset.Feed != "" {
			if err := n.Port.SetPriceFeed(ctx, caller, asset.ID, asset.Feed); err != nil {
				return fmt.Errorf("set feed %s: %w", a.ID, err)
			}
		}
	}

	return n.DB.Tx(func(tx *state.Tx) error {
		done, err := tx.Get(bootstrapKey)
		if err != nil {
			return err
		}

		if len(done) > 0 {
			log.Debugln("state already seeded")
			return nil
		}

		for _, f := range c.Faucet {
			amount := number.Decimal(f.Amount)
			if err := n.Ledger.Mint(ctx, tx, f.Asset, f.Account, amount); err != nil {
				return fmt.Errorf("mint %s: %w", f.Asset, err)
			}

			if !f.Deposit {
				continue
			}

			pool, err := n.Factory.GetPool(ctx, tx, f.Asset)
			if err != nil {
				return err
			}

			if !pool.Exists() {
				return fmt.Errorf("deposit %s: %w", f.Asset, core.ErrPoolNotFound)
			}

			if core.IsNative(f.Asset) {
				_, err = n.PoolService.DepositNative(ctx, tx, pool, f.Account, amount)
			} else {
				_, err = n.PoolService.Deposit(ctx, tx, pool, f.Account, amount)
			}

			if err != nil {
				return fmt.Errorf("deposit %s: %w", f.Asset, err)
			}
		}

		for _, p := range c.SwapPairs {
			if _, err := n.router.AddLiquidity(ctx, tx, p.Provider, p.TokenA, p.TokenB, number.Decimal(p.AmountA), number.Decimal(p.AmountB)); err != nil {
				return fmt.Errorf("add liquidity %s/%s: %w", p.TokenA, p.TokenB, err)
			}
		}

		log.Infoln("state seeded")
		return tx.Put(bootstrapKey, []byte{1})
	})
}
