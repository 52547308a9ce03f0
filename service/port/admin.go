package port

import (
	"context"
	"fmt"

	"linkport/core"
	"linkport/store/state"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// admin run fn for a caller holding the admin scope
func (s *service) admin(ctx context.Context, caller string, fn func(tx *state.Tx) error) error {
	if err := s.access.Require(ctx, caller, core.ScopeAdmin); err != nil {
		return err
	}

	return s.db.Tx(fn)
}

// SetPort trust port as the counterpart on chain
func (s *service) SetPort(ctx context.Context, caller string, chain uint64, port string) error {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"chain": chain,
		"port":  port,
	})

	if chain == 0 || chain == s.cfg.Chain {
		return fmt.Errorf("chain %d: %w", chain, core.ErrOperationForbidden)
	}

	port, ok := core.NormalizeAddress(port)
	if !ok {
		return fmt.Errorf("port: %w", core.ErrInvalidAddress)
	}

	return s.admin(ctx, caller, func(tx *state.Tx) error {
		if err := s.ports.SaveRoute(ctx, tx, &core.Route{Chain: chain, Port: port}); err != nil {
			log.WithError(err).Errorln("ports.SaveRoute")
			return err
		}

		log.Infoln("route set")
		return nil
	})
}

func (s *service) SetToken(ctx context.Context, caller, asset string, chain uint64, remote string) error {
	asset, ok := core.NormalizeAddress(asset)
	if !ok {
		return fmt.Errorf("asset: %w", core.ErrInvalidAddress)
	}

	remote, ok = core.NormalizeAddress(remote)
	if !ok {
		return fmt.Errorf("remote: %w", core.ErrInvalidAddress)
	}

	return s.admin(ctx, caller, func(tx *state.Tx) error {
		return s.ports.SaveToken(ctx, tx, &core.TokenMapping{
			Asset:  asset,
			Chain:  chain,
			Remote: remote,
		})
	})
}

// SetAsset register symbol and decimals, the valuation source is kept
func (s *service) SetAsset(ctx context.Context, caller string, asset *core.Asset) error {
	assetID, ok := core.NormalizeAddress(asset.ID)
	if !ok {
		return fmt.Errorf("asset: %w", core.ErrInvalidAddress)
	}

	if asset.Decimals < 0 || asset.Decimals > 18 {
		return core.ErrInvalidPrecision
	}

	return s.admin(ctx, caller, func(tx *state.Tx) error {
		current, err := s.ports.FindAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}

		current.ID = assetID
		current.Symbol = asset.Symbol
		current.Decimals = asset.Decimals
		return s.ports.SaveAsset(ctx, tx, current)
	})
}

func (s *service) SetTokenPrice(ctx context.Context, caller, asset string, price decimal.Decimal) error {
	asset, ok := core.NormalizeAddress(asset)
	if !ok {
		return fmt.Errorf("asset: %w", core.ErrInvalidAddress)
	}

	if !price.IsPositive() || !core.FitsPrecision(price, 8) {
		return fmt.Errorf("price %s: %w", price, core.ErrInvalidPrice)
	}

	return s.admin(ctx, caller, func(tx *state.Tx) error {
		current, err := s.ports.FindAsset(ctx, tx, asset)
		if err != nil {
			return err
		}

		current.Price = price
		return s.ports.SaveAsset(ctx, tx, current)
	})
}

// SetPriceFeed an empty feed removes the registered one
func (s *service) SetPriceFeed(ctx context.Context, caller, asset, feed string) error {
	asset, ok := core.NormalizeAddress(asset)
	if !ok {
		return fmt.Errorf("asset: %w", core.ErrInvalidAddress)
	}

	return s.admin(ctx, caller, func(tx *state.Tx) error {
		current, err := s.ports.FindAsset(ctx, tx, asset)
		if err != nil {
			return err
		}

		current.Feed = feed
		return s.ports.SaveAsset(ctx, tx, current)
	})
}

// TopUpFee move fee asset from an account to the port
func (s *service) TopUpFee(ctx context.Context, from string, amount decimal.Decimal) error {
	return s.db.Tx(func(tx *state.Tx) error {
		return s.ledger.Transfer(ctx, tx, s.cfg.FeeAsset, from, s.cfg.Address, amount)
	})
}
