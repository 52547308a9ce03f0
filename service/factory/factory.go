package factory

import (
	"context"
	"fmt"

	"linkport/core"
	"linkport/pkg/id"
	"linkport/pkg/number"
	"linkport/store/state"

	"github.com/fox-one/pkg/logger"
	"github.com/sirupsen/logrus"
)

type factory struct {
	address string
	pools   core.IPoolStore
	access  core.IAccessPolicy
}

// New pool factory deployed at address
func New(address string, pools core.IPoolStore, access core.IAccessPolicy) core.IPoolFactory {
	return &factory{
		address: address,
		pools:   pools,
		access:  access,
	}
}

// CreatePool one pool per asset, bound to port for good
func (f *factory) CreatePool(ctx context.Context, tx *state.Tx, caller, port, asset string, feeRate int64) (*core.Pool, error) {
	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"asset": asset,
		"port":  port,
	})

	if err := f.access.Require(ctx, caller, core.ScopeAdmin); err != nil {
		return nil, err
	}

	port, ok := core.NormalizeAddress(port)
	if !ok {
		return nil, fmt.Errorf("port: %w", core.ErrInvalidAddress)
	}

	asset, ok = core.NormalizeAddress(asset)
	if !ok {
		return nil, fmt.Errorf("asset: %w", core.ErrInvalidAddress)
	}

	if feeRate < 0 || feeRate >= number.BpsBase {
		return nil, core.ErrInvalidFeeRate
	}

	existing, err := f.pools.Find(ctx, tx, asset)
	if err != nil {
		log.WithError(err).Errorln("pools.Find")
		return nil, err
	}

	if existing.Exists() {
		return nil, fmt.Errorf("pool %s: %w", existing.Address, core.ErrPoolExists)
	}

	pool := &core.Pool{
		Address: id.PoolAddress(f.address, asset),
		Asset:   asset,
		Port:    port,
		FeeRate: feeRate,
	}

	if err := f.pools.Create(ctx, tx, pool); err != nil {
		log.WithError(err).Errorln("pools.Create")
		return nil, err
	}

	log.Infof("pool %s created, fee %d bps", pool.Address, feeRate)
	return pool, nil
}

func (f *factory) GetPool(ctx context.Context, tx *state.Tx, asset string) (*core.Pool, error) {
	return f.pools.Find(ctx, tx, asset)
}

func (f *factory) GetPoolAddress(ctx context.Context, tx *state.Tx, asset string) (string, error) {
	pool, err := f.pools.Find(ctx, tx, asset)
	if err != nil {
		return "", err
	}

	return pool.Address, nil
}

func (f *factory) ListPools(ctx context.Context, tx *state.Tx) ([]*core.Pool, error) {
	return f.pools.List(ctx, tx)
}
