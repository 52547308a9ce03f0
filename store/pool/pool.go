package pool

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"linkport/core"
	"linkport/store/state"
)

type poolStore struct{}

// New new pool store
func New() core.IPoolStore {
	return &poolStore{}
}

func poolKey(asset string) []byte {
	return state.Key("pool", strings.ToLower(asset))
}

func accountKey(asset, account string) []byte {
	return state.Key("pool_account", strings.ToLower(asset), strings.ToLower(account))
}

func (s *poolStore) Create(ctx context.Context, tx *state.Tx, pool *core.Pool) error {
	pool.Version = 1
	pool.CreatedAt = time.Now()
	pool.UpdatedAt = pool.CreatedAt
	return tx.PutJSON(poolKey(pool.Asset), pool)
}

func (s *poolStore) Update(ctx context.Context, tx *state.Tx, pool *core.Pool) error {
	pool.Version++
	pool.UpdatedAt = time.Now()
	return tx.PutJSON(poolKey(pool.Asset), pool)
}

func (s *poolStore) Find(ctx context.Context, tx *state.Tx, asset string) (*core.Pool, error) {
	var pool core.Pool
	if _, err := tx.GetJSON(poolKey(asset), &pool); err != nil {
		return nil, err
	}

	return &pool, nil
}

func (s *poolStore) List(ctx context.Context, tx *state.Tx) ([]*core.Pool, error) {
	var pools []*core.Pool
	err := tx.Iterate(state.Prefix("pool"), func(_, value []byte) error {
		var pool core.Pool
		if err := json.Unmarshal(value, &pool); err != nil {
			return err
		}
		pools = append(pools, &pool)
		return nil
	})

	return pools, err
}

func (s *poolStore) FindAccount(ctx context.Context, tx *state.Tx, asset, account string) (*core.PoolAccount, error) {
	acc := core.PoolAccount{
		Asset:   asset,
		Account: account,
	}

	if _, err := tx.GetJSON(accountKey(asset, account), &acc); err != nil {
		return nil, err
	}

	return &acc, nil
}

func (s *poolStore) SaveAccount(ctx context.Context, tx *state.Tx, account *core.PoolAccount) error {
	return tx.PutJSON(accountKey(account.Asset, account.Account), account)
}

func (s *poolStore) ListAccounts(ctx context.Context, tx *state.Tx, asset string) ([]*core.PoolAccount, error) {
	var accounts []*core.PoolAccount
	err := tx.Iterate(state.Prefix("pool_account", strings.ToLower(asset)), func(_, value []byte) error {
		var acc core.PoolAccount
		if err := json.Unmarshal(value, &acc); err != nil {
			return err
		}
		accounts = append(accounts, &acc)
		return nil
	})

	return accounts, err
}
