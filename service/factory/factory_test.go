package factory

import (
	"context"
	"testing"

	"linkport/core"
	"linkport/service/access"
	poolstore "linkport/store/pool"
	"linkport/store/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	admin   = "0xAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaa"
	port    = "0x9999999999999999999999999999999999999999"
	usdt    = "0xdAC17F958D2ee523a2206206994597C13D831ec7"
	mallory = "0x6666666666666666666666666666666666666666"
)

func newFactory() core.IPoolFactory {
	return New("0x8888888888888888888888888888888888888888", poolstore.New(), access.New(access.Config{Admins: []string{admin}}))
}

func TestCreatePool(t *testing.T) {
	ctx := context.Background()
	db := state.OpenMemory()
	defer db.Close()

	f := newFactory()

	var created *core.Pool
	require.Nil(t, db.Tx(func(tx *state.Tx) (err error) {
		created, err = f.CreatePool(ctx, tx, admin, port, usdt, 50)
		return
	}))
	assert.Equal(t, int64(50), created.FeeRate)
	assert.Equal(t, port, created.Port)

	err := db.Tx(func(tx *state.Tx) error {
		_, err := f.CreatePool(ctx, tx, admin, port, "0xdac17f958d2ee523a2206206994597c13d831ec7", 30)
		return err
	})
	assert.ErrorIs(t, err, core.ErrPoolExists)

	require.Nil(t, db.View(func(tx *state.Tx) error {
		pool, err := f.GetPool(ctx, tx, usdt)
		require.Nil(t, err)
		assert.Equal(t, created.Address, pool.Address)

		addr, err := f.GetPoolAddress(ctx, tx, usdt)
		require.Nil(t, err)
		assert.Equal(t, created.Address, addr)

		pools, err := f.ListPools(ctx, tx)
		require.Nil(t, err)
		assert.Len(t, pools, 1)
		return nil
	}))
}

func TestGetMissingPool(t *testing.T) {
	ctx := context.Background()
	db := state.OpenMemory()
	defer db.Close()

	f := newFactory()
	require.Nil(t, db.View(func(tx *state.Tx) error {
		pool, err := f.GetPool(ctx, tx, core.NativeAsset)
		require.Nil(t, err)
		assert.False(t, pool.Exists())

		addr, err := f.GetPoolAddress(ctx, tx, core.NativeAsset)
		require.Nil(t, err)
		assert.Empty(t, addr)
		return nil
	}))
}

func TestCreatePoolValidation(t *testing.T) {
	ctx := context.Background()
	db := state.OpenMemory()
	defer db.Close()

	f := newFactory()
	cases := []struct {
		name    string
		caller  string
		port    string
		asset   string
		feeRate int64
		err     error
	}{
		{"not admin", mallory, port, usdt, 50, core.ErrOperationForbidden},
		{"bad port", admin, "port", usdt, 50, core.ErrInvalidAddress},
		{"bad asset", admin, port, "usdt", 50, core.ErrInvalidAddress},
		{"negative fee", admin, port, usdt, -1, core.ErrInvalidFeeRate},
		{"full fee", admin, port, usdt, 10000, core.ErrInvalidFeeRate},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := db.Tx(func(tx *state.Tx) error {
				_, err := f.CreatePool(ctx, tx, c.caller, c.port, c.asset, c.feeRate)
				return err
			})
			assert.ErrorIs(t, err, c.err)
		})
	}
}
