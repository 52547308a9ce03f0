package port

import (
	"context"
	"testing"

	"linkport/core"
	"linkport/store/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenMapping(t *testing.T) {
	ctx := context.Background()
	db := state.OpenMemory()
	defer db.Close()

	s := New()
	const (
		chain   uint64 = 16015286601757825753
		usdt           = "0xdAC17F958D2ee523a2206206994597C13D831ec7"
		remote1        = "0x1111111111111111111111111111111111111111"
		remote2        = "0x2222222222222222222222222222222222222222"
	)

	require.Nil(t, db.Tx(func(tx *state.Tx) error {
		if err := s.SaveToken(ctx, tx, &core.TokenMapping{Asset: usdt, Chain: chain, Remote: remote1}); err != nil {
			return err
		}
		return s.SaveToken(ctx, tx, &core.TokenMapping{Asset: usdt, Chain: chain, Remote: remote2})
	}))

	require.Nil(t, db.View(func(tx *state.Tx) error {
		remote, err := s.FindToken(ctx, tx, usdt, chain)
		require.Nil(t, err)
		assert.Equal(t, remote2, remote)

		local, err := s.FindLocalToken(ctx, tx, remote2, chain)
		require.Nil(t, err)
		assert.Equal(t, usdt, local)

		stale, err := s.FindLocalToken(ctx, tx, remote1, chain)
		require.Nil(t, err)
		assert.Empty(t, stale)

		missing, err := s.FindToken(ctx, tx, usdt, chain+1)
		require.Nil(t, err)
		assert.Empty(t, missing)
		return nil
	}))
}

func TestRoutesAndNonce(t *testing.T) {
	ctx := context.Background()
	db := state.OpenMemory()
	defer db.Close()

	s := New()
	require.Nil(t, db.Tx(func(tx *state.Tx) error {
		if err := s.SaveRoute(ctx, tx, &core.Route{Chain: 1, Port: "0xA"}); err != nil {
			return err
		}

		for i := uint64(1); i <= 3; i++ {
			n, err := s.NextNonce(ctx, tx)
			require.Nil(t, err)
			assert.Equal(t, i, n)
		}
		return nil
	}))

	require.Nil(t, db.View(func(tx *state.Tx) error {
		port, err := s.FindRoute(ctx, tx, 1)
		require.Nil(t, err)
		assert.Equal(t, "0xA", port)

		port, err = s.FindRoute(ctx, tx, 2)
		require.Nil(t, err)
		assert.Empty(t, port)
		return nil
	}))
}
