package transfer

import (
	"context"
	"testing"
	"time"

	"linkport/core"
	"linkport/store/state"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferStore(t *testing.T) {
	ctx := context.Background()
	db := state.OpenMemory()
	defer db.Close()

	s := New()
	const (
		alice = "0x1111111111111111111111111111111111111111"
		bob   = "0x2222222222222222222222222222222222222222"
		carol = "0x3333333333333333333333333333333333333333"
	)

	now := time.Now()
	require.Nil(t, db.Tx(func(tx *state.Tx) error {
		transfers := []*core.Transfer{
			{ID: "a", Sender: alice, Recipient: alice, Amount: decimal.NewFromInt(1), Status: core.TransferStatusSent, CreatedAt: now.Add(-time.Minute)},
			{ID: "b", Sender: bob, Recipient: alice, Amount: decimal.NewFromInt(2), Status: core.TransferStatusSwapped, CreatedAt: now},
			{ID: "c", Sender: bob, Recipient: bob, Amount: decimal.NewFromInt(3), Status: core.TransferStatusDelivered},
		}
		for _, transfer := range transfers {
			if err := s.Save(ctx, tx, transfer); err != nil {
				return err
			}
		}
		return nil
	}))

	require.Nil(t, db.View(func(tx *state.Tx) error {
		b, err := s.Find(ctx, tx, "b")
		require.Nil(t, err)
		assert.True(t, b.Exists())
		assert.Equal(t, core.TransferStatusSwapped, b.Status)
		assert.Equal(t, "2", b.Amount.String())

		all, err := s.List(ctx, tx, "", 0)
		require.Nil(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "c", all[0].ID)

		// sender or recipient, case insensitive
		mine, err := s.List(ctx, tx, "0X1111111111111111111111111111111111111111", 10)
		require.Nil(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, "b", mine[0].ID)

		bobs, err := s.List(ctx, tx, bob, 1)
		require.Nil(t, err)
		assert.Len(t, bobs, 1)

		none, err := s.List(ctx, tx, carol, 0)
		require.Nil(t, err)
		assert.Empty(t, none)

		missing, err := s.Find(ctx, tx, "x")
		require.Nil(t, err)
		assert.False(t, missing.Exists())
		return nil
	}))
}
