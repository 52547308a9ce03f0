package event

import (
	"context"
	"testing"

	"linkport/core"
	"linkport/store/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvents(t *testing.T) {
	ctx := context.Background()
	db := state.OpenMemory()
	defer db.Close()

	s := New()
	require.Nil(t, db.Tx(func(tx *state.Tx) error {
		for _, kind := range []core.EventKind{core.EventLoanRequested, core.EventMessageSent, core.EventLoanDelivered} {
			if err := s.Create(ctx, tx, &core.Event{Kind: kind}); err != nil {
				return err
			}
		}
		return nil
	}))

	require.Nil(t, db.View(func(tx *state.Tx) error {
		events, err := s.List(ctx, tx, 1, 0)
		require.Nil(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, uint64(2), events[0].Seq)
		assert.Equal(t, core.EventLoanDelivered, events[1].Kind)

		events, err = s.List(ctx, tx, 0, 1)
		require.Nil(t, err)
		assert.Len(t, events, 1)
		return nil
	}))
}
